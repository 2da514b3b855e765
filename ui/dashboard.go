// Package ui 负责把 monitor.Report 画到终端上。
package ui

import (
	"context"
	"fmt"
	"slices"
	"time"

	termui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"netmon/history"
	"netmon/logger"
	"netmon/monitor"
)

// TickFunc 执行一次采集并返回报表
type TickFunc func(now time.Time) (*monitor.Report, error)

// sparklineSize 波形图保留的点数
const sparklineSize = 90

// dashboard 是 termui 界面
// 左上: 实时速率  右上: 累计总量  下方: 上传/下载波形
type dashboard struct {
	left, right *widgets.Table
	slTx, slRx  *widgets.Sparkline
	sgTx, sgRx  *widgets.SparklineGroup
	grid        *termui.Grid

	// 总速率历史，第一份报表到达后才创建
	txHistory *history.Ring[float64]
	rxHistory *history.Ring[float64]

	seen totalsBook
}

func newDashboard() *dashboard {
	d := &dashboard{seen: make(totalsBook)}

	d.left = widgets.NewTable()
	d.left.Title = " [ 🟢 实时监控 (TCP+UDP) ] "
	d.left.Rows = [][]string{liveHeader}
	d.left.TextStyle = termui.NewStyle(termui.ColorWhite)
	d.left.RowSeparator = false
	d.left.BorderStyle.Fg = termui.ColorGreen

	d.right = widgets.NewTable()
	d.right.Title = " [ 📊 累计统计 (按进程名聚合) ] "
	d.right.Rows = [][]string{totalsHeader}
	d.right.TextStyle = termui.NewStyle(termui.ColorWhite)
	d.right.RowSeparator = false
	d.right.BorderStyle.Fg = termui.ColorYellow

	d.slTx = widgets.NewSparkline()
	d.slTx.LineColor = termui.ColorYellow
	d.slTx.TitleStyle.Fg = termui.ColorYellow
	d.sgTx = widgets.NewSparklineGroup(d.slTx)
	d.sgTx.Title = " 上传趋势 "
	d.sgTx.BorderStyle.Fg = termui.ColorYellow

	d.slRx = widgets.NewSparkline()
	d.slRx.LineColor = termui.ColorGreen
	d.slRx.TitleStyle.Fg = termui.ColorGreen
	d.sgRx = widgets.NewSparklineGroup(d.slRx)
	d.sgRx.Title = " 下载趋势 "
	d.sgRx.BorderStyle.Fg = termui.ColorGreen

	// Row 1 (65%): 表格区, Row 2 (35%): 图表区
	d.grid = termui.NewGrid()
	d.grid.Set(
		termui.NewRow(0.65,
			termui.NewCol(0.5, d.left),
			termui.NewCol(0.5, d.right),
		),
		termui.NewRow(0.35,
			termui.NewCol(0.5, d.sgTx),
			termui.NewCol(0.5, d.sgRx),
		),
	)
	return d
}

// RunDashboard 初始化终端并运行事件循环，直到 ctx 取消或按下 q / Ctrl+C
func RunDashboard(ctx context.Context, interval time.Duration, tick TickFunc) error {
	if err := termui.Init(); err != nil {
		return fmt.Errorf("failed to init termui: %w", err)
	}
	defer termui.Close()

	d := newDashboard()
	termWidth, termHeight := termui.TerminalDimensions()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	step := func(now time.Time) {
		report, err := tick(now)
		if err != nil {
			logger.Error("tick failed", "error", err)
			return
		}
		d.update(report)
		termui.Render(d.grid)
	}
	step(time.Now())

	uiEvents := termui.PollEvents()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-uiEvents:
			if e.Type == termui.KeyboardEvent && (e.ID == "q" || e.ID == "<C-c>") {
				return nil
			}
			// 窗口大小改变时，重新计算布局
			if e.Type == termui.ResizeEvent {
				payload := e.Payload.(termui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				termui.Clear()
				termui.Render(d.grid)
			}
		case now := <-ticker.C:
			step(now)
		}
	}
}

// update 把报表填进各个组件
func (d *dashboard) update(report *monitor.Report) {
	d.pushRates(report)

	txData := slices.Collect(d.txHistory.All())
	rxData := slices.Collect(d.rxHistory.All())
	d.slTx.Data = txData
	d.slRx.Data = rxData

	d.sgTx.Title = fmt.Sprintf(" 上传趋势 (实时: %s | 峰值: %s/s) ",
		formatRate(report.TxRate), formatBytes(uint64(slices.Max(txData))))
	d.sgRx.Title = fmt.Sprintf(" 下载趋势 (实时: %s | 峰值: %s/s) ",
		formatRate(report.RxRate), formatBytes(uint64(slices.Max(rxData))))

	d.left.Rows = liveRows(report, d.left.Inner.Dy())
	d.seen.record(report)
	d.right.Rows = totalsRows(d.seen, d.right.Inner.Dy())
}

// pushRates 记录总速率，图表从左向右自然生长，满了以后丢掉最旧的点
func (d *dashboard) pushRates(report *monitor.Report) {
	tx, rx := report.TxRate.Float64(), report.RxRate.Float64()
	if d.txHistory == nil {
		d.txHistory = history.New(sparklineSize, tx)
		d.rxHistory = history.New(sparklineSize, rx)
		return
	}
	d.txHistory.Push(tx)
	d.rxHistory.Push(rx)
}
