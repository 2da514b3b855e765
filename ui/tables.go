package ui

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"slices"

	"netmon/model"
	"netmon/monitor"
)

var (
	liveHeader   = []string{"PID", "进程名", "上传速率", "下载速率"}
	totalsHeader = []string{"进程名", "发送总量", "接收总量"}
)

// reservedRows 标题(1) + 分隔(1) + 汇总(1)
const reservedRows = 3

// liveRows 生成左侧实时表格 (report.Rows 已按速率排好序)
// height 是表格内部高度，用来插入空行，让汇总行固定在底部
func liveRows(report *monitor.Report, height int) [][]string {
	rows := [][]string{liveHeader}
	for _, r := range report.Rows {
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.Pid),
			r.Name,
			formatRate(r.TxRate),
			formatRate(r.RxRate),
		})
	}
	rows = padRows(rows, len(report.Rows), height, len(liveHeader))

	rows = append(rows, []string{"━━━━", "━━━━━━━━", "━━━━━━━━", "━━━━━━━━"})
	rows = append(rows, []string{
		fmt.Sprintf("活跃进程: %d", len(report.Rows)),
		"实时总计",
		"▲ " + formatRate(report.TxRate),
		"▼ " + formatRate(report.RxRate),
	})
	return rows
}

type nameTotal struct {
	Name    string
	TxTotal model.ByteCount
	RxTotal model.ByteCount
}

// seenKey 同一个 PID 换了进程名按新进程算
type seenKey struct {
	pid  uint32
	name string
}

// totalsBook 记录见过的每个进程最后一次的累计值，进程退出、被清理后仍然保留
type totalsBook map[seenKey]nameTotal

func (b totalsBook) record(report *monitor.Report) {
	for _, r := range report.Rows {
		b[seenKey{pid: r.Pid, name: r.Name}] = nameTotal{Name: r.Name, TxTotal: r.TxTotal, RxTotal: r.RxTotal}
	}
}

// aggregateByName 按进程名聚合累计值 (同名多进程合并)，按总量降序
func aggregateByName(items iter.Seq[nameTotal]) []nameTotal {
	byName := make(map[string]*nameTotal)
	for it := range items {
		item, ok := byName[it.Name]
		if !ok {
			item = &nameTotal{Name: it.Name}
			byName[it.Name] = item
		}
		item.TxTotal = item.TxTotal.Add(it.TxTotal)
		item.RxTotal = item.RxTotal.Add(it.RxTotal)
	}

	list := make([]nameTotal, 0, len(byName))
	for _, item := range byName {
		list = append(list, *item)
	}
	slices.SortFunc(list, func(a, b nameTotal) int {
		ta := a.TxTotal.Add(a.RxTotal)
		tb := b.TxTotal.Add(b.RxTotal)
		if c := cmp.Compare(tb, ta); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return list
}

// totalsRows 生成右侧累计表格，包含已经退出的进程
func totalsRows(book totalsBook, height int) [][]string {
	list := aggregateByName(maps.Values(book))

	var tx, rx model.ByteCount
	rows := [][]string{totalsHeader}
	for _, item := range list {
		rows = append(rows, []string{item.Name, formatCount(item.TxTotal), formatCount(item.RxTotal)})
		tx = tx.Add(item.TxTotal)
		rx = rx.Add(item.RxTotal)
	}
	rows = padRows(rows, len(list), height, len(totalsHeader))

	rows = append(rows, []string{"━━━━━━━━━━", "━━━━━━━━", "━━━━━━━━"})
	rows = append(rows, []string{
		fmt.Sprintf("进程数: %d", len(list)),
		"▲ " + formatCount(tx),
		"▼ " + formatCount(rx),
	})
	return rows
}

// padRows 数据行+预留行不足表格高度时补空行 (用空格填充，避免显示竖线)
func padRows(rows [][]string, dataRows, height, cols int) [][]string {
	if dataRows+reservedRows >= height {
		return rows
	}
	blank := make([]string, cols)
	for i := range blank {
		blank[i] = " "
	}
	for i := 0; i < height-dataRows-reservedRows; i++ {
		rows = append(rows, blank)
	}
	return rows
}
