// Package monitor 是轮询循环的一步：读快照 -> 写入 Tracker -> 生成报表 -> 发布。
package monitor

import (
	"cmp"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"netmon/logger"
	"netmon/model"
	"netmon/procinfo"
	"netmon/sampler"
	"netmon/tracker"
)

// Row 是报表里的一行 (一个进程)
type Row struct {
	Pid     uint32          `json:"pid"`
	Name    string          `json:"name"`
	RxRate  model.ByteRate  `json:"rx_bps"`
	TxRate  model.ByteRate  `json:"tx_bps"`
	RxTotal model.ByteCount `json:"rx_total"`
	TxTotal model.ByteCount `json:"tx_total"`
}

// Report 是一次 tick 之后的只读结果，发布后不再修改
type Report struct {
	At      time.Time      `json:"at"`
	Tick    uint64         `json:"tick"`
	Window  time.Duration  `json:"window_ns"`
	Tracked int            `json:"tracked"`
	RxRate  model.ByteRate `json:"rx_bps"`
	TxRate  model.ByteRate `json:"tx_bps"`
	Rows    []Row          `json:"rows"`
}

// Find 按 PID 查找一行
func (r *Report) Find(pid uint32) (Row, bool) {
	for _, row := range r.Rows {
		if row.Pid == pid {
			return row, true
		}
	}
	return Row{}, false
}

// retainer 由带缓存的 Resolver 实现
type retainer interface {
	Retain(pids []uint32)
}

// Monitor 持有 Tracker，只能在一个 goroutine 里调用 Tick
type Monitor struct {
	src     sampler.Source
	tracker *tracker.Tracker
	names   procinfo.Resolver
	window  time.Duration
	latest  atomic.Pointer[Report]
}

func New(src sampler.Source, tr *tracker.Tracker, names procinfo.Resolver, window time.Duration) *Monitor {
	return &Monitor{src: src, tracker: tr, names: names, window: window}
}

// Tick 执行一次完整的采集
// 读取计数器失败时返回错误，Tracker 保持不变
func (m *Monitor) Tick(now time.Time) (*Report, error) {
	snapshot, err := sampler.Collect(m.src)
	if err != nil {
		return nil, fmt.Errorf("collecting snapshot: %w", err)
	}
	m.tracker.Ingest(snapshot, now)

	report := m.build(now)
	m.latest.Store(report)
	return report, nil
}

// Latest 返回最近一次发布的报表，第一次 tick 之前为 nil
// 可以在其他 goroutine 里调用
func (m *Monitor) Latest() *Report {
	return m.latest.Load()
}

func (m *Monitor) build(now time.Time) *Report {
	report := &Report{
		At:      now,
		Tick:    m.tracker.Ticks(),
		Window:  m.window,
		Tracked: m.tracker.Len(),
	}

	rates := m.tracker.ThroughputOverWindow(m.window, now)
	pids := make([]uint32, 0, len(rates))
	for _, th := range rates {
		pids = append(pids, th.Pid)

		name, err := m.names.Name(th.Pid)
		if err != nil {
			// 进程可能已经退出，跳过这一行
			logger.Debug("name lookup failed, omitting row", "pid", th.Pid, "error", err)
			continue
		}
		rx, _ := m.tracker.TotalReceived(th.Pid)
		tx, _ := m.tracker.TotalSent(th.Pid)

		report.Rows = append(report.Rows, Row{
			Pid:     th.Pid,
			Name:    name,
			RxRate:  th.Received,
			TxRate:  th.Sent,
			RxTotal: rx,
			TxTotal: tx,
		})
		report.RxRate = report.RxRate.Add(th.Received)
		report.TxRate = report.TxRate.Add(th.Sent)
	}

	if r, ok := m.names.(retainer); ok {
		r.Retain(pids)
	}

	// 按总速率降序，相同则按 PID
	slices.SortStableFunc(report.Rows, func(a, b Row) int {
		ra := a.RxRate.Float64() + a.TxRate.Float64()
		rb := b.RxRate.Float64() + b.TxRate.Float64()
		if c := cmp.Compare(rb, ra); c != 0 {
			return c
		}
		return cmp.Compare(a.Pid, b.Pid)
	})
	return report
}
