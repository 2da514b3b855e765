// Package tracker 维护每个进程的流量历史，并计算窗口速率和累计总量。
//
// Tracker 只由一个轮询循环持有，不加锁：
// 每次 tick 先 Ingest，再做只读查询，查询不会看到写了一半的快照。
package tracker

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"netmon/history"
	"netmon/model"
)

const (
	// DefaultCapacity 每个进程保留的样本数
	DefaultCapacity = 255
	// DefaultPruneEvery 每隔多少次 tick 清理一次已消失的进程
	DefaultPruneEvery = 10
)

// Throughput 是某个进程在窗口内的速率
type Throughput struct {
	Pid      uint32
	Received model.ByteRate
	Sent     model.ByteRate
}

// Tracker 是内存中的时间序列引擎
// Key: PID, Value: 该进程的样本环形缓冲区
type Tracker struct {
	perPid     map[uint32]*history.Ring[model.Sample]
	lastTick   time.Time
	ticks      uint64
	capacity   int
	pruneEvery uint64
}

// Option 配置 Tracker
type Option func(*Tracker)

// WithCapacity 设置每个进程的历史深度
func WithCapacity(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.capacity = n
		}
	}
}

// WithPruneEvery 设置清理周期 (单位: tick)
func WithPruneEvery(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.pruneEvery = uint64(n)
		}
	}
}

func New(opts ...Option) *Tracker {
	t := &Tracker{
		perPid:     make(map[uint32]*history.Ring[model.Sample]),
		capacity:   DefaultCapacity,
		pruneEvery: DefaultPruneEvery,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Ingest 写入一次快照
// 新 PID 创建历史，已有 PID 追加样本；每 pruneEvery 次 tick 清理一次不在本次快照里的 PID
// 样本时间单调不减：now 早于上一次 tick 时按上一次 tick 的时间记录
func (t *Tracker) Ingest(snapshot model.Snapshot, now time.Time) {
	if now.Before(t.lastTick) {
		now = t.lastTick
	}
	for _, r := range snapshot {
		s := model.Sample{Received: r.Received, Sent: r.Sent, At: now}
		if h, ok := t.perPid[r.Pid]; ok {
			h.Push(s)
			continue
		}
		t.perPid[r.Pid] = history.New(t.capacity, s)
	}

	t.lastTick = now
	t.ticks++
	if t.ticks%t.pruneEvery == 0 {
		t.prune()
	}
}

// prune 删除最新样本早于 lastTick 的 PID (即本次快照里没有出现)
func (t *Tracker) prune() {
	maps.DeleteFunc(t.perPid, func(_ uint32, h *history.Ring[model.Sample]) bool {
		return !h.Newest().At.Equal(t.lastTick)
	})
}

// Fresh 判断 PID 是否出现在最近一次快照中
func (t *Tracker) Fresh(pid uint32) bool {
	h, ok := t.perPid[pid]
	return ok && t.fresh(h)
}

func (t *Tracker) fresh(h *history.Ring[model.Sample]) bool {
	return h.Newest().At.Equal(t.lastTick)
}

// TotalReceived 返回 PID 最新的累计接收字节数
// 第二个返回值为 false 表示从未观测到该 PID
func (t *Tracker) TotalReceived(pid uint32) (model.ByteCount, bool) {
	h, ok := t.perPid[pid]
	if !ok {
		return 0, false
	}
	return h.Newest().Received, true
}

// TotalSent 返回 PID 最新的累计发送字节数
func (t *Tracker) TotalSent(pid uint32) (model.ByteCount, bool) {
	h, ok := t.perPid[pid]
	if !ok {
		return 0, false
	}
	return h.Newest().Sent, true
}

// ThroughputOverWindow 计算每个 fresh PID 在 window 内的速率，按 PID 升序返回
//
// 从最新样本往回扫描，直到 (包含) 第一个年龄超过 window 的样本。
// 历史深度不足 window 时，直接用最旧的样本，此时速率偏低。
// stale PID 不出现在结果里。
func (t *Tracker) ThroughputOverWindow(window time.Duration, now time.Time) []Throughput {
	out := make([]Throughput, 0, len(t.perPid))
	for pid, h := range t.perPid {
		if !t.fresh(h) {
			continue
		}
		out = append(out, windowRate(pid, h, window, now))
	}
	slices.SortFunc(out, func(a, b Throughput) int {
		return cmp.Compare(a.Pid, b.Pid)
	})
	return out
}

func windowRate(pid uint32, h *history.Ring[model.Sample], window time.Duration, now time.Time) Throughput {
	var newest, oldest model.Sample
	n := 0
	for s := range h.Backward() {
		if n == 0 {
			newest = s
		}
		oldest = s
		n++
		if now.Sub(s.At) > window {
			break
		}
	}

	if n < 2 {
		return Throughput{Pid: pid}
	}
	elapsed := newest.At.Sub(oldest.At)
	return Throughput{
		Pid:      pid,
		Received: model.NewByteRate(newest.Received.Sub(oldest.Received), elapsed),
		Sent:     model.NewByteRate(newest.Sent.Sub(oldest.Sent), elapsed),
	}
}

// Len 返回当前跟踪的 PID 数量 (包括 stale)
func (t *Tracker) Len() int { return len(t.perPid) }

// Ticks 返回已写入的快照次数
func (t *Tracker) Ticks() uint64 { return t.ticks }

func (t *Tracker) LastTick() time.Time { return t.lastTick }

// Pids 返回所有跟踪中的 PID (升序)
func (t *Tracker) Pids() []uint32 {
	return slices.Sorted(maps.Keys(t.perPid))
}
