package model

import (
	"encoding/json"
	"time"
)

// ByteCount 是字节数量 (有符号，64 位)
// 计数器来自内核的累计值，只用于做加减得到增量，不直接参与乘除
type ByteCount int64

// Add 返回两者之和
func (b ByteCount) Add(o ByteCount) ByteCount { return b + o }

// Sub 返回 b - o，即增量
func (b ByteCount) Sub(o ByteCount) ByteCount { return b - o }

// Int64 用于展示层
func (b ByteCount) Int64() int64 { return int64(b) }

// ByteRate 是速率 (Bytes per second)
// 只能通过 NewByteRate 构造，避免把字节数和速率混用
type ByteRate struct {
	bps float64
}

// NewByteRate 用 (增量, 耗时) 计算速率
// 耗时 <= 0 时返回 0，而不是除以 0 (不会出现 NaN / Inf)
// 增量为负 (计数器被重置或 PID 被复用) 时同样返回 0
func NewByteRate(delta ByteCount, elapsed time.Duration) ByteRate {
	if elapsed <= 0 || delta <= 0 {
		return ByteRate{}
	}
	return ByteRate{bps: float64(delta) / elapsed.Seconds()}
}

// Float64 返回每秒字节数
func (r ByteRate) Float64() float64 { return r.bps }

// IsZero 判断速率是否为 0
func (r ByteRate) IsZero() bool { return r.bps == 0 }

// Add 用于汇总多个进程的速率
func (r ByteRate) Add(o ByteRate) ByteRate { return ByteRate{bps: r.bps + o.bps} }

// MarshalJSON 输出每秒字节数
func (r ByteRate) MarshalJSON() ([]byte, error) { return json.Marshal(r.bps) }

// Sample 是某个进程在某一次 tick 的采样
// Received / Sent 是进程启动以来的累计值 (不是监控开始以来)
type Sample struct {
	Received ByteCount
	Sent     ByteCount
	At       time.Time
}

// Reading 对应计数器 Map 里的一条记录
type Reading struct {
	Pid      uint32
	Received ByteCount
	Sent     ByteCount
}

// Snapshot 是一次 tick 读到的全部记录
type Snapshot []Reading
