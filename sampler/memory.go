package sampler

import (
	"errors"
	"fmt"
	"maps"
	"math/rand/v2"
	"os"
	"slices"

	"netmon/model"
)

// ErrNotFound 表示 PID 不在来源中
var ErrNotFound = errors.New("sampler: pid not found")

// Memory 是基于 map 的计数器来源，用于测试和 demo 模式
type Memory struct {
	records map[uint32][]byte
}

func NewMemory() *Memory {
	return &Memory{records: make(map[uint32][]byte)}
}

// Set 写入 64 位布局的记录
func (m *Memory) Set(pid uint32, received, sent model.ByteCount) {
	m.records[pid] = EncodeCounters(received, sent)
}

// SetRaw 直接写入原始字节 (可以是损坏的记录)
func (m *Memory) SetRaw(pid uint32, raw []byte) {
	m.records[pid] = raw
}

func (m *Memory) Delete(pid uint32) {
	delete(m.records, pid)
}

func (m *Memory) Keys() ([]uint32, error) {
	return slices.Sorted(maps.Keys(m.records)), nil
}

func (m *Memory) Lookup(pid uint32) ([]byte, error) {
	raw, ok := m.records[pid]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, pid)
	}
	return raw, nil
}

// Demo 模拟几个有流量的进程，不需要 root 权限就能跑通整条链路
// 用自己、父进程和 init 的 PID，这样进程名能正常解析
type Demo struct {
	mem    *Memory
	totals map[uint32][2]model.ByteCount
	rng    *rand.Rand
}

func NewDemo(seed uint64) *Demo {
	d := &Demo{
		mem:    NewMemory(),
		totals: make(map[uint32][2]model.ByteCount),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	for _, pid := range []int{1, os.Getppid(), os.Getpid()} {
		if pid > 0 {
			d.totals[uint32(pid)] = [2]model.ByteCount{}
		}
	}
	return d
}

// Keys 每次调用都相当于过了一个 tick，计数器随机增长
func (d *Demo) Keys() ([]uint32, error) {
	for pid, c := range d.totals {
		c[0] += model.ByteCount(d.rng.IntN(256 << 10))
		c[1] += model.ByteCount(d.rng.IntN(64 << 10))
		d.totals[pid] = c
		d.mem.Set(pid, c[0], c[1])
	}
	return d.mem.Keys()
}

func (d *Demo) Lookup(pid uint32) ([]byte, error) {
	return d.mem.Lookup(pid)
}
