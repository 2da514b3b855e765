// Package procinfo 把 PID 解析成进程名，只用于展示。
package procinfo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrNoName 表示进程存在但没有名字
var ErrNoName = errors.New("procinfo: empty process name")

// Resolver 返回 PID 对应的进程名
type Resolver interface {
	Name(pid uint32) (string, error)
}

// Gopsutil 通过 gopsutil (Linux 上读 /proc) 解析进程名，并按 PID 缓存
type Gopsutil struct {
	cache map[uint32]string
}

func NewGopsutil() *Gopsutil {
	return &Gopsutil{cache: make(map[uint32]string)}
}

func (g *Gopsutil) Name(pid uint32) (string, error) {
	if name, ok := g.cache[pid]; ok {
		return name, nil
	}

	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", fmt.Errorf("pid %d: %w", pid, err)
	}
	name, err := proc.Name()
	if err != nil {
		return "", fmt.Errorf("pid %d name: %w", pid, err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("pid %d: %w", pid, ErrNoName)
	}

	g.cache[pid] = name
	return name, nil
}

// Retain 只保留 pids 里的缓存，PID 被回收复用后不会拿到旧名字
func (g *Gopsutil) Retain(pids []uint32) {
	keep := make(map[uint32]struct{}, len(pids))
	for _, pid := range pids {
		keep[pid] = struct{}{}
	}
	for pid := range g.cache {
		if _, ok := keep[pid]; !ok {
			delete(g.cache, pid)
		}
	}
}

// Static 是固定表的 Resolver，用于测试
type Static map[uint32]string

func (s Static) Name(pid uint32) (string, error) {
	name, ok := s[pid]
	if !ok {
		return "", fmt.Errorf("pid %d: %w", pid, process.ErrorProcessNotRunning)
	}
	return name, nil
}
