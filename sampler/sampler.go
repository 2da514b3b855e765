// Package sampler 把计数器来源 (通常是 eBPF Map) 读成一份快照。
package sampler

import (
	"encoding/binary"
	"errors"
	"fmt"

	"netmon/logger"
	"netmon/model"
)

// ErrMalformedRecord 表示计数器记录长度不对
var ErrMalformedRecord = errors.New("sampler: malformed counter record")

// Source 是计数器来源
type Source interface {
	// Keys 返回当前被统计的 PID
	Keys() ([]uint32, error)
	// Lookup 返回 PID 对应的原始记录
	Lookup(pid uint32) ([]byte, error)
}

// 记录布局 (本机字节序):
//
//	8  字节: int32 received, int32 sent  (旧的 32 位布局)
//	16 字节: int64 received, int64 sent  (bpf/netmon.bpf.c 使用的布局)
const (
	record32Size = 8
	record64Size = 16
)

// DecodeCounters 解析一条记录
func DecodeCounters(raw []byte) (received, sent model.ByteCount, err error) {
	switch len(raw) {
	case record32Size:
		received = model.ByteCount(int32(binary.NativeEndian.Uint32(raw[0:4])))
		sent = model.ByteCount(int32(binary.NativeEndian.Uint32(raw[4:8])))
	case record64Size:
		received = model.ByteCount(int64(binary.NativeEndian.Uint64(raw[0:8])))
		sent = model.ByteCount(int64(binary.NativeEndian.Uint64(raw[8:16])))
	default:
		return 0, 0, fmt.Errorf("%w: %d bytes", ErrMalformedRecord, len(raw))
	}
	return received, sent, nil
}

// EncodeCounters 是 DecodeCounters 的逆操作 (64 位布局)，供内存来源使用
func EncodeCounters(received, sent model.ByteCount) []byte {
	raw := make([]byte, record64Size)
	binary.NativeEndian.PutUint64(raw[0:8], uint64(received))
	binary.NativeEndian.PutUint64(raw[8:16], uint64(sent))
	return raw
}

// Collect 读取一份完整快照
// Keys 失败时整个 tick 作废；单个 PID 读取或解析失败只跳过该 PID
func Collect(src Source) (model.Snapshot, error) {
	pids, err := src.Keys()
	if err != nil {
		return nil, fmt.Errorf("listing counter keys: %w", err)
	}

	snapshot := make(model.Snapshot, 0, len(pids))
	for _, pid := range pids {
		raw, err := src.Lookup(pid)
		if err != nil {
			logger.Warn("counter lookup failed, skipping pid", "pid", pid, "error", err)
			continue
		}
		rx, tx, err := DecodeCounters(raw)
		if err != nil {
			logger.Warn("counter decode failed, skipping pid", "pid", pid, "error", err)
			continue
		}
		snapshot = append(snapshot, model.Reading{Pid: pid, Received: rx, Sent: tx})
	}
	return snapshot, nil
}
