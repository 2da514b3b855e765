//go:build linux

package probe

import (
	"errors"
	"fmt"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/rlimit"

	"netmon/logger"
)

// objects 与 bpf/netmon.bpf.c 里的程序和 Map 一一对应
// 字段形式与 bpf2go 生成的结构体相同
type objects struct {
	KprobeTcpSendmsg           *ebpf.Program `ebpf:"kprobe_tcp_sendmsg"`
	KprobeTcpCleanupRbuf       *ebpf.Program `ebpf:"kprobe_tcp_cleanup_rbuf"`
	KprobeUdpSendmsg           *ebpf.Program `ebpf:"kprobe_udp_sendmsg"`
	KprobeUdpRecvmsg           *ebpf.Program `ebpf:"kprobe_udp_recvmsg"`
	KretprobeUdpRecvmsg        *ebpf.Program `ebpf:"kretprobe_udp_recvmsg"`
	TracepointSchedProcessExit *ebpf.Program `ebpf:"tracepoint_sched_process_exit"`
	ProcStats                  *ebpf.Map     `ebpf:"proc_stats"`
	UdpRecvCtx                 *ebpf.Map     `ebpf:"udp_recv_ctx"`
}

// Close 关闭所有程序和 Map，nil 字段的 Close 是空操作
func (o *objects) Close() error {
	var errs []error
	for _, c := range []interface{ Close() error }{
		o.KprobeTcpSendmsg, o.KprobeTcpCleanupRbuf, o.KprobeUdpSendmsg,
		o.KprobeUdpRecvmsg, o.KretprobeUdpRecvmsg, o.TracepointSchedProcessExit,
		o.ProcStats, o.UdpRecvCtx,
	} {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (o *objects) program(h hook) *ebpf.Program {
	switch {
	case h.symbol == "tcp_sendmsg":
		return o.KprobeTcpSendmsg
	case h.symbol == "tcp_cleanup_rbuf":
		return o.KprobeTcpCleanupRbuf
	case h.symbol == "udp_sendmsg":
		return o.KprobeUdpSendmsg
	case h.symbol == "udp_recvmsg" && h.ret:
		return o.KretprobeUdpRecvmsg
	case h.symbol == "udp_recvmsg":
		return o.KprobeUdpRecvmsg
	}
	return nil
}

// Probe 持有已加载的程序和挂载的探针
type Probe struct {
	objs  objects
	links []link.Link
}

// Open 加载 objectPath 处的字节码并挂载所有探针
func Open(objectPath string) (*Probe, error) {
	// eBPF map 需要锁定内存，Linux 默认限制很小，不移除会导致加载失败
	if err := rlimit.RemoveMemlock(); err != nil {
		return nil, fmt.Errorf("removing memlock rlimit: %w", err)
	}

	spec, err := ebpf.LoadCollectionSpec(objectPath)
	if err != nil {
		return nil, fmt.Errorf("loading collection spec %s: %w", objectPath, err)
	}

	p := &Probe{}
	if err := spec.LoadAndAssign(&p.objs, nil); err != nil {
		return nil, fmt.Errorf("loading objects: %w", err)
	}

	for _, h := range hooks {
		var l link.Link
		if h.ret {
			l, err = link.Kretprobe(h.symbol, p.objs.program(h), nil)
		} else {
			l, err = link.Kprobe(h.symbol, p.objs.program(h), nil)
		}
		if err != nil {
			if h.required {
				p.Close()
				return nil, fmt.Errorf("attaching %s: %w", h.symbol, err)
			}
			logger.Warn("attach failed, continuing without it", "symbol", h.symbol, "ret", h.ret, "error", err)
			continue
		}
		p.links = append(p.links, l)
	}

	// 进程退出时清理 Map
	tp, err := link.Tracepoint("sched", "sched_process_exit", p.objs.TracepointSchedProcessExit, nil)
	if err != nil {
		logger.Warn("attach failed, exited processes stay in the map", "tracepoint", "sched_process_exit", "error", err)
	} else {
		p.links = append(p.links, tp)
	}

	logger.Info("probes attached", "object", objectPath, "links", len(p.links))
	return p, nil
}

// Keys 遍历计数器 Map
func (p *Probe) Keys() ([]uint32, error) {
	var (
		key  uint32
		keys []uint32
	)
	val := make([]byte, p.objs.ProcStats.ValueSize())
	iter := p.objs.ProcStats.Iterate()
	for iter.Next(&key, val) {
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("iterating proc_stats: %w", err)
	}
	return keys, nil
}

// Lookup 返回 PID 的原始记录，解析由 sampler 完成
func (p *Probe) Lookup(pid uint32) ([]byte, error) {
	val := make([]byte, p.objs.ProcStats.ValueSize())
	if err := p.objs.ProcStats.Lookup(&pid, val); err != nil {
		return nil, fmt.Errorf("lookup pid %d: %w", pid, err)
	}
	return val, nil
}

// Close 卸载探针和程序
func (p *Probe) Close() error {
	var errs []error
	for _, l := range p.links {
		errs = append(errs, l.Close())
	}
	p.links = nil
	errs = append(errs, p.objs.Close())
	return errors.Join(errs...)
}
