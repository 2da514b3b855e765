// Package probe 加载 eBPF 程序并把内核里的计数器 Map 暴露为 sampler.Source。
package probe

import "errors"

// ErrUnsupported 在非 Linux 平台上返回
var ErrUnsupported = errors.New("probe: eBPF probes require linux")

// hook 描述一个挂载点
type hook struct {
	symbol   string
	ret      bool // kretprobe
	required bool // 挂载失败是否致命
}

// TCP 探针必须挂载成功；UDP 在部分内核上符号不同，失败只记日志
var hooks = []hook{
	{symbol: "tcp_sendmsg", required: true},
	{symbol: "tcp_cleanup_rbuf", required: true},
	{symbol: "udp_sendmsg"},
	{symbol: "udp_recvmsg"},
	{symbol: "udp_recvmsg", ret: true},
}
