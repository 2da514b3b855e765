package main

// 编译 eBPF 程序，运行时由 probe.Open 通过 ebpf.LoadCollectionSpec 加载
// 如果你是 ARM 架构，这里要改成 -D__TARGET_ARCH_arm64

//go:generate clang -O2 -g -target bpf -D__TARGET_ARCH_x86 -c bpf/netmon.bpf.c -o bpf/netmon.bpf.o
