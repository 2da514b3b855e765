//go:build !linux

package probe

// Probe 在非 Linux 平台上不可用
type Probe struct{}

func Open(string) (*Probe, error) { return nil, ErrUnsupported }

func (*Probe) Keys() ([]uint32, error) { return nil, ErrUnsupported }

func (*Probe) Lookup(uint32) ([]byte, error) { return nil, ErrUnsupported }

func (*Probe) Close() error { return nil }
