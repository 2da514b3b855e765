package sampler

import (
	"encoding/binary"
	"errors"
	"testing"

	"netmon/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCounters32(t *testing.T) {
	raw := make([]byte, 8)
	binary.NativeEndian.PutUint32(raw[0:4], uint32(int32(1000)))
	binary.NativeEndian.PutUint32(raw[4:8], 0xFFFFFFFF)

	rx, tx, err := DecodeCounters(raw)
	require.NoError(t, err)
	assert.Equal(t, model.ByteCount(1000), rx)
	assert.Equal(t, model.ByteCount(-1), tx)
}

func TestDecodeCounters64(t *testing.T) {
	rx, tx, err := DecodeCounters(EncodeCounters(5<<32, 42))
	require.NoError(t, err)
	assert.Equal(t, model.ByteCount(5<<32), rx)
	assert.Equal(t, model.ByteCount(42), tx)
}

func TestDecodeCountersMalformed(t *testing.T) {
	for _, n := range []int{0, 4, 12, 17} {
		_, _, err := DecodeCounters(make([]byte, n))
		assert.ErrorIs(t, err, ErrMalformedRecord, "len %d", n)
	}
}

func TestCollectSkipsBadRecords(t *testing.T) {
	mem := NewMemory()
	mem.Set(1, 100, 10)
	mem.SetRaw(2, []byte{1, 2, 3})
	mem.Set(3, 300, 30)

	snapshot, err := Collect(mem)
	require.NoError(t, err)
	assert.Equal(t, model.Snapshot{
		{Pid: 1, Received: 100, Sent: 10},
		{Pid: 3, Received: 300, Sent: 30},
	}, snapshot)
}

type flakySource struct {
	keys    []uint32
	keysErr error
	mem     *Memory
}

func (f *flakySource) Keys() ([]uint32, error) { return f.keys, f.keysErr }

func (f *flakySource) Lookup(pid uint32) ([]byte, error) { return f.mem.Lookup(pid) }

func TestCollectSkipsMissingPid(t *testing.T) {
	mem := NewMemory()
	mem.Set(1, 100, 10)
	src := &flakySource{keys: []uint32{1, 2}, mem: mem}

	snapshot, err := Collect(src)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, uint32(1), snapshot[0].Pid)
}

func TestCollectKeysFailure(t *testing.T) {
	boom := errors.New("map gone")
	_, err := Collect(&flakySource{keysErr: boom, mem: NewMemory()})
	assert.ErrorIs(t, err, boom)
}

func TestDemoCountersGrow(t *testing.T) {
	d := NewDemo(1)

	first, err := Collect(d)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := Collect(d)
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Pid, second[i].Pid)
		assert.GreaterOrEqual(t, second[i].Received, first[i].Received)
		assert.GreaterOrEqual(t, second[i].Sent, first[i].Sent)
	}
}
