// Package history 提供固定容量、永不为空的环形缓冲区。
//
// 每个被跟踪的进程持有一个 Ring，容量固定，
// 写满之后新样本覆盖最旧的样本，内存占用与进程存活时间无关。
package history

import (
	"errors"
	"fmt"
	"iter"
)

// ErrOutOfRange 在 At 的下标越界时返回
var ErrOutOfRange = errors.New("history: index out of range")

// Ring 是固定容量的环形缓冲区，创建后至少有一个元素
type Ring[T any] struct {
	buf   []T
	start int // 最旧元素在 buf 中的位置
	size  int // 当前元素个数，1..len(buf)
}

// New 创建容量为 capacity、初始元素为 initial 的缓冲区
// capacity < 1 时按 1 处理
func New[T any](capacity int, initial T) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	buf := make([]T, capacity)
	buf[0] = initial
	return &Ring[T]{buf: buf, size: 1}
}

// Push 追加一个元素；已满时覆盖最旧的元素
func (r *Ring[T]) Push(item T) {
	n := len(r.buf)
	if r.size < n {
		r.buf[(r.start+r.size)%n] = item
		r.size++
		return
	}
	r.buf[r.start] = item
	r.start = (r.start + 1) % n
}

// Newest 返回最近一次写入的元素
func (r *Ring[T]) Newest() T {
	return r.buf[r.index(r.size-1)]
}

// Oldest 返回当前保留的最旧元素
func (r *Ring[T]) Oldest() T {
	return r.buf[r.start]
}

func (r *Ring[T]) Len() int { return r.size }

func (r *Ring[T]) Cap() int { return len(r.buf) }

// At 按插入顺序返回第 i 个元素 (0 = 最旧)
func (r *Ring[T]) At(i int) (T, error) {
	if i < 0 || i >= r.size {
		var zero T
		return zero, fmt.Errorf("%w: %d (len %d)", ErrOutOfRange, i, r.size)
	}
	return r.buf[r.index(i)], nil
}

// All 从旧到新遍历
func (r *Ring[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < r.size; i++ {
			if !yield(r.buf[r.index(i)]) {
				return
			}
		}
	}
}

// Backward 从新到旧遍历
func (r *Ring[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := r.size - 1; i >= 0; i-- {
			if !yield(r.buf[r.index(i)]) {
				return
			}
		}
	}
}

// index 把逻辑下标换算成 buf 下标
func (r *Ring[T]) index(i int) int {
	return (r.start + i) % len(r.buf)
}
