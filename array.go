package pool

import (
	"fmt"
	"unsafe"
)

// Array is a dynamic sequence whose element storage lives in a Pool. It
// grows by doubling, preferring in-place extension when its storage is
// the last allocation made in the pool's current block.
type Array[T any] struct {
	pool  *Pool
	data  []T
	nelts int

	// blk and off identify where data's backing memory sits in the
	// pool's block chain, so growth can check whether it still abuts
	// the pool's bump pointer. blk is nil when the array's storage was
	// served from the large-allocation path, in which case cooperative
	// growth never applies.
	blk *block
	off int
}

// ArrayCreate allocates initial capacity for n elements of type T from p.
// The Array header itself is an ordinary Go value, not pool memory.
func ArrayCreate[T any](p *Pool, n int) (*Array[T], error) {
	if n < 1 {
		return nil, fmt.Errorf("pool: array capacity must be >= 1, got %d", n)
	}
	size := int(unsafe.Sizeof(*new(T)))
	ptr, blk, off, err := p.allocTracked(n*size, true)
	if err != nil {
		return nil, err
	}
	return &Array[T]{
		pool: p,
		data: unsafe.Slice((*T)(ptr), n),
		blk:  blk,
		off:  off,
	}, nil
}

// Len reports the number of elements currently pushed.
func (a *Array[T]) Len() int { return a.nelts }

// Cap reports the array's current element capacity.
func (a *Array[T]) Cap() int { return len(a.data) }

// Elems returns the initialized elements [0, Len()). The returned slice
// aliases the array's backing storage and is invalidated by any
// subsequent relocating push.
func (a *Array[T]) Elems() []T { return a.data[:a.nelts] }

// Destroy opportunistically rewinds the pool's bump pointer by the
// array's capacity, if the array's storage is the most recent
// allocation in the pool's current block. If any allocation happened in
// the meantime, the memory is not reclaimed until the pool is reset or
// destroyed; this is not a general free.
func (a *Array[T]) Destroy() {
	if a.blk == nil || a.blk != a.pool.current {
		return
	}
	size := int(unsafe.Sizeof(*new(T)))
	if a.off+len(a.data)*size == a.blk.last {
		a.blk.last = a.off
	}
}

// Push returns a pointer to the next unused slot, growing the array's
// capacity first if needed.
func (a *Array[T]) Push() (*T, error) {
	if err := a.ensureCapacity(1); err != nil {
		return nil, err
	}
	idx := a.nelts
	a.nelts++
	return &a.data[idx], nil
}

// PushN returns a slice over the next k unused slots, growing the
// array's capacity first if needed.
func (a *Array[T]) PushN(k int) ([]T, error) {
	if k <= 0 {
		return nil, fmt.Errorf("pool: PushN count must be positive, got %d", k)
	}
	if err := a.ensureCapacity(k); err != nil {
		return nil, err
	}
	start := a.nelts
	a.nelts += k
	return a.data[start : start+k], nil
}

// ensureCapacity grows the array so that nelts+k <= cap. It first tries
// cooperative in-place growth: if the array's storage is the pool's most
// recent allocation in its current block, and that block has k more
// elements' worth of room, the pool's bump pointer is simply advanced and
// the array's slice is re-sliced over the same backing memory. Otherwise
// it allocates a fresh doubled buffer and copies the initialized
// elements across; any previously obtained element pointer becomes
// invalid once this happens.
func (a *Array[T]) ensureCapacity(k int) error {
	nalloc := len(a.data)
	if a.nelts+k <= nalloc {
		return nil
	}

	size := int(unsafe.Sizeof(*new(T)))
	p := a.pool

	if a.blk != nil && a.blk == p.current {
		tail := a.off + nalloc*size
		if tail == a.blk.last && a.blk.last+k*size <= a.blk.end {
			a.blk.last += k * size
			a.data = unsafe.Slice((*T)(unsafe.Pointer(&a.blk.buf[a.off])), nalloc+k)
			return nil
		}
	}

	newCap := 2 * max(k, nalloc)
	if newCap < a.nelts+k {
		newCap = a.nelts + k
	}
	ptr, blk, off, err := p.allocTracked(newCap*size, true)
	if err != nil {
		return err
	}
	newData := unsafe.Slice((*T)(ptr), newCap)
	copy(newData, a.data[:a.nelts])
	a.data, a.blk, a.off = newData, blk, off
	return nil
}
