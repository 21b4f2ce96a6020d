package pool

import (
	"fmt"
	"unsafe"
)

// largeNode tracks one heap-backed allocation that exceeded Pool.max.
// raw is the backing buffer (nil marks a reusable, freed slot); ptr is
// the address actually handed to the caller, which for Pmemalign sits
// partway into raw.
//
// largeNode is an ordinary Go heap allocation, not carved out of pool
// block memory the way the original source places ngx_pool_large_t
// inside the pool. A largeNode holds Go pointers (raw, ptr, next); a
// pool block is a plain []byte, which Go's garbage collector treats as
// containing no pointers, so bit-casting a pointer-bearing struct onto
// block memory would leave those pointers unscanned and the referenced
// buffers eligible for premature collection. Keeping the bookkeeping
// node itself GC-visible sidesteps that, at the cost of the node no
// longer drawing from the pool's own byte budget; every large-list
// invariant this package is tested against is about the node's
// observable behavior (bounded reuse scan, reset/destroy effects), not
// about where the node physically lives.
type largeNode struct {
	raw  []byte
	ptr  unsafe.Pointer
	next *largeNode
}

// largeScanLimit bounds the free-slot reuse scan in pallocLarge.
const largeScanLimit = 4

// pallocLarge services a request that exceeds Pool.max via the Go heap.
// It first scans up to largeScanLimit existing nodes for a freed slot to
// reuse (pfree creates sparse holes; the bounded scan amortizes reuse
// without degrading to O(n) per allocation), then prepends a new node.
func (p *Pool) pallocLarge(n int) (unsafe.Pointer, error) {
	buf, err := safeMake(n)
	if err != nil {
		return nil, err
	}
	ptr := unsafe.Pointer(unsafe.SliceData(buf))

	scanned := 0
	for l := p.large; l != nil && scanned < largeScanLimit; l = l.next {
		if l.raw == nil {
			l.raw = buf
			l.ptr = ptr
			return ptr, nil
		}
		scanned++
	}

	p.large = &largeNode{raw: buf, ptr: ptr, next: p.large}
	return ptr, nil
}

// Pmemalign allocates n bytes aligned to the requested alignment (which
// must be a power of two) via the large-object path. No reuse scan is
// performed: the alignment requested here may differ from that of prior
// entries, so a freed slot's buffer cannot be safely reused.
func (p *Pool) Pmemalign(n, alignment int) (unsafe.Pointer, error) {
	p.checkAlive()
	if alignment <= 0 || alignment&(alignment-1) != 0 {
		return nil, fmt.Errorf("pool: alignment must be a power of two, got %d", alignment)
	}

	raw, err := safeMake(n + alignment)
	if err != nil {
		return nil, err
	}

	var ptr unsafe.Pointer
	if len(raw) > 0 {
		base := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
		off := int(alignUp(base, uintptr(alignment)) - base)
		ptr = unsafe.Pointer(unsafe.SliceData(raw[off : off+n]))
	}

	p.large = &largeNode{raw: raw, ptr: ptr, next: p.large}
	return ptr, nil
}

// Pfree releases the large allocation at ptr, if one exists. It returns
// ErrDeclined rather than treating a miss as a failure: pool-block
// allocations were never individually freeable to begin with.
//
// The node's next link and ptr field are left untouched, matching the
// original: the reuse scan in pallocLarge only inspects raw, and the
// node stays linked with raw == nil until reused or the pool is reset or
// destroyed.
func (p *Pool) Pfree(ptr unsafe.Pointer) error {
	p.checkAlive()
	for l := p.large; l != nil; l = l.next {
		if l.raw != nil && l.ptr == ptr {
			l.raw = nil
			return nil
		}
	}
	return ErrDeclined
}
