package pool

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// ErrOutOfMemory is returned when the backing allocator or a pool
// expansion fails. The pool itself remains valid and usable afterward.
var ErrOutOfMemory = errors.New("pool: out of memory")

// ErrDeclined is returned by Pfree when the pointer was not found on the
// large-allocation list. It is informational, not a failure: pool-block
// allocations are simply not individually freeable.
var ErrDeclined = errors.New("pool: pointer not allocated as a large block")

// maxFailedAttempts is the lazy-skip threshold: Pool.current skips past a
// block when a failure is recorded against it while its failure counter
// already exceeds this value. Matches nginx's `failed++ > 4` check.
const maxFailedAttempts = 4

// block is one fixed-size slab in a Pool's chain. Bytes [start, end) of
// buf are the usable region; last is the current bump pointer. All three
// are plain offsets into buf, not raw addresses, so that comparing a
// block's state never requires dereferencing memory that might have
// moved (Go's garbage collector does not move heap objects today, but
// tracking offsets rather than addresses keeps that assumption local to
// newBlock).
type block struct {
	buf    []byte
	start  int
	end    int
	last   int
	next   *block
	failed int
}

// newBlock allocates a fresh slab of exactly size usable bytes, aligned
// to PoolAlignment. Go has no aligned-allocation primitive for byte
// slices (the host's aligned-allocation primitive nginx relies on), so
// the slab is over-allocated by PoolAlignment bytes and trimmed.
func newBlock(size int) (*block, error) {
	buf, err := safeMake(size + int(PoolAlignment))
	if err != nil {
		return nil, err
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	start := int(alignUp(base, PoolAlignment) - base)
	return &block{buf: buf, start: start, end: start + size, last: start}, nil
}

// safeMake allocates n bytes, converting the subset of Go allocation
// failures that are recoverable (oversized or negative requests) into
// ErrOutOfMemory. Genuine process-wide heap exhaustion calls runtime.throw
// and cannot be intercepted in Go the way a C malloc failure can be
// checked for NULL; that gap is inherent to running an arena allocator on
// a garbage-collected host and is not something this package can paper
// over.
func safeMake(n int) (buf []byte, err error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrOutOfMemory, n)
	}
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, fmt.Errorf("%w: %v", ErrOutOfMemory, r)
		}
	}()
	return make([]byte, n), nil
}

// Pool is a region allocator: a chain of bump-allocated blocks, a list of
// heap-backed large allocations, and a chain of cleanup handlers, all
// reclaimed in one step by Destroy. A Pool is owned by a single logical
// task at a time; see SafePool for a mutex-guarded wrapper.
type Pool struct {
	blockSize int
	max       int
	blocks    *block
	current   *block
	large     *largeNode
	cleanup   *Cleanup
	log       logrus.FieldLogger
	destroyed bool
}

// Create allocates a single block of exactly size bytes and returns the
// pool rooted at it. log receives the pool's debug diagnostics (creation,
// block growth, reset, cleanup registration); a nil log falls back to
// logrus's standard logger.
func Create(size int, log logrus.FieldLogger) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool: create size must be positive, got %d", size)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	b, err := newBlock(size)
	if err != nil {
		return nil, err
	}
	p := &Pool{blockSize: size, blocks: b, current: b, log: log}
	p.max = min(size, sizeThreshold())
	p.log.WithFields(logrus.Fields{"size": size, "max": p.max}).Debug("pool: created")
	return p, nil
}

func (p *Pool) checkAlive() {
	if p.destroyed {
		panic("pool: use after Destroy()")
	}
}

// allocTracked is the shared implementation behind Palloc and Pnalloc. It
// additionally reports which block (and offset within that block's buf)
// satisfied the request, information Array and List need to decide
// whether their storage can be grown in place.
func (p *Pool) allocTracked(n int, aligned bool) (ptr unsafe.Pointer, blk *block, off int, err error) {
	p.checkAlive()
	if n < 0 {
		return nil, nil, 0, fmt.Errorf("%w: negative size %d", ErrOutOfMemory, n)
	}
	if n <= p.max {
		for b := p.current; b != nil; b = b.next {
			m := b.last
			if aligned {
				m = alignOffset(m, int(WordAlignment))
			}
			if b.end-m >= n {
				b.last = m + n
				return unsafe.Pointer(&b.buf[m]), b, m, nil
			}
		}
		return p.allocBlock(n)
	}
	ptr, err = p.pallocLarge(n)
	return ptr, nil, 0, err
}

// allocBlock grows the pool with a fresh block of the same size as the
// head block and satisfies n from it immediately. It also performs the
// lazy "current" advancement: any block visited while walking from the
// old current to the chain's tail has its failure counter bumped, and if
// that counter had already exceeded maxFailedAttempts, current advances
// past it. Every visited block is incremented, not just the one chosen
// as the new current.
func (p *Pool) allocBlock(n int) (unsafe.Pointer, *block, int, error) {
	nb, err := newBlock(p.blockSize)
	if err != nil {
		return nil, nil, 0, err
	}
	m := alignOffset(nb.start, int(WordAlignment))
	nb.last = m + n

	current := p.current
	b := current
	for b.next != nil {
		failed := b.failed
		b.failed++
		if failed > maxFailedAttempts {
			current = b.next
		}
		b = b.next
	}
	b.next = nb
	p.current = current

	p.log.WithField("size", n).Debug("pool: block allocated")
	return unsafe.Pointer(&nb.buf[m]), nb, m, nil
}

// Palloc allocates n bytes aligned to WordAlignment, from a block if
// n <= Pool's max, otherwise from the large-allocation path.
func (p *Pool) Palloc(n int) (unsafe.Pointer, error) {
	ptr, _, _, err := p.allocTracked(n, true)
	return ptr, err
}

// Pnalloc is Palloc without the alignment step; intended for
// byte-granular buffers such as strings that need no particular
// alignment.
func (p *Pool) Pnalloc(n int) (unsafe.Pointer, error) {
	ptr, _, _, err := p.allocTracked(n, false)
	return ptr, err
}

// Pcalloc is Palloc followed by zeroing the returned memory.
func (p *Pool) Pcalloc(n int) (unsafe.Pointer, error) {
	ptr, err := p.Palloc(n)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		clear(unsafe.Slice((*byte)(ptr), n))
	}
	return ptr, nil
}

// PallocBytes, PnallocBytes and PcallocBytes are byte-slice views over
// Palloc/Pnalloc/Pcalloc, for callers that want a safely-indexable slice
// rather than an unsafe.Pointer.
func (p *Pool) PallocBytes(n int) ([]byte, error) {
	ptr, err := p.Palloc(n)
	if err != nil || n == 0 {
		return nil, err
	}
	return unsafe.Slice((*byte)(ptr), n), nil
}

func (p *Pool) PnallocBytes(n int) ([]byte, error) {
	ptr, err := p.Pnalloc(n)
	if err != nil || n == 0 {
		return nil, err
	}
	return unsafe.Slice((*byte)(ptr), n), nil
}

func (p *Pool) PcallocBytes(n int) ([]byte, error) {
	ptr, err := p.Pcalloc(n)
	if err != nil || n == 0 {
		return nil, err
	}
	return unsafe.Slice((*byte)(ptr), n), nil
}

// Reset frees every large allocation and rewinds every block's bump
// pointer to its start. Cleanup handlers are not invoked.
func (p *Pool) Reset() {
	p.checkAlive()
	for l := p.large; l != nil; l = l.next {
		l.raw = nil
		l.ptr = nil
	}
	p.large = nil
	for b := p.blocks; b != nil; b = b.next {
		b.last = b.start
	}
	p.current = p.blocks
	p.log.Debug("pool: reset")
}

// Destroy runs every registered cleanup handler in LIFO registration
// order, frees every large allocation, then frees every block. The pool
// is unusable afterward; any further call panics.
//
// Pool.log may itself have been allocated from this pool, so no
// diagnostics are logged once cleanup handlers have started running.
func (p *Pool) Destroy() {
	p.checkAlive()
	for c := p.cleanup; c != nil; c = c.next {
		if c.Handler != nil {
			c.Handler(unsafe.Pointer(unsafe.SliceData(c.Data)))
		}
	}
	for l := p.large; l != nil; l = l.next {
		l.raw = nil
		l.ptr = nil
	}
	p.large = nil
	p.cleanup = nil
	p.blocks = nil
	p.current = nil
	p.destroyed = true
}

// Stats is a read-only snapshot of a Pool's memory accounting.
type Stats struct {
	NumBlocks     int
	BytesUsed     int
	BytesCapacity int
	NumLarge      int
	NumCleanups   int
}

// Stats walks the block, large, and cleanup chains once and reports
// their current sizes. It does not allocate and has no effect on the
// pool.
func (p *Pool) Stats() Stats {
	p.checkAlive()
	var s Stats
	for b := p.blocks; b != nil; b = b.next {
		s.NumBlocks++
		s.BytesUsed += b.last - b.start
		s.BytesCapacity += b.end - b.start
	}
	for l := p.large; l != nil; l = l.next {
		s.NumLarge++
	}
	for c := p.cleanup; c != nil; c = c.next {
		s.NumCleanups++
	}
	return s
}
