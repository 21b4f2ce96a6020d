// Package pool implements a region-based memory allocator (an arena, or
// "memory pool") together with two pool-backed containers: Array, an
// amortized-growth dynamic array, and List, a segmented append-only list.
//
// # Overview
//
// A Pool owns a chain of fixed-size blocks and bump-allocates from them.
// Requests larger than the pool's block threshold fall back to the Go heap
// and are tracked on a side list so they can be freed individually or in
// bulk. A chain of cleanup handlers lets callers register destructors that
// run, in LIFO order, when the pool is destroyed.
//
//	p, err := pool.Create(4096, log)
//	if err != nil {
//		return err
//	}
//	defer p.Destroy()
//
//	buf, err := p.PallocBytes(128)
//	hdr, err := pool.PallocT[myHeader](p)
//
// Array and List build contiguous and segmented storage on top of a Pool:
//
//	a, err := pool.ArrayCreate[int](p, 4)
//	v, err := a.Push()
//	*v = 42
//
//	l, err := pool.ListCreate[int](p, 4)
//	v, err = l.Push()
//
// # Reclamation
//
// The only reclamation primitive is bulk: Reset frees large allocations and
// rewinds every block's bump pointer, Destroy additionally runs cleanup
// handlers and frees every block. There is no per-object free within a
// block; Pfree only ever releases large (heap-backed) allocations.
//
// # Ownership and single-owner discipline
//
// A Pool, and every Array/List/Cleanup built over it, is owned by a single
// logical task at a time. No operation here is safe under concurrent
// mutation of the same Pool from multiple goroutines; SafePool exists for
// callers that need to share one allocator handle across goroutines.
package pool
