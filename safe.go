package pool

import (
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// SafePool is a mutex-guarded wrapper around Pool for callers that need
// to share one allocator handle across goroutines (for example a
// connection-accept loop handing the same pool to worker goroutines).
// Pool.Non-goals still stand for Pool itself: SafePool is additive, not a
// retrofit. Containers (Array, List) created through a SafePool hold a
// direct reference to the underlying Pool and are not synchronized by
// SafePool's mutex; their own single-owner discipline still applies to
// every call made after creation.
type SafePool struct {
	mu sync.Mutex
	p  *Pool
}

// NewSafePool creates a Pool of the given size and wraps it for
// concurrent access.
func NewSafePool(size int, log logrus.FieldLogger) (*SafePool, error) {
	p, err := Create(size, log)
	if err != nil {
		return nil, err
	}
	return &SafePool{p: p}, nil
}

func (s *SafePool) Palloc(n int) (unsafe.Pointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Palloc(n)
}

func (s *SafePool) Pnalloc(n int) (unsafe.Pointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Pnalloc(n)
}

func (s *SafePool) Pcalloc(n int) (unsafe.Pointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Pcalloc(n)
}

func (s *SafePool) PallocBytes(n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.PallocBytes(n)
}

func (s *SafePool) PnallocBytes(n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.PnallocBytes(n)
}

func (s *SafePool) PcallocBytes(n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.PcallocBytes(n)
}

func (s *SafePool) Pmemalign(n, alignment int) (unsafe.Pointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Pmemalign(n, alignment)
}

func (s *SafePool) Pfree(ptr unsafe.Pointer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Pfree(ptr)
}

func (s *SafePool) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.Reset()
}

func (s *SafePool) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.Destroy()
}

func (s *SafePool) CleanupAdd(dataSize int) (*Cleanup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.CleanupAdd(dataSize)
}

func (s *SafePool) RunCleanupFile(fd int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.RunCleanupFile(fd)
}

func (s *SafePool) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Stats()
}

// SafeArrayCreate creates an Array[T] on s's underlying pool under s's
// lock. The returned Array is not itself guarded by s: subsequent Push
// calls go directly to the underlying Pool, unsynchronized, matching
// Array's single-owner contract.
func SafeArrayCreate[T any](s *SafePool, n int) (*Array[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ArrayCreate[T](s.p, n)
}

// SafeListCreate creates a List[T] on s's underlying pool under s's
// lock. As with SafeArrayCreate, the returned List's own methods are not
// guarded by s.
func SafeListCreate[T any](s *SafePool, n int) (*List[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ListCreate[T](s.p, n)
}
