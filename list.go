package pool

import (
	"fmt"
	"iter"
	"unsafe"
)

// listPart is one fixed-capacity bucket of list elements. Unlike Array,
// a part is never relocated or extended in place: once allocated, its
// backing storage and every element pointer into it stay valid for the
// list's lifetime.
type listPart[T any] struct {
	data  []T
	nelts int
	next  *listPart[T]
}

// List is a singly-linked chain of fixed-capacity parts, append-only,
// with no removal. Existing parts and their elements are never moved or
// freed during the list's lifetime, unlike Array's storage.
type List[T any] struct {
	pool   *Pool
	head   *listPart[T]
	tail   *listPart[T]
	nalloc int
}

// ListCreate creates a list whose head part has capacity for n elements
// of type T. The element storage comes from p; the List header and part
// bookkeeping are ordinary Go values, not pool memory.
func ListCreate[T any](p *Pool, n int) (*List[T], error) {
	if n < 1 {
		return nil, fmt.Errorf("pool: list part capacity must be >= 1, got %d", n)
	}
	part, err := newListPart[T](p, n)
	if err != nil {
		return nil, err
	}
	return &List[T]{pool: p, head: part, tail: part, nalloc: n}, nil
}

func newListPart[T any](p *Pool, n int) (*listPart[T], error) {
	size := int(unsafe.Sizeof(*new(T)))
	ptr, _, _, err := p.allocTracked(n*size, true)
	if err != nil {
		return nil, err
	}
	return &listPart[T]{data: unsafe.Slice((*T)(ptr), n)}, nil
}

// Push returns a pointer to a new slot in the tail part, allocating a
// new part from the pool first if the tail part is full. The returned
// pointer remains valid and dereferenceable for the list's lifetime.
func (l *List[T]) Push() (*T, error) {
	tail := l.tail
	if tail.nelts == len(tail.data) {
		next, err := newListPart[T](l.pool, l.nalloc)
		if err != nil {
			return nil, err
		}
		tail.next = next
		l.tail = next
		tail = next
	}
	idx := tail.nelts
	tail.nelts++
	return &tail.data[idx], nil
}

// Len returns the total number of elements pushed across every part.
func (l *List[T]) Len() int {
	n := 0
	for part := l.head; part != nil; part = part.next {
		n += part.nelts
	}
	return n
}

// NumParts returns how many parts the list currently has.
func (l *List[T]) NumParts() int {
	n := 0
	for part := l.head; part != nil; part = part.next {
		n++
	}
	return n
}

// All iterates every pushed element, parts head-to-tail and elements
// within each part in order.
func (l *List[T]) All() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for part := l.head; part != nil; part = part.next {
			for i := 0; i < part.nelts; i++ {
				if !yield(&part.data[i]) {
					return
				}
			}
		}
	}
}
