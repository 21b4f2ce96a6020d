package pool

import "unsafe"

// PallocT, PcallocT, PallocSliceT and PcallocSliceT are typed convenience
// wrappers over Palloc/Pcalloc: they exist so callers get typed pointers
// without hand-rolling an unsafe.Pointer cast at every call site. They
// are thin (they don't change max/large-path routing or alignment), and
// the size passed to the underlying Palloc/Pcalloc is always
// n * unsafe.Sizeof(zero T).
//
// T is not restricted to pointer-free types; a T containing Go pointers
// or interfaces allocated this way is only as safe as any other value
// bit-cast onto pool memory (see largeNode's doc comment) and is the
// caller's responsibility.

// PallocT returns a pointer to a T allocated (uninitialized) from p.
func PallocT[T any](p *Pool) (*T, error) {
	ptr, err := p.Palloc(int(unsafe.Sizeof(*new(T))))
	if err != nil {
		return nil, err
	}
	return (*T)(ptr), nil
}

// PcallocT returns a pointer to a zeroed T allocated from p.
func PcallocT[T any](p *Pool) (*T, error) {
	ptr, err := p.Pcalloc(int(unsafe.Sizeof(*new(T))))
	if err != nil {
		return nil, err
	}
	return (*T)(ptr), nil
}

// PallocSliceT returns a slice of n uninitialized T allocated from p.
// Returns nil, nil if n <= 0.
func PallocSliceT[T any](p *Pool, n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	ptr, err := p.Palloc(n * int(unsafe.Sizeof(*new(T))))
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(ptr), n), nil
}

// PcallocSliceT returns a slice of n zeroed T allocated from p. Returns
// nil, nil if n <= 0.
func PcallocSliceT[T any](p *Pool, n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	ptr, err := p.Pcalloc(n * int(unsafe.Sizeof(*new(T))))
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(ptr), n), nil
}
