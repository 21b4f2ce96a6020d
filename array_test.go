package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/mempool"
)

func TestArrayPushAndLen(t *testing.T) {
	p, err := pool.Create(4096, testLog())
	require.NoError(t, err)
	defer p.Destroy()

	arr, err := pool.ArrayCreate[int](p, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, arr.Cap())
	assert.Equal(t, 0, arr.Len())

	for i := 0; i < 4; i++ {
		elt, err := arr.Push()
		require.NoError(t, err)
		*elt = i
	}
	assert.Equal(t, 4, arr.Len())
	assert.Equal(t, []int{0, 1, 2, 3}, arr.Elems())
}

// Scenario (c): pushing past capacity when the array's storage still
// abuts the pool's bump pointer grows in place: Cap grows by the one
// slot pushed, and prior element values survive without any copy being observable
// from outside (same backing array extended).
func TestArrayCooperativeGrowth(t *testing.T) {
	p, err := pool.Create(1 << 20, testLog())
	require.NoError(t, err)
	defer p.Destroy()

	arr, err := pool.ArrayCreate[int](p, 4)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		elt, err := arr.Push()
		require.NoError(t, err)
		*elt = i
	}

	before := &arr.Elems()[0]
	elt, err := arr.Push()
	require.NoError(t, err)
	*elt = 99

	assert.GreaterOrEqual(t, arr.Cap(), 5)
	assert.Equal(t, before, &arr.Elems()[0], "cooperative growth must not relocate storage")
	assert.Equal(t, []int{0, 1, 2, 3, 99}, arr.Elems())
}

// Scenario (d): once another allocation has been made from the same
// block, a subsequent Push must relocate rather than corrupt the
// intervening allocation.
func TestArrayRelocatesWhenNotLastAllocation(t *testing.T) {
	p, err := pool.Create(1<<20, testLog())
	require.NoError(t, err)
	defer p.Destroy()

	arr, err := pool.ArrayCreate[int](p, 2)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		elt, err := arr.Push()
		require.NoError(t, err)
		*elt = i
	}

	// Interpose an allocation so the array is no longer the pool's most
	// recent allocation in its block.
	interposed, err := p.PallocBytes(16)
	require.NoError(t, err)
	for i := range interposed {
		interposed[i] = 0xAB
	}

	elt, err := arr.Push()
	require.NoError(t, err)
	*elt = 77

	assert.Equal(t, []int{0, 1, 77}, arr.Elems())
	for _, b := range interposed {
		assert.Equal(t, byte(0xAB), b, "relocating growth must not disturb the interposed allocation")
	}
}

func TestArrayPushN(t *testing.T) {
	p, err := pool.Create(4096, testLog())
	require.NoError(t, err)
	defer p.Destroy()

	arr, err := pool.ArrayCreate[int](p, 2)
	require.NoError(t, err)

	slice, err := arr.PushN(5)
	require.NoError(t, err)
	assert.Len(t, slice, 5)
	for i := range slice {
		slice[i] = i * i
	}
	assert.Equal(t, []int{0, 1, 4, 9, 16}, arr.Elems())
}

func TestArrayCreateRejectsNonPositiveCapacity(t *testing.T) {
	p, err := pool.Create(4096, testLog())
	require.NoError(t, err)
	defer p.Destroy()

	_, err = pool.ArrayCreate[int](p, 0)
	assert.Error(t, err)
}

func TestArrayDestroyRewindsWhenLastAllocation(t *testing.T) {
	p, err := pool.Create(4096, testLog())
	require.NoError(t, err)
	defer p.Destroy()

	before := p.Stats().BytesUsed
	arr, err := pool.ArrayCreate[int](p, 8)
	require.NoError(t, err)
	arr.Destroy()
	after := p.Stats().BytesUsed

	assert.Equal(t, before, after, "destroying the most recent array allocation must rewind the pool")
}

func TestArrayLargeStorage(t *testing.T) {
	p, err := pool.Create(64, testLog())
	require.NoError(t, err)
	defer p.Destroy()

	// A capacity large enough to force the large-allocation path; such
	// an array can never grow cooperatively.
	arr, err := pool.ArrayCreate[byte](p, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stats().NumLarge)

	_, err = arr.Push()
	require.NoError(t, err)
}
