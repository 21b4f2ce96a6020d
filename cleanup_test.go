package pool_test

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/mempool"
)

// Scenario (f): cleanup handlers fire in LIFO registration order on
// Destroy.
func TestCleanupOrderIsLIFO(t *testing.T) {
	p, err := pool.Create(4096, testLog())
	require.NoError(t, err)

	var order []int
	for i := 0; i < 4; i++ {
		i := i
		c, err := p.CleanupAdd(0)
		require.NoError(t, err)
		c.Handler = func(unsafe.Pointer) { order = append(order, i) }
	}

	p.Destroy()
	assert.Equal(t, []int{3, 2, 1, 0}, order)
}

func TestCleanupDataIsPoolBacked(t *testing.T) {
	p, err := pool.Create(4096, testLog())
	require.NoError(t, err)
	defer p.Destroy()

	c, err := p.CleanupAdd(16)
	require.NoError(t, err)
	assert.Len(t, c.Data, 16)
	c.Data[0] = 0x42
	assert.Equal(t, byte(0x42), c.Data[0])
}

func TestCleanupAddFileClosesOnDestroy(t *testing.T) {
	p, err := pool.Create(4096, testLog())
	require.NoError(t, err)

	dir := t.TempDir()
	name := filepath.Join(dir, "cleanup-file")
	f, err := os.Create(name)
	require.NoError(t, err)
	fd := int(f.Fd())

	p.CleanupAddFile(fd, name, testLog())
	p.Destroy()

	_, writeErr := f.WriteString("x")
	assert.Error(t, writeErr, "fd should have been closed by the cleanup handler")

	_, statErr := os.Stat(name)
	assert.NoError(t, statErr, "CleanupAddFile must not delete the file")
}

func TestCleanupAddDeleteFileRemovesFile(t *testing.T) {
	p, err := pool.Create(4096, testLog())
	require.NoError(t, err)

	dir := t.TempDir()
	name := filepath.Join(dir, "cleanup-delete-file")
	f, err := os.Create(name)
	require.NoError(t, err)
	fd := int(f.Fd())

	p.CleanupAddDeleteFile(fd, name, testLog())
	p.Destroy()

	_, statErr := os.Stat(name)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunCleanupFileRunsOnceAndEarly(t *testing.T) {
	p, err := pool.Create(4096, testLog())
	require.NoError(t, err)
	defer p.Destroy()

	dir := t.TempDir()
	name := filepath.Join(dir, "run-cleanup-file")
	f, err := os.Create(name)
	require.NoError(t, err)
	fd := int(f.Fd())

	p.CleanupAddFile(fd, name, testLog())
	p.RunCleanupFile(fd)

	_, writeErr := f.WriteString("x")
	assert.Error(t, writeErr)

	// Running it again (directly, or via Destroy) must not double-close.
	p.RunCleanupFile(fd)
}
