//go:build amd64 || 386 || arm64 || loong64

package pool

// cacheLineSize matches the L1 cache line size Go's own
// internal/cpu.CacheLinePadSize records for these architectures.
const cacheLineSize = 64
