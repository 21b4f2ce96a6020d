//go:build ppc64 || ppc64le

package pool

// cacheLineSize matches the L1 cache line size Go's own
// internal/cpu.CacheLinePadSize records for ppc64x.
const cacheLineSize = 128
