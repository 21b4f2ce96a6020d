//go:build mips || mipsle || mips64 || mips64le

package pool

// cacheLineSize matches the L1 cache line size Go's own
// internal/cpu.CacheLinePadSize records for mips64x.
const cacheLineSize = 32
