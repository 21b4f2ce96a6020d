//go:build !amd64 && !386 && !arm64 && !loong64 && !mips && !mipsle && !mips64 && !mips64le && !ppc64 && !ppc64le

package pool

// cacheLineSize falls back to the most common line size for
// architectures this package has no specific constant for.
const cacheLineSize = 64
