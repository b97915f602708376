// Package workers sizes worker pools from the CPUs actually available
// to the process. GOMAXPROCS tracks container CPU limits (Go 1.19+),
// so the counts stay honest inside cgroup-constrained deployments.
package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns a worker count scaled from the available CPUs.
//
// The multiplier adjusts for task shape: 1.0 for CPU-bound work, 2.0
// for I/O-bound, 1.5 for mixed render-and-encode pipelines. limit caps
// the result; 0 means uncapped. The GENERATION_WORKERS environment
// variable overrides the computed value.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("GENERATION_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)
	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForCPU returns the worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForMixed returns the worker count for mixed CPU/subprocess tasks
// such as render-then-encode (1.5 per CPU). This sizes the concurrent
// generation semaphore.
func ForMixed(limit int) int {
	return Count(1.5, limit)
}
