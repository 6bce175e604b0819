package workerpool

import (
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/tphakala/eloc-raven/internal/cpuspec"
	"github.com/tphakala/eloc-raven/internal/logger"
)

// DefaultMaxWorkers is the default hard ceiling on pool size
const DefaultMaxWorkers = 8

// availableMemory reports memory available for new allocations in bytes
var availableMemory = func() (uint64, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vmStat.Available, nil
}

// Size returns the pool size for recording workers. The base is a positive
// configured value, or the CPU parallelism when configured is 0. Either is
// capped by maxWorkers and by how many of the largest recordings fit in
// available memory at once, and never below 1.
func Size(configured, maxWorkers int, largestInput int64) int {
	threads := configured
	if threads <= 0 {
		threads = cpuspec.GetCPUSpec().GetOptimalThreadCount()
	}

	avail, err := availableMemory()
	if err != nil {
		logger.Global().Module("workerpool").Warn("could not read available memory, sizing by CPU only",
			logger.Error(err))
		avail = 0
	}

	return autoSize(threads, maxWorkers, avail, largestInput)
}

func autoSize(threads, maxWorkers int, availableBytes uint64, largestInput int64) int {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	size := min(threads, maxWorkers)

	if availableBytes > 0 && largestInput > 0 {
		fit := availableBytes / uint64(largestInput)
		if fit < uint64(size) {
			size = int(fit)
		}
	}

	return max(size, 1)
}
