// Package cpuspec reports CPU parallelism used to size worker pools.
package cpuspec

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// CPUSpec contains information about CPU specifications
type CPUSpec struct {
	BrandName     string
	PhysicalCores int
	LogicalCores  int
	AvailableCPUs int // CPUs usable by this process, respects affinity and VM limits
}

// GetCPUSpec returns the CPU specification of the host
func GetCPUSpec() CPUSpec {
	return CPUSpec{
		BrandName:     cpuid.CPU.BrandName,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		AvailableCPUs: runtime.NumCPU(),
	}
}

// GetOptimalThreadCount returns the recommended number of parallel workers.
// Segment extraction is mostly memory copies and file writes, so logical
// cores are used, capped by what the process may actually schedule on.
func (c CPUSpec) GetOptimalThreadCount() int {
	threads := c.LogicalCores
	if threads <= 0 {
		threads = c.PhysicalCores
	}
	if threads <= 0 || (c.AvailableCPUs > 0 && threads > c.AvailableCPUs) {
		threads = c.AvailableCPUs
	}
	return max(threads, 1)
}
