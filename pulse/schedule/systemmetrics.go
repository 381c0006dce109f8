package schedule

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// systemMetrics is a point-in-time snapshot of host resource use, logged
// alongside tick activity so resource pressure shows up next to scheduled
// work instead of in a separate stream.
type systemMetrics struct {
	CPUPercent    float64
	MemoryUsedGB  float64
	MemoryTotalGB float64
	MemoryPercent float64
}

// collectSystemMetrics samples host CPU and memory. Sampling failures are
// swallowed and surfaced as zero values — a metrics sampling failure must
// never interrupt the tick loop.
func collectSystemMetrics() systemMetrics {
	var m systemMetrics

	if percentages, err := cpu.Percent(0, false); err == nil && len(percentages) > 0 {
		m.CPUPercent = percentages[0]
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		const gb = 1024 * 1024 * 1024
		m.MemoryUsedGB = float64(vm.Used) / gb
		m.MemoryTotalGB = float64(vm.Total) / gb
		m.MemoryPercent = vm.UsedPercent
	}

	return m
}
