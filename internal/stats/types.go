package stats

import "time"

// CPUTicks holds cumulative CPU time counters aggregated across all cores.
// Values only ever grow between reads on a healthy kernel.
type CPUTicks struct {
	User float64
	Sys  float64
	Idle float64
}

// MemoryInfo is an instantaneous view of physical memory.
type MemoryInfo struct {
	TotalBytes uint64
	UsedBytes  uint64
}

// DiskInfo is an instantaneous view of one mounted filesystem.
type DiskInfo struct {
	Mount      string
	TotalBytes uint64
	UsedBytes  uint64
}

// DataPoint is one computed sample. Values are percentages in [0,100].
// A DataPoint is never mutated after the sampler returns it.
type DataPoint struct {
	Timestamp     time.Time
	CPUPercent    float64
	MemoryPercent float64
	DiskPercent   map[string]float64
}

// Clone returns a deep copy so consumers can hand out points without
// sharing the disk map.
func (p DataPoint) Clone() DataPoint {
	out := p
	if p.DiskPercent != nil {
		out.DiskPercent = make(map[string]float64, len(p.DiskPercent))
		for mount, pct := range p.DiskPercent {
			out.DiskPercent[mount] = pct
		}
	}
	return out
}

// Thresholds defines the percentage levels at which resource usage is
// considered degraded.
type Thresholds struct {
	CPUWarning     float64
	CPUCritical    float64
	MemoryWarning  float64
	MemoryCritical float64
	DiskWarning    float64
	DiskCritical   float64
}

// DefaultThresholds returns the stock warning and critical levels.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CPUWarning:     70.0,
		CPUCritical:    90.0,
		MemoryWarning:  80.0,
		MemoryCritical: 95.0,
		DiskWarning:    80.0,
		DiskCritical:   95.0,
	}
}
