package alert

import (
	"fmt"

	"sysmond/internal/stats"
)

// ThresholdRules builds the standard rule set for the given thresholds:
// warning and critical rules for CPU, memory and per-mount disk usage.
// A value equal to the threshold counts as firing, so a point that drops
// strictly below it resolves the alert.
func ThresholdRules(t stats.Thresholds) []Rule {
	return []Rule{
		{
			ID:    "cpu-warning",
			Level: LevelWarning,
			Predicate: func(p stats.DataPoint) bool {
				return p.CPUPercent >= t.CPUWarning
			},
			Message: func(p stats.DataPoint) string {
				return fmt.Sprintf("cpu usage %.1f%% at or above warning threshold %.1f%%",
					p.CPUPercent, t.CPUWarning)
			},
		},
		{
			ID:    "cpu-critical",
			Level: LevelCritical,
			Predicate: func(p stats.DataPoint) bool {
				return p.CPUPercent >= t.CPUCritical
			},
			Message: func(p stats.DataPoint) string {
				return fmt.Sprintf("cpu usage %.1f%% at or above critical threshold %.1f%%",
					p.CPUPercent, t.CPUCritical)
			},
		},
		{
			ID:    "memory-warning",
			Level: LevelWarning,
			Predicate: func(p stats.DataPoint) bool {
				return p.MemoryPercent >= t.MemoryWarning
			},
			Message: func(p stats.DataPoint) string {
				return fmt.Sprintf("memory usage %.1f%% at or above warning threshold %.1f%%",
					p.MemoryPercent, t.MemoryWarning)
			},
		},
		{
			ID:    "memory-critical",
			Level: LevelCritical,
			Predicate: func(p stats.DataPoint) bool {
				return p.MemoryPercent >= t.MemoryCritical
			},
			Message: func(p stats.DataPoint) string {
				return fmt.Sprintf("memory usage %.1f%% at or above critical threshold %.1f%%",
					p.MemoryPercent, t.MemoryCritical)
			},
		},
		{
			ID:    "disk-warning",
			Level: LevelWarning,
			Predicate: func(p stats.DataPoint) bool {
				_, pct := worstDisk(p)
				return pct >= t.DiskWarning
			},
			Message: func(p stats.DataPoint) string {
				mount, pct := worstDisk(p)
				return fmt.Sprintf("disk usage %.1f%% on %s at or above warning threshold %.1f%%",
					pct, mount, t.DiskWarning)
			},
		},
		{
			ID:    "disk-critical",
			Level: LevelCritical,
			Predicate: func(p stats.DataPoint) bool {
				_, pct := worstDisk(p)
				return pct >= t.DiskCritical
			},
			Message: func(p stats.DataPoint) string {
				mount, pct := worstDisk(p)
				return fmt.Sprintf("disk usage %.1f%% on %s at or above critical threshold %.1f%%",
					pct, mount, t.DiskCritical)
			},
		},
	}
}

// worstDisk returns the fullest mount in the point, or ("", 0) when the
// point carries no disk data.
func worstDisk(p stats.DataPoint) (string, float64) {
	var (
		worstMount string
		worstPct   float64 = -1
	)
	for mount, pct := range p.DiskPercent {
		if pct > worstPct || (pct == worstPct && mount < worstMount) {
			worstMount = mount
			worstPct = pct
		}
	}
	if worstPct < 0 {
		return "", 0
	}
	return worstMount, worstPct
}
