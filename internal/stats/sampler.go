package stats

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval rejects negative sampling windows before any snapshot
// is taken.
var ErrInvalidInterval = errors.New("sampling interval must not be negative")

// DeltaSampler computes utilization ratios from two counter snapshots
// separated by a wait. Memory and disk are instantaneous ratios taken with
// the second snapshot.
type DeltaSampler struct {
	source CounterSource

	// wait is replaceable in tests so sampling does not sleep.
	wait func(ctx context.Context, d time.Duration) error
}

// NewDeltaSampler returns a sampler over the given counter source.
func NewDeltaSampler(source CounterSource) *DeltaSampler {
	return &DeltaSampler{
		source: source,
		wait:   sleepContext,
	}
}

// Sample reads the counters, waits for window, reads them again and returns
// the computed DataPoint. A zero-delta window reports 0% rather than NaN,
// and counter regressions are clamped so a transient anomaly never produces
// a value outside [0,100].
func (s *DeltaSampler) Sample(ctx context.Context, window time.Duration) (DataPoint, error) {
	if window < 0 {
		return DataPoint{}, fmt.Errorf("sample: %w: %s", ErrInvalidInterval, window)
	}

	before, err := s.source.CPUTicks()
	if err != nil {
		return DataPoint{}, fmt.Errorf("sample: first cpu snapshot: %w", err)
	}

	if err := s.wait(ctx, window); err != nil {
		return DataPoint{}, fmt.Errorf("sample: %w", err)
	}

	after, err := s.source.CPUTicks()
	if err != nil {
		return DataPoint{}, fmt.Errorf("sample: second cpu snapshot: %w", err)
	}

	point := DataPoint{
		Timestamp:  time.Now(),
		CPUPercent: cpuBusyPercent(before, after),
	}

	memory, err := s.source.Memory()
	if err != nil {
		return DataPoint{}, fmt.Errorf("sample: memory: %w", err)
	}
	point.MemoryPercent = usagePercent(memory.UsedBytes, memory.TotalBytes)

	disks, err := s.source.Disks()
	if err != nil {
		return DataPoint{}, fmt.Errorf("sample: disks: %w", err)
	}
	point.DiskPercent = make(map[string]float64, len(disks))
	for _, d := range disks {
		point.DiskPercent[d.Mount] = usagePercent(d.UsedBytes, d.TotalBytes)
	}

	return point, nil
}

func cpuBusyPercent(before, after CPUTicks) float64 {
	deltaUser := after.User - before.User
	deltaSys := after.Sys - before.Sys
	deltaIdle := after.Idle - before.Idle

	total := deltaUser + deltaSys + deltaIdle
	if total <= 0 {
		// Zero-width or regressed window, e.g. a clock anomaly under a
		// virtualized scheduler. Report idle instead of NaN.
		return 0
	}

	return clampPercent((deltaUser + deltaSys) / total * 100)
}

func usagePercent(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return clampPercent(float64(used) / float64(total) * 100)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
