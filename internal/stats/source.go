package stats

import (
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"sysmond/internal/logging"
)

// ErrSourceUnavailable wraps failures of the underlying counter source.
var ErrSourceUnavailable = errors.New("counter source unavailable")

// CounterSource supplies raw system counters. CPUTicks values are cumulative
// and monotonically non-decreasing; Memory and Disks are instantaneous.
// Disks returns an empty slice, never nil, when no filesystems are visible.
type CounterSource interface {
	CPUTicks() (CPUTicks, error)
	Memory() (MemoryInfo, error)
	Disks() ([]DiskInfo, error)
}

// SystemSource reads counters from the running host via gopsutil.
type SystemSource struct{}

// NewSystemSource returns a CounterSource backed by the local kernel.
func NewSystemSource() *SystemSource {
	return &SystemSource{}
}

func (s *SystemSource) CPUTicks() (CPUTicks, error) {
	times, err := cpu.Times(false)
	if err != nil {
		return CPUTicks{}, fmt.Errorf("%w: cpu times: %v", ErrSourceUnavailable, err)
	}
	if len(times) == 0 {
		return CPUTicks{}, fmt.Errorf("%w: cpu times returned no entries", ErrSourceUnavailable)
	}

	// cpu.Times(false) aggregates across cores into a single entry.
	t := times[0]
	return CPUTicks{
		User: t.User + t.Nice,
		Sys:  t.System + t.Irq + t.Softirq + t.Steal,
		Idle: t.Idle + t.Iowait,
	}, nil
}

func (s *SystemSource) Memory() (MemoryInfo, error) {
	vmem, err := mem.VirtualMemory()
	if err != nil {
		return MemoryInfo{}, fmt.Errorf("%w: virtual memory: %v", ErrSourceUnavailable, err)
	}
	return MemoryInfo{TotalBytes: vmem.Total, UsedBytes: vmem.Used}, nil
}

func (s *SystemSource) Disks() ([]DiskInfo, error) {
	partitions, err := disk.Partitions(false)
	if err != nil {
		return nil, fmt.Errorf("%w: disk partitions: %v", ErrSourceUnavailable, err)
	}

	disks := make([]DiskInfo, 0, len(partitions))
	for _, partition := range partitions {
		usage, err := disk.Usage(partition.Mountpoint)
		if err != nil {
			logging.Warn("failed to read disk usage", "mount", partition.Mountpoint, "error", err)
			continue
		}
		disks = append(disks, DiskInfo{
			Mount:      partition.Mountpoint,
			TotalBytes: usage.Total,
			UsedBytes:  usage.Used,
		})
	}

	return disks, nil
}

// HostUptime reports how long the machine has been up.
func HostUptime() (time.Duration, error) {
	seconds, err := host.Uptime()
	if err != nil {
		return 0, fmt.Errorf("%w: uptime: %v", ErrSourceUnavailable, err)
	}
	return time.Duration(seconds) * time.Second, nil
}

// LoadAverage reports the 1, 5 and 15 minute load averages.
func LoadAverage() ([3]float64, error) {
	avg, err := load.Avg()
	if err != nil {
		return [3]float64{}, fmt.Errorf("%w: load average: %v", ErrSourceUnavailable, err)
	}
	return [3]float64{avg.Load1, avg.Load5, avg.Load15}, nil
}
