// Command simulate exercises a full monitoring session offline: a scripted
// counter source replays a load profile through the real scheduler at
// compressed time, printing collected points, alert edges and the final
// trend report.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"sysmond/internal/logging"
	"sysmond/internal/monitor"
	"sysmond/internal/stats"
)

var (
	interval = flag.Duration("interval", 200*time.Millisecond, "Tick interval for the simulated session")
	window   = flag.Duration("window", 20*time.Millisecond, "Delta sampling window")
	cpuSpec  = flag.String("cpu", "20,30,45,70,85,95,90,75,55,40,30,25", "Comma-separated CPU busy percentages to replay")
	memPct   = flag.Float64("mem", 62.5, "Constant memory usage percentage")
	forecast = flag.Int("forecast", 3, "Forecast periods to print at the end")
)

func main() {
	flag.Parse()

	profile, err := parseProfile(*cpuSpec)
	if err != nil {
		log.Fatalf("Invalid cpu profile: %v", err)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  logging.LevelWarn,
		Format: logging.FormatText,
		Output: "stderr",
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	logging.SetGlobalLogger(logger)

	source := newScriptedSource(profile, *memPct)

	mon := monitor.New(source, logger)

	cfg := monitor.DefaultConfig()
	cfg.Interval = *interval
	cfg.SampleWindow = *window
	cfg.HistorySize = len(profile) + 8

	done := make(chan struct{})
	go printEvents(mon, len(profile), done)

	if err := mon.Start(cfg); err != nil {
		log.Fatalf("Failed to start monitor: %v", err)
	}

	<-done
	mon.Stop()

	report := mon.Trend(0, *forecast)
	fmt.Printf("\ntrend over %d samples:\n", report.Samples)
	fmt.Printf("  cpu:    %s", report.CPU.Direction)
	printForecast(report.CPU.Forecast)
	fmt.Printf("  memory: %s", report.Memory.Direction)
	printForecast(report.Memory.Forecast)

	if alerts := mon.ActiveAlerts(); len(alerts) > 0 {
		fmt.Println("\nstill firing:")
		for _, a := range alerts {
			fmt.Printf("  [%s] %s\n", a.Level, a.Message)
		}
	}
}

func printEvents(mon *monitor.Monitor, points int, done chan<- struct{}) {
	collected := 0
	for ev := range mon.Events() {
		switch ev.Type {
		case monitor.EventCollected:
			collected++
			fmt.Printf("point %2d: cpu %5.1f%%  mem %5.1f%%\n",
				collected, ev.Point.CPUPercent, ev.Point.MemoryPercent)
		case monitor.EventAlertRaised:
			fmt.Printf("  ALERT RAISED   [%s] %s\n", ev.Alert.Level, ev.Alert.Message)
		case monitor.EventAlertResolved:
			fmt.Printf("  ALERT RESOLVED [%s] %s\n", ev.Alert.Level, ev.Alert.RuleID)
		case monitor.EventSampleFailed:
			fmt.Fprintf(os.Stderr, "sample failed: %v\n", ev.Err)
		}
		if collected >= points {
			close(done)
			return
		}
	}
}

func printForecast(values []float64) {
	if len(values) == 0 {
		fmt.Println()
		return
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.1f", v)
	}
	fmt.Printf("  (next: %s)\n", strings.Join(parts, ", "))
}

func parseProfile(spec string) ([]float64, error) {
	fields := strings.Split(spec, ",")
	profile := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, err
		}
		if v < 0 || v > 100 {
			return nil, fmt.Errorf("percentage %v out of range", v)
		}
		profile = append(profile, v)
	}
	if len(profile) == 0 {
		return nil, fmt.Errorf("profile is empty")
	}
	return profile, nil
}

// scriptedSource replays a CPU busy-percentage profile as cumulative tick
// counters. Each CPUTicks call advances the counters by one step whose
// busy/idle split matches the current profile entry, so the delta the
// sampler computes reproduces the scripted percentage.
type scriptedSource struct {
	mu      sync.Mutex
	profile []float64
	memPct  float64
	calls   int
	ticks   stats.CPUTicks
}

func newScriptedSource(profile []float64, memPct float64) *scriptedSource {
	return &scriptedSource{profile: profile, memPct: memPct}
}

func (s *scriptedSource) CPUTicks() (stats.CPUTicks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The sampler reads twice per point; the profile advances on the
	// first read of each pair so the delta covers exactly one entry.
	step := s.calls / 2
	if step >= len(s.profile) {
		step = len(s.profile) - 1
	}
	busy := s.profile[step]

	if s.calls%2 == 1 {
		const stepTicks = 1000.0
		s.ticks.User += stepTicks * busy / 100
		s.ticks.Idle += stepTicks * (100 - busy) / 100
	}
	s.calls++

	return s.ticks, nil
}

func (s *scriptedSource) Memory() (stats.MemoryInfo, error) {
	total := uint64(16 << 30)
	used := uint64(float64(total) * s.memPct / 100)
	return stats.MemoryInfo{TotalBytes: total, UsedBytes: used}, nil
}

func (s *scriptedSource) Disks() ([]stats.DiskInfo, error) {
	return []stats.DiskInfo{
		{Mount: "/", TotalBytes: 512 << 30, UsedBytes: 215 << 30},
	}, nil
}
