// Package monitor drives the periodic collection session: it schedules
// delta samples, maintains the bounded history, runs alert evaluation and
// publishes tick notifications.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"sysmond/internal/alert"
	"sysmond/internal/config"
	"sysmond/internal/logging"
	"sysmond/internal/stats"
	"sysmond/internal/trend"
)

// State is the scheduler lifecycle state.
type State int

const (
	StateStopped State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Config is the validated runtime configuration of one monitoring session.
type Config struct {
	Interval      time.Duration
	SampleWindow  time.Duration
	HistorySize   int
	AlertsEnabled bool
	Thresholds    stats.Thresholds
}

// DefaultConfig mirrors the file-config defaults.
func DefaultConfig() Config {
	return Config{
		Interval:      5 * time.Second,
		SampleWindow:  500 * time.Millisecond,
		HistorySize:   300,
		AlertsEnabled: true,
		Thresholds:    stats.DefaultThresholds(),
	}
}

// Validate rejects unusable values instead of clamping them.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", config.ErrInvalid, c.Interval)
	}
	if c.SampleWindow < 0 {
		return fmt.Errorf("%w: sample window must not be negative, got %s", config.ErrInvalid, c.SampleWindow)
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("%w: history size must be positive, got %d", config.ErrInvalid, c.HistorySize)
	}

	t := c.Thresholds
	pairs := []struct {
		name              string
		warning, critical float64
	}{
		{"cpu", t.CPUWarning, t.CPUCritical},
		{"memory", t.MemoryWarning, t.MemoryCritical},
		{"disk", t.DiskWarning, t.DiskCritical},
	}
	for _, p := range pairs {
		if p.warning < 0 || p.warning > 100 || p.critical < 0 || p.critical > 100 {
			return fmt.Errorf("%w: %s thresholds must be within [0,100]", config.ErrInvalid, p.name)
		}
		if p.warning >= p.critical {
			return fmt.Errorf("%w: %s warning threshold must be less than critical", config.ErrInvalid, p.name)
		}
	}

	return nil
}

// ConfigPatch is a partial configuration update. Nil fields keep the
// current value.
type ConfigPatch struct {
	Interval      *time.Duration
	SampleWindow  *time.Duration
	HistorySize   *int
	AlertsEnabled *bool
	Thresholds    *stats.Thresholds
}

// EventType classifies monitor notifications.
type EventType int

const (
	EventCollected EventType = iota
	EventSampleFailed
	EventTickSkipped
	EventAlertRaised
	EventAlertResolved
)

func (t EventType) String() string {
	switch t {
	case EventCollected:
		return "collected"
	case EventSampleFailed:
		return "sample-failed"
	case EventTickSkipped:
		return "tick-skipped"
	case EventAlertRaised:
		return "alert-raised"
	case EventAlertResolved:
		return "alert-resolved"
	default:
		return "unknown"
	}
}

// Event is one monitor notification. Point is set for EventCollected,
// Alert for the alert edges, Err for EventSampleFailed. Duration is how
// long the tick's sampling took, on EventCollected and EventSampleFailed.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Duration  time.Duration
	Point     *stats.DataPoint
	Alert     *alert.Alert
	Err       error
}

// Status is a point-in-time snapshot of the session.
type Status struct {
	State           State
	StartedAt       time.Time
	Interval        time.Duration
	HistoryLen      int
	HistoryCapacity int
	Ticks           uint64
	SkippedTicks    uint64
	FailedTicks     uint64
	ActiveAlerts    int
	EventsDropped   uint64
	LastSample      *stats.DataPoint
}

// MetricTrend is the direction and forecast of one metric series.
type MetricTrend struct {
	Direction trend.Direction
	Forecast  []float64
}

// TrendReport summarizes recent movement of the tracked metrics.
type TrendReport struct {
	Window  time.Duration
	Samples int
	CPU     MetricTrend
	Memory  MetricTrend
}

// eventBufferSize bounds the notification backlog; a slow consumer drops
// events rather than blocking the tick path.
const eventBufferSize = 256

// Monitor owns one monitoring session: a single timer, one history buffer
// and one alert evaluator. Start and Stop are idempotent.
type Monitor struct {
	mu      sync.Mutex
	state   State
	cfg     Config
	cancel  context.CancelFunc
	running *sync.WaitGroup

	source    stats.CounterSource
	sampler   *stats.DeltaSampler
	history   *stats.HistoryBuffer
	evaluator *alert.Evaluator
	logger    *logging.Logger

	events  chan Event
	dropped atomic.Uint64

	tickBusy  atomic.Bool
	ticks     atomic.Uint64
	skipped   atomic.Uint64
	failed    atomic.Uint64
	startedAt time.Time
	lastPoint atomic.Pointer[stats.DataPoint]

	trendOpts trend.Options
}

// New returns a stopped monitor over the given counter source. A nil logger
// falls back to the package global.
func New(source stats.CounterSource, logger *logging.Logger) *Monitor {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	logger = logger.WithComponent("monitor")

	return &Monitor{
		source:    source,
		sampler:   stats.NewDeltaSampler(source),
		history:   stats.NewHistoryBuffer(stats.DefaultHistorySize),
		evaluator: alert.NewEvaluator(logger),
		logger:    logger,
		events:    make(chan Event, eventBufferSize),
		trendOpts: trend.DefaultOptions(),
	}
}

// Events returns the notification channel. Events are dropped, not queued
// unboundedly, when the consumer falls behind.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Start validates cfg and begins periodic collection. Calling Start while
// already running is a no-op that leaves the existing timer untouched.
func (m *Monitor) Start(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateRunning {
		m.logger.Debug("start ignored, already running")
		return nil
	}

	m.cfg = cfg
	m.history = stats.NewHistoryBuffer(cfg.HistorySize)
	m.evaluator = alert.NewEvaluator(m.logger)
	if cfg.AlertsEnabled {
		if err := m.evaluator.ReplaceRules(alert.ThresholdRules(cfg.Thresholds)); err != nil {
			return err
		}
	}

	m.startedAt = time.Now()
	m.lastPoint.Store(nil)
	m.ticks.Store(0)
	m.skipped.Store(0)
	m.failed.Store(0)

	m.startLoopLocked()
	m.logger.Info("monitoring started",
		"interval", cfg.Interval.String(),
		"history_size", cfg.HistorySize,
		"alerts_enabled", cfg.AlertsEnabled)

	return nil
}

// Stop halts collection. It blocks until the timer goroutine and any
// in-flight tick have finished, so no tick runs after Stop returns.
// Stopping a stopped monitor is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.state != StateRunning {
		m.mu.Unlock()
		return
	}
	m.stopLoopLocked()
	m.mu.Unlock()

	m.logger.Info("monitoring stopped")
}

// UpdateConfig applies a partial configuration change atomically between
// ticks: a running session is paused, reconfigured and resumed. History
// survives the swap, shrunk to the newest points if the capacity dropped.
func (m *Monitor) UpdateConfig(patch ConfigPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	merged := m.cfg
	if m.state == StateStopped && merged.Interval == 0 {
		merged = DefaultConfig()
	}
	if patch.Interval != nil {
		merged.Interval = *patch.Interval
	}
	if patch.SampleWindow != nil {
		merged.SampleWindow = *patch.SampleWindow
	}
	if patch.HistorySize != nil {
		merged.HistorySize = *patch.HistorySize
	}
	if patch.AlertsEnabled != nil {
		merged.AlertsEnabled = *patch.AlertsEnabled
	}
	if patch.Thresholds != nil {
		merged.Thresholds = *patch.Thresholds
	}

	if err := merged.Validate(); err != nil {
		return err
	}

	wasRunning := m.state == StateRunning
	if wasRunning {
		m.stopLoopLocked()
	}

	if merged.HistorySize != m.cfg.HistorySize {
		m.history.Resize(merged.HistorySize)
	}

	var rules []alert.Rule
	if merged.AlertsEnabled {
		rules = alert.ThresholdRules(merged.Thresholds)
	}
	if err := m.evaluator.ReplaceRules(rules); err != nil {
		return err
	}

	m.cfg = merged

	if wasRunning {
		m.startLoopLocked()
	}

	m.logger.Info("configuration updated",
		"interval", merged.Interval.String(),
		"history_size", merged.HistorySize,
		"alerts_enabled", merged.AlertsEnabled)

	return nil
}

// Status reports the current session state and counters.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	state := m.state
	startedAt := m.startedAt
	interval := m.cfg.Interval
	history := m.history
	evaluator := m.evaluator
	m.mu.Unlock()

	status := Status{
		State:         state,
		StartedAt:     startedAt,
		Interval:      interval,
		Ticks:         m.ticks.Load(),
		SkippedTicks:  m.skipped.Load(),
		FailedTicks:   m.failed.Load(),
		EventsDropped: m.dropped.Load(),
	}
	if history != nil {
		status.HistoryLen = history.Len()
		status.HistoryCapacity = history.Capacity()
	}
	if evaluator != nil {
		status.ActiveAlerts = len(evaluator.Active())
	}
	if p := m.lastPoint.Load(); p != nil {
		clone := p.Clone()
		status.LastSample = &clone
	}
	return status
}

// History returns copies of the last n collected points, oldest first.
// n <= 0 returns the whole buffer.
func (m *Monitor) History(n int) []stats.DataPoint {
	m.mu.Lock()
	history := m.history
	m.mu.Unlock()

	if history == nil {
		return []stats.DataPoint{}
	}
	if n <= 0 {
		return history.All()
	}
	return history.Recent(n)
}

// Trend classifies movement of the CPU and memory series over the trailing
// window and extrapolates forecastPeriods steps ahead. A zero window spans
// the whole history.
func (m *Monitor) Trend(window time.Duration, forecastPeriods int) TrendReport {
	m.mu.Lock()
	history := m.history
	opts := m.trendOpts
	m.mu.Unlock()

	report := TrendReport{
		Window: window,
		CPU:    MetricTrend{Direction: trend.DirectionStable},
		Memory: MetricTrend{Direction: trend.DirectionStable},
	}
	if history == nil {
		return report
	}

	points := history.All()
	if window > 0 {
		cutoff := time.Now().Add(-window)
		kept := points[:0]
		for _, p := range points {
			if !p.Timestamp.Before(cutoff) {
				kept = append(kept, p)
			}
		}
		points = kept
	}
	report.Samples = len(points)

	cpuSeries := make([]float64, len(points))
	memSeries := make([]float64, len(points))
	for i, p := range points {
		cpuSeries[i] = p.CPUPercent
		memSeries[i] = p.MemoryPercent
	}

	report.CPU = MetricTrend{
		Direction: trend.Classify(cpuSeries, opts),
		Forecast:  trend.Forecast(cpuSeries, forecastPeriods),
	}
	report.Memory = MetricTrend{
		Direction: trend.Classify(memSeries, opts),
		Forecast:  trend.Forecast(memSeries, forecastPeriods),
	}
	return report
}

// ActiveAlerts returns the currently firing alerts in rule order.
func (m *Monitor) ActiveAlerts() []alert.Alert {
	m.mu.Lock()
	evaluator := m.evaluator
	m.mu.Unlock()

	if evaluator == nil {
		return nil
	}
	return evaluator.Active()
}

// ClearHistory empties the history buffer without touching alert state.
func (m *Monitor) ClearHistory() {
	m.mu.Lock()
	history := m.history
	m.mu.Unlock()

	if history != nil {
		history.Clear()
	}
}

// ClearAlerts drops all alert records, firing or resolved.
func (m *Monitor) ClearAlerts() {
	m.mu.Lock()
	evaluator := m.evaluator
	m.mu.Unlock()

	if evaluator != nil {
		evaluator.Clear()
	}
}

// startLoopLocked launches the timer goroutine. Caller holds m.mu.
func (m *Monitor) startLoopLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}

	m.cancel = cancel
	m.running = wg
	m.state = StateRunning

	wg.Add(1)
	go m.run(ctx, wg, m.cfg)
}

// stopLoopLocked cancels the timer goroutine and waits for it plus any
// in-flight tick to drain. Caller holds m.mu; the tick path never takes
// m.mu, so waiting here cannot deadlock.
func (m *Monitor) stopLoopLocked() {
	m.cancel()
	m.running.Wait()
	m.cancel = nil
	m.running = nil
	m.state = StateStopped
}

func (m *Monitor) run(ctx context.Context, wg *sync.WaitGroup, cfg Config) {
	defer wg.Done()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// The sampler waits SampleWindow inside the tick, so a tick can
			// outlive the interval. Overlapping ticks are skipped, never
			// queued, to keep the backlog bounded.
			if !m.tickBusy.CompareAndSwap(false, true) {
				m.skipped.Add(1)
				m.logger.Debug("tick still in flight, skipping")
				m.publish(Event{Type: EventTickSkipped, Timestamp: time.Now()})
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer m.tickBusy.Store(false)
				m.tick(ctx, cfg)
			}()
		}
	}
}

func (m *Monitor) tick(ctx context.Context, cfg Config) {
	started := time.Now()
	point, err := m.sampler.Sample(ctx, cfg.SampleWindow)
	elapsed := time.Since(started)
	if err != nil {
		if ctx.Err() != nil {
			// Session stopped mid-sample; not a failure.
			return
		}
		m.failed.Add(1)
		m.logger.Warn("sample failed, skipping tick", "error", err)
		m.publish(Event{Type: EventSampleFailed, Timestamp: time.Now(), Duration: elapsed, Err: err})
		return
	}

	m.history.Push(point)
	clone := point.Clone()
	m.lastPoint.Store(&clone)
	m.ticks.Add(1)

	for _, edge := range m.evaluator.Evaluate(point) {
		eventType := EventAlertRaised
		if edge.Type == alert.EventResolved {
			eventType = EventAlertResolved
		}
		record := edge.Alert
		m.logger.Info("alert state changed",
			"rule", record.RuleID,
			"level", record.Level.String(),
			"transition", edge.Type.String(),
			"message", record.Message)
		m.publish(Event{Type: eventType, Timestamp: time.Now(), Alert: &record})
	}

	published := point.Clone()
	m.publish(Event{Type: EventCollected, Timestamp: time.Now(), Duration: elapsed, Point: &published})
}

// publish never blocks the tick path; a full channel drops the event and
// counts the drop.
func (m *Monitor) publish(ev Event) {
	select {
	case m.events <- ev:
	default:
		if m.dropped.Add(1)%100 == 1 {
			m.logger.Warn("event channel full, dropping notifications",
				"dropped_total", m.dropped.Load())
		}
	}
}
