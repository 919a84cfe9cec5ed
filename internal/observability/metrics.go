package observability

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"sysmond/internal/logging"
)

// MetricType distinguishes counter and gauge readings.
type MetricType string

const (
	MetricTypeCounter MetricType = "counter"
	MetricTypeGauge   MetricType = "gauge"
)

// Metric is one named reading with optional labels.
type Metric struct {
	Name      string            `json:"name"`
	Type      MetricType        `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// MetricsCollector accumulates application metrics and flushes them through
// the metrics logger on a fixed cadence.
type MetricsCollector struct {
	mu            sync.RWMutex
	metrics       map[string]*Metric
	logger        *logging.MetricsLogger
	flushInterval time.Duration
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// NewMetricsCollector builds a collector and starts its flush loop.
func NewMetricsCollector(logger *logging.Logger, flushInterval time.Duration) *MetricsCollector {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	if flushInterval <= 0 {
		flushInterval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	mc := &MetricsCollector{
		metrics:       make(map[string]*Metric),
		logger:        logging.NewMetricsLogger(logger),
		flushInterval: flushInterval,
		ctx:           ctx,
		cancel:        cancel,
	}

	mc.wg.Add(1)
	go mc.flushLoop()

	return mc
}

// Stop halts the flush loop after one final flush.
func (mc *MetricsCollector) Stop() {
	mc.cancel()
	mc.wg.Wait()
	mc.Flush()
}

// IncCounter adds one to a counter.
func (mc *MetricsCollector) IncCounter(name string, labels map[string]string) {
	mc.AddCounter(name, 1, labels)
}

// AddCounter adds a value to a counter.
func (mc *MetricsCollector) AddCounter(name string, value float64, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := metricKey(name, labels)
	if metric, exists := mc.metrics[key]; exists {
		metric.Value += value
		metric.Timestamp = time.Now()
		return
	}
	mc.metrics[key] = &Metric{
		Name:      name,
		Type:      MetricTypeCounter,
		Value:     value,
		Labels:    labels,
		Timestamp: time.Now(),
	}
}

// SetGauge overwrites a gauge value.
func (mc *MetricsCollector) SetGauge(name string, value float64, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics[metricKey(name, labels)] = &Metric{
		Name:      name,
		Type:      MetricTypeGauge,
		Value:     value,
		Labels:    labels,
		Timestamp: time.Now(),
	}
}

// RecordTick tracks a collection tick and its outcome.
func (mc *MetricsCollector) RecordTick(duration time.Duration, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	mc.IncCounter("monitor_ticks_total", map[string]string{"outcome": outcome})
	mc.SetGauge("monitor_tick_duration_ms", float64(duration.Milliseconds()), nil)
}

// RecordSkippedTick tracks a tick suppressed by the reentrancy guard.
func (mc *MetricsCollector) RecordSkippedTick() {
	mc.IncCounter("monitor_ticks_skipped_total", nil)
}

// RecordAlertEvent tracks an alert edge by transition and rule.
func (mc *MetricsCollector) RecordAlertEvent(transition, rule string) {
	mc.IncCounter("monitor_alert_events_total", map[string]string{
		"transition": transition,
		"rule":       rule,
	})
}

// RecordHealthCheck tracks one health checker run.
func (mc *MetricsCollector) RecordHealthCheck(name string, healthy bool, duration time.Duration) {
	outcome := "healthy"
	if !healthy {
		outcome = "unhealthy"
	}
	mc.IncCounter("health_checks_total", map[string]string{
		"checker": name,
		"outcome": outcome,
	})
	mc.SetGauge("health_check_duration_ms", float64(duration.Milliseconds()),
		map[string]string{"checker": name})
}

// Snapshot returns copies of all current metrics.
func (mc *MetricsCollector) Snapshot() []Metric {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	out := make([]Metric, 0, len(mc.metrics))
	for _, metric := range mc.metrics {
		out = append(out, *metric)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Flush writes every current metric through the metrics logger.
func (mc *MetricsCollector) Flush() {
	for _, metric := range mc.Snapshot() {
		switch metric.Type {
		case MetricTypeCounter:
			mc.logger.LogCounter(metric.Name, int64(metric.Value), metric.Labels)
		case MetricTypeGauge:
			mc.logger.LogGauge(metric.Name, metric.Value, metric.Labels)
		}
	}
}

func (mc *MetricsCollector) flushLoop() {
	defer mc.wg.Done()

	ticker := time.NewTicker(mc.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-mc.ctx.Done():
			return
		case <-ticker.C:
			mc.Flush()
		}
	}
}

func metricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	return b.String()
}
