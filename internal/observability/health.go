package observability

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"sysmond/internal/logging"
	"sysmond/internal/stats"
)

// HealthStatus is the reported condition of one component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusUnknown   HealthStatus = "unknown"
	StatusStarting  HealthStatus = "starting"
)

// HealthCheck is the recorded outcome of one checker run.
type HealthCheck struct {
	Name        string        `json:"name"`
	Status      HealthStatus  `json:"status"`
	Message     string        `json:"message,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// HealthChecker probes one component.
type HealthChecker interface {
	Check(ctx context.Context) error
	Name() string
	Timeout() time.Duration
}

// HealthMonitor periodically runs registered checkers and keeps their
// latest results.
type HealthMonitor struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
	results  map[string]*HealthCheck
	logger   *logging.Logger
	metrics  *MetricsCollector

	checkInterval time.Duration
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup

	checkSem chan struct{}
}

// NewHealthMonitor builds a stopped health monitor. A non-positive interval
// falls back to one second so the ticker cannot panic.
func NewHealthMonitor(logger *logging.Logger, metrics *MetricsCollector, checkInterval time.Duration) *HealthMonitor {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	logger = logger.WithComponent("health")

	if checkInterval <= 0 {
		logger.Warn("invalid health check interval, using 1s",
			"provided", checkInterval.String())
		checkInterval = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &HealthMonitor{
		checkers:      make(map[string]HealthChecker),
		results:       make(map[string]*HealthCheck),
		logger:        logger,
		metrics:       metrics,
		checkInterval: checkInterval,
		ctx:           ctx,
		cancel:        cancel,
		checkSem:      make(chan struct{}, 4),
	}
}

// RegisterChecker adds a checker; its first result is "starting" until the
// first run completes.
func (hm *HealthMonitor) RegisterChecker(checker HealthChecker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	hm.checkers[checker.Name()] = checker
	hm.results[checker.Name()] = &HealthCheck{
		Name:        checker.Name(),
		Status:      StatusStarting,
		LastChecked: time.Now(),
	}

	hm.logger.Info("health checker registered", "checker", checker.Name())
}

// Start begins background checking.
func (hm *HealthMonitor) Start() {
	hm.wg.Add(1)
	go hm.monitorLoop()

	hm.logger.Info("health monitor started", "interval", hm.checkInterval.String())
}

// Stop halts background checking and waits for in-flight checks.
func (hm *HealthMonitor) Stop() {
	hm.cancel()
	hm.wg.Wait()

	hm.logger.Info("health monitor stopped")
}

// GetHealth returns copies of the latest results keyed by checker name.
func (hm *HealthMonitor) GetHealth() map[string]*HealthCheck {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	result := make(map[string]*HealthCheck, len(hm.results))
	for name, check := range hm.results {
		copied := *check
		result[name] = &copied
	}
	return result
}

// GetOverallHealth folds all component results into one status.
func (hm *HealthMonitor) GetOverallHealth() HealthStatus {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	if len(hm.results) == 0 {
		return StatusUnknown
	}

	overall := StatusHealthy
	for _, check := range hm.results {
		switch check.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusStarting:
			overall = StatusStarting
		}
	}
	return overall
}

// IsHealthy reports whether every component is healthy.
func (hm *HealthMonitor) IsHealthy() bool {
	return hm.GetOverallHealth() == StatusHealthy
}

func (hm *HealthMonitor) monitorLoop() {
	defer hm.wg.Done()

	ticker := time.NewTicker(hm.checkInterval)
	defer ticker.Stop()

	hm.runAllChecks()

	for {
		select {
		case <-hm.ctx.Done():
			return
		case <-ticker.C:
			hm.runAllChecks()
		}
	}
}

func (hm *HealthMonitor) runAllChecks() {
	hm.mu.RLock()
	checkers := make([]HealthChecker, 0, len(hm.checkers))
	for _, checker := range hm.checkers {
		checkers = append(checkers, checker)
	}
	hm.mu.RUnlock()

	var wg sync.WaitGroup
	for _, checker := range checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()

			select {
			case hm.checkSem <- struct{}{}:
				defer func() { <-hm.checkSem }()
				hm.runCheck(c)
			case <-hm.ctx.Done():
			}
		}(checker)
	}
	wg.Wait()
}

func (hm *HealthMonitor) runCheck(checker HealthChecker) {
	timeout := checker.Timeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(hm.ctx, timeout)
	defer cancel()

	start := time.Now()
	err := checker.Check(ctx)
	duration := time.Since(start)

	result := &HealthCheck{
		Name:        checker.Name(),
		LastChecked: time.Now(),
		Duration:    duration,
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
		result.Error = err.Error()
	} else {
		result.Status = StatusHealthy
		result.Message = "OK"
	}

	hm.mu.Lock()
	hm.results[checker.Name()] = result
	hm.mu.Unlock()

	if hm.metrics != nil {
		hm.metrics.RecordHealthCheck(checker.Name(), err == nil, duration)
	}

	if err != nil {
		hm.logger.Warn("health check failed",
			"checker", checker.Name(),
			"duration", duration.String(),
			"error", err)
	} else {
		hm.logger.Debug("health check passed",
			"checker", checker.Name(),
			"duration", duration.String())
	}
}

// SourceHealthChecker verifies the counter source still answers.
type SourceHealthChecker struct {
	name   string
	source stats.CounterSource
}

func NewSourceHealthChecker(name string, source stats.CounterSource) *SourceHealthChecker {
	return &SourceHealthChecker{name: name, source: source}
}

func (s *SourceHealthChecker) Name() string { return s.name }

func (s *SourceHealthChecker) Timeout() time.Duration { return 3 * time.Second }

func (s *SourceHealthChecker) Check(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		_, err := s.source.CPUTicks()
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// ConfigHealthChecker re-validates the active configuration.
type ConfigHealthChecker struct {
	name     string
	validate func() error
}

func NewConfigHealthChecker(name string, validate func() error) *ConfigHealthChecker {
	return &ConfigHealthChecker{name: name, validate: validate}
}

func (c *ConfigHealthChecker) Name() string { return c.name }

func (c *ConfigHealthChecker) Timeout() time.Duration { return 2 * time.Second }

func (c *ConfigHealthChecker) Check(ctx context.Context) error {
	if c.validate == nil {
		return fmt.Errorf("no validate function provided")
	}
	return c.validate()
}

// MemoryHealthChecker fails once the process heap exceeds a limit.
type MemoryHealthChecker struct {
	name     string
	maxBytes uint64
}

func NewMemoryHealthChecker(name string, maxBytes uint64) *MemoryHealthChecker {
	return &MemoryHealthChecker{name: name, maxBytes: maxBytes}
}

func (m *MemoryHealthChecker) Name() string { return m.name }

func (m *MemoryHealthChecker) Timeout() time.Duration { return time.Second }

func (m *MemoryHealthChecker) Check(ctx context.Context) error {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	if m.maxBytes > 0 && ms.HeapAlloc > m.maxBytes {
		return fmt.Errorf("heap usage %d bytes exceeds limit %d", ms.HeapAlloc, m.maxBytes)
	}
	return nil
}

// DiskSpaceHealthChecker fails when free space at a path drops below a
// minimum.
type DiskSpaceHealthChecker struct {
	name         string
	path         string
	minFreeBytes uint64
}

func NewDiskSpaceHealthChecker(name, path string, minFreeBytes uint64) *DiskSpaceHealthChecker {
	return &DiskSpaceHealthChecker{name: name, path: path, minFreeBytes: minFreeBytes}
}

func (d *DiskSpaceHealthChecker) Name() string { return d.name }

func (d *DiskSpaceHealthChecker) Timeout() time.Duration { return 2 * time.Second }

func (d *DiskSpaceHealthChecker) Check(ctx context.Context) error {
	_, free, err := diskFreeBytes(d.path)
	if err != nil {
		return fmt.Errorf("statfs %s: %w", d.path, err)
	}
	if free < d.minFreeBytes {
		return fmt.Errorf("only %d bytes free at %s, need %d", free, d.path, d.minFreeBytes)
	}
	return nil
}
