package daemon

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/takama/daemon"

	"sysmond/internal/config"
	"sysmond/internal/logging"
	"sysmond/internal/monitor"
	"sysmond/internal/observability"
	"sysmond/internal/stats"
)

// Service runs the monitor as a system daemon: it owns the logger, the
// health monitor, the metrics collector and the config watcher, and it
// translates signals and file changes into monitor lifecycle calls.
type Service struct {
	daemon.Daemon

	cfg     *config.Config
	cfgPath string

	logger  *logging.Logger
	monitor *monitor.Monitor
	health  *observability.HealthMonitor
	metrics *observability.MetricsCollector
	watcher *config.Watcher

	mu     sync.Mutex
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewService wraps the configuration in a system-daemon handle. cfgPath may
// be empty when no configuration file is in play; live reload is then
// driven by SIGHUP only.
func NewService(cfg *config.Config, cfgPath string) (*Service, error) {
	d, err := daemon.New(cfg.Daemon.Name, cfg.Daemon.Description, daemon.SystemDaemon, "run")
	if err != nil {
		return nil, fmt.Errorf("failed to create daemon: %w", err)
	}

	return &Service{
		Daemon:  d,
		cfg:     cfg,
		cfgPath: cfgPath,
		stopCh:  make(chan struct{}),
	}, nil
}

// Initialize builds the logger and the monitoring components without
// starting collection.
func (s *Service) Initialize() error {
	logger, err := logging.NewLogger(s.cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logging.SetGlobalLogger(logger)
	s.logger = logger.WithComponent("daemon")

	s.metrics = observability.NewMetricsCollector(logger, time.Minute)
	s.monitor = monitor.New(stats.NewSystemSource(), logger)

	s.health = observability.NewHealthMonitor(logger, s.metrics, 30*time.Second)
	s.health.RegisterChecker(observability.NewSourceHealthChecker("counter-source", stats.NewSystemSource()))
	s.health.RegisterChecker(observability.NewConfigHealthChecker("config", func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.cfg.Validate()
	}))
	s.health.RegisterChecker(observability.NewMemoryHealthChecker("process-memory", 512<<20))
	s.health.RegisterChecker(observability.NewDiskSpaceHealthChecker("disk-space", "/", 128<<20))

	s.logger.Info("daemon initialized")
	return nil
}

// Start begins monitoring, health checking, signal handling and config
// watching.
func (s *Service) Start() error {
	if s.logger == nil {
		if err := s.Initialize(); err != nil {
			return err
		}
	}

	if err := s.monitor.Start(monitorConfig(s.cfg.Monitor)); err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}

	s.health.Start()

	s.wg.Add(1)
	go s.consumeEvents()

	s.wg.Add(1)
	go s.handleSignals()

	if s.cfgPath != "" {
		watcher, err := config.WatchConfig(s.cfgPath, s.logger, s.applyConfig)
		if err != nil {
			s.logger.Warn("config watching disabled", "error", err)
		} else {
			s.watcher = watcher
		}
	}

	s.logger.Info("daemon started")
	return nil
}

// Stop tears everything down in reverse order of Start.
func (s *Service) Stop() error {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			s.logger.Warn("failed to close config watcher", "error", err)
		}
		s.watcher = nil
	}

	s.monitor.Stop()
	s.health.Stop()
	s.wg.Wait()
	s.metrics.Stop()

	s.logger.Info("daemon stopped")
	return nil
}

// Run starts the service and blocks until it is told to stop.
func (s *Service) Run() error {
	if err := s.Start(); err != nil {
		return err
	}

	<-s.stopCh
	return s.Stop()
}

// Monitor exposes the underlying monitor for CLI surfaces.
func (s *Service) Monitor() *monitor.Monitor {
	return s.monitor
}

// StatusReport renders current session state, host uptime and load.
func (s *Service) StatusReport() string {
	status := s.monitor.Status()

	report := fmt.Sprintf("monitor: %s", status.State)
	if status.State == monitor.StateRunning {
		report += fmt.Sprintf(" (since %s)", status.StartedAt.Format(time.RFC3339))
	}
	report += fmt.Sprintf("\nticks: %d collected, %d skipped, %d failed",
		status.Ticks, status.SkippedTicks, status.FailedTicks)
	report += fmt.Sprintf("\nhistory: %d/%d points", status.HistoryLen, status.HistoryCapacity)
	report += fmt.Sprintf("\nactive alerts: %d", status.ActiveAlerts)

	if last := status.LastSample; last != nil {
		report += fmt.Sprintf("\nlast sample: cpu %.1f%%, memory %.1f%%",
			last.CPUPercent, last.MemoryPercent)
	}
	if uptime, err := stats.HostUptime(); err == nil {
		report += fmt.Sprintf("\nhost uptime: %s", uptime)
	}
	if loadAvg, err := stats.LoadAverage(); err == nil {
		report += fmt.Sprintf("\nload average: %.2f %.2f %.2f",
			loadAvg[0], loadAvg[1], loadAvg[2])
	}

	return report
}

func (s *Service) consumeEvents() {
	defer s.wg.Done()

	events := s.monitor.Events()
	for {
		select {
		case <-s.stopCh:
			return
		case ev := <-events:
			s.recordEvent(ev)
		}
	}
}

func (s *Service) recordEvent(ev monitor.Event) {
	switch ev.Type {
	case monitor.EventCollected:
		if ev.Point != nil {
			s.metrics.SetGauge("system_cpu_percent", ev.Point.CPUPercent, nil)
			s.metrics.SetGauge("system_memory_percent", ev.Point.MemoryPercent, nil)
			s.metrics.RecordTick(ev.Duration, true)
		}
	case monitor.EventSampleFailed:
		s.metrics.RecordTick(ev.Duration, false)
	case monitor.EventTickSkipped:
		s.metrics.RecordSkippedTick()
	case monitor.EventAlertRaised:
		if ev.Alert != nil {
			s.metrics.RecordAlertEvent("raised", ev.Alert.RuleID)
		}
	case monitor.EventAlertResolved:
		if ev.Alert != nil {
			s.metrics.RecordAlertEvent("resolved", ev.Alert.RuleID)
		}
	}
}

func (s *Service) handleSignals() {
	defer s.wg.Done()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-s.stopCh:
			return
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGINT, syscall.SIGTERM:
				s.logger.Info("received shutdown signal", "signal", sig.String())
				select {
				case <-s.stopCh:
				default:
					close(s.stopCh)
				}
				return
			case syscall.SIGHUP:
				s.logger.Info("received SIGHUP, reloading configuration")
				if err := s.reloadConfig(); err != nil {
					s.logger.Warn("failed to reload config", "error", err)
				}
			}
		}
	}
}

func (s *Service) reloadConfig() error {
	newConfig, err := config.LoadConfig(s.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	s.applyConfig(newConfig)
	return nil
}

// applyConfig pushes a freshly loaded configuration into the running
// monitor. The monitor swaps it atomically between ticks.
func (s *Service) applyConfig(cfg *config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	mc := monitorConfig(cfg.Monitor)
	if err := s.monitor.UpdateConfig(monitor.ConfigPatch{
		Interval:      &mc.Interval,
		SampleWindow:  &mc.SampleWindow,
		HistorySize:   &mc.HistorySize,
		AlertsEnabled: &mc.AlertsEnabled,
		Thresholds:    &mc.Thresholds,
	}); err != nil {
		s.logger.Warn("rejected configuration update", "error", err)
		return
	}

	s.logger.Info("configuration applied")
}

func monitorConfig(mc config.MonitorConfig) monitor.Config {
	return monitor.Config{
		Interval:      mc.Interval,
		SampleWindow:  mc.SampleWindow,
		HistorySize:   mc.HistorySize,
		AlertsEnabled: mc.AlertsEnabled,
		Thresholds: stats.Thresholds{
			CPUWarning:     mc.Thresholds.CPUWarning,
			CPUCritical:    mc.Thresholds.CPUCritical,
			MemoryWarning:  mc.Thresholds.MemoryWarning,
			MemoryCritical: mc.Thresholds.MemoryCritical,
			DiskWarning:    mc.Thresholds.DiskWarning,
			DiskCritical:   mc.Thresholds.DiskCritical,
		},
	}
}

// Install registers the daemon with the host service manager.
func (s *Service) Install() (string, error) {
	return s.Daemon.Install()
}

// Remove unregisters the daemon.
func (s *Service) Remove() (string, error) {
	return s.Daemon.Remove()
}

// ServiceStatus queries the host service manager.
func (s *Service) ServiceStatus() (string, error) {
	return s.Daemon.Status()
}

// StartService starts the installed service.
func (s *Service) StartService() (string, error) {
	return s.Daemon.Start()
}

// StopService stops the installed service.
func (s *Service) StopService() (string, error) {
	return s.Daemon.Stop()
}
