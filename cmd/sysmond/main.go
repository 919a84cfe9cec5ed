package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"sysmond/internal/config"
	"sysmond/internal/daemon"
	"sysmond/internal/logging"
)

const name = "sysmond"

var (
	// These are set by the build system via -ldflags.
	version   = "dev"     // Set via -X main.version=...
	buildTime = "unknown" // Set via -X main.buildTime=...
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	showVersion = flag.Bool("version", false, "Show version information")
	showHelp    = flag.Bool("help", false, "Show help information")
	logLevel    = flag.String("log-level", "", "Set log level (debug, info, warn, error)")
	interval    = flag.Duration("interval", 0, "Collection interval (e.g. 5s)")
	historySize = flag.Int("history", 0, "History buffer capacity")
	noAlerts    = flag.Bool("no-alerts", false, "Disable alert evaluation")
)

func main() {
	flag.Parse()

	if *showHelp {
		showUsage()
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("%s version %s\n", name, version)
		fmt.Printf("Build time: %s\n", buildTime)
		os.Exit(0)
	}

	cfg, cfgFile, err := loadConfiguration()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	applyCommandLineOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if flag.NArg() < 1 {
		showUsage()
		os.Exit(1)
	}

	command := flag.Args()[0]

	service, err := daemon.NewService(cfg, cfgFile)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	switch command {
	case "run":
		if err := service.Run(); err != nil {
			log.Fatalf("Failed to run service: %v", err)
		}
	case "install":
		status, err := service.Install()
		if err != nil {
			log.Fatalf("Failed to install service: %v", err)
		}

		fmt.Println(status)
	case "remove", "uninstall":
		status, err := service.Remove()
		if err != nil {
			log.Fatalf("Failed to remove service: %v", err)
		}

		fmt.Println(status)
	case "start":
		status, err := service.StartService()
		if err != nil {
			log.Fatalf("Failed to start service: %v", err)
		}

		fmt.Println(status)
	case "stop":
		status, err := service.StopService()
		if err != nil {
			log.Fatalf("Failed to stop service: %v", err)
		}

		fmt.Println(status)
	case "status":
		status, err := service.ServiceStatus()
		if err != nil {
			log.Fatalf("Failed to get service status: %v", err)
		}

		fmt.Println(status)
	case "config":
		showConfiguration(cfg, cfgFile)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}

func loadConfiguration() (*config.Config, string, error) {
	if *configPath != "" {
		cfg, err := config.LoadConfig(*configPath)
		return cfg, *configPath, err
	}

	configFile, err := config.FindConfig()
	if err != nil {
		log.Printf("No configuration file found, using defaults")

		return config.DefaultConfig(), "", nil //nolint:nilerr
	}

	cfg, err := config.LoadConfig(configFile)
	return cfg, configFile, err
}

func applyCommandLineOverrides(cfg *config.Config) {
	if *interval > 0 {
		cfg.Monitor.Interval = *interval
	}

	if *historySize > 0 {
		cfg.Monitor.HistorySize = *historySize
	}

	if *noAlerts {
		cfg.Monitor.AlertsEnabled = false
	}

	if *logLevel != "" {
		cfg.Logging.Level = logging.Level(*logLevel)
	}
}

func showUsage() {
	fmt.Printf(`%s - System Metrics Monitoring Daemon

USAGE:
    %s [OPTIONS] <COMMAND>

COMMANDS:
    run                 Run the daemon in foreground mode
    install             Install the daemon as a system service
    remove, uninstall   Remove the daemon service
    start               Start the installed daemon service
    stop                Stop the running daemon service
    status              Show the daemon service status
    config              Show current configuration

OPTIONS:
    -config string      Path to configuration file
    -interval duration  Collection interval (e.g. 5s, 500ms)
    -history int        History buffer capacity
    -no-alerts          Disable alert evaluation
    -log-level string   Set log level (debug, info, warn, error)
    -version            Show version information
    -help               Show this help message

EXAMPLES:
    %s run                              # Run in foreground
    %s -config /etc/sysmond.yaml run    # Run with custom config
    %s -interval 2s -history 600 run    # Run with overrides
    %s install                          # Install as system service
    %s start                            # Start system service

CONFIGURATION:
    The daemon looks for configuration files in the following order:
    1. Path specified by -config flag
    2. $XDG_CONFIG_HOME/sysmond/config.yaml
    3. $HOME/.config/sysmond/config.yaml
    4. /etc/sysmond/config.yaml
    5. ./configs/config.yaml

`, name, name, name, name, name, name, name)
}

func showConfiguration(cfg *config.Config, cfgFile string) {
	fmt.Printf("Current Configuration:\n")
	if cfgFile != "" {
		fmt.Printf("  File: %s\n", cfgFile)
	} else {
		fmt.Printf("  File: (defaults, no file found)\n")
	}
	fmt.Printf("  Monitor:\n")
	fmt.Printf("    Interval: %s\n", cfg.Monitor.Interval)
	fmt.Printf("    Sample Window: %s\n", cfg.Monitor.SampleWindow)
	fmt.Printf("    History Size: %d\n", cfg.Monitor.HistorySize)
	fmt.Printf("    Alerts Enabled: %t\n", cfg.Monitor.AlertsEnabled)
	fmt.Printf("  Thresholds:\n")
	fmt.Printf("    CPU Warning/Critical: %.1f%% / %.1f%%\n",
		cfg.Monitor.Thresholds.CPUWarning, cfg.Monitor.Thresholds.CPUCritical)
	fmt.Printf("    Memory Warning/Critical: %.1f%% / %.1f%%\n",
		cfg.Monitor.Thresholds.MemoryWarning, cfg.Monitor.Thresholds.MemoryCritical)
	fmt.Printf("    Disk Warning/Critical: %.1f%% / %.1f%%\n",
		cfg.Monitor.Thresholds.DiskWarning, cfg.Monitor.Thresholds.DiskCritical)
	fmt.Printf("  Logging:\n")
	fmt.Printf("    Level: %s\n", cfg.Logging.Level)
	fmt.Printf("    Format: %s\n", cfg.Logging.Format)
	fmt.Printf("    Output: %s\n", cfg.Logging.Output)
}
