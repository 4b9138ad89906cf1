package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all settings for the dashboard and for serve mode. YAML
// fields can come from a config file; flags override whatever was loaded.
type Config struct {
	BackendURL   string `yaml:"backend_url"`   // scanning backend the dashboard talks to
	EngineURL    string `yaml:"engine_url"`    // detection engine used in serve mode
	Port         int    `yaml:"port"`          // serve mode listen port
	TimeoutSec   int    `yaml:"timeout_sec"`   // per scan/fetch timeout
	HistoryLimit int    `yaml:"history_limit"` // max sessions pulled on refresh, 0 = backend default
	LogLevel     string `yaml:"log_level"`
	LogFile      string `yaml:"log_file"`
	NoColor      bool   `yaml:"no_color"`

	// Flag-only, never persisted.
	Serve       bool
	ScanTarget  string
	ScanTypeRaw string
	ShowHistory bool
	ShowStats   bool
	ExportPath  string
	ConfigFile  string
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		BackendURL:  "http://localhost:8000",
		Port:        8000,
		TimeoutSec:  30,
		LogLevel:    "info",
		ScanTypeRaw: "url",
	}
}

// LoadFile overlays YAML settings from path onto the config.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Timeout returns the scan timeout as a duration.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// ParseFlags parses the command line, loading the YAML file first when
// -config is given so explicit flags win.
func ParseFlags() (*Config, error) {
	return parse(flag.CommandLine, os.Args[1:])
}

func parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := Default()

	fs.StringVar(&cfg.ConfigFile, "config", "", "Path to YAML config file")
	backendURL := fs.String("backend", "", "Scanning backend base URL (default http://localhost:8000)")
	engineURL := fs.String("engine", "", "Detection engine base URL for serve mode")
	port := fs.Int("port", 0, "Listen port for serve mode")
	timeoutSec := fs.Int("timeout", 0, "Timeout per scan in seconds")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFile := fs.String("log-file", "", "Also write logs to this file")
	noColor := fs.Bool("no-color", false, "Disable colored output")

	fs.BoolVar(&cfg.Serve, "serve", false, "Run the dashboard API server instead of the terminal UI")
	fs.StringVar(&cfg.ScanTarget, "scan", "", "Submit a single scan and render the result")
	fs.StringVar(&cfg.ScanTypeRaw, "type", "url", "Scan type: url, stdio or config")
	fs.BoolVar(&cfg.ShowHistory, "history", false, "Print scan history and exit")
	fs.BoolVar(&cfg.ShowStats, "stats", false, "Print dashboard stats and exit")
	fs.StringVar(&cfg.ExportPath, "export", "", "Write the scan report to this file (with -scan)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.ConfigFile != "" {
		if err := cfg.LoadFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	// Explicit flags override file values.
	if *backendURL != "" {
		cfg.BackendURL = *backendURL
	}
	if *engineURL != "" {
		cfg.EngineURL = *engineURL
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *timeoutSec != 0 {
		cfg.TimeoutSec = *timeoutSec
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *noColor {
		cfg.NoColor = true
	}

	if cfg.Serve && cfg.EngineURL == "" {
		return nil, fmt.Errorf("serve mode needs a detection engine URL (-engine or engine_url)")
	}
	return cfg, nil
}
