package cfg

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath   string `long:"db-path" env:"DB_PATH" default:"./data/blog-comb.db" description:"SQLite database file for fetched snapshots"`
	RedisURL string `long:"redis-url" env:"REDIS_URL" description:"Redis URL for session state (optional, in-memory when empty)"`

	// Upstream API
	APIBaseURL     string `long:"api-base-url" env:"API_BASE_URL" default:"https://tech-test-backend.dwsbrazil.io/" description:"Base URL of the blog API"`
	RequestTimeout int    `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"30" description:"Upstream request timeout in seconds"`
	UserAgent      string `long:"user-agent" env:"USER_AGENT" default:"Blog Comb/1.0" description:"User agent string for HTTP requests"`

	// Application configuration
	ViewsDir          string `long:"views-dir" env:"VIEWS_DIR" default:"./views" description:"Directory containing view preset files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://blog.example.com)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for snapshot refresh"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler interval in seconds"`
	RefreshInterval   int    `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"300" description:"Minimum age in seconds before a snapshot is refetched"`
	SessionTTL        int    `long:"session-ttl" env:"SESSION_TTL" default:"86400" description:"Idle session lifetime in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg, err := build(raw)
	if err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func build(raw rawCfg) (*Cfg, error) {
	positive := map[string]int{
		"request timeout":    raw.RequestTimeout,
		"worker count":       raw.WorkerCount,
		"scheduler interval": raw.SchedulerInterval,
		"session ttl":        raw.SessionTTL,
	}
	for name, value := range positive {
		if value <= 0 {
			return nil, fmt.Errorf("%s must be positive", name)
		}
	}
	if raw.RefreshInterval < 0 {
		return nil, fmt.Errorf("refresh interval must be non-negative")
	}
	if raw.APIBaseURL == "" {
		return nil, fmt.Errorf("API base URL is required")
	}

	return &Cfg{
		DBPath:            raw.DBPath,
		RedisURL:          raw.RedisURL,
		APIBaseURL:        strings.TrimRight(raw.APIBaseURL, "/") + "/",
		RequestTimeout:    time.Duration(raw.RequestTimeout) * time.Second,
		UserAgent:         raw.UserAgent,
		ViewsDir:          raw.ViewsDir,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: time.Duration(raw.SchedulerInterval) * time.Second,
		RefreshInterval:   time.Duration(raw.RefreshInterval) * time.Second,
		SessionTTL:        time.Duration(raw.SessionTTL) * time.Second,
		APIAccessKey:      raw.APIAccessKey,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
