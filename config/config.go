package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds scraper configuration. All scroll thresholds are tunables, not
// protocol constants; the defaults below are the values the target listing
// was calibrated against.
type Config struct {
	StartURL     string
	CardSelector string
	UserAgent    string
	Headless     bool

	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration

	MaxAttempts       int
	StallThreshold    int
	RecoveryThreshold int

	ScrollStep       int
	ScrollBudget     int
	BottomGap        int
	NearBottomMargin int
	RecoveryScrollBy int

	StepDelayMin      time.Duration
	StepDelayMax      time.Duration
	SettleDelayMin    time.Duration
	SettleDelayMax    time.Duration
	IterDelayMin      time.Duration
	IterDelayMax      time.Duration
	RecoveryDelayMin  time.Duration
	RecoveryDelayMax  time.Duration
	PostClickDelayMin time.Duration
	PostClickDelayMax time.Duration
	LongPauseMin      time.Duration
	LongPauseMax      time.Duration

	LongPauseEvery   int
	CheckpointEvery  int
	CheckpointPrefix string

	OutputFile   string
	OutputFormat string // csv, json, or dual
	MetricsAddr  string
	Verbose      bool
}

// DefaultConfig returns the defaults for the store listing target.
func DefaultConfig() *Config {
	return &Config{
		StartURL:     "https://apify.com/store/categories?sortBy=popularity",
		CardSelector: `[data-test="actor-card"]`,
		UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		Headless:     true,

		NavigationTimeout: 60 * time.Second,
		SelectorTimeout:   30 * time.Second,

		MaxAttempts:       350,
		StallThreshold:    15,
		RecoveryThreshold: 5,

		ScrollStep:       300,
		ScrollBudget:     1200,
		BottomGap:        800,
		NearBottomMargin: 1000,
		RecoveryScrollBy: 1000,

		StepDelayMin:      100 * time.Millisecond,
		StepDelayMax:      500 * time.Millisecond,
		SettleDelayMin:    500 * time.Millisecond,
		SettleDelayMax:    1500 * time.Millisecond,
		IterDelayMin:      1 * time.Second,
		IterDelayMax:      3 * time.Second,
		RecoveryDelayMin:  1 * time.Second,
		RecoveryDelayMax:  2 * time.Second,
		PostClickDelayMin: 2 * time.Second,
		PostClickDelayMax: 4 * time.Second,
		LongPauseMin:      3 * time.Second,
		LongPauseMax:      6 * time.Second,

		LongPauseEvery:   10,
		CheckpointEvery:  20,
		CheckpointPrefix: "actors",

		OutputFile:   "output/actors.csv",
		OutputFormat: "csv",
		MetricsAddr:  "",
		Verbose:      false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return fmt.Errorf("start URL cannot be empty")
	}
	parsed, err := url.Parse(c.StartURL)
	if err != nil {
		return fmt.Errorf("invalid start URL: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("start URL must include a host")
	}
	if c.CardSelector == "" {
		return fmt.Errorf("card selector cannot be empty")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be positive")
	}
	if c.SelectorTimeout <= 0 {
		return fmt.Errorf("selector timeout must be positive")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}
	if c.StallThreshold <= 0 {
		return fmt.Errorf("stall threshold must be positive")
	}
	if c.RecoveryThreshold <= 0 {
		return fmt.Errorf("recovery threshold must be positive")
	}
	if c.RecoveryThreshold >= c.StallThreshold {
		return fmt.Errorf("recovery threshold (%d) must be below stall threshold (%d)", c.RecoveryThreshold, c.StallThreshold)
	}
	if c.ScrollStep <= 0 {
		return fmt.Errorf("scroll step must be positive")
	}
	if c.ScrollBudget < c.ScrollStep {
		return fmt.Errorf("scroll budget (%d) cannot be below scroll step (%d)", c.ScrollBudget, c.ScrollStep)
	}
	if c.BottomGap < 0 {
		return fmt.Errorf("bottom gap cannot be negative")
	}
	if c.NearBottomMargin <= 0 {
		return fmt.Errorf("near-bottom margin must be positive")
	}
	if c.RecoveryScrollBy <= 0 {
		return fmt.Errorf("recovery scroll delta must be positive")
	}
	for _, pair := range []struct {
		name     string
		min, max time.Duration
	}{
		{"step delay", c.StepDelayMin, c.StepDelayMax},
		{"settle delay", c.SettleDelayMin, c.SettleDelayMax},
		{"iteration delay", c.IterDelayMin, c.IterDelayMax},
		{"recovery delay", c.RecoveryDelayMin, c.RecoveryDelayMax},
		{"post-click delay", c.PostClickDelayMin, c.PostClickDelayMax},
		{"long pause", c.LongPauseMin, c.LongPauseMax},
	} {
		if pair.min < 0 {
			return fmt.Errorf("%s minimum cannot be negative", pair.name)
		}
		if pair.max < pair.min {
			return fmt.Errorf("%s maximum (%s) cannot be below minimum (%s)", pair.name, pair.max, pair.min)
		}
	}
	if c.LongPauseEvery <= 0 {
		return fmt.Errorf("long pause interval must be positive")
	}
	if c.CheckpointEvery <= 0 {
		return fmt.Errorf("checkpoint interval must be positive")
	}
	if c.CheckpointPrefix == "" {
		return fmt.Errorf("checkpoint prefix cannot be empty")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	return nil
}
