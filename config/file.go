package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for the optional YAML file. Durations are
// expressed in milliseconds. Fields are pointers so that only keys present in
// the file override the defaults.
type fileConfig struct {
	StartURL     *string `yaml:"start_url"`
	CardSelector *string `yaml:"card_selector"`
	UserAgent    *string `yaml:"user_agent"`
	Headless     *bool   `yaml:"headless"`

	NavigationTimeoutMS *int `yaml:"navigation_timeout_ms"`
	SelectorTimeoutMS   *int `yaml:"selector_timeout_ms"`

	MaxAttempts       *int `yaml:"max_attempts"`
	StallThreshold    *int `yaml:"stall_threshold"`
	RecoveryThreshold *int `yaml:"recovery_threshold"`

	ScrollStep       *int `yaml:"scroll_step"`
	ScrollBudget     *int `yaml:"scroll_budget"`
	BottomGap        *int `yaml:"bottom_gap"`
	NearBottomMargin *int `yaml:"near_bottom_margin"`
	RecoveryScrollBy *int `yaml:"recovery_scroll_by"`

	StepDelayMinMS      *int `yaml:"step_delay_min_ms"`
	StepDelayMaxMS      *int `yaml:"step_delay_max_ms"`
	SettleDelayMinMS    *int `yaml:"settle_delay_min_ms"`
	SettleDelayMaxMS    *int `yaml:"settle_delay_max_ms"`
	IterDelayMinMS      *int `yaml:"iter_delay_min_ms"`
	IterDelayMaxMS      *int `yaml:"iter_delay_max_ms"`
	RecoveryDelayMinMS  *int `yaml:"recovery_delay_min_ms"`
	RecoveryDelayMaxMS  *int `yaml:"recovery_delay_max_ms"`
	PostClickDelayMinMS *int `yaml:"post_click_delay_min_ms"`
	PostClickDelayMaxMS *int `yaml:"post_click_delay_max_ms"`
	LongPauseMinMS      *int `yaml:"long_pause_min_ms"`
	LongPauseMaxMS      *int `yaml:"long_pause_max_ms"`

	LongPauseEvery   *int    `yaml:"long_pause_every"`
	CheckpointEvery  *int    `yaml:"checkpoint_every"`
	CheckpointPrefix *string `yaml:"checkpoint_prefix"`

	OutputFile   *string `yaml:"output_file"`
	OutputFormat *string `yaml:"output_format"`
	MetricsAddr  *string `yaml:"metrics_addr"`
	Verbose      *bool   `yaml:"verbose"`
}

// LoadFile overlays values from a YAML file onto cfg. The result is not
// validated here; callers validate after all override layers are applied.
func LoadFile(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer file.Close()

	var fc fileConfig
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.StartURL, fc.StartURL)
	setString(&cfg.CardSelector, fc.CardSelector)
	setString(&cfg.UserAgent, fc.UserAgent)
	setBool(&cfg.Headless, fc.Headless)

	setDuration(&cfg.NavigationTimeout, fc.NavigationTimeoutMS)
	setDuration(&cfg.SelectorTimeout, fc.SelectorTimeoutMS)

	setInt(&cfg.MaxAttempts, fc.MaxAttempts)
	setInt(&cfg.StallThreshold, fc.StallThreshold)
	setInt(&cfg.RecoveryThreshold, fc.RecoveryThreshold)

	setInt(&cfg.ScrollStep, fc.ScrollStep)
	setInt(&cfg.ScrollBudget, fc.ScrollBudget)
	setInt(&cfg.BottomGap, fc.BottomGap)
	setInt(&cfg.NearBottomMargin, fc.NearBottomMargin)
	setInt(&cfg.RecoveryScrollBy, fc.RecoveryScrollBy)

	setDuration(&cfg.StepDelayMin, fc.StepDelayMinMS)
	setDuration(&cfg.StepDelayMax, fc.StepDelayMaxMS)
	setDuration(&cfg.SettleDelayMin, fc.SettleDelayMinMS)
	setDuration(&cfg.SettleDelayMax, fc.SettleDelayMaxMS)
	setDuration(&cfg.IterDelayMin, fc.IterDelayMinMS)
	setDuration(&cfg.IterDelayMax, fc.IterDelayMaxMS)
	setDuration(&cfg.RecoveryDelayMin, fc.RecoveryDelayMinMS)
	setDuration(&cfg.RecoveryDelayMax, fc.RecoveryDelayMaxMS)
	setDuration(&cfg.PostClickDelayMin, fc.PostClickDelayMinMS)
	setDuration(&cfg.PostClickDelayMax, fc.PostClickDelayMaxMS)
	setDuration(&cfg.LongPauseMin, fc.LongPauseMinMS)
	setDuration(&cfg.LongPauseMax, fc.LongPauseMaxMS)

	setInt(&cfg.LongPauseEvery, fc.LongPauseEvery)
	setInt(&cfg.CheckpointEvery, fc.CheckpointEvery)
	setString(&cfg.CheckpointPrefix, fc.CheckpointPrefix)

	setString(&cfg.OutputFile, fc.OutputFile)
	setString(&cfg.OutputFormat, fc.OutputFormat)
	setString(&cfg.MetricsAddr, fc.MetricsAddr)
	setBool(&cfg.Verbose, fc.Verbose)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, srcMS *int) {
	if srcMS != nil {
		*dst = time.Duration(*srcMS) * time.Millisecond
	}
}
