// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the analyzer configuration from YAML. Every field
// has a default so an empty file, or no file at all, yields a working
// configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/adxyz/adstats/pkg/engine"
	"github.com/adxyz/adstats/pkg/insight"
)

// Config is the full analyzer configuration.
type Config struct {
	// LogLevel is a zap level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// CampaignGoal is the contracted impression goal. Zero means no goal
	// and disables goal tracking.
	CampaignGoal int64 `yaml:"campaign_goal"`

	Analysis AnalysisConfig     `yaml:"analysis"`
	Insights insight.Thresholds `yaml:"insights"`
	Ingest   IngestConfig       `yaml:"ingest"`
	Archive  ArchiveConfig      `yaml:"archive"`
	API      APIConfig          `yaml:"api"`
}

// IngestConfig locates the schema registry. An empty path selects the
// built-in registry.
type IngestConfig struct {
	SchemaRegistry string `yaml:"schema_registry"`
}

// AnalysisConfig carries the statistical thresholds of the analytics engine.
type AnalysisConfig struct {
	// AnomalyThreshold is the |z-score| above which a week is anomalous.
	AnomalyThreshold float64 `yaml:"anomaly_threshold"`

	// SpikeThreshold is the absolute week-over-week change, as a 0-1
	// fraction, at which a change counts as a spike.
	SpikeThreshold float64 `yaml:"spike_threshold"`

	// BackloadThreshold is the 0-1 share of impressions in the last
	// quarter of delivery days above which delivery is back-loaded.
	BackloadThreshold float64 `yaml:"backload_threshold"`
}

// ArchiveConfig locates the finished-report archive.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// APIConfig configures the HTTP API server.
type APIConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	ec := engine.DefaultConfig()
	return Config{
		LogLevel: "info",
		Analysis: AnalysisConfig{
			AnomalyThreshold:  ec.AnomalyThreshold,
			SpikeThreshold:    ec.SpikeThreshold,
			BackloadThreshold: ec.BackloadThreshold,
		},
		Insights: insight.DefaultThresholds(),
		Archive:  ArchiveConfig{Path: "adstats.db"},
		API:      APIConfig{Addr: ":8080"},
	}
}

// Load reads a YAML config file on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values outside their meaningful ranges.
func (c Config) Validate() error {
	if c.CampaignGoal < 0 {
		return fmt.Errorf("campaign_goal must not be negative, got %d", c.CampaignGoal)
	}
	if c.Analysis.AnomalyThreshold < 0 {
		return fmt.Errorf("anomaly_threshold must not be negative, got %g", c.Analysis.AnomalyThreshold)
	}
	if c.Analysis.SpikeThreshold < 0 || c.Analysis.SpikeThreshold > 1 {
		return fmt.Errorf("spike_threshold must be in [0, 1], got %g", c.Analysis.SpikeThreshold)
	}
	if c.Analysis.BackloadThreshold < 0 || c.Analysis.BackloadThreshold > 1 {
		return fmt.Errorf("backload_threshold must be in [0, 1], got %g", c.Analysis.BackloadThreshold)
	}
	return nil
}

// EngineConfig converts the loaded values into an analytics engine config.
func (c Config) EngineConfig() engine.Config {
	return engine.Config{
		CampaignGoal:      c.CampaignGoal,
		AnomalyThreshold:  c.Analysis.AnomalyThreshold,
		SpikeThreshold:    c.Analysis.SpikeThreshold,
		BackloadThreshold: c.Analysis.BackloadThreshold,
	}
}
