// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package engine is the analytical core: temporal aggregation, efficiency
// and correlation analysis, anomaly detection, goal tracking, delivery
// pattern analysis, and the consolidated stat pack. Every analysis is a
// pure function of the immutable input table plus configuration; multiple
// engines may run concurrently on independent tables without coordination.
package engine

import (
	"errors"
	"fmt"

	"github.com/adxyz/adstats/pkg/delivery"
)

var (
	// ErrNoGoal is returned by GoalProgress when no campaign goal is
	// configured. This is a caller error, not a degraded-data outcome.
	ErrNoGoal = errors.New("campaign goal must be configured to calculate goal progress")

	// ErrUnknownMetric is returned when anomaly detection is asked for a
	// metric the engine does not compute.
	ErrUnknownMetric = errors.New("unknown metric")
)

// Config holds the engine thresholds. Zero-valued fields are filled from
// defaults at construction.
type Config struct {
	// CampaignGoal is the impressions target; 0 means unset.
	CampaignGoal int64

	// AnomalyThreshold is the absolute z-score above which a week is
	// flagged (default 1.5).
	AnomalyThreshold float64

	// SpikeThreshold is the absolute WoW change at or above which a week
	// counts as a spike (default 0.50).
	SpikeThreshold float64

	// BackloadThreshold is the last-quarter delivery share above which a
	// campaign is considered back-loaded (default 0.40).
	BackloadThreshold float64
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		AnomalyThreshold:  1.5,
		SpikeThreshold:    0.50,
		BackloadThreshold: 0.40,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.AnomalyThreshold == 0 {
		c.AnomalyThreshold = def.AnomalyThreshold
	}
	if c.SpikeThreshold == 0 {
		c.SpikeThreshold = def.SpikeThreshold
	}
	if c.BackloadThreshold == 0 {
		c.BackloadThreshold = def.BackloadThreshold
	}
}

func (c Config) validate() error {
	if c.CampaignGoal < 0 {
		return fmt.Errorf("campaign goal must not be negative, got %d", c.CampaignGoal)
	}
	if c.AnomalyThreshold <= 0 || c.SpikeThreshold <= 0 || c.BackloadThreshold <= 0 {
		return fmt.Errorf("thresholds must be positive")
	}
	return nil
}

// Engine runs all analyses over one validated delivery table.
type Engine struct {
	table *delivery.Table
	cfg   Config
}

// New validates the table structure and configuration and returns an
// engine. A missing required column is fatal here; no partial analysis is
// attempted.
func New(table *delivery.Table, cfg Config) (*Engine, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	return &Engine{table: table, cfg: cfg}, nil
}

// Table returns the engine's input table.
func (e *Engine) Table() *delivery.Table {
	return e.table
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}
