// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package insight is the rule-based insight generator: six fixed business
// rules evaluated independently over the delivery table, each emitting zero
// or more severity-tagged findings with the exact numbers that triggered
// them.
package insight

// Severity of a finding.
type Severity string

const (
	SeverityGreen Severity = "green" // good / on track
	SeverityAmber Severity = "amber" // warning / needs attention
	SeverityRed   Severity = "red"   // critical / action required
)

// Rule identifiers, in evaluation order.
const (
	RulePacingSpike            = "pacing_spike"
	RuleCTRAnomaly             = "ctr_anomaly"
	RuleCTRRecovery            = "ctr_recovery"
	RuleVCRDrop                = "vcr_drop"
	RulePlatformConcentration  = "platform_concentration"
	RuleTopDomainConcentration = "top_domain_concentration"
	RuleTop5Concentration      = "top5_domain_concentration"
)

// Insight is a single finding. Metrics carries the exact values used by the
// rule so findings can be asserted in tests and audited later.
type Insight struct {
	RuleID         string         `json:"rule_id"`
	Description    string         `json:"description"`
	Severity       Severity       `json:"severity"`
	Recommendation string         `json:"recommendation"`
	Metrics        map[string]any `json:"metrics,omitempty"`
}

// Thresholds configures the rules. All values are 0-1 decimals.
type Thresholds struct {
	// PacingSpikePct: week impressions >= (1+X) * mean weekly impressions.
	PacingSpikePct float64 `yaml:"pacing_spike_pct"`

	// CTRAnomalyPct: week CTR <= X * campaign CTR.
	CTRAnomalyPct float64 `yaml:"ctr_anomaly_pct"`

	// CTRRecoveryPct: later-half week CTR >= X * campaign CTR.
	CTRRecoveryPct float64 `yaml:"ctr_recovery_pct"`

	// VCRDropPoints: WoW weighted VCR decline >= X (0.03 = 3 points).
	VCRDropPoints float64 `yaml:"vcr_drop_points"`

	// PlatformConcentrationPct: single platform >= X of impressions.
	PlatformConcentrationPct float64 `yaml:"platform_concentration_pct"`

	// TopDomainConcentrationPct: top domain >= X of impressions.
	TopDomainConcentrationPct float64 `yaml:"top_domain_concentration_pct"`

	// Top5DomainConcentrationPct: top 5 domains >= X of impressions.
	Top5DomainConcentrationPct float64 `yaml:"top5_domain_concentration_pct"`
}

// DefaultThresholds returns the standard rule configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PacingSpikePct:             0.50,
		CTRAnomalyPct:              0.70,
		CTRRecoveryPct:             1.10,
		VCRDropPoints:              0.03,
		PlatformConcentrationPct:   0.80,
		TopDomainConcentrationPct:  0.40,
		Top5DomainConcentrationPct: 0.70,
	}
}
