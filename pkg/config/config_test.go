// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	require := require.New(t)

	cfg := Default()
	require.Equal("info", cfg.LogLevel)
	require.Zero(cfg.CampaignGoal)
	require.Equal(1.5, cfg.Analysis.AnomalyThreshold)
	require.Equal(0.50, cfg.Analysis.SpikeThreshold)
	require.Equal(0.40, cfg.Analysis.BackloadThreshold)
	require.Equal(0.70, cfg.Insights.CTRAnomalyPct)
	require.Equal("adstats.db", cfg.Archive.Path)
	require.Equal(":8080", cfg.API.Addr)
	require.NoError(cfg.Validate())
}

func TestLoadEmptyPath(t *testing.T) {
	require := require.New(t)

	cfg, err := Load("")
	require.NoError(err)
	require.Equal(Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
log_level: debug
campaign_goal: 250000
analysis:
  spike_threshold: 0.25
insights:
  ctr_anomaly_pct: 0.60
ingest:
  schema_registry: /etc/adstats/schemas.yaml
archive:
  path: /var/lib/adstats/runs.db
api:
  addr: ":9090"
  allowed_origins: ["https://dash.example.com"]
`
	require.NoError(os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(err)
	require.Equal("debug", cfg.LogLevel)
	require.Equal(int64(250000), cfg.CampaignGoal)
	require.Equal(0.25, cfg.Analysis.SpikeThreshold)
	require.Equal(0.60, cfg.Insights.CTRAnomalyPct)
	require.Equal("/etc/adstats/schemas.yaml", cfg.Ingest.SchemaRegistry)
	require.Equal("/var/lib/adstats/runs.db", cfg.Archive.Path)
	require.Equal(":9090", cfg.API.Addr)
	require.Equal([]string{"https://dash.example.com"}, cfg.API.AllowedOrigins)

	// Untouched fields keep their defaults.
	require.Equal(1.5, cfg.Analysis.AnomalyThreshold)
	require.Equal(0.40, cfg.Analysis.BackloadThreshold)
}

func TestLoadRejectsBadValues(t *testing.T) {
	require := require.New(t)

	cases := map[string]string{
		"negative goal":     "campaign_goal: -1\n",
		"spike over one":    "analysis:\n  spike_threshold: 1.5\n",
		"negative backload": "analysis:\n  backload_threshold: -0.1\n",
		"negative anomaly":  "analysis:\n  anomaly_threshold: -2\n",
	}
	for name, yaml := range cases {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(os.WriteFile(path, []byte(yaml), 0o644))
		_, err := Load(path)
		require.Error(err, name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	require := require.New(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(err)
}

func TestEngineConfig(t *testing.T) {
	require := require.New(t)

	cfg := Default()
	cfg.CampaignGoal = 100000
	cfg.Analysis.SpikeThreshold = 0.3

	ec := cfg.EngineConfig()
	require.Equal(int64(100000), ec.CampaignGoal)
	require.Equal(1.5, ec.AnomalyThreshold)
	require.Equal(0.3, ec.SpikeThreshold)
	require.Equal(0.40, ec.BackloadThreshold)
}
