package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesTemplateAndUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	// A template config is written for the next run to edit.
	_, statErr := os.Stat(filepath.Join(dir, "config.toml"))
	assert.NoError(t, statErr)

	assert.Equal(t, "AAPL", cfg.Trading.Symbol)
	assert.Equal(t, "5min", cfg.Trading.Timeframe)
	assert.Equal(t, 10000.0, cfg.Trading.InitialBalance)
	assert.Equal(t, time.Minute, cfg.Trading.PollInterval)
	assert.Equal(t, 0.95, cfg.Trading.SizingFraction)
	assert.Equal(t, "pinbar", cfg.Strategy.Name)
	assert.Equal(t, "twelvedata", cfg.Data.Provider)
	assert.Equal(t, 55*time.Second, cfg.Data.CacheTTL)
	assert.Equal(t, "python3", cfg.Model.PythonBin)
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[trading]
symbol = "TSLA"
initial_balance = 2500.0
sizing_fraction = 0.5

[strategy]
name = "volumema"

[data]
provider = "mock"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "TSLA", cfg.Trading.Symbol)
	assert.Equal(t, 2500.0, cfg.Trading.InitialBalance)
	assert.Equal(t, 0.5, cfg.Trading.SizingFraction)
	assert.Equal(t, "volumema", cfg.Strategy.Name)
	assert.Equal(t, "mock", cfg.Data.Provider)

	// Unset sections keep their defaults.
	assert.Equal(t, 20, cfg.Strategy.SMAPeriod)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TWELVE_DATA_API_KEY", "env-key")
	t.Setenv("TRADING_SYMBOL", "NVDA")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Data.APIKey)
	assert.Equal(t, "NVDA", cfg.Trading.Symbol)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative balance", "[trading]\ninitial_balance = -100.0\n"},
		{"sizing above one", "[trading]\nsizing_fraction = 1.5\n"},
		{"unknown provider", "[data]\nprovider = \"yahoo\"\n"},
		{"zero sma period", "[strategy]\nsma_period = 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(tt.content), 0644))

			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

func TestValidate_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}
