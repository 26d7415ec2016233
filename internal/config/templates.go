package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# StocksAlgo Configuration

[trading]
# Symbol and bar interval to trade
symbol = "AAPL"
timeframe = "5min"
# Starting cash for a fresh ledger
initial_balance = 10000.0
# Live loop poll interval and fetch lookback window
poll_interval = "1m"
lookback = "2h"
# Fraction of available balance committed per entry (shares are floored)
sizing_fraction = 0.95
# Persisted ledger state (JSON, overwritten atomically after every fill)
# state_file = "~/.config/stocksalgo/paper_trading_state.json"
# Optional sqlite mirror of fills; empty disables the mirror
mirror_db = ""

[strategy]
# Active strategy: "pinbar", "volumema", "model"
name = "pinbar"
wick_ratio = 2.0
volume_filter = false
sma_period = 20
volume_multiplier = 2.0

[data]
# Market data provider: "twelvedata" or "mock"
provider = "twelvedata"
# API key can also come from TWELVE_DATA_API_KEY
api_key = ""
cache_ttl = "55s"

[model]
# External predictive model (used by the "model" strategy)
script_path = "ml/predict.py"
python_bin = "python3"
timeout = "30s"

[logging]
level = "info"
console = true
file = true
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(configTemplate), 0644)
}
