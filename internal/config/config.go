// Package config provides configuration management for the trading engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Trading  TradingConfig  `mapstructure:"trading"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Data     DataConfig     `mapstructure:"data"`
	Model    ModelConfig    `mapstructure:"model"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// TradingConfig holds trading-related configuration.
type TradingConfig struct {
	Symbol         string        `mapstructure:"symbol"`
	Timeframe      string        `mapstructure:"timeframe"`
	InitialBalance float64       `mapstructure:"initial_balance"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	Lookback       time.Duration `mapstructure:"lookback"`
	SizingFraction float64       `mapstructure:"sizing_fraction"`
	StateFile      string        `mapstructure:"state_file"`
	MirrorDB       string        `mapstructure:"mirror_db"`
}

// StrategyConfig selects the active strategy and its parameters.
type StrategyConfig struct {
	Name             string  `mapstructure:"name"`
	WickRatio        float64 `mapstructure:"wick_ratio"`
	VolumeFilter     bool    `mapstructure:"volume_filter"`
	SMAPeriod        int     `mapstructure:"sma_period"`
	VolumeMultiplier float64 `mapstructure:"volume_multiplier"`
}

// DataConfig holds market data provider configuration.
type DataConfig struct {
	Provider string        `mapstructure:"provider"` // "twelvedata", "mock"
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	CacheDir string        `mapstructure:"cache_dir"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// ModelConfig holds external predictive model configuration.
type ModelConfig struct {
	ScriptPath string        `mapstructure:"script_path"`
	PythonBin  string        `mapstructure:"python_bin"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stocksalgo"
	}
	return filepath.Join(home, ".config", "stocksalgo")
}

// Load loads configuration from the specified directory. If configDir is
// empty, the default config directory is used. A template config file is
// written when none exists.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("writing template config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("trading.symbol", "AAPL")
	v.SetDefault("trading.timeframe", "5min")
	v.SetDefault("trading.initial_balance", 10000.0)
	v.SetDefault("trading.poll_interval", time.Minute)
	v.SetDefault("trading.lookback", 2*time.Hour)
	v.SetDefault("trading.sizing_fraction", 0.95)
	v.SetDefault("trading.state_file", filepath.Join(configDir, "paper_trading_state.json"))
	v.SetDefault("trading.mirror_db", "")

	v.SetDefault("strategy.name", "pinbar")
	v.SetDefault("strategy.wick_ratio", 2.0)
	v.SetDefault("strategy.volume_filter", false)
	v.SetDefault("strategy.sma_period", 20)
	v.SetDefault("strategy.volume_multiplier", 2.0)

	v.SetDefault("data.provider", "twelvedata")
	v.SetDefault("data.base_url", "https://api.twelvedata.com")
	v.SetDefault("data.cache_dir", filepath.Join(configDir, "cache"))
	v.SetDefault("data.cache_ttl", 55*time.Second)

	v.SetDefault("model.script_path", "ml/predict.py")
	v.SetDefault("model.python_bin", "python3")
	v.SetDefault("model.timeout", 30*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TWELVE_DATA_API_KEY"); v != "" {
		cfg.Data.APIKey = v
	}
	if v := os.Getenv("TRADING_SYMBOL"); v != "" {
		cfg.Trading.Symbol = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Trading.InitialBalance <= 0 {
		return fmt.Errorf("initial_balance must be positive")
	}
	if c.Trading.SizingFraction <= 0 || c.Trading.SizingFraction > 1 {
		return fmt.Errorf("sizing_fraction must be in (0, 1]")
	}
	if c.Trading.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.Strategy.WickRatio <= 0 {
		return fmt.Errorf("wick_ratio must be positive")
	}
	if c.Strategy.SMAPeriod <= 0 {
		return fmt.Errorf("sma_period must be positive")
	}
	if c.Strategy.VolumeMultiplier <= 0 {
		return fmt.Errorf("volume_multiplier must be positive")
	}
	switch c.Data.Provider {
	case "twelvedata", "mock":
	default:
		return fmt.Errorf("invalid data provider: %s (must be 'twelvedata' or 'mock')", c.Data.Provider)
	}
	if c.Model.Timeout <= 0 {
		return fmt.Errorf("model timeout must be positive")
	}
	return nil
}
