// Package cli provides the command-line interface for the trading engine.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stocksalgo/internal/config"
	"stocksalgo/internal/data"
	"stocksalgo/internal/errors"
	"stocksalgo/internal/strategy"
)

// Version information
const Version = "0.1.0"

// App holds the application dependencies shared across commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	root := &cobra.Command{
		Use:   "stocksalgo",
		Short: "Rule-based trading strategy engine with paper trading and backtesting",
		Long: `stocksalgo runs rule-based trading strategies against OHLCV bars,
tracking a virtual portfolio's cash, positions, and realized P&L. It can
replay historical data (backtest) or poll a market data provider and
trade a persisted paper ledger (run).`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newBacktestCmd(app),
		newRunCmd(app),
		newStatusCmd(app),
		newConfigCmd(app),
		newVersionCmd(),
	)

	return root
}

// buildProvider constructs the configured market data provider.
func (a *App) buildProvider() (data.Provider, error) {
	switch a.Config.Data.Provider {
	case "mock":
		return data.NewMockProvider(1), nil
	case "twelvedata":
		if a.Config.Data.APIKey == "" {
			return nil, fmt.Errorf("%w: twelvedata api_key missing (set TWELVE_DATA_API_KEY)", errors.ErrConfigInvalid)
		}
		return data.NewTwelveDataProvider(data.TwelveDataConfig{
			APIKey:   a.Config.Data.APIKey,
			BaseURL:  a.Config.Data.BaseURL,
			CacheDir: a.Config.Data.CacheDir,
			CacheTTL: a.Config.Data.CacheTTL,
			Logger:   a.Logger,
		})
	default:
		return nil, fmt.Errorf("%w: unknown data provider %q", errors.ErrConfigInvalid, a.Config.Data.Provider)
	}
}

// buildRegistry registers the strategies available to this process,
// configured from the loaded config.
func (a *App) buildRegistry() *strategy.Registry {
	registry := strategy.NewRegistry()
	registry.Register(strategy.NewPinBar(a.Config.Strategy.WickRatio, a.Config.Strategy.VolumeFilter))
	registry.Register(strategy.NewVolumeMA(a.Config.Strategy.SMAPeriod, a.Config.Strategy.VolumeMultiplier))
	registry.Register(strategy.NewModelDelegate(strategy.ModelDelegateConfig{
		ScriptPath: a.Config.Model.ScriptPath,
		PythonBin:  a.Config.Model.PythonBin,
		Timeout:    a.Config.Model.Timeout,
		Logger:     a.Logger,
	}))
	return registry
}

// buildStrategy resolves a strategy by name, defaulting to the configured
// one when name is empty.
func (a *App) buildStrategy(name string) (strategy.Strategy, error) {
	if name == "" {
		name = a.Config.Strategy.Name
	}
	registry := a.buildRegistry()
	strat, ok := registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", errors.ErrStrategyNotFound, name, registry.List())
	}
	return strat, nil
}
