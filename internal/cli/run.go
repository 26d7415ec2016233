package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stocksalgo/internal/execution"
	"stocksalgo/internal/ledger"
	"stocksalgo/internal/live"
	"stocksalgo/internal/store"
)

func newRunCmd(app *App) *cobra.Command {
	var stratName string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the live paper trading loop",
		Long: `Polls the market data provider on the configured interval, feeds new
bars to the strategy, and executes signals against the persisted paper
ledger. Stop with Ctrl+C; the last-persisted ledger state survives.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			strat, err := app.buildStrategy(stratName)
			if err != nil {
				return err
			}
			provider, err := app.buildProvider()
			if err != nil {
				return err
			}

			var opts []ledger.Option
			if app.Config.Trading.MirrorDB != "" {
				mirror, err := store.NewSQLiteStore(app.Config.Trading.MirrorDB)
				if err != nil {
					return fmt.Errorf("opening trade mirror: %w", err)
				}
				defer mirror.Close()
				opts = append(opts, ledger.WithMirror(mirror))
			}

			book, err := ledger.Open(app.Config.Trading.StateFile, app.Config.Trading.InitialBalance, app.Logger, opts...)
			if err != nil {
				return fmt.Errorf("opening ledger: %w", err)
			}

			exec := execution.NewExecutor(book, app.Logger)
			loop := live.NewLoop(provider, strat, exec, book, live.Config{
				Symbol:         app.Config.Trading.Symbol,
				Timeframe:      app.Config.Trading.Timeframe,
				PollInterval:   app.Config.Trading.PollInterval,
				Lookback:       app.Config.Trading.Lookback,
				SizingFraction: app.Config.Trading.SizingFraction,
			}, app.Logger)

			return loop.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&stratName, "strategy", "", "strategy name (default from config)")

	return cmd
}
