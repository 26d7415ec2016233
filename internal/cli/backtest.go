package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stocksalgo/internal/backtest"
	"stocksalgo/internal/logging"
)

func newBacktestCmd(app *App) *cobra.Command {
	var (
		symbol    string
		timeframe string
		stratName string
		capital   float64
		sizing    float64
		days      int
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay historical bars through a strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if symbol == "" {
				symbol = app.Config.Trading.Symbol
			}
			if timeframe == "" {
				timeframe = app.Config.Trading.Timeframe
			}
			if capital <= 0 {
				capital = app.Config.Trading.InitialBalance
			}

			strat, err := app.buildStrategy(stratName)
			if err != nil {
				return err
			}
			provider, err := app.buildProvider()
			if err != nil {
				return err
			}

			end := time.Now()
			start := end.AddDate(0, 0, -days)

			bars, err := provider.GetBars(cmd.Context(), symbol, timeframe, start, end)
			if err != nil {
				return fmt.Errorf("fetching bars: %w", err)
			}
			if len(bars) == 0 {
				return fmt.Errorf("no bars available for %s %s", symbol, timeframe)
			}

			logger := logging.WithStrategy(app.Logger, strat.Name())
			engine := backtest.NewEngine(strat, backtest.Config{
				Symbol:         symbol,
				InitialCapital: capital,
				SizingFraction: sizing,
			}, logger)

			result, err := engine.Run(cmd.Context(), bars)
			if err != nil {
				return fmt.Errorf("running backtest: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backtest: %s %s (%s), %d bars\n", symbol, timeframe, strat.Name(), len(bars))
			fmt.Fprintf(out, "Initial capital:  %12.2f\n", capital)
			fmt.Fprintf(out, "Final capital:    %12.2f\n", result.FinalCapital)
			fmt.Fprintf(out, "Total P&L:        %12.2f\n", result.TotalPnL)
			fmt.Fprintf(out, "Trades:           %d (%d won, %d lost, %.1f%% win rate)\n",
				result.TotalTrades, result.WinningTrades, result.LosingTrades, result.WinRate)

			for _, t := range result.Trades {
				fmt.Fprintf(out, "  %s %-5s qty %.0f  %.2f -> %.2f  pnl %+.2f  (%s -> %s)\n",
					t.Symbol, t.Type, t.Quantity, t.EntryPrice, t.ExitPrice, t.PnL,
					t.EntryTime.Format("2006-01-02 15:04"), t.ExitTime.Format("2006-01-02 15:04"))
			}
			if result.OpenPosition != nil {
				p := result.OpenPosition
				fmt.Fprintf(out, "Open at end: %s %s qty %.0f @ %.2f (unrealized)\n",
					p.Symbol, p.Type, p.Quantity, p.EntryPrice)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "symbol to backtest (default from config)")
	cmd.Flags().StringVar(&timeframe, "timeframe", "", "bar interval (default from config)")
	cmd.Flags().StringVar(&stratName, "strategy", "", "strategy name (default from config)")
	cmd.Flags().Float64Var(&capital, "capital", 0, "initial capital (default from config)")
	cmd.Flags().Float64Var(&sizing, "sizing", 1.0, "fraction of capital per entry")
	cmd.Flags().IntVar(&days, "days", 30, "days of history to fetch")

	return cmd
}
