package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stocksalgo/internal/ledger"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the paper ledger: balance, positions, ROI, recent trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := ledger.Open(app.Config.Trading.StateFile, app.Config.Trading.InitialBalance, app.Logger)
			if err != nil {
				return fmt.Errorf("opening ledger: %w", err)
			}

			snap := book.Snapshot()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Balance:  %12.2f\n", snap.Balance)
			fmt.Fprintf(out, "ROI:      %+11.2f%%\n", snap.ROI)

			if len(snap.Positions) == 0 {
				fmt.Fprintln(out, "Positions: none")
			} else {
				fmt.Fprintln(out, "Positions:")
				for symbol, pos := range snap.Positions {
					fmt.Fprintf(out, "  %-8s qty %.0f @ avg %.2f (cost %.2f)\n",
						symbol, pos.Quantity, pos.AvgPrice, pos.Quantity*pos.AvgPrice)
				}
			}

			fmt.Fprintf(out, "Trades:   %d\n", len(snap.Trades))
			recent := snap.Trades
			if len(recent) > 10 {
				recent = recent[len(recent)-10:]
			}
			for _, t := range recent {
				line := fmt.Sprintf("  %s  %-4s %-8s qty %.0f @ %.2f  total %.2f",
					t.Timestamp.Format("2006-01-02 15:04"), t.Side, t.Symbol, t.Quantity, t.Price, t.Total)
				if t.PnL != nil {
					line += fmt.Sprintf("  pnl %+.2f", *t.PnL)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
