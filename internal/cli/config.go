package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"stocksalgo/internal/config"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := app.Config
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "[trading]")
			fmt.Fprintf(out, "  symbol           = %s\n", c.Trading.Symbol)
			fmt.Fprintf(out, "  timeframe        = %s\n", c.Trading.Timeframe)
			fmt.Fprintf(out, "  initial_balance  = %.2f\n", c.Trading.InitialBalance)
			fmt.Fprintf(out, "  poll_interval    = %s\n", c.Trading.PollInterval)
			fmt.Fprintf(out, "  lookback         = %s\n", c.Trading.Lookback)
			fmt.Fprintf(out, "  sizing_fraction  = %.2f\n", c.Trading.SizingFraction)
			fmt.Fprintf(out, "  state_file       = %s\n", c.Trading.StateFile)
			fmt.Fprintf(out, "  mirror_db        = %s\n", c.Trading.MirrorDB)

			fmt.Fprintln(out, "[strategy]")
			fmt.Fprintf(out, "  name             = %s\n", c.Strategy.Name)
			fmt.Fprintf(out, "  wick_ratio       = %.2f\n", c.Strategy.WickRatio)
			fmt.Fprintf(out, "  volume_filter    = %t\n", c.Strategy.VolumeFilter)
			fmt.Fprintf(out, "  sma_period       = %d\n", c.Strategy.SMAPeriod)
			fmt.Fprintf(out, "  volume_multiplier= %.2f\n", c.Strategy.VolumeMultiplier)

			fmt.Fprintln(out, "[data]")
			fmt.Fprintf(out, "  provider         = %s\n", c.Data.Provider)
			fmt.Fprintf(out, "  base_url         = %s\n", c.Data.BaseURL)
			fmt.Fprintf(out, "  cache_dir        = %s\n", c.Data.CacheDir)
			fmt.Fprintf(out, "  cache_ttl        = %s\n", c.Data.CacheTTL)
			if c.Data.APIKey != "" {
				fmt.Fprintln(out, "  api_key          = (set)")
			} else {
				fmt.Fprintln(out, "  api_key          = (unset)")
			}

			fmt.Fprintln(out, "[model]")
			fmt.Fprintf(out, "  script_path      = %s\n", c.Model.ScriptPath)
			fmt.Fprintf(out, "  python_bin       = %s\n", c.Model.PythonBin)
			fmt.Fprintf(out, "  timeout          = %s\n", c.Model.Timeout)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(config.DefaultConfigDir(), "config.toml"))
			return nil
		},
	})

	return cmd
}
