package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-backtester/internal/config"
	"options-backtester/internal/logging"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
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

	rootCmd := &cobra.Command{
		Use:   "optionsbt",
		Short: "Options Backtester - historical options strategy evaluation CLI",
		Long: `Options Backtester evaluates equity/options trading strategies against
historical daily price data.

It simulates buy-and-hold, covered call, protective put, and long straddle
strategies over CSV files or Alpha Vantage data, under strict portfolio
accounting invariants.

Use 'optionsbt help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/options-backtester)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newCompareCmd(app))
	rootCmd.AddCommand(newDataCmd(app))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Options Backtester v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Backtest Configuration")
	output.Printf("  Initial Capital:   %.2f\n", cfg.Backtest.InitialCapital)
	output.Printf("  Risk-Free Rate:    %.2f%%\n", cfg.Backtest.RiskFreeRate*100)
	output.Printf("  Volatility:        %.2f%%\n", cfg.Backtest.Volatility*100)
	output.Printf("  Days to Expiry:    %d\n", cfg.Backtest.DaysToExpiration)
	output.Printf("  Max Shares:        %d\n", cfg.Backtest.MaxShares)
	output.Printf("  Max Contracts:     %d\n", cfg.Backtest.MaxContracts)
	output.Printf("  Profit Threshold:  %.2f\n", cfg.Backtest.ProfitThreshold)
	output.Printf("  Strike Offset:     %.1f%%\n", cfg.Backtest.StrikeOffsetPercent*100)
	output.Println()

	output.Bold("Data Configuration")
	output.Printf("  Provider:          %s\n", cfg.Data.Provider)
	output.Printf("  Directory:         %s\n", cfg.Data.Dir)
	output.Printf("  Spread:            %.4f%%\n", cfg.Data.SpreadPercent*100)
	output.Printf("  Cache Enabled:     %v\n", cfg.Data.CacheEnabled)

	return nil
}
