package cli

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"options-backtester/internal/config"
	"options-backtester/internal/data"
	"options-backtester/internal/engine"
	"options-backtester/internal/errors"
	"options-backtester/internal/models"
	"options-backtester/internal/store"
	"options-backtester/internal/strategy"
)

const dateLayout = "2006-01-02"

var minStrikeOffset = decimal.RequireFromString("1.00")

func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single strategy backtest",
		Long: `Run one strategy against historical data for a symbol and date range.

Strategies: buyhold, coveredcall, protectiveput, straddle`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBacktest(cmd, app)
		},
	}

	addRunFlags(cmd)
	cmd.Flags().String("strategy", "buyhold", "strategy to run (buyhold, coveredcall, protectiveput, straddle)")
	cmd.Flags().Bool("show-trades", false, "print the executed trade log")

	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("symbol", "SPY", "underlying symbol")
	cmd.Flags().String("start", "2024-01-02", "start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "2024-01-30", "end date (YYYY-MM-DD)")
	cmd.Flags().Float64("capital", 0, "initial capital (default from config)")
	cmd.Flags().String("provider", "", "data provider override (csv, alphavantage)")
	cmd.Flags().String("data-dir", "", "CSV data directory override")
	cmd.Flags().Bool("auto-raise-capital", false, "raise capital to the strategy minimum instead of failing")
}

func runBacktest(cmd *cobra.Command, app *App) error {
	output := NewOutput(cmd)
	ctx := cmd.Context()

	params, err := parseRunParams(cmd, app)
	if err != nil {
		return err
	}

	provider, cleanup, err := buildProvider(cmd, app)
	if err != nil {
		return err
	}
	defer cleanup()

	observations, err := provider.Observations(ctx, params.symbol, params.start, params.end)
	if err != nil {
		return err
	}
	if len(observations) == 0 {
		return errors.NewDataError(app.Config.Data.Provider, params.symbol,
			"no observations in range", errors.ErrDataNotFound)
	}

	name, _ := cmd.Flags().GetString("strategy")
	strat, err := buildStrategy(app, name, params.symbol, params.end, observations[0].Price)
	if err != nil {
		return err
	}

	autoRaise, _ := cmd.Flags().GetBool("auto-raise-capital")
	capital, check, err := engine.CheckCapitalForRun(ctx, provider, strat, params.capital, params.symbol, params.start, autoRaise)
	if err != nil {
		output.Error("Insufficient capital: %s requires %s, available %s",
			strat.Name(), check.Required, check.Available)
		return err
	}
	if !check.Sufficient && autoRaise {
		output.Warning("Capital raised to %s to meet the %s minimum", capital, strat.Name())
	}

	eng, err := engine.New(provider, strat, capital, app.Logger)
	if err != nil {
		return err
	}

	result, err := eng.RunBacktest(ctx, params.symbol, params.start, params.end)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(result)
	}

	printResult(output, result)
	if show, _ := cmd.Flags().GetBool("show-trades"); show {
		output.Println()
		printTrades(output, result.Trades)
	}
	return nil
}

type runParams struct {
	symbol     string
	start, end time.Time
	capital    decimal.Decimal
}

func parseRunParams(cmd *cobra.Command, app *App) (runParams, error) {
	symbol, _ := cmd.Flags().GetString("symbol")
	startStr, _ := cmd.Flags().GetString("start")
	endStr, _ := cmd.Flags().GetString("end")

	start, err := time.ParseInLocation(dateLayout, startStr, time.UTC)
	if err != nil {
		return runParams{}, errors.NewValidationError("start", startStr, "must be YYYY-MM-DD")
	}
	end, err := time.ParseInLocation(dateLayout, endStr, time.UTC)
	if err != nil {
		return runParams{}, errors.NewValidationError("end", endStr, "must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return runParams{}, errors.NewValidationError("end", endStr, "must not be before start date")
	}

	capitalFlag, _ := cmd.Flags().GetFloat64("capital")
	capital := decimal.NewFromFloat(app.Config.Backtest.InitialCapital)
	if capitalFlag > 0 {
		capital = decimal.NewFromFloat(capitalFlag)
	}

	return runParams{symbol: symbol, start: start, end: end, capital: capital}, nil
}

// buildProvider constructs the configured data provider. The returned
// cleanup closes the observation cache when one was opened.
func buildProvider(cmd *cobra.Command, app *App) (engine.DataProvider, func(), error) {
	providerName := app.Config.Data.Provider
	if flag, _ := cmd.Flags().GetString("provider"); flag != "" {
		providerName = flag
	}
	dataDir := app.Config.Data.Dir
	if flag, _ := cmd.Flags().GetString("data-dir"); flag != "" {
		dataDir = flag
	}
	spread := decimal.NewFromFloat(app.Config.Data.SpreadPercent)

	noop := func() {}

	switch providerName {
	case "csv":
		return data.NewCSVProvider(dataDir, spread, app.Logger), noop, nil
	case "alphavantage":
		opts := []data.AlphaVantageOption{data.WithSpreadPercent(spread)}
		cleanup := noop
		if app.Config.Data.CacheEnabled {
			cache, err := store.NewObservationCache(config.CachePath())
			if err != nil {
				app.Logger.Warn().Err(err).Msg("Observation cache unavailable, continuing without it")
			} else {
				opts = append(opts, data.WithCache(cache))
				cleanup = func() { cache.Close() }
			}
		}
		provider, err := data.NewAlphaVantageProvider(app.Config.Data.AlphaVantageAPIKey, app.Logger, opts...)
		if err != nil {
			cleanup()
			return nil, noop, err
		}
		return provider, cleanup, nil
	default:
		return nil, noop, errors.NewValidationError("provider", providerName, "must be 'csv' or 'alphavantage'")
	}
}

// buildStrategy constructs a strategy by short name. The strike offset
// is 5% of the first observed price (configurable), floored at $1.
func buildStrategy(app *App, name, symbol string, end time.Time, spot decimal.Decimal) (strategy.Strategy, error) {
	cfg := app.Config.Backtest

	offset := spot.Mul(decimal.NewFromFloat(cfg.StrikeOffsetPercent))
	if offset.LessThan(minStrikeOffset) {
		offset = minStrikeOffset
	}

	switch name {
	case "buyhold":
		return strategy.NewBuyAndHold(symbol, end, app.Logger), nil
	case "coveredcall":
		return strategy.NewCoveredCall(symbol, cfg.DaysToExpiration, offset, cfg.MaxShares, app.Logger), nil
	case "protectiveput":
		return strategy.NewProtectivePut(symbol, cfg.DaysToExpiration, offset, app.Logger), nil
	case "straddle":
		threshold := decimal.NewFromFloat(cfg.ProfitThreshold)
		return strategy.NewLongStraddle(symbol, cfg.DaysToExpiration, cfg.MaxContracts, threshold, app.Logger), nil
	default:
		return nil, errors.NewValidationError("strategy", name,
			"must be one of buyhold, coveredcall, protectiveput, straddle")
	}
}

func printResult(output *Output, result *engine.Result) {
	output.Bold("%s", result.StrategyName)
	output.Printf("  Symbol:          %s\n", result.Symbol)
	output.Printf("  Period:          %s to %s\n",
		result.StartDate.Format(dateLayout), result.EndDate.Format(dateLayout))
	output.Printf("  Initial Capital: %s\n", result.InitialCapital.StringFixed(2))
	output.Printf("  Final Value:     %s\n", result.FinalValue.StringFixed(2))

	totalReturn, _ := result.TotalReturn().Float64()
	returnPct, _ := result.ReturnPct().Float64()
	output.Printf("  Total Return:    %s (%s)\n",
		output.FormatPnL(totalReturn), output.FormatPercent(returnPct))
	output.Printf("  Max Drawdown:    %.2f%%\n", result.MaxDrawdown)
	output.Printf("  Trades:          %d executed, %d rejected\n",
		result.TradeCount(), result.RejectedCount())
}

func printTrades(output *Output, trades []models.Trade) {
	table := NewTable(output, "Date", "Side", "Symbol", "Qty", "Price", "Value")
	for _, t := range trades {
		table.AddRow(
			t.Timestamp.Format(dateLayout),
			string(t.Side),
			t.Symbol,
			fmt.Sprintf("%d", t.Quantity),
			t.Price.StringFixed(2),
			t.TotalValue().StringFixed(2),
		)
	}
	table.Render()
}
