package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"options-backtester/internal/engine"
	"options-backtester/internal/errors"
)

var compareStrategies = []string{"buyhold", "coveredcall", "protectiveput", "straddle"}

func newCompareCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run all strategies and compare results",
		Long: `Run every strategy over the same symbol, date range, and capital,
each with its own portfolio, and rank them by total return.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, app)
		},
	}

	addRunFlags(cmd)

	return cmd
}

func runCompare(cmd *cobra.Command, app *App) error {
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
	firstPrice := observations[0].Price

	autoRaise, _ := cmd.Flags().GetBool("auto-raise-capital")

	results := make([]*engine.Result, 0, len(compareStrategies))
	for _, name := range compareStrategies {
		strat, err := buildStrategy(app, name, params.symbol, params.end, firstPrice)
		if err != nil {
			return err
		}

		capital, check, err := engine.CheckCapitalForRun(ctx, provider, strat, params.capital, params.symbol, params.start, autoRaise)
		if err != nil {
			if errors.Is(err, errors.ErrInsufficientCapital) {
				output.Warning("Skipping %s: requires %s, available %s",
					strat.Name(), check.Required, check.Available)
				continue
			}
			return err
		}

		eng, err := engine.New(provider, strat, capital, app.Logger)
		if err != nil {
			return err
		}

		result, err := eng.RunBacktest(ctx, params.symbol, params.start, params.end)
		if err != nil {
			return fmt.Errorf("running %s: %w", strat.Name(), err)
		}
		results = append(results, result)
	}

	if len(results) == 0 {
		return errors.Wrap(errors.ErrInsufficientCapital, "no strategy could be funded")
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalReturn().GreaterThan(results[j].TotalReturn())
	})

	if output.IsJSON() {
		return output.JSON(results)
	}

	printComparison(output, results, params)
	return nil
}

func printComparison(output *Output, results []*engine.Result, params runParams) {
	output.Bold("Strategy Comparison: %s  %s to %s",
		params.symbol, params.start.Format(dateLayout), params.end.Format(dateLayout))
	output.Println()

	table := NewTable(output, "Strategy", "Initial", "Final", "Return", "Return %", "Max DD %", "Trades", "Rejected")
	for _, r := range results {
		totalReturn, _ := r.TotalReturn().Float64()
		returnPct, _ := r.ReturnPct().Float64()
		table.AddRow(
			r.StrategyName,
			r.InitialCapital.StringFixed(2),
			r.FinalValue.StringFixed(2),
			output.FormatPnL(totalReturn),
			output.FormatPercent(returnPct),
			fmt.Sprintf("%.2f", r.MaxDrawdown),
			fmt.Sprintf("%d", r.TradeCount()),
			fmt.Sprintf("%d", r.RejectedCount()),
		)
	}
	table.Render()
}
