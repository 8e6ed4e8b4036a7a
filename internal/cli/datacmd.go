package cli

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	"options-backtester/internal/data"
)

func newDataCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Inspect historical data and the market calendar",
	}

	cmd.AddCommand(newDataCheckCmd(app))
	cmd.AddCommand(newDataHolidaysCmd(app))

	return cmd
}

func newDataCheckCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check observation coverage for a symbol and date range",
		RunE: func(cmd *cobra.Command, args []string) error {
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
				output.Error("Data check failed: %v", err)
				return err
			}

			if output.IsJSON() {
				summary := map[string]interface{}{
					"symbol":       params.symbol,
					"start":        params.start.Format(dateLayout),
					"end":          params.end.Format(dateLayout),
					"observations": len(observations),
				}
				if len(observations) > 0 {
					summary["first"] = observations[0].Date().Format(dateLayout)
					summary["last"] = observations[len(observations)-1].Date().Format(dateLayout)
				}
				return output.JSON(summary)
			}

			output.Bold("%s  %s to %s", params.symbol,
				params.start.Format(dateLayout), params.end.Format(dateLayout))
			if len(observations) == 0 {
				output.Warning("No observations in range")
				return nil
			}
			output.Printf("  Observations: %d\n", len(observations))
			output.Printf("  First:        %s\n", observations[0].Date().Format(dateLayout))
			output.Printf("  Last:         %s\n", observations[len(observations)-1].Date().Format(dateLayout))
			output.Success("✓ No trading days missing")
			return nil
		},
	}

	addRunFlags(cmd)

	return cmd
}

func newDataHolidaysCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "List market holidays for a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			year, _ := cmd.Flags().GetInt("year")

			calendar := data.ForYear(year)
			holidays := calendar.Holidays(year)
			sort.Slice(holidays, func(i, j int) bool { return holidays[i].Before(holidays[j]) })

			if output.IsJSON() {
				dates := make([]string, 0, len(holidays))
				for _, h := range holidays {
					dates = append(dates, h.Format(dateLayout))
				}
				return output.JSON(map[string]interface{}{"year": year, "holidays": dates})
			}

			output.Bold("Market holidays %d", year)
			table := NewTable(output, "Date", "Weekday")
			for _, h := range holidays {
				table.AddRow(h.Format(dateLayout), h.Weekday().String())
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().Int("year", time.Now().Year(), "calendar year")

	return cmd
}
