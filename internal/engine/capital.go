package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
	"options-backtester/internal/strategy"
)

// CapitalCheck is the outcome of comparing configured capital against a
// strategy's minimum requirement at the first observed price.
type CapitalCheck struct {
	Sufficient bool            `json:"sufficient"`
	Required   decimal.Decimal `json:"required"`
	Available  decimal.Decimal `json:"available"`
	Reason     string          `json:"reason,omitempty"`
}

// CheckCapital compares available capital against the strategy minimum
// for the given observation.
func CheckCapital(strat strategy.Strategy, available decimal.Decimal, obs models.Observation) CapitalCheck {
	required, ok := strat.MinimumCapitalRequired(obs)
	if !ok {
		return CapitalCheck{Sufficient: true, Required: available, Available: available, Reason: "no minimum requirement"}
	}
	if available.GreaterThanOrEqual(required) {
		return CapitalCheck{Sufficient: true, Required: required, Available: available}
	}
	return CapitalCheck{
		Sufficient: false,
		Required:   required,
		Available:  available,
		Reason:     "capital below strategy minimum at first observed price",
	}
}

// CheckCapitalForRun fetches the first observation of the range and
// runs the capital check against it. When autoRaise is set an
// insufficient capital is raised to the requirement instead of
// failing; the returned amount is the capital to fund the run with.
func CheckCapitalForRun(ctx context.Context, provider DataProvider, strat strategy.Strategy, capital decimal.Decimal, symbol string, start time.Time, autoRaise bool) (decimal.Decimal, CapitalCheck, error) {
	observations, err := provider.Observations(ctx, symbol, start, start)
	if err != nil || len(observations) == 0 {
		// No sample observation to check against; proceed with the
		// configured capital and let the run surface data errors.
		return capital, CapitalCheck{Sufficient: true, Required: capital, Available: capital, Reason: "no sample observation"}, nil
	}

	check := CheckCapital(strat, capital, observations[0])
	if check.Sufficient {
		return capital, check, nil
	}
	if autoRaise {
		return check.Required, check, nil
	}
	return capital, check, errors.Wrapf(errors.ErrInsufficientCapital,
		"%s requires %s but only %s is available", strat.Name(), check.Required, check.Available)
}
