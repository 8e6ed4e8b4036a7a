// Package strategy provides the stateful trading policies evaluated by
// the backtest engine. Each strategy is a FLAT/OPEN state machine that
// converts one market observation at a time into zero or more orders.
package strategy

import (
	"github.com/shopspring/decimal"

	"options-backtester/internal/models"
)

// State is the position state of a strategy.
type State int

const (
	// StateFlat means the strategy holds no position.
	StateFlat State = iota
	// StateOpen means the strategy holds an open position.
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "OPEN"
	}
	return "FLAT"
}

// Strategy is the shared contract between the engine and all concrete
// trading policies. Implementations own their position state and reset
// it at the start of each run.
type Strategy interface {
	// Name returns the human-readable strategy name.
	Name() string

	// GenerateOrders converts one observation into zero or more orders.
	// Observations for symbols other than the configured underlying
	// produce no orders.
	GenerateOrders(obs models.Observation) []models.Order

	// Reset restores the strategy to its initial FLAT state.
	Reset()

	// MinimumCapitalRequired returns the smallest capital with which the
	// strategy can execute at least one entry at the observed price.
	// ok is false when the strategy has no minimum.
	MinimumCapitalRequired(obs models.Observation) (required decimal.Decimal, ok bool)

	// SetAvailableCapital informs the strategy of the portfolio capital
	// it may size positions against. Called by the engine once before
	// each run.
	SetAvailableCapital(capital decimal.Decimal)
}

var (
	capitalBuffer     = decimal.RequireFromString("0.95")
	dailyTimeValue    = decimal.RequireFromString("0.05")
	sharesPerContract = decimal.NewFromInt(100)
)

// investableCapital returns the portion of capital a strategy may
// commit, leaving a buffer for spread costs.
func investableCapital(capital decimal.Decimal) decimal.Decimal {
	return capital.Mul(capitalBuffer)
}

// linearTimeValue is the synthetic time value used by the covered call
// and protective put strategies: 0.05 per calendar day to expiration.
func linearTimeValue(daysToExpiration int) decimal.Decimal {
	return decimal.NewFromInt(int64(daysToExpiration)).Mul(dailyTimeValue)
}

// syntheticPremium estimates an option premium as intrinsic value plus
// a linear time value.
func syntheticPremium(spot, strike decimal.Decimal, daysToExpiration int, kind models.OptionKind) decimal.Decimal {
	intrinsic := decimal.Zero
	switch {
	case kind == models.OptionCall && spot.GreaterThan(strike):
		intrinsic = spot.Sub(strike)
	case kind == models.OptionPut && strike.GreaterThan(spot):
		intrinsic = strike.Sub(spot)
	}
	return intrinsic.Add(linearTimeValue(daysToExpiration))
}

// settlementValue is the intrinsic value an open synthetic leg settles
// at when a position is closed.
func settlementValue(spot, strike decimal.Decimal, kind models.OptionKind) decimal.Decimal {
	if kind == models.OptionCall {
		if spot.GreaterThan(strike) {
			return spot.Sub(strike)
		}
		return decimal.Zero
	}
	if strike.GreaterThan(spot) {
		return strike.Sub(spot)
	}
	return decimal.Zero
}
