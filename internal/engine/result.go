package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"options-backtester/internal/models"
)

// EquityPoint is one mark-to-market snapshot of the ledger.
type EquityPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Value     decimal.Decimal `json:"value"`
}

// Result is the outcome of one backtest run.
type Result struct {
	StrategyName   string          `json:"strategy"`
	Symbol         string          `json:"symbol"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	Trades         []models.Trade  `json:"trades"`
	Orders         []OrderRecord   `json:"orders"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
	FinalValue     decimal.Decimal `json:"final_value"`
	EquityCurve    []EquityPoint   `json:"equity_curve"`
	MaxDrawdown    float64         `json:"max_drawdown_pct"`
}

// TotalReturn returns finalValue - initialCapital.
func (r *Result) TotalReturn() decimal.Decimal {
	return r.FinalValue.Sub(r.InitialCapital)
}

// ReturnPct returns the percentage return, rounded to four decimal
// places half-up before the x100. Zero when initial capital is zero.
func (r *Result) ReturnPct() decimal.Decimal {
	if r.InitialCapital.IsZero() {
		return decimal.Zero
	}
	return r.TotalReturn().DivRound(r.InitialCapital, 4).Mul(decimal.NewFromInt(100))
}

// TradeCount returns the number of executed trades.
func (r *Result) TradeCount() int {
	return len(r.Trades)
}

// RejectedCount returns the number of orders rejected by the ledger.
func (r *Result) RejectedCount() int {
	n := 0
	for _, rec := range r.Orders {
		if rec.Outcome != OutcomeExecuted {
			n++
		}
	}
	return n
}
