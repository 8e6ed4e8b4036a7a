// Package engine drives backtest runs: it feeds observations to a
// strategy, routes the resulting orders through the ledger, and
// assembles the run result.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"options-backtester/internal/errors"
	"options-backtester/internal/logging"
	"options-backtester/internal/models"
	"options-backtester/internal/portfolio"
	"options-backtester/internal/strategy"
)

// DataProvider supplies the ordered observation sequence for a run.
// The sequence must be complete (one observation per trading day) and
// strictly increasing by date; gap detection lives in the provider.
type DataProvider interface {
	Observations(ctx context.Context, symbol string, start, end time.Time) ([]models.Observation, error)
}

// OrderOutcome classifies what happened to one order emitted by the
// strategy during a run.
type OrderOutcome string

const (
	OutcomeExecuted                     OrderOutcome = "EXECUTED"
	OutcomeRejectedInsufficientFunds    OrderOutcome = "REJECTED_INSUFFICIENT_FUNDS"
	OutcomeRejectedInsufficientPosition OrderOutcome = "REJECTED_INSUFFICIENT_POSITION"
)

// OrderRecord pairs an emitted order with its outcome.
type OrderRecord struct {
	Order   models.Order
	Outcome OrderOutcome
}

// Engine runs one strategy against one ledger. Instances are
// single-threaded; run several strategies by creating one engine each.
type Engine struct {
	provider DataProvider
	strategy strategy.Strategy
	ledger   *portfolio.Ledger
	logger   zerolog.Logger

	trades []models.Trade
	orders []OrderRecord
}

// New creates an engine with a freshly funded ledger.
func New(provider DataProvider, strat strategy.Strategy, initialCapital decimal.Decimal, logger zerolog.Logger) (*Engine, error) {
	ledger, err := portfolio.NewLedger(initialCapital)
	if err != nil {
		return nil, err
	}
	return &Engine{
		provider: provider,
		strategy: strat,
		ledger:   ledger,
		logger:   logging.WithStrategy(logger, strat.Name()),
	}, nil
}

// RunBacktest executes one full run over the symbol and date range.
// A run either yields a complete result or aborts with an error; no
// partial trade sequence is ever surfaced.
func (e *Engine) RunBacktest(ctx context.Context, symbol string, start, end time.Time) (*Result, error) {
	if symbol == "" {
		return nil, errors.NewValidationError("symbol", symbol, "must not be empty")
	}
	if end.Before(start) {
		return nil, errors.NewValidationError("endDate", end, "must not be before start date")
	}

	logging.LogBacktest(e.logger, e.strategy.Name(), symbol, start, end)

	e.strategy.Reset()
	e.ledger.Reset()
	e.trades = e.trades[:0]
	e.orders = e.orders[:0]

	e.strategy.SetAvailableCapital(e.ledger.TotalValue())

	observations, err := e.provider.Observations(ctx, symbol, start, end)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching observations for %s", symbol)
	}

	var (
		equity      []EquityPoint
		peak        = e.ledger.TotalValue()
		maxDrawdown float64
	)

	for _, obs := range observations {
		for _, order := range e.strategy.GenerateOrders(obs) {
			outcome, err := e.routeOrder(order)
			if err != nil {
				return nil, err
			}
			e.orders = append(e.orders, OrderRecord{Order: order, Outcome: outcome})
		}

		value := e.ledger.Valuate(obs)

		if value.GreaterThan(peak) {
			peak = value
		}
		if peak.IsPositive() {
			drawdown, _ := peak.Sub(value).Div(peak).Float64()
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
		equity = append(equity, EquityPoint{Timestamp: obs.Timestamp, Value: value})
	}

	result := &Result{
		StrategyName:   e.strategy.Name(),
		Symbol:         symbol,
		StartDate:      start,
		EndDate:        end,
		Trades:         append([]models.Trade(nil), e.trades...),
		Orders:         append([]OrderRecord(nil), e.orders...),
		InitialCapital: e.ledger.InitialCapital(),
		FinalValue:     e.ledger.TotalValue(),
		EquityCurve:    equity,
		MaxDrawdown:    maxDrawdown * 100,
	}

	e.logger.Info().
		Str("final_value", result.FinalValue.String()).
		Str("return_pct", result.ReturnPct().String()).
		Int("trades", result.TradeCount()).
		Msg("Backtest completed")

	return result, nil
}

// routeOrder pre-checks then executes one order. Rejections are
// recoverable and classified; an execute failure after a passing
// pre-check aborts the run.
func (e *Engine) routeOrder(order models.Order) (OrderOutcome, error) {
	if err := e.ledger.CanExecute(order); err != nil {
		switch {
		case errors.Is(err, errors.ErrInsufficientFunds):
			logging.LogRejectedOrder(e.logger, order.Symbol, string(order.Side), order.Quantity, "insufficient funds")
			return OutcomeRejectedInsufficientFunds, nil
		case errors.Is(err, errors.ErrInsufficientPosition):
			logging.LogRejectedOrder(e.logger, order.Symbol, string(order.Side), order.Quantity, "insufficient position")
			return OutcomeRejectedInsufficientPosition, nil
		default:
			// Invalid order parameters are a strategy bug, not a
			// recoverable rejection.
			return "", errors.Wrap(err, "strategy emitted invalid order")
		}
	}

	trade, err := e.ledger.Execute(order)
	if err != nil {
		return "", err
	}

	e.trades = append(e.trades, trade)
	logging.LogTrade(e.logger, trade.Symbol, string(trade.Side), trade.Quantity, trade.Price.String())
	return OutcomeExecuted, nil
}

// Ledger exposes the current ledger state for presentation layers.
func (e *Engine) Ledger() *portfolio.Ledger {
	return e.ledger
}

// Trades returns a copy of the accumulated trade log.
func (e *Engine) Trades() []models.Trade {
	return append([]models.Trade(nil), e.trades...)
}
