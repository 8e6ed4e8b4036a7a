package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
	"options-backtester/internal/strategy"
)

var nop = zerolog.Nop()

// stubProvider serves a fixed observation sequence filtered to the
// requested range.
type stubProvider struct {
	observations []models.Observation
	err          error
}

func (p *stubProvider) Observations(ctx context.Context, symbol string, start, end time.Time) ([]models.Observation, error) {
	if p.err != nil {
		return nil, p.err
	}
	var out []models.Observation
	for _, o := range p.observations {
		if o.Timestamp.Before(start) || o.Timestamp.After(end) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func obs(symbol, date, price string) models.Observation {
	p := decimal.RequireFromString(price)
	return models.Observation{Symbol: symbol, Timestamp: day(date), Price: p, Bid: p, Ask: p}
}

func spyWeek() *stubProvider {
	return &stubProvider{observations: []models.Observation{
		obs("SPY", "2024-01-02", "100"),
		obs("SPY", "2024-01-03", "102"),
		obs("SPY", "2024-01-04", "105"),
		obs("SPY", "2024-01-05", "103"),
		obs("SPY", "2024-01-08", "108"),
	}}
}

func TestRunBacktestBuyAndHoldRoundTrip(t *testing.T) {
	strat := strategy.NewBuyAndHold("SPY", day("2024-01-08"), nop)
	eng, err := New(spyWeek(), strat, decimal.NewFromInt(10000), nop)
	require.NoError(t, err)

	result, err := eng.RunBacktest(context.Background(), "SPY", day("2024-01-02"), day("2024-01-08"))
	require.NoError(t, err)

	// One entry, one liquidation, all orders executed.
	require.Equal(t, 2, result.TradeCount())
	assert.Equal(t, 0, result.RejectedCount())
	assert.Equal(t, models.OrderSideBuy, result.Trades[0].Side)
	assert.Equal(t, models.OrderSideSell, result.Trades[1].Side)

	// 95 shares bought at 100, sold at 108: final value 10000 + 95*8.
	assert.True(t, result.FinalValue.Equal(decimal.NewFromInt(10760)), "final value = %s", result.FinalValue)
	assert.True(t, result.TotalReturn().Equal(decimal.NewFromInt(760)))
	assert.True(t, result.ReturnPct().Equal(decimal.RequireFromString("7.6")), "return pct = %s", result.ReturnPct())

	// The run ends flat: everything back in cash.
	assert.Empty(t, eng.Ledger().Positions())

	assert.Len(t, result.EquityCurve, 5)
}

func TestRunBacktestIsDeterministic(t *testing.T) {
	strat := strategy.NewBuyAndHold("SPY", day("2024-01-08"), nop)
	eng, err := New(spyWeek(), strat, decimal.NewFromInt(10000), nop)
	require.NoError(t, err)

	first, err := eng.RunBacktest(context.Background(), "SPY", day("2024-01-02"), day("2024-01-08"))
	require.NoError(t, err)
	second, err := eng.RunBacktest(context.Background(), "SPY", day("2024-01-02"), day("2024-01-08"))
	require.NoError(t, err)

	assert.True(t, first.FinalValue.Equal(second.FinalValue))
	require.Equal(t, first.TradeCount(), second.TradeCount())
	for i := range first.Trades {
		assert.Equal(t, first.Trades[i].Symbol, second.Trades[i].Symbol)
		assert.Equal(t, first.Trades[i].Side, second.Trades[i].Side)
		assert.Equal(t, first.Trades[i].Quantity, second.Trades[i].Quantity)
		assert.True(t, first.Trades[i].Price.Equal(second.Trades[i].Price))
	}
	for i := range first.EquityCurve {
		assert.True(t, first.EquityCurve[i].Value.Equal(second.EquityCurve[i].Value))
	}
}

// fixedOrderStrategy emits a preset order sequence, one slice per
// observation, regardless of price.
type fixedOrderStrategy struct {
	orders [][]models.Order
	calls  int
}

func (s *fixedOrderStrategy) Name() string { return "Fixed Order Strategy" }

func (s *fixedOrderStrategy) GenerateOrders(obs models.Observation) []models.Order {
	if s.calls >= len(s.orders) {
		return nil
	}
	out := s.orders[s.calls]
	s.calls++
	return out
}

func (s *fixedOrderStrategy) Reset() { s.calls = 0 }

func (s *fixedOrderStrategy) MinimumCapitalRequired(obs models.Observation) (decimal.Decimal, bool) {
	return decimal.Zero, false
}

func (s *fixedOrderStrategy) SetAvailableCapital(capital decimal.Decimal) {}

func TestRunBacktestRecordsRejections(t *testing.T) {
	strat := &fixedOrderStrategy{orders: [][]models.Order{
		{models.NewOrder("SPY", models.OrderSideBuy, 1000, decimal.NewFromInt(100), day("2024-01-02"))},
		{models.NewOrder("SPY", models.OrderSideSell, 5, decimal.NewFromInt(102), day("2024-01-03"))},
	}}

	eng, err := New(spyWeek(), strat, decimal.NewFromInt(10000), nop)
	require.NoError(t, err)

	result, err := eng.RunBacktest(context.Background(), "SPY", day("2024-01-02"), day("2024-01-08"))
	require.NoError(t, err)

	// Both orders rejected, run completes with zero trades.
	assert.Equal(t, 0, result.TradeCount())
	require.Len(t, result.Orders, 2)
	assert.Equal(t, OutcomeRejectedInsufficientFunds, result.Orders[0].Outcome)
	assert.Equal(t, OutcomeRejectedInsufficientPosition, result.Orders[1].Outcome)
	assert.True(t, result.FinalValue.Equal(decimal.NewFromInt(10000)))
}

func TestRunBacktestAbortsOnInvalidOrder(t *testing.T) {
	strat := &fixedOrderStrategy{orders: [][]models.Order{
		{models.NewOrder("SPY", models.OrderSideBuy, 0, decimal.NewFromInt(100), day("2024-01-02"))},
	}}

	eng, err := New(spyWeek(), strat, decimal.NewFromInt(10000), nop)
	require.NoError(t, err)

	result, err := eng.RunBacktest(context.Background(), "SPY", day("2024-01-02"), day("2024-01-08"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.Nil(t, result)
}

func TestRunBacktestValidation(t *testing.T) {
	strat := strategy.NewBuyAndHold("SPY", day("2024-01-08"), nop)
	eng, err := New(spyWeek(), strat, decimal.NewFromInt(10000), nop)
	require.NoError(t, err)

	_, err = eng.RunBacktest(context.Background(), "", day("2024-01-02"), day("2024-01-08"))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = eng.RunBacktest(context.Background(), "SPY", day("2024-01-08"), day("2024-01-02"))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestRunBacktestPropagatesProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.NewDataError("stub", "SPY", "boom", errors.ErrDataNotFound)}
	strat := strategy.NewBuyAndHold("SPY", day("2024-01-08"), nop)
	eng, err := New(provider, strat, decimal.NewFromInt(10000), nop)
	require.NoError(t, err)

	_, err = eng.RunBacktest(context.Background(), "SPY", day("2024-01-02"), day("2024-01-08"))
	assert.True(t, errors.Is(err, errors.ErrDataNotFound))
}

func TestCheckCapitalForRun(t *testing.T) {
	provider := spyWeek()
	strat := strategy.NewBuyAndHold("SPY", day("2024-01-08"), nop)

	// Plenty of capital: check passes untouched.
	capital, check, err := CheckCapitalForRun(context.Background(), provider, strat,
		decimal.NewFromInt(10000), "SPY", day("2024-01-02"), false)
	require.NoError(t, err)
	assert.True(t, check.Sufficient)
	assert.True(t, capital.Equal(decimal.NewFromInt(10000)))

	// Below one share at the first price: fails without auto-raise.
	_, check, err = CheckCapitalForRun(context.Background(), provider, strat,
		decimal.NewFromInt(50), "SPY", day("2024-01-02"), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientCapital))
	assert.False(t, check.Sufficient)
	assert.True(t, check.Required.Equal(decimal.NewFromInt(100)))

	// Auto-raise funds the run at the requirement.
	capital, check, err = CheckCapitalForRun(context.Background(), provider, strat,
		decimal.NewFromInt(50), "SPY", day("2024-01-02"), true)
	require.NoError(t, err)
	assert.False(t, check.Sufficient)
	assert.True(t, capital.Equal(decimal.NewFromInt(100)))
}

func TestMaxDrawdown(t *testing.T) {
	provider := &stubProvider{observations: []models.Observation{
		obs("SPY", "2024-01-02", "100"),
		obs("SPY", "2024-01-03", "110"),
		obs("SPY", "2024-01-04", "88"),
		obs("SPY", "2024-01-05", "110"),
	}}

	strat := &fixedOrderStrategy{orders: [][]models.Order{
		{models.NewOrder("SPY", models.OrderSideBuy, 100, decimal.NewFromInt(100), day("2024-01-02"))},
	}}

	eng, err := New(provider, strat, decimal.NewFromInt(10000), nop)
	require.NoError(t, err)

	result, err := eng.RunBacktest(context.Background(), "SPY", day("2024-01-02"), day("2024-01-05"))
	require.NoError(t, err)

	// Equity peaks at 11000 and troughs at 8800: 20% drawdown.
	assert.InDelta(t, 20.0, result.MaxDrawdown, 1e-9)
}
