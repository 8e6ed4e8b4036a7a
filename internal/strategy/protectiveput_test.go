package strategy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-backtester/internal/models"
)

func newTestProtectivePut() *ProtectivePut {
	return NewProtectivePut("SPY", 30, decimal.NewFromInt(5), nop)
}

func TestProtectivePutEntry(t *testing.T) {
	s := newTestProtectivePut()
	s.SetAvailableCapital(decimal.NewFromInt(50000))

	orders := s.GenerateOrders(obs("SPY", "2024-01-02", "100"))
	require.Len(t, orders, 2)

	stock, put := orders[0], orders[1]

	// 95% of 50000 affords 475 shares, floored to the 400-share lot.
	assert.Equal(t, models.OrderSideBuy, stock.Side)
	assert.Equal(t, 400, stock.Quantity)

	assert.Equal(t, models.OrderSideBuy, put.Side)
	assert.Equal(t, "SPY_20240201_P_95", put.Symbol)
	assert.Equal(t, 4, put.Quantity)
	assert.True(t, put.Price.Equal(decimal.RequireFromString("1.5")), "premium = %s", put.Price)
}

func TestProtectivePutSkipsBelowLot(t *testing.T) {
	s := newTestProtectivePut()
	s.SetAvailableCapital(decimal.NewFromInt(10000))

	// 9500 / 200 = 47 shares, below the 100-share lot.
	assert.Empty(t, s.GenerateOrders(obs("SPY", "2024-01-02", "200")))

	// Still flat; enters when the price allows a full lot.
	orders := s.GenerateOrders(obs("SPY", "2024-01-03", "90"))
	require.Len(t, orders, 2)
	assert.Equal(t, 100, orders[0].Quantity)
}

func TestProtectivePutExitAtExpiration(t *testing.T) {
	s := newTestProtectivePut()
	s.SetAvailableCapital(decimal.NewFromInt(50000))

	require.Len(t, s.GenerateOrders(obs("SPY", "2024-01-02", "100")), 2)
	assert.Empty(t, s.GenerateOrders(obs("SPY", "2024-01-15", "97")))

	orders := s.GenerateOrders(obs("SPY", "2024-02-01", "80"))
	require.Len(t, orders, 2)

	stock, put := orders[0], orders[1]

	assert.Equal(t, models.OrderSideSell, stock.Side)
	assert.Equal(t, 400, stock.Quantity)

	// Puts settle at intrinsic: 95 - 80.
	assert.Equal(t, models.OrderSideSell, put.Side)
	assert.Equal(t, 4, put.Quantity)
	assert.True(t, put.Price.Equal(decimal.NewFromInt(15)), "settlement = %s", put.Price)
}

func TestProtectivePutExitWorthless(t *testing.T) {
	s := newTestProtectivePut()
	s.SetAvailableCapital(decimal.NewFromInt(50000))

	require.Len(t, s.GenerateOrders(obs("SPY", "2024-01-02", "100")), 2)

	orders := s.GenerateOrders(obs("SPY", "2024-02-01", "120"))
	require.Len(t, orders, 2)
	assert.True(t, orders[1].Price.IsZero())
}

func TestProtectivePutIgnoresOtherSymbols(t *testing.T) {
	s := newTestProtectivePut()
	s.SetAvailableCapital(decimal.NewFromInt(50000))

	assert.Empty(t, s.GenerateOrders(obs("QQQ", "2024-01-02", "100")))
}

func TestProtectivePutMinimumCapital(t *testing.T) {
	s := newTestProtectivePut()

	required, ok := s.MinimumCapitalRequired(obs("SPY", "2024-01-02", "100"))
	require.True(t, ok)

	// (100 shares x 100 + 1.5 premium) / 0.95, rounded up to cents.
	assert.True(t, required.Equal(decimal.RequireFromString("10528.95")), "required = %s", required)
}
