package strategy

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"options-backtester/internal/models"
)

// buyHoldPosition holds the open-position fields of a BuyAndHold run.
type buyHoldPosition struct {
	entryDate  time.Time
	entryPrice decimal.Decimal
	quantity   int
}

// BuyAndHold buys as many shares as the capital buffer allows on the
// first matching observation and sells the whole position on or after
// the configured sell date.
type BuyAndHold struct {
	symbol   string
	sellDate time.Time
	budget   decimal.Decimal
	logger   zerolog.Logger

	state State
	pos   buyHoldPosition
}

// NewBuyAndHold creates a buy-and-hold strategy for the given underlying.
// The position is liquidated on the first observation on or after sellDate.
func NewBuyAndHold(symbol string, sellDate time.Time, logger zerolog.Logger) *BuyAndHold {
	return &BuyAndHold{
		symbol:   symbol,
		sellDate: sellDate,
		logger:   logger.With().Str("strategy", "buy_and_hold").Logger(),
		state:    StateFlat,
	}
}

// Name returns the strategy name.
func (s *BuyAndHold) Name() string {
	return "Buy and Hold Strategy"
}

// GenerateOrders implements Strategy.
func (s *BuyAndHold) GenerateOrders(obs models.Observation) []models.Order {
	if obs.Symbol != s.symbol {
		return nil
	}

	if s.state == StateFlat {
		return s.enter(obs)
	}
	if !obs.Date().Before(s.sellDate) {
		return s.exit(obs)
	}
	return nil
}

func (s *BuyAndHold) enter(obs models.Observation) []models.Order {
	quantity := int(s.budget.Div(obs.Price).IntPart())
	if quantity <= 0 {
		s.logger.Warn().
			Str("symbol", s.symbol).
			Str("price", obs.Price.String()).
			Str("budget", s.budget.String()).
			Msg("Cannot afford any shares")
		return nil
	}

	s.state = StateOpen
	s.pos = buyHoldPosition{
		entryDate:  obs.Date(),
		entryPrice: obs.Price,
		quantity:   quantity,
	}

	s.logger.Info().
		Str("symbol", s.symbol).
		Int("quantity", quantity).
		Str("price", obs.Price.String()).
		Msg("Entering position")

	return []models.Order{
		models.NewOrder(s.symbol, models.OrderSideBuy, quantity, obs.Price, obs.Timestamp),
	}
}

func (s *BuyAndHold) exit(obs models.Observation) []models.Order {
	quantity := s.pos.quantity
	pnl := obs.Price.Sub(s.pos.entryPrice).Mul(decimal.NewFromInt(int64(quantity)))
	heldDays := int(obs.Date().Sub(s.pos.entryDate).Hours() / 24)

	s.logger.Info().
		Str("symbol", s.symbol).
		Int("quantity", quantity).
		Str("price", obs.Price.String()).
		Str("pnl", pnl.String()).
		Int("held_days", heldDays).
		Msg("Exiting position")

	s.state = StateFlat
	s.pos = buyHoldPosition{}

	return []models.Order{
		models.NewOrder(s.symbol, models.OrderSideSell, quantity, obs.Price, obs.Timestamp),
	}
}

// Reset implements Strategy.
func (s *BuyAndHold) Reset() {
	s.state = StateFlat
	s.pos = buyHoldPosition{}
}

// MinimumCapitalRequired implements Strategy: one share at the observed price.
func (s *BuyAndHold) MinimumCapitalRequired(obs models.Observation) (decimal.Decimal, bool) {
	return obs.Price, true
}

// SetAvailableCapital implements Strategy.
func (s *BuyAndHold) SetAvailableCapital(capital decimal.Decimal) {
	s.budget = investableCapital(capital)
}
