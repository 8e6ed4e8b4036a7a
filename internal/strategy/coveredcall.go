package strategy

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"options-backtester/internal/models"
)

// coveredCallPosition holds the open-position fields of a CoveredCall run.
type coveredCallPosition struct {
	entryDate  time.Time
	callStrike decimal.Decimal
}

// CoveredCall buys a fixed share lot and writes one call contract per
// 100 shares at spot plus the strike offset. The position is unwound at
// expiration: shares sold, calls bought back at settlement value.
type CoveredCall struct {
	symbol           string
	daysToExpiration int
	strikeOffset     decimal.Decimal
	shareQuantity    int
	logger           zerolog.Logger

	state State
	pos   coveredCallPosition
}

// NewCoveredCall creates a covered call strategy over a fixed share lot.
// shareQuantity should be a multiple of 100 so every share is covered.
func NewCoveredCall(symbol string, daysToExpiration int, strikeOffset decimal.Decimal, shareQuantity int, logger zerolog.Logger) *CoveredCall {
	return &CoveredCall{
		symbol:           symbol,
		daysToExpiration: daysToExpiration,
		strikeOffset:     strikeOffset,
		shareQuantity:    shareQuantity,
		logger:           logger.With().Str("strategy", "covered_call").Logger(),
		state:            StateFlat,
	}
}

// Name returns the strategy name.
func (s *CoveredCall) Name() string {
	return "Covered Call Strategy"
}

// GenerateOrders implements Strategy.
func (s *CoveredCall) GenerateOrders(obs models.Observation) []models.Order {
	if obs.Symbol != s.symbol {
		return nil
	}

	if s.state == StateFlat {
		return s.enter(obs)
	}
	if !obs.Date().Before(s.expirationDate()) {
		return s.exit(obs)
	}
	return nil
}

func (s *CoveredCall) enter(obs models.Observation) []models.Order {
	strike := obs.Price.Add(s.strikeOffset)
	expiration := obs.Date().AddDate(0, 0, s.daysToExpiration)
	callSymbol := models.OptionSymbol(s.symbol, models.OptionCall, strike, expiration)
	premium := syntheticPremium(obs.Price, strike, s.daysToExpiration, models.OptionCall)

	s.state = StateOpen
	s.pos = coveredCallPosition{
		entryDate:  obs.Date(),
		callStrike: strike,
	}

	s.logger.Info().
		Str("symbol", s.symbol).
		Int("shares", s.shareQuantity).
		Str("price", obs.Price.String()).
		Str("strike", strike.String()).
		Str("premium", premium.String()).
		Msg("Entering covered call position")

	return []models.Order{
		models.NewOrder(s.symbol, models.OrderSideBuy, s.shareQuantity, obs.Price, obs.Timestamp),
		models.NewOrder(callSymbol, models.OrderSideSell, s.shareQuantity/100, premium, obs.Timestamp),
	}
}

func (s *CoveredCall) exit(obs models.Observation) []models.Order {
	expiration := s.expirationDate()
	callSymbol := models.OptionSymbol(s.symbol, models.OptionCall, s.pos.callStrike, expiration)
	buyback := settlementValue(obs.Price, s.pos.callStrike, models.OptionCall)

	s.logger.Info().
		Str("symbol", s.symbol).
		Str("price", obs.Price.String()).
		Str("buyback", buyback.String()).
		Msg("Closing covered call position")

	s.state = StateFlat
	s.pos = coveredCallPosition{}

	return []models.Order{
		models.NewOrder(s.symbol, models.OrderSideSell, s.shareQuantity, obs.Price, obs.Timestamp),
		models.NewOrder(callSymbol, models.OrderSideBuy, s.shareQuantity/100, buyback, obs.Timestamp),
	}
}

func (s *CoveredCall) expirationDate() time.Time {
	return s.pos.entryDate.AddDate(0, 0, s.daysToExpiration)
}

// Reset implements Strategy.
func (s *CoveredCall) Reset() {
	s.state = StateFlat
	s.pos = coveredCallPosition{}
}

// MinimumCapitalRequired implements Strategy: the fixed share lot at the
// observed price. Written premium is collected, not paid, so the lot
// cost dominates.
func (s *CoveredCall) MinimumCapitalRequired(obs models.Observation) (decimal.Decimal, bool) {
	return obs.Price.Mul(decimal.NewFromInt(int64(s.shareQuantity))), true
}

// SetAvailableCapital implements Strategy. The share lot is fixed at
// construction, so capital does not change sizing.
func (s *CoveredCall) SetAvailableCapital(capital decimal.Decimal) {}
