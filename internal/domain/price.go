package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceSource is the price oracle contract the rebalancing core consumes.
type PriceSource interface {
	GetPrice(symbol string) (decimal.Decimal, error)
}

// PriceLookup is an in-memory ticker -> price table, built by the record
// capture layer before a run.
type PriceLookup struct {
	prices map[string]decimal.Decimal
}

func NewPriceLookup() *PriceLookup {
	return &PriceLookup{
		prices: map[string]decimal.Decimal{},
	}
}

// AddPrice stores a price for a ticker. Prices must be strictly positive;
// share quantities are derived by dividing through them.
func (l *PriceLookup) AddPrice(symbol string, price decimal.Decimal) error {
	if _, ok := l.prices[symbol]; ok {
		return fmt.Errorf("cannot add price for %s: %w", symbol, ErrDuplicateTicker)
	}
	if !price.IsPositive() {
		return fmt.Errorf("cannot add price of %s for %s: %w", price.String(), symbol, ErrInvalidPrice)
	}
	l.prices[symbol] = price
	return nil
}

func (l *PriceLookup) GetPrice(symbol string) (decimal.Decimal, error) {
	price, ok := l.prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%s: %w", symbol, ErrUnknownTicker)
	}
	return price, nil
}
