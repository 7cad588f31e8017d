package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Position struct {
	Symbol   string
	Quantity decimal.Decimal
}

// Portfolio is a snapshot of ticker -> quantity holdings. It is built once by
// repeated AddPosition calls and treated as read-only afterwards; the
// rebalancer constructs new Portfolios but never mutates one it was handed.
// Tickers iterate in insertion order so instruction output is reproducible.
type Portfolio struct {
	positions map[string]Position
	symbols   []string
}

func NewPortfolio() *Portfolio {
	return &Portfolio{
		positions: map[string]Position{},
	}
}

// AddPosition stores a holding. Exact-zero quantities are omitted rather than
// stored as zero entries.
func (p *Portfolio) AddPosition(symbol string, quantity decimal.Decimal) error {
	if _, ok := p.positions[symbol]; ok {
		return fmt.Errorf("cannot add position %s: %w", symbol, ErrDuplicateTicker)
	}
	if quantity.IsZero() {
		return nil
	}
	p.positions[symbol] = Position{Symbol: symbol, Quantity: quantity}
	p.symbols = append(p.symbols, symbol)
	return nil
}

// GetQuantity returns the held quantity, or zero if the ticker is absent.
func (p Portfolio) GetQuantity(symbol string) decimal.Decimal {
	if position, ok := p.positions[symbol]; ok {
		return position.Quantity
	}
	return decimal.Zero
}

func (p Portfolio) Contains(symbol string) bool {
	_, ok := p.positions[symbol]
	return ok
}

func (p Portfolio) AllTickers() []string {
	symbols := make([]string, len(p.symbols))
	copy(symbols, p.symbols)
	return symbols
}

func (p Portfolio) TotalValue(prices PriceSource) (decimal.Decimal, error) {
	totalValue := decimal.Zero
	for _, symbol := range p.symbols {
		price, err := prices.GetPrice(symbol)
		if err != nil {
			return decimal.Zero, fmt.Errorf("cannot compute portfolio total value: %w", err)
		}
		totalValue = totalValue.Add(p.positions[symbol].Quantity.Mul(price))
	}
	return totalValue, nil
}
