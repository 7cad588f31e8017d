package service

import (
	"fmt"

	"github.com/ericcolton/asset-doctor/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultPercentTolerance is how far the summed target percentages may stray
// from 100 before the model is rejected.
var DefaultPercentTolerance = decimal.NewFromFloat(0.01)

var hundred = decimal.NewFromInt(100)

type ModelPosition struct {
	Symbol        string
	TargetPercent decimal.Decimal
}

// ModelPortfolioBuilder converts target percentage allocations plus a target
// total value into a concrete target Portfolio, using the price source to
// translate dollar allocations into share quantities.
type ModelPortfolioBuilder struct {
	targetValue decimal.Decimal
	prices      domain.PriceSource
	tolerance   decimal.Decimal
	positions   []ModelPosition
	seen        map[string]bool
}

func NewModelPortfolioBuilder(targetValue decimal.Decimal, prices domain.PriceSource) *ModelPortfolioBuilder {
	return &ModelPortfolioBuilder{
		targetValue: targetValue,
		prices:      prices,
		tolerance:   DefaultPercentTolerance,
		seen:        map[string]bool{},
	}
}

// SetPercentTolerance overrides the default sum-to-100 tolerance.
func (b *ModelPortfolioBuilder) SetPercentTolerance(tolerance decimal.Decimal) {
	b.tolerance = tolerance
}

func (b *ModelPortfolioBuilder) AddModelPosition(symbol string, targetPercent decimal.Decimal) error {
	if b.seen[symbol] {
		return fmt.Errorf("cannot add model position %s: %w", symbol, domain.ErrDuplicateTicker)
	}
	b.seen[symbol] = true
	b.positions = append(b.positions, ModelPosition{Symbol: symbol, TargetPercent: targetPercent})
	return nil
}

// Build fails unless the target percentages sum to 100 within tolerance. Only
// strictly positive resulting quantities are added to the model portfolio.
func (b *ModelPortfolioBuilder) Build() (*domain.Portfolio, error) {
	totalPercent := decimal.Zero
	for _, position := range b.positions {
		totalPercent = totalPercent.Add(position.TargetPercent)
	}
	if totalPercent.Sub(hundred).Abs().GreaterThan(b.tolerance) {
		return nil, fmt.Errorf("target percentages sum to %s: %w", totalPercent.String(), domain.ErrPercentagesDoNotSum100)
	}

	portfolio := domain.NewPortfolio()
	for _, position := range b.positions {
		price, err := b.prices.GetPrice(position.Symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to build model portfolio: %w", err)
		}
		quantity := b.targetValue.Mul(position.TargetPercent).Div(hundred).Div(price)
		if !quantity.IsPositive() {
			continue
		}
		if err := portfolio.AddPosition(position.Symbol, quantity); err != nil {
			return nil, err
		}
	}
	return portfolio, nil
}
