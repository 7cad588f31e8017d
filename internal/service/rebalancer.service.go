package service

import (
	"fmt"

	"github.com/ericcolton/asset-doctor/internal/domain"
	"github.com/shopspring/decimal"
)

type RoundingBehavior string

const (
	RoundingBehaviorUp      RoundingBehavior = "UP"
	RoundingBehaviorDown    RoundingBehavior = "DOWN"
	RoundingBehaviorNearest RoundingBehavior = "NEAREST"
)

type RebalanceOptions struct {
	// TargetTotalValue is consumed by the model portfolio builder, not the
	// rebalancer itself; it rides along so one options value describes a run.
	TargetTotalValue      decimal.Decimal
	AllowShareExchanges   bool
	AllowFractionalShares bool
	RoundingBehavior      RoundingBehavior
}

// DefaultDriftTolerance is the share-quantity magnitude below which a delta
// is treated as noise rather than an actionable trade. The same tolerance
// bounds exchange residual re-queuing, as a fraction of leg value.
var DefaultDriftTolerance = decimal.NewFromFloat(0.01)

// PortfolioRebalancer computes the trade instructions that move a live
// portfolio toward a model portfolio. Each run is a pure function of the two
// portfolios, the price source, and the options; no state is shared between
// runs.
type PortfolioRebalancer struct {
	prices         domain.PriceSource
	options        RebalanceOptions
	driftTolerance decimal.Decimal
	live           *domain.Portfolio
	model          *domain.Portfolio
}

func NewPortfolioRebalancer(prices domain.PriceSource, options RebalanceOptions) *PortfolioRebalancer {
	return &PortfolioRebalancer{
		prices:         prices,
		options:        options,
		driftTolerance: DefaultDriftTolerance,
	}
}

func (r *PortfolioRebalancer) SetLivePortfolio(live *domain.Portfolio) {
	r.live = live
}

func (r *PortfolioRebalancer) SetModelPortfolio(model *domain.Portfolio) {
	r.model = model
}

// SetDriftTolerance overrides the default noise threshold.
func (r *PortfolioRebalancer) SetDriftTolerance(tolerance decimal.Decimal) {
	r.driftTolerance = tolerance
}

// deltaSet is an ordered ticker -> signed quantity mapping. Order follows
// first insertion so downstream instruction output is deterministic.
type deltaSet struct {
	deltas  map[string]decimal.Decimal
	symbols []string
}

func newDeltaSet() *deltaSet {
	return &deltaSet{deltas: map[string]decimal.Decimal{}}
}

func (d *deltaSet) add(symbol string, quantity decimal.Decimal) {
	if _, ok := d.deltas[symbol]; !ok {
		d.symbols = append(d.symbols, symbol)
	}
	d.deltas[symbol] = d.deltas[symbol].Add(quantity)
}

// computeDeltas derives the per-ticker share gap between live and model
// holdings: model minus live for every model ticker, full liquidation for
// live tickers absent from the model. Raw deltas are rounded first (when
// fractional shares are disallowed), then anything below the drift tolerance
// is dropped.
func (r *PortfolioRebalancer) computeDeltas() (*deltaSet, error) {
	if r.live == nil || r.model == nil {
		return nil, domain.ErrPortfoliosNotSet
	}

	deltas := newDeltaSet()
	for _, symbol := range r.model.AllTickers() {
		delta := r.model.GetQuantity(symbol).Sub(r.live.GetQuantity(symbol))
		if err := r.appendDelta(deltas, symbol, delta); err != nil {
			return nil, err
		}
	}
	for _, symbol := range r.live.AllTickers() {
		if r.model.Contains(symbol) {
			continue
		}
		if err := r.appendDelta(deltas, symbol, r.live.GetQuantity(symbol).Neg()); err != nil {
			return nil, err
		}
	}
	return deltas, nil
}

func (r *PortfolioRebalancer) appendDelta(deltas *deltaSet, symbol string, delta decimal.Decimal) error {
	if !r.options.AllowFractionalShares {
		switch r.options.RoundingBehavior {
		case RoundingBehaviorNearest:
			delta = delta.RoundBank(0)
		case RoundingBehaviorUp:
			delta = delta.Ceil()
		case RoundingBehaviorDown:
			delta = delta.Floor()
		default:
			return domain.ErrRoundingBehaviorRequired
		}
	}
	if delta.Abs().LessThan(r.driftTolerance) {
		return nil
	}
	deltas.add(symbol, delta)
	return nil
}

// BuildRebalanceInstructions computes deltas, pairs them into exchanges when
// allowed, and emits the remaining deltas as BUY/SELL instructions. Exchange
// instructions precede residual buys and sells.
func (r *PortfolioRebalancer) BuildRebalanceInstructions() ([]domain.RebalanceInstruction, error) {
	deltas, err := r.computeDeltas()
	if err != nil {
		return nil, err
	}

	instructions := []domain.RebalanceInstruction{}
	if r.options.AllowShareExchanges {
		exchanges, residual, err := matchExchanges(deltas, r.prices, r.driftTolerance)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, exchanges...)
		deltas = residual
	}

	for _, symbol := range deltas.symbols {
		delta := deltas.deltas[symbol]
		if delta.IsPositive() {
			instructions = append(instructions, domain.RebalanceInstruction{
				Type:     domain.TransactionTypeBuy,
				Symbol:   symbol,
				Quantity: delta,
			})
		} else {
			instructions = append(instructions, domain.RebalanceInstruction{
				Type:     domain.TransactionTypeSell,
				Symbol:   symbol,
				Quantity: delta.Abs(),
			})
		}
	}
	return instructions, nil
}

// BuildRebalancedPortfolio projects the live portfolio forward through every
// instruction, omitting positions that land on exactly zero.
func (r *PortfolioRebalancer) BuildRebalancedPortfolio() (*domain.Portfolio, error) {
	instructions, err := r.BuildRebalanceInstructions()
	if err != nil {
		return nil, err
	}

	adjusted := newDeltaSet()
	for _, symbol := range r.live.AllTickers() {
		adjusted.add(symbol, r.live.GetQuantity(symbol))
	}
	for _, instruction := range instructions {
		switch instruction.Type {
		case domain.TransactionTypeBuy:
			adjusted.add(instruction.Symbol, instruction.Quantity)
		case domain.TransactionTypeSell:
			adjusted.add(instruction.Symbol, instruction.Quantity.Neg())
		case domain.TransactionTypeExchange:
			adjusted.add(instruction.Symbol, instruction.Quantity.Neg())
			adjusted.add(instruction.CounterSymbol, instruction.CounterQuantity)
		default:
			// unreachable unless a new transaction type is introduced
			return nil, fmt.Errorf("unrecognized transaction type %q", instruction.Type)
		}
	}

	rebalanced := domain.NewPortfolio()
	for _, symbol := range adjusted.symbols {
		quantity := adjusted.deltas[symbol]
		if quantity.IsZero() {
			continue
		}
		if err := rebalanced.AddPosition(symbol, quantity); err != nil {
			return nil, err
		}
	}
	return rebalanced, nil
}

// Validate applies the computed rebalance and re-runs the full computation
// with the resulting portfolio as the new live portfolio. Any residual
// instructions mean the rounding and tolerance settings do not stabilize.
func (r *PortfolioRebalancer) Validate() error {
	rebalanced, err := r.BuildRebalancedPortfolio()
	if err != nil {
		return err
	}

	check := NewPortfolioRebalancer(r.prices, r.options)
	check.SetDriftTolerance(r.driftTolerance)
	check.SetLivePortfolio(rebalanced)
	check.SetModelPortfolio(r.model)
	residual, err := check.BuildRebalanceInstructions()
	if err != nil {
		return err
	}
	if len(residual) > 0 {
		return fmt.Errorf("%d residual instructions remain after rebalancing: %w",
			len(residual), domain.ErrRebalanceDidNotConverge)
	}
	return nil
}
