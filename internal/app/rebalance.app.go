package app

import (
	"context"
	"fmt"

	"github.com/ericcolton/asset-doctor/internal/capture"
	"github.com/ericcolton/asset-doctor/internal/domain"
	"github.com/ericcolton/asset-doctor/internal/logger"
	"github.com/ericcolton/asset-doctor/internal/service"
	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// RebalanceHandler orchestrates one rebalance run: cross-validates the
// captured records, builds the price lookup and both portfolios, runs the
// rebalancer, and self-checks convergence.
type RebalanceHandler struct {
	// PercentTolerance bounds |sum(target %) - 100| across summary records.
	PercentTolerance decimal.Decimal
	// ValueTolerance bounds the dollar mismatch allowed between a summary
	// record's actual amount and the value implied by its implementation
	// record.
	ValueTolerance decimal.Decimal
	// DriftTolerance, when positive, overrides the rebalancer's default
	// noise threshold.
	DriftTolerance decimal.Decimal
}

// RebalanceRun is the complete outcome of a run, ready for rendering.
type RebalanceRun struct {
	RunID           uuid.UUID
	Options         service.RebalanceOptions
	Instructions    []domain.RebalanceInstruction
	Prices          *domain.PriceLookup
	LiveValue       decimal.Decimal
	TargetValue     decimal.Decimal
	RebalancedValue decimal.Decimal
	Drift           DriftSummary
}

// DriftSummary describes how far the actual allocation has wandered from the
// balanced allocation, as a percentage of total portfolio value.
type DriftSummary struct {
	MeanAbsolutePercent float64
	MaxAbsolutePercent  float64
}

func (h RebalanceHandler) Run(
	ctx context.Context,
	summaryRecords []capture.SummaryRecord,
	implementationRecords []capture.ImplementationRecord,
	options service.RebalanceOptions,
) (*RebalanceRun, error) {
	runID := uuid.New()
	log := logger.FromContext(ctx).With("runID", runID.String())

	if err := h.validateRecords(summaryRecords, implementationRecords); err != nil {
		return nil, err
	}

	prices, err := BuildPriceLookup(implementationRecords)
	if err != nil {
		return nil, err
	}
	live, err := BuildLivePortfolio(implementationRecords)
	if err != nil {
		return nil, err
	}
	liveValue, err := live.TotalValue(prices)
	if err != nil {
		return nil, err
	}

	model, err := h.BuildModelPortfolio(options, summaryRecords, prices)
	if err != nil {
		return nil, err
	}
	targetValue, err := model.TotalValue(prices)
	if err != nil {
		return nil, err
	}

	drift, err := driftSummary(summaryRecords, liveValue)
	if err != nil {
		return nil, err
	}
	log.Infow("computed allocation drift",
		"meanAbsolutePercent", drift.MeanAbsolutePercent,
		"maxAbsolutePercent", drift.MaxAbsolutePercent,
	)

	rebalancer := service.NewPortfolioRebalancer(prices, options)
	if h.DriftTolerance.IsPositive() {
		rebalancer.SetDriftTolerance(h.DriftTolerance)
	}
	rebalancer.SetLivePortfolio(live)
	rebalancer.SetModelPortfolio(model)

	instructions, err := rebalancer.BuildRebalanceInstructions()
	if err != nil {
		return nil, fmt.Errorf("failed to build rebalance instructions: %w", err)
	}
	rebalanced, err := rebalancer.BuildRebalancedPortfolio()
	if err != nil {
		return nil, fmt.Errorf("failed to build rebalanced portfolio: %w", err)
	}
	rebalancedValue, err := rebalanced.TotalValue(prices)
	if err != nil {
		return nil, err
	}
	if err := rebalancer.Validate(); err != nil {
		return nil, err
	}
	log.Infow("rebalance computed", "instructions", len(instructions))

	return &RebalanceRun{
		RunID:           runID,
		Options:         options,
		Instructions:    instructions,
		Prices:          prices,
		LiveValue:       liveValue,
		TargetValue:     targetValue,
		RebalancedValue: rebalancedValue,
		Drift:           drift,
	}, nil
}

// BuildPriceLookup collects every implementation record's price.
func BuildPriceLookup(records []capture.ImplementationRecord) (*domain.PriceLookup, error) {
	prices := domain.NewPriceLookup()
	for _, record := range records {
		if err := prices.AddPrice(record.Ticker, record.Price); err != nil {
			return nil, err
		}
	}
	return prices, nil
}

// BuildLivePortfolio holds only the positions with positive quantities;
// records that exist purely to price an unheld instrument are skipped.
func BuildLivePortfolio(records []capture.ImplementationRecord) (*domain.Portfolio, error) {
	portfolio := domain.NewPortfolio()
	for _, record := range records {
		if !record.Quantity.IsPositive() {
			continue
		}
		if err := portfolio.AddPosition(record.Ticker, record.Quantity); err != nil {
			return nil, err
		}
	}
	return portfolio, nil
}

// BuildModelPortfolio feeds the positive target percentages into the model
// builder against the options' target total value.
func (h RebalanceHandler) BuildModelPortfolio(
	options service.RebalanceOptions,
	summaryRecords []capture.SummaryRecord,
	prices domain.PriceSource,
) (*domain.Portfolio, error) {
	builder := service.NewModelPortfolioBuilder(options.TargetTotalValue, prices)
	builder.SetPercentTolerance(h.PercentTolerance)
	for _, record := range summaryRecords {
		if !record.TargetPercent.IsPositive() {
			continue
		}
		if err := builder.AddModelPosition(record.Ticker, record.TargetPercent.Decimal); err != nil {
			return nil, err
		}
	}
	return builder.Build()
}

// validateRecords cross-checks the two pasted reports against each other
// before any computation: target percentages must total 100, each summary
// record's actual amount must agree with its implementation record's
// price * quantity, no held implementation record may be orphaned, and the
// grand totals must reconcile.
func (h RebalanceHandler) validateRecords(
	summaryRecords []capture.SummaryRecord,
	implementationRecords []capture.ImplementationRecord,
) error {
	totalPercent := decimal.Zero
	for _, record := range summaryRecords {
		totalPercent = totalPercent.Add(record.TargetPercent.Decimal)
	}
	hundred := decimal.NewFromInt(100)
	if totalPercent.Sub(hundred).Abs().GreaterThan(h.PercentTolerance) {
		return fmt.Errorf("summary record target percentages sum to %s: %w",
			totalPercent.String(), domain.ErrPercentagesDoNotSum100)
	}

	implementationBySymbol := map[string]capture.ImplementationRecord{}
	for _, record := range implementationRecords {
		implementationBySymbol[record.Ticker] = record
	}

	usedValues := map[string]decimal.Decimal{}
	totalSummaryValue := decimal.Zero
	for _, record := range summaryRecords {
		implementation, ok := implementationBySymbol[record.Ticker]
		implementationValue := decimal.Zero
		if ok {
			implementationValue = implementation.Price.Mul(implementation.Quantity)
			usedValues[record.Ticker] = implementationValue
		} else if !record.ActualAmount.IsZero() {
			return fmt.Errorf("no implementation record for '%s'", record.Ticker)
		}

		if record.ActualAmount.Sub(implementationValue).Abs().GreaterThan(h.ValueTolerance) {
			return fmt.Errorf("value of implementation record %s ($%s) does not match value reflected in summary record ($%s)",
				record.Ticker, implementationValue.StringFixed(2), record.ActualAmount.StringFixed(2))
		}
		totalSummaryValue = totalSummaryValue.Add(record.ActualAmount.Decimal)
	}

	totalImplementationValue := decimal.Zero
	for _, record := range implementationRecords {
		if record.Quantity.IsPositive() {
			if _, ok := usedValues[record.Ticker]; !ok {
				return fmt.Errorf("ticker '%s' is not included in any summary record", record.Ticker)
			}
		}
	}
	for _, value := range usedValues {
		totalImplementationValue = totalImplementationValue.Add(value)
	}
	if totalSummaryValue.Sub(totalImplementationValue).Abs().GreaterThan(h.ValueTolerance) {
		return fmt.Errorf("total summary values ($%s) do not equal total instrument values ($%s)",
			totalSummaryValue.StringFixed(2), totalImplementationValue.StringFixed(2))
	}
	return nil
}

func driftSummary(summaryRecords []capture.SummaryRecord, liveValue decimal.Decimal) (DriftSummary, error) {
	if liveValue.IsZero() || len(summaryRecords) == 0 {
		return DriftSummary{}, nil
	}

	driftPercents := make([]float64, 0, len(summaryRecords))
	for _, record := range summaryRecords {
		gap := record.ActualAmount.Sub(record.BalancedAmount.Decimal).Abs()
		driftPercents = append(driftPercents, gap.Div(liveValue).InexactFloat64()*100)
	}

	mean, err := stats.Mean(driftPercents)
	if err != nil {
		return DriftSummary{}, fmt.Errorf("failed to compute drift summary: %w", err)
	}
	max, err := stats.Max(driftPercents)
	if err != nil {
		return DriftSummary{}, fmt.Errorf("failed to compute drift summary: %w", err)
	}
	return DriftSummary{
		MeanAbsolutePercent: mean,
		MaxAbsolutePercent:  max,
	}, nil
}
