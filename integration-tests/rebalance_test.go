package integration_tests

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/ericcolton/asset-doctor/internal/app"
	"github.com/ericcolton/asset-doctor/internal/capture"
	"github.com/ericcolton/asset-doctor/internal/domain"
	"github.com/ericcolton/asset-doctor/internal/logger"
	"github.com/ericcolton/asset-doctor/internal/service"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var decimalComparer = cmp.Comparer(func(d1, d2 decimal.Decimal) bool {
	return d1.Sub(d2).Abs().LessThan(decimal.NewFromFloat(0.00001))
})

// Drives the full pipeline from pasted report text through record capture,
// validation, rebalancing, and report rendering.
func Test_rebalanceFlow(t *testing.T) {
	summaryText := "VTI\t60%\t$2,400.00\t$2,000.00\n" +
		"BND\t40%\t$1,600.00\t$2,000.00\n" +
		"\n"
	implementationText := "VTI\tVTI\tBND\tBND\n" +
		"\t$200.00\t\t$80.00\n" +
		"\t10\t\t25\n"

	summaryRecords, err := capture.ReadSummaryRecords(bufio.NewReader(strings.NewReader(summaryText)))
	require.NoError(t, err)
	require.Len(t, summaryRecords, 2)

	implementationRecords, err := capture.ReadImplementationRecords(bufio.NewReader(strings.NewReader(implementationText)))
	require.NoError(t, err)
	require.Len(t, implementationRecords, 2)

	handler := app.RebalanceHandler{
		PercentTolerance: decimal.NewFromFloat(0.01),
		ValueTolerance:   decimal.NewFromInt(10),
	}
	ctx := logger.ToContext(context.Background(), zap.NewNop().Sugar())

	run, err := handler.Run(ctx, summaryRecords, implementationRecords, service.RebalanceOptions{
		TargetTotalValue:    decimal.NewFromInt(4000),
		AllowShareExchanges: true,
		RoundingBehavior:    service.RoundingBehaviorNearest,
	})
	require.NoError(t, err)

	require.Equal(t, "", cmp.Diff(
		[]domain.RebalanceInstruction{
			{
				Type:            domain.TransactionTypeExchange,
				Symbol:          "BND",
				Quantity:        decimal.NewFromInt(5),
				CounterSymbol:   "VTI",
				CounterQuantity: decimal.NewFromInt(2),
			},
		},
		run.Instructions,
		decimalComparer,
	))

	require.True(t, run.LiveValue.Equal(decimal.NewFromInt(4000)))
	require.True(t, run.TargetValue.Equal(decimal.NewFromInt(4000)))
	require.True(t, run.RebalancedValue.Equal(decimal.NewFromInt(4000)))
	require.InDelta(t, 10.0, run.Drift.MeanAbsolutePercent, 0.001)
	require.InDelta(t, 10.0, run.Drift.MaxAbsolutePercent, 0.001)

	report, err := app.FormatReport(run)
	require.NoError(t, err)
	require.Contains(t, report, "\tBND\tEXCHANGE\t5 shares\tfor\tVTI\t2 shares\t($400.00)")
	require.Contains(t, report, "Value of rebalanced portfolio:\t$4,000.00")
	require.Contains(t, report, "\tShare Exchanges: YES")
}

// A report whose actual allocation already matches its balanced allocation
// should produce no instructions end to end.
func Test_rebalanceFlow_alreadyBalanced(t *testing.T) {
	summaryText := "VTI\t60%\t$2,400.00\t$2,400.00\n" +
		"BND\t40%\t$1,600.00\t$1,600.00\n" +
		"\n"
	implementationText := "VTI\tVTI\tBND\tBND\n" +
		"\t$200.00\t\t$80.00\n" +
		"\t12\t\t20\n"

	summaryRecords, err := capture.ReadSummaryRecords(bufio.NewReader(strings.NewReader(summaryText)))
	require.NoError(t, err)
	implementationRecords, err := capture.ReadImplementationRecords(bufio.NewReader(strings.NewReader(implementationText)))
	require.NoError(t, err)

	handler := app.RebalanceHandler{
		PercentTolerance: decimal.NewFromFloat(0.01),
		ValueTolerance:   decimal.NewFromInt(10),
	}
	ctx := logger.ToContext(context.Background(), zap.NewNop().Sugar())

	run, err := handler.Run(ctx, summaryRecords, implementationRecords, service.RebalanceOptions{
		TargetTotalValue: decimal.NewFromInt(4000),
		RoundingBehavior: service.RoundingBehaviorNearest,
	})
	require.NoError(t, err)
	require.Empty(t, run.Instructions)
	require.Zero(t, run.Drift.MaxAbsolutePercent)

	report, err := app.FormatReport(run)
	require.NoError(t, err)
	require.Contains(t, report, "No rebalance actions required.")
}
