package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ericcolton/asset-doctor/internal/domain"
	"github.com/ericcolton/asset-doctor/internal/util"
	"github.com/shopspring/decimal"
)

// FormatReport renders the full human-readable summary of a run:
// instructions, portfolio value comparison, and the options applied.
func FormatReport(run *RebalanceRun) (string, error) {
	var b strings.Builder

	instructionsBlock, err := formatInstructions(run)
	if err != nil {
		return "", err
	}
	b.WriteString("\n")
	b.WriteString(instructionsBlock)
	b.WriteString("\n")

	rebalancedStr := util.FormatDollars(run.RebalancedValue)
	targetStr := util.FormatDollars(run.TargetValue)
	liveStr := util.FormatDollars(run.LiveValue)
	width := len(rebalancedStr)
	for _, s := range []string{targetStr, liveStr} {
		if len(s) > width {
			width = len(s)
		}
	}
	fmt.Fprintf(&b, "Value of rebalanced portfolio:\t$%*s\n", width, rebalancedStr)
	fmt.Fprintf(&b, "\tvs target value:\t$%*s\n", width, targetStr)
	fmt.Fprintf(&b, "\tvs current value:\t$%*s\n\n", width, liveStr)

	b.WriteString("Options Applied:\n")
	if run.Options.AllowFractionalShares {
		b.WriteString("\tFractional Shares: YES\n")
	} else {
		b.WriteString("\tFractional Shares: NO\n")
		fmt.Fprintf(&b, "\tRounding Behavior: %s\n", run.Options.RoundingBehavior)
	}
	if run.Options.AllowShareExchanges {
		b.WriteString("\tShare Exchanges: YES\n")
	}
	return b.String(), nil
}

// formatInstructions lists exchanges in matching order, then buys and sells
// ordered by signed dollar value ascending so the largest sells lead and the
// largest buys close the list.
func formatInstructions(run *RebalanceRun) (string, error) {
	if len(run.Instructions) == 0 {
		return "No rebalance actions required.\n", nil
	}

	fractional := run.Options.AllowFractionalShares
	var b strings.Builder
	b.WriteString("Rebalance Instructions:\n\n")

	trades := []domain.RebalanceInstruction{}
	for _, instruction := range run.Instructions {
		if instruction.Type != domain.TransactionTypeExchange {
			trades = append(trades, instruction)
			continue
		}
		sellPrice, err := run.Prices.GetPrice(instruction.Symbol)
		if err != nil {
			return "", err
		}
		value := instruction.Quantity.Mul(sellPrice)
		// exchange legs are value-matched, so either quantity can be
		// fractional even under whole-share options
		fmt.Fprintf(&b, "\t%s\tEXCHANGE\t%s %s\tfor\t%s\t%s %s\t($%s)\n",
			instruction.Symbol,
			formatExchangeShares(instruction.Quantity, fractional),
			shareWord(instruction.Quantity),
			instruction.CounterSymbol,
			formatExchangeShares(instruction.CounterQuantity, fractional),
			shareWord(instruction.CounterQuantity),
			util.FormatDollars(value),
		)
	}

	type valuedTrade struct {
		instruction domain.RebalanceInstruction
		signedValue decimal.Decimal
		valueStr    string
	}
	valued := make([]valuedTrade, 0, len(trades))
	containsSells := false
	maxValueLen := 0
	for _, trade := range trades {
		value, err := trade.Value(run.Prices)
		if err != nil {
			return "", err
		}
		valueStr := util.FormatDollars(value.Abs())
		if len(valueStr) > maxValueLen {
			maxValueLen = len(valueStr)
		}
		if trade.Type == domain.TransactionTypeSell {
			containsSells = true
		}
		valued = append(valued, valuedTrade{
			instruction: trade,
			signedValue: value,
			valueStr:    valueStr,
		})
	}
	sort.SliceStable(valued, func(i, j int) bool {
		return valued[i].signedValue.LessThan(valued[j].signedValue)
	})

	for _, trade := range valued {
		sign := ""
		if containsSells {
			sign = " "
			if trade.instruction.Type == domain.TransactionTypeSell {
				sign = "-"
			}
		}
		fmt.Fprintf(&b, "\t%s\t%s\t%s\t%s\t(%s$%*s)\n",
			trade.instruction.Symbol,
			trade.instruction.Type,
			util.FormatShares(trade.instruction.Quantity, fractional),
			shareWord(trade.instruction.Quantity),
			sign,
			maxValueLen,
			trade.valueStr,
		)
	}
	return b.String(), nil
}

func formatExchangeShares(quantity decimal.Decimal, fractional bool) string {
	return util.FormatShares(quantity, fractional || !quantity.Equal(quantity.Truncate(0)))
}

func shareWord(quantity decimal.Decimal) string {
	if quantity.Abs().Equal(decimal.NewFromInt(1)) {
		return "share"
	}
	return "shares"
}
