package service

import (
	"testing"

	"github.com/ericcolton/asset-doctor/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func unitPrices(t *testing.T, symbols ...string) *domain.PriceLookup {
	t.Helper()
	prices := domain.NewPriceLookup()
	for _, symbol := range symbols {
		require.NoError(t, prices.AddPrice(symbol, decimal.NewFromInt(1)))
	}
	return prices
}

type deltaEntry struct {
	symbol string
	delta  float64
}

func deltaSetOf(entries ...deltaEntry) *deltaSet {
	d := newDeltaSet()
	for _, entry := range entries {
		d.add(entry.symbol, decimal.NewFromFloat(entry.delta))
	}
	return d
}

func Test_matchExchanges(t *testing.T) {
	tolerance := decimal.NewFromFloat(0.01)

	t.Run("largest values pair first with residual carry over", func(t *testing.T) {
		prices := unitPrices(t, "A", "B", "C", "D")
		deltas := deltaSetOf(
			deltaEntry{"A", 300},
			deltaEntry{"B", 200},
			deltaEntry{"C", -400},
			deltaEntry{"D", -100},
		)

		exchanges, remaining, err := matchExchanges(deltas, prices, tolerance)
		require.NoError(t, err)
		require.Equal(
			t,
			"",
			cmp.Diff(
				[]domain.RebalanceInstruction{
					{
						Type:            domain.TransactionTypeExchange,
						Symbol:          "C",
						Quantity:        decimal.NewFromInt(300),
						CounterSymbol:   "A",
						CounterQuantity: decimal.NewFromInt(300),
					},
					{
						Type:            domain.TransactionTypeExchange,
						Symbol:          "D",
						Quantity:        decimal.NewFromInt(100),
						CounterSymbol:   "B",
						CounterQuantity: decimal.NewFromInt(100),
					},
					{
						Type:            domain.TransactionTypeExchange,
						Symbol:          "C",
						Quantity:        decimal.NewFromInt(100),
						CounterSymbol:   "B",
						CounterQuantity: decimal.NewFromInt(100),
					},
				},
				exchanges,
				decimalComparer,
			),
		)
		require.Empty(t, remaining.symbols)
	})

	t.Run("residual below tolerance is not requeued", func(t *testing.T) {
		prices := unitPrices(t, "A", "B")
		deltas := deltaSetOf(
			deltaEntry{"A", 995},
			deltaEntry{"B", -1000},
		)

		exchanges, remaining, err := matchExchanges(deltas, prices, tolerance)
		require.NoError(t, err)
		require.Len(t, exchanges, 1)
		require.True(t, exchanges[0].Quantity.Equal(decimal.NewFromInt(995)))
		require.Empty(t, remaining.symbols)
	})

	t.Run("residual above tolerance becomes a plain trade", func(t *testing.T) {
		prices := unitPrices(t, "A", "B")
		deltas := deltaSetOf(
			deltaEntry{"A", 600},
			deltaEntry{"B", -1000},
		)

		exchanges, remaining, err := matchExchanges(deltas, prices, tolerance)
		require.NoError(t, err)
		require.Len(t, exchanges, 1)
		require.Equal(t, []string{"B"}, remaining.symbols)
		require.True(t, remaining.deltas["B"].Equal(decimal.NewFromInt(-400)), "got %s", remaining.deltas["B"])
	})

	t.Run("equal values break ties by insertion order", func(t *testing.T) {
		prices := unitPrices(t, "A", "B", "C")
		deltas := deltaSetOf(
			deltaEntry{"A", 100},
			deltaEntry{"B", -100},
			deltaEntry{"C", -100},
		)

		exchanges, remaining, err := matchExchanges(deltas, prices, tolerance)
		require.NoError(t, err)
		require.Len(t, exchanges, 1)
		require.Equal(t, "B", exchanges[0].Symbol)
		require.Equal(t, []string{"C"}, remaining.symbols)
	})

	t.Run("never exchanges a ticker for itself", func(t *testing.T) {
		prices := unitPrices(t, "A", "B", "C", "D", "E")
		deltas := deltaSetOf(
			deltaEntry{"A", 250},
			deltaEntry{"B", -130},
			deltaEntry{"C", 75},
			deltaEntry{"D", -90},
			deltaEntry{"E", -120},
		)

		exchanges, _, err := matchExchanges(deltas, prices, tolerance)
		require.NoError(t, err)
		for _, exchange := range exchanges {
			require.NotEqual(t, exchange.Symbol, exchange.CounterSymbol)
		}
	})

	t.Run("one sided deltas pass through untouched", func(t *testing.T) {
		prices := unitPrices(t, "A", "B")
		deltas := deltaSetOf(
			deltaEntry{"A", 100},
			deltaEntry{"B", 50},
		)

		exchanges, remaining, err := matchExchanges(deltas, prices, tolerance)
		require.NoError(t, err)
		require.Empty(t, exchanges)
		require.Len(t, remaining.symbols, 2)
	})
}
