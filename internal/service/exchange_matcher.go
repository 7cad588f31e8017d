package service

import (
	"container/heap"

	"github.com/ericcolton/asset-doctor/internal/domain"
	"github.com/shopspring/decimal"
)

// exchangeLeg is one side of a potential exchange: a ticker with an absolute
// dollar value still to be traded. seq breaks value ties by insertion order.
type exchangeLeg struct {
	symbol string
	value  decimal.Decimal
	price  decimal.Decimal
	seq    int
}

// legHeap is a max-heap ordered by dollar value.
type legHeap []*exchangeLeg

func (h legHeap) Len() int { return len(h) }

func (h legHeap) Less(i, j int) bool {
	if !h[i].value.Equal(h[j].value) {
		return h[i].value.GreaterThan(h[j].value)
	}
	return h[i].seq < h[j].seq
}

func (h legHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *legHeap) Push(x any) { *h = append(*h, x.(*exchangeLeg)) }

func (h *legHeap) Pop() any {
	old := *h
	n := len(old)
	leg := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return leg
}

// matchExchanges greedily pairs the largest-value buy against the
// largest-value sell until one side is exhausted. The smaller leg is always
// fully consumed; the larger leg's residual value is re-queued only when it
// exceeds tolerance as a fraction of the leg's value, so matching never
// leaves unmatched dust. Remaining legs are returned as a residual delta set
// for ordinary BUY/SELL synthesis.
//
// This is a heuristic, not an optimal assignment: it may leave more residual
// buys and sells than a min-cost matching would, in exchange for O(n log n)
// runtime and predictable behavior.
func matchExchanges(deltas *deltaSet, prices domain.PriceSource, tolerance decimal.Decimal) ([]domain.RebalanceInstruction, *deltaSet, error) {
	buys := &legHeap{}
	sells := &legHeap{}
	seq := 0
	for _, symbol := range deltas.symbols {
		delta := deltas.deltas[symbol]
		price, err := prices.GetPrice(symbol)
		if err != nil {
			return nil, nil, err
		}
		leg := &exchangeLeg{
			symbol: symbol,
			value:  delta.Abs().Mul(price),
			price:  price,
			seq:    seq,
		}
		seq++
		if delta.IsPositive() {
			heap.Push(buys, leg)
		} else {
			heap.Push(sells, leg)
		}
	}

	exchanges := []domain.RebalanceInstruction{}
	for buys.Len() > 0 && sells.Len() > 0 {
		buy := heap.Pop(buys).(*exchangeLeg)
		sell := heap.Pop(sells).(*exchangeLeg)

		if sell.value.GreaterThan(buy.value) {
			// buy side fully consumed; sell side partially consumed
			exchanges = append(exchanges, domain.RebalanceInstruction{
				Type:            domain.TransactionTypeExchange,
				Symbol:          sell.symbol,
				Quantity:        buy.value.Div(sell.price),
				CounterSymbol:   buy.symbol,
				CounterQuantity: buy.value.Div(buy.price),
			})
			residual := sell.value.Sub(buy.value)
			if residual.Div(sell.value).GreaterThan(tolerance) {
				sell.value = residual
				sell.seq = seq
				seq++
				heap.Push(sells, sell)
			}
		} else {
			// sell side fully consumed; buy side partially consumed
			exchanges = append(exchanges, domain.RebalanceInstruction{
				Type:            domain.TransactionTypeExchange,
				Symbol:          sell.symbol,
				Quantity:        sell.value.Div(sell.price),
				CounterSymbol:   buy.symbol,
				CounterQuantity: sell.value.Div(buy.price),
			})
			residual := buy.value.Sub(sell.value)
			if residual.Div(buy.value).GreaterThan(tolerance) {
				buy.value = residual
				buy.seq = seq
				seq++
				heap.Push(buys, buy)
			}
		}
	}

	remaining := newDeltaSet()
	for buys.Len() > 0 {
		leg := heap.Pop(buys).(*exchangeLeg)
		remaining.add(leg.symbol, leg.value.Div(leg.price))
	}
	for sells.Len() > 0 {
		leg := heap.Pop(sells).(*exchangeLeg)
		remaining.add(leg.symbol, leg.value.Div(leg.price).Neg())
	}
	return exchanges, remaining, nil
}
