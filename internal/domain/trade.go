package domain

import "github.com/shopspring/decimal"

type TransactionType string

const (
	TransactionTypeBuy      TransactionType = "BUY"
	TransactionTypeSell     TransactionType = "SELL"
	TransactionTypeExchange TransactionType = "EXCHANGE"
)

// RebalanceInstruction is a single proposed trade. Quantities are always
// non-negative magnitudes; direction is carried by Type. For exchanges,
// Symbol/Quantity is the side being sold and CounterSymbol/CounterQuantity
// the side being bought, matched to approximately equal dollar value.
type RebalanceInstruction struct {
	Type            TransactionType
	Symbol          string
	Quantity        decimal.Decimal
	CounterSymbol   string
	CounterQuantity decimal.Decimal
}

// Value returns the signed dollar value of the instruction: positive for
// buys, negative for sells. An exchange nets to its residual value, which is
// zero up to matching tolerance.
func (i RebalanceInstruction) Value(prices PriceSource) (decimal.Decimal, error) {
	price, err := prices.GetPrice(i.Symbol)
	if err != nil {
		return decimal.Zero, err
	}
	switch i.Type {
	case TransactionTypeBuy:
		return i.Quantity.Mul(price), nil
	case TransactionTypeSell:
		return i.Quantity.Mul(price).Neg(), nil
	}
	counterPrice, err := prices.GetPrice(i.CounterSymbol)
	if err != nil {
		return decimal.Zero, err
	}
	return i.CounterQuantity.Mul(counterPrice).Sub(i.Quantity.Mul(price)), nil
}
