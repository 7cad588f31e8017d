package capture

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ImplementationRecord is one held (or holdable) instrument from the pasted
// brokerage report: its ticker, current price, and quantity held.
type ImplementationRecord struct {
	Ticker   string
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// ReadImplementationRecords consumes the report's horizontal layout: sets of
// two-column, three-row entries repeated across the page,
//
//	<Ticker>\t<Ticker>\t<Ticker>\t<Ticker> ...
//	\t<Price>\t\t<Price> ...
//	\t<Quantity>\t\t<Quantity> ...
//
// where each instrument spans two columns and repeats its ticker in both.
func ReadImplementationRecords(r *bufio.Reader) ([]ImplementationRecord, error) {
	rows := [][]string{}
	for len(rows) < 3 {
		line, eof, err := readLine(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read implementation records: %w", err)
		}
		if strings.TrimSpace(line) != "" {
			rows = append(rows, strings.Split(line, "\t"))
		} else if !eof && len(rows) > 0 {
			break
		}
		if eof {
			break
		}
	}
	if len(rows) < 3 {
		return nil, fmt.Errorf("expected 3 rows of implementation records, got %d", len(rows))
	}

	symbols := compactFields(rows[0])
	if len(symbols) == 0 || len(symbols)%2 != 0 {
		return nil, fmt.Errorf("expected ticker symbols in column pairs, got %d entries", len(symbols))
	}
	recordCount := len(symbols) / 2

	priceFields := compactFields(rows[1])
	if len(priceFields) != recordCount {
		return nil, fmt.Errorf("expected %d prices, got %d", recordCount, len(priceFields))
	}
	quantityFields := compactFields(rows[2])
	if len(quantityFields) != recordCount {
		return nil, fmt.Errorf("expected %d quantities, got %d", recordCount, len(quantityFields))
	}

	records := make([]ImplementationRecord, 0, recordCount)
	seen := map[string]bool{}
	for i := 0; i < recordCount; i++ {
		first, second := symbols[2*i], symbols[2*i+1]
		if first != second {
			return nil, fmt.Errorf("ticker symbols must match between columns: '%s' and '%s' do not", first, second)
		}
		if seen[first] {
			return nil, fmt.Errorf("implementation record '%s' appears twice", first)
		}
		seen[first] = true

		price, err := ParseDollars(priceFields[i])
		if err != nil {
			return nil, fmt.Errorf("unable to parse price for '%s': %w", first, err)
		}
		quantity, err := decimal.NewFromString(strings.ReplaceAll(quantityFields[i], ",", ""))
		if err != nil {
			return nil, fmt.Errorf("unable to parse quantity for '%s': %w", first, err)
		}
		records = append(records, ImplementationRecord{
			Ticker:   first,
			Price:    price,
			Quantity: quantity,
		})
	}
	return records, nil
}

func compactFields(fields []string) []string {
	out := []string{}
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
