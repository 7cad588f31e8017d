package capture

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

var (
	percentPattern = regexp.MustCompile(`^([\d.]+)%$`)
	amountPattern  = regexp.MustCompile(`^\$?([\d.,]+)`)
)

// readLine returns the next line without its terminator, reporting whether
// the input is exhausted. Capture functions share one buffered reader so
// sequential record sets and prompts can all consume the same stream.
func readLine(r *bufio.Reader) (string, bool, error) {
	line, err := r.ReadString('\n')
	if err == io.EOF {
		return strings.TrimRight(line, "\r\n"), true, nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimRight(line, "\r\n"), false, nil
}

// Percent is a target percentage field, entered like "50%" or "12.5%".
type Percent struct {
	decimal.Decimal
}

func (p *Percent) UnmarshalCSV(field string) error {
	match := percentPattern.FindStringSubmatch(strings.TrimSpace(field))
	if match == nil {
		return fmt.Errorf("unable to parse target percentage '%s'", field)
	}
	value, err := decimal.NewFromString(match[1])
	if err != nil {
		return fmt.Errorf("unable to parse target percentage '%s': %w", field, err)
	}
	p.Decimal = value
	return nil
}

// DollarAmount is a money field, entered like "$1,234.56". An empty field
// reads as zero, matching reports that leave unheld positions blank.
type DollarAmount struct {
	decimal.Decimal
}

func (d *DollarAmount) UnmarshalCSV(field string) error {
	trimmed := strings.TrimSpace(field)
	if trimmed == "" {
		d.Decimal = decimal.Zero
		return nil
	}
	value, err := ParseDollars(trimmed)
	if err != nil {
		return err
	}
	d.Decimal = value
	return nil
}

// ParseDollars reads an amount in report form: optional leading '$',
// thousands separators allowed.
func ParseDollars(field string) (decimal.Decimal, error) {
	match := amountPattern.FindStringSubmatch(strings.TrimSpace(field))
	if match == nil {
		return decimal.Zero, fmt.Errorf("unable to parse amount '%s'", field)
	}
	value, err := decimal.NewFromString(strings.ReplaceAll(match[1], ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse amount '%s': %w", field, err)
	}
	return value, nil
}

// SummaryRecord is one row of the pasted model summary: a ticker, its target
// percentage, and the dollar amounts the report shows for a balanced and for
// the actual portfolio.
type SummaryRecord struct {
	Ticker         string       `csv:"ticker"`
	TargetPercent  Percent      `csv:"target_percent"`
	BalancedAmount DollarAmount `csv:"balanced_amount"`
	ActualAmount   DollarAmount `csv:"actual_amount"`
}

// ReadSummaryRecords consumes tab-delimited summary rows until a blank line
// or EOF. Rows with a missing trailing actual-amount column are padded so the
// amount reads as zero.
func ReadSummaryRecords(r *bufio.Reader) ([]SummaryRecord, error) {
	lines := []string{}
	for {
		line, eof, err := readLine(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read summary records: %w", err)
		}
		if strings.TrimSpace(line) != "" {
			for strings.Count(line, "\t") < 3 {
				line += "\t"
			}
			lines = append(lines, line)
		} else if !eof {
			break
		}
		if eof {
			break
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no summary records provided")
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records := []SummaryRecord{}
	if err := gocsv.UnmarshalCSVWithoutHeaders(reader, &records); err != nil {
		return nil, fmt.Errorf("failed to parse summary records: %w", err)
	}
	for i, record := range records {
		records[i].Ticker = strings.TrimSpace(record.Ticker)
		if records[i].Ticker == "" {
			return nil, fmt.Errorf("summary record %d has no ticker", i+1)
		}
	}
	return records, nil
}
