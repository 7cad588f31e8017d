package capture

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ericcolton/asset-doctor/internal/service"
	"github.com/ericcolton/asset-doctor/internal/util"
	"github.com/shopspring/decimal"
)

var offsetAmountPattern = regexp.MustCompile(`^([+-])?\$?([\d.,]+)`)

// Prompter runs the interactive question flow that turns answers into
// RebalanceOptions. Input and output streams are injected so the flow is
// testable without a terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in *bufio.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  in,
		out: out,
	}
}

func (p *Prompter) readLine() (string, error) {
	line, _, err := readLine(p.in)
	return line, err
}

// CaptureDesiredTotalValue asks for the target total value. A '+' or '-'
// prefix specifies an offset from the live portfolio's current value; a blank
// answer defaults to the current value.
func (p *Prompter) CaptureDesiredTotalValue(liveValue decimal.Decimal) (decimal.Decimal, error) {
	fmt.Fprintf(p.out, "\nYour current portfolio value is $%s.\n"+
		"Please input your desired total value.\n"+
		"(Prefix '+' or '-' to specify an offset from the portfolio's current value.)\n"+
		"Press return to default to the portfolio's current value: ", util.FormatDollars(liveValue))

	line, err := p.readLine()
	if err != nil {
		return decimal.Zero, err
	}
	if line == "" {
		return liveValue, nil
	}

	match := offsetAmountPattern.FindStringSubmatch(line)
	if match == nil {
		return decimal.Zero, fmt.Errorf("unable to parse desired portfolio value: '%s'", line)
	}
	value, err := decimal.NewFromString(strings.ReplaceAll(match[2], ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse desired portfolio value: '%s': %w", line, err)
	}
	switch match[1] {
	case "+":
		return liveValue.Add(value), nil
	case "-":
		return liveValue.Sub(value), nil
	}
	return value, nil
}

func (p *Prompter) CaptureAllowFractionalShares() (bool, error) {
	return p.captureYesNo("Allow fractional shares (yes/NO)?: ")
}

func (p *Prompter) CaptureAllowShareExchanges() (bool, error) {
	return p.captureYesNo("Allow whole-security exchanges instead of separate buys and sells (yes/NO)?: ")
}

func (p *Prompter) captureYesNo(question string) (bool, error) {
	fmt.Fprint(p.out, question)
	line, err := p.readLine()
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(line), "y"), nil
}

// CaptureRoundingBehavior asks how partial shares should round: '+' always
// up, '-' always down, blank to nearest.
func (p *Prompter) CaptureRoundingBehavior() (service.RoundingBehavior, error) {
	fmt.Fprint(p.out, "\nHow should partial shares be rounded?\n"+
		"\t'+'\tAlways round up: Rebalancing may require additional cash\n"+
		"\t'-'\tAlways round down: Rebalancing may leave cash uninvested\n"+
		"\t''\tRound to nearest: Rebalancing may either leave or require additional cash\n"+
		"Enter '+', '-', or press return for the default behavior: ")

	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	switch {
	case line == "":
		return service.RoundingBehaviorNearest, nil
	case line[0] == '+':
		return service.RoundingBehaviorUp, nil
	case line[0] == '-':
		return service.RoundingBehaviorDown, nil
	}
	return "", fmt.Errorf("unrecognized rounding behavior '%s'", line)
}

// CaptureRebalanceOptions runs the full options flow. The rounding question
// is skipped when fractional shares are allowed.
func (p *Prompter) CaptureRebalanceOptions(liveValue decimal.Decimal) (service.RebalanceOptions, error) {
	desiredValue, err := p.CaptureDesiredTotalValue(liveValue)
	if err != nil {
		return service.RebalanceOptions{}, err
	}
	allowFractional, err := p.CaptureAllowFractionalShares()
	if err != nil {
		return service.RebalanceOptions{}, err
	}
	allowExchanges, err := p.CaptureAllowShareExchanges()
	if err != nil {
		return service.RebalanceOptions{}, err
	}
	roundingBehavior := service.RoundingBehaviorNearest
	if !allowFractional {
		roundingBehavior, err = p.CaptureRoundingBehavior()
		if err != nil {
			return service.RebalanceOptions{}, err
		}
	}
	return service.RebalanceOptions{
		TargetTotalValue:      desiredValue,
		AllowShareExchanges:   allowExchanges,
		AllowFractionalShares: allowFractional,
		RoundingBehavior:      roundingBehavior,
	}, nil
}
