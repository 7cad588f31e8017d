// assetdoctor computes the trades that move a live portfolio toward a model
// allocation, from tab-delimited report paste-ins or files.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/ericcolton/asset-doctor/internal/app"
	"github.com/ericcolton/asset-doctor/internal/capture"
	"github.com/ericcolton/asset-doctor/internal/config"
	"github.com/ericcolton/asset-doctor/internal/logger"
	"github.com/ericcolton/asset-doctor/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var version = "0.2.0"

var (
	configPath         string
	summaryPath        string
	implementationPath string
	targetValueFlag    string
	nonInteractive     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "assetdoctor",
		Short: "Portfolio rebalancing calculator",
		Long: `assetdoctor compares a live portfolio against a model allocation and
prints the buy/sell/exchange instructions needed to rebalance it.`,
		RunE: runRebalance,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&summaryPath, "summary", "", "Read summary records from a file instead of stdin")
	rootCmd.PersistentFlags().StringVar(&implementationPath, "implementation", "", "Read implementation records from a file instead of stdin")
	rootCmd.PersistentFlags().StringVar(&targetValueFlag, "target-value", "", "Desired total portfolio value (skips the interactive prompt)")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Take all rebalance options from config and flags")

	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("assetdoctor version %s\n", version)
		},
	}
}

func runRebalance(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	log := logger.New()
	defer log.Sync()
	ctx := logger.ToContext(context.Background(), log)

	stdin := bufio.NewReader(os.Stdin)
	out := os.Stdout
	fmt.Fprintln(out, "\nWelcome to Portfolio Rebalancer")

	summaryRecords, err := captureSummaryRecords(cfg, stdin, out)
	if err != nil {
		return err
	}
	implementationRecords, err := captureImplementationRecords(cfg, stdin, out)
	if err != nil {
		return err
	}

	prices, err := app.BuildPriceLookup(implementationRecords)
	if err != nil {
		return err
	}
	live, err := app.BuildLivePortfolio(implementationRecords)
	if err != nil {
		return err
	}
	liveValue, err := live.TotalValue(prices)
	if err != nil {
		return err
	}

	options, err := resolveOptions(cfg, stdin, out, liveValue)
	if err != nil {
		return err
	}

	handler := app.RebalanceHandler{
		PercentTolerance: decimal.NewFromFloat(cfg.Validation.PercentTolerance),
		ValueTolerance:   decimal.NewFromFloat(cfg.Validation.ValueTolerance),
		DriftTolerance:   decimal.NewFromFloat(cfg.Rebalance.DriftTolerance),
	}
	run, err := handler.Run(ctx, summaryRecords, implementationRecords, options)
	if err != nil {
		return err
	}

	report, err := app.FormatReport(run)
	if err != nil {
		return err
	}
	fmt.Fprint(out, report)
	return nil
}

func captureSummaryRecords(cfg *config.Config, stdin *bufio.Reader, out *os.File) ([]capture.SummaryRecord, error) {
	path := summaryPath
	if path == "" {
		path = cfg.Input.SummaryFile
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return capture.ReadSummaryRecords(bufio.NewReader(f))
	}

	fmt.Fprintln(out, `
Paste summary records (columns separated by tabs):
	<Ticker>	<Target % From Model>	<$ Balanced Amount>	<$ Actual Amount>
Enter an extra empty newline to signal records are complete.`)
	return capture.ReadSummaryRecords(stdin)
}

func captureImplementationRecords(cfg *config.Config, stdin *bufio.Reader, out *os.File) ([]capture.ImplementationRecord, error) {
	path := implementationPath
	if path == "" {
		path = cfg.Input.ImplementationFile
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return capture.ReadImplementationRecords(bufio.NewReader(f))
	}

	fmt.Fprintln(out, `
Paste implementation records (sets of 2-column 3-row entries, repeated horizontally, columns separated by tabs):
	<Ticker>	<Ticker>
		<Price>
		<Quantity Held>`)
	return capture.ReadImplementationRecords(stdin)
}

func resolveOptions(cfg *config.Config, stdin *bufio.Reader, out *os.File, liveValue decimal.Decimal) (service.RebalanceOptions, error) {
	if !nonInteractive {
		return capture.NewPrompter(stdin, out).CaptureRebalanceOptions(liveValue)
	}

	targetValue := liveValue
	if targetValueFlag != "" {
		parsed, err := capture.ParseDollars(targetValueFlag)
		if err != nil {
			return service.RebalanceOptions{}, err
		}
		targetValue = parsed
	}
	return service.RebalanceOptions{
		TargetTotalValue:      targetValue,
		AllowShareExchanges:   cfg.Rebalance.AllowShareExchanges,
		AllowFractionalShares: cfg.Rebalance.AllowFractionalShares,
		RoundingBehavior:      service.RoundingBehavior(cfg.Rebalance.RoundingBehavior),
	}, nil
}
