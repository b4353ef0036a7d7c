package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowswap/config"
	"flowswap/pkg/client"
	"flowswap/pkg/logger"
	"flowswap/pkg/quote"
	"flowswap/pkg/tracker"
)

var rootCmd = &cobra.Command{
	Use:   "flowswap",
	Short: "A CLI for instant cross-chain token swaps",
	Long: `flowswap is a command-line tool for instant, walletless token swaps
through a hosted exchange provider. Pick a pair, get a quote, send funds
to the issued deposit address and track the swap until it completes.

Examples:
  flowswap swap 1 btc to eth --recipient 0x...
  flowswap swap 1 eth to btc and send it to bc1q...
  flowswap list-tokens
  flowswap status <transaction-id> --watch
  flowswap transactions`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

// app bundles the wired services every command needs.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	client  *client.ChangeNow
	quotes  *quote.Service
	ledger  *tracker.Ledger
	tracker *tracker.Tracker
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, err
	}

	api := client.New(cfg.BaseURL, cfg.APIKey, cfg.Quote.HTTPTimeout, log)
	quotes := quote.NewService(api, cfg.Quote.CacheTTL, cfg.Quote.RetryDelay, log)

	ledger, err := tracker.NewLedger(cfg.LedgerPath)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		log:     log,
		client:  api,
		quotes:  quotes,
		ledger:  ledger,
		tracker: tracker.New(api, ledger, log),
	}, nil
}

func (a *app) close() {
	a.tracker.Close()
	_ = a.log.Sync()
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printWarning(message string) {
	color.Yellow("\n%s\n", message)
}
