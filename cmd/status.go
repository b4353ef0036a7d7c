package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"flowswap/pkg/tracker"
)

var watchStatus bool

var statusCmd = &cobra.Command{
	Use:   "status <transaction-id>",
	Short: "Check the status of a swap transaction",
	Long: `Poll the provider (or the demo simulator) for the current status of a
tracked transaction and print its progress. With --watch the status is
re-polled on an interval until the transaction reaches a terminal state.`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Keep polling until the transaction completes or fails")
}

func runStatus(cmd *cobra.Command, args []string) {
	txID := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if watchStatus && !jsonOutput {
		watchTransaction(ctx, a, txID)
		return
	}

	tx, err := a.tracker.Poll(ctx, txID)
	if err != nil && tx == nil {
		printError(err)
		os.Exit(1)
	}
	if err != nil && !jsonOutput {
		printWarning(fmt.Sprintf("Status refresh failed (%v), showing last known state.", err))
	}

	if jsonOutput {
		out, _ := json.MarshalIndent(tx, "", "  ")
		fmt.Println(string(out))
		return
	}
	displayTransaction(tx)
}

// watchTransaction polls on the configured interval and reprints the
// status line until the transaction is terminal or ctx is cancelled.
func watchTransaction(ctx context.Context, a *app, txID string) {
	interval := a.cfg.Tracker.PollInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fmt.Printf("\nWatching transaction %s (every %s, Ctrl+C to stop)...\n", color.CyanString(txID), interval)

	for {
		tx, err := a.tracker.Poll(ctx, txID)
		if err != nil && tx == nil {
			printError(err)
			return
		}
		if err != nil {
			printWarning(fmt.Sprintf("Status refresh failed (%v), will retry.", err))
		} else {
			fmt.Printf("  [%s] %s  %d%%  (%d/%d confirmations)\n",
				time.Now().Format("15:04:05"), statusLabel(tx.Status), tx.Progress,
				tx.Confirmations, tracker.MaxConfirmations)
		}
		if tx != nil && tx.Status.Terminal() {
			fmt.Println()
			displayTransaction(tx)
			return
		}

		select {
		case <-ctx.Done():
			fmt.Println("\nStopped watching.")
			return
		case <-ticker.C:
		}
	}
}

func displayTransaction(tx *tracker.Transaction) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                  TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  ID:            %s\n", color.CyanString(tx.ID))
	fmt.Printf("  Swap:          %s %s -> %s %s\n",
		tx.FromAmount, strings.ToUpper(tx.FromToken),
		tx.ToAmount, strings.ToUpper(tx.ToToken))
	fmt.Printf("  Status:        %s\n", statusLabel(tx.Status))
	fmt.Printf("  Progress:      %s\n", progressBar(tx.Progress))
	fmt.Printf("  Confirmations: %d/%d\n", tx.Confirmations, tracker.MaxConfirmations)
	fmt.Printf("  Deposit to:    %s\n", tx.DepositAddress)
	fmt.Printf("  Recipient:     %s\n", tx.RecipientAddress)
	if tx.ProviderStatus != "" {
		fmt.Printf("  Provider says: %s\n", tx.ProviderStatus)
	}
	if tx.IsDemo {
		fmt.Printf("  Mode:          %s\n", color.YellowString("DEMO (simulated)"))
	}
	fmt.Printf("  Updated:       %s\n", tx.UpdatedAt.Format(time.RFC3339))

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func statusLabel(s tracker.Status) string {
	switch s {
	case tracker.StatusWaiting:
		return color.YellowString("waiting for deposit")
	case tracker.StatusProcessing:
		return color.CyanString("processing")
	case tracker.StatusConfirmed:
		return color.GreenString("confirmed")
	case tracker.StatusFailed:
		return color.RedString("failed")
	default:
		return string(s)
	}
}

func progressBar(pct int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct / 5
	return fmt.Sprintf("[%s%s] %d%%", strings.Repeat("#", filled), strings.Repeat("-", 20-filled), pct)
}
