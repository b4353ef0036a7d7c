package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"flowswap/pkg/address"
	"flowswap/pkg/network"
	"flowswap/pkg/parser"
	"flowswap/pkg/tracker"
	"flowswap/pkg/types"
)

var (
	recipientAddr string
	refundAddr    string
	extraID       string
	noConfirm     bool
	watchAfter    bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token> [and send it to <address>]",
	Short: "Swap one token for another",
	Long: `Swap tokens through the exchange provider. The recipient address is
validated against the destination token's network before anything is
created. On success you get a deposit address; the swap completes once
your deposit is received and exchanged.

Examples:
  flowswap swap 1 eth to btc --recipient bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq
  flowswap swap 0.5 btc to sol and send it to 739jDqQeuewnq3yYRu4tWvtknZ6AtJ5aivL9d6uiJyzk
  flowswap swap 100 usdt to eth --recipient 0x... --watch`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&recipientAddr, "recipient", "", "Recipient address (where you'll receive tokens)")
	swapCmd.Flags().StringVar(&refundAddr, "refund-to", "", "Refund address on the source chain (optional)")
	swapCmd.Flags().StringVar(&extraID, "extra-id", "", "Destination memo/tag where the network requires one (optional)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	swapCmd.Flags().BoolVarP(&watchAfter, "watch", "w", false, "Keep polling the transaction status after creation")
}

func runSwap(cmd *cobra.Command, args []string) {
	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if recipientAddr != "" {
		swapReq.RecipientAddr = recipientAddr
	}
	if refundAddr != "" {
		swapReq.RefundAddr = refundAddr
	}
	if extraID != "" {
		swapReq.ExtraID = extraID
	}

	if err := parser.ValidateSwapRequest(swapReq); err != nil {
		printError(err)
		os.Exit(1)
	}
	if swapReq.RecipientAddr == "" {
		printError(fmt.Errorf("recipient address is required. Use --recipient or 'and send it to <address>'"))
		os.Exit(1)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	if !a.cfg.HasAPIKey() && !jsonOutput {
		printWarning("No API key configured (FLOWSWAP_API_KEY). Provider calls will fail and the swap will run in demo mode.")
	}

	// Cancelled by Ctrl+C so the estimate retry loop can be abandoned.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Validate the recipient against the destination network before
	// touching the provider.
	destNet := network.Classify(swapReq.DestToken, swapReq.DestToken)
	verdict := address.Validate(swapReq.RecipientAddr, destNet)
	if !verdict.IsValid {
		if jsonOutput {
			out, _ := json.MarshalIndent(map[string]interface{}{
				"valid":   false,
				"network": string(destNet),
				"message": verdict.Message,
			}, "", "  ")
			fmt.Println(string(out))
		} else {
			color.Red("\n%s\n", verdict.Message)
		}
		os.Exit(1)
	}
	if !jsonOutput {
		color.Green("\n%s", verdict.Message)
	}

	// Minimum-amount gate.
	min, usedFallback := a.quotes.MinimumAmount(ctx, swapReq.SourceToken, swapReq.DestToken)
	if usedFallback && !jsonOutput {
		printWarning(fmt.Sprintf("Provider unreachable, using fallback minimum of %s %s.", min.MinAmount, strings.ToUpper(swapReq.SourceToken)))
	}
	amountF, err := strconv.ParseFloat(swapReq.Amount, 64)
	if err != nil || amountF <= 0 {
		printError(fmt.Errorf("invalid amount: %s", swapReq.Amount))
		os.Exit(1)
	}
	if minF, err := strconv.ParseFloat(min.MinAmount, 64); err == nil && amountF < minF {
		printError(fmt.Errorf("minimum amount for this pair is %s %s", min.MinAmount, strings.ToUpper(swapReq.SourceToken)))
		os.Exit(1)
	}

	// Fetch the estimate, retrying on provider failure.
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	q, err := a.quotes.Estimate(ctx, swapReq.SourceToken, swapReq.DestToken, swapReq.Amount)
	if err != nil {
		if !jsonOutput {
			s.Suffix = " Rate fetch failed, retrying with stale-rate indicator..."
		}
		q, err = a.quotes.EstimateWithRetry(ctx, swapReq.SourceToken, swapReq.DestToken, swapReq.Amount)
	}
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if !jsonOutput {
		displayQuote(q, swapReq)
		if q.Warning != "" {
			printWarning(q.Warning)
		}
		if !noConfirm && !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	// Create (or resume) the tracked transaction.
	tx, reused, err := a.tracker.Open(ctx, tracker.OpenRequest{
		FromAmount:       swapReq.Amount,
		FromToken:        swapReq.SourceToken,
		ToAmount:         q.EstimatedToAmount,
		ToToken:          swapReq.DestToken,
		RecipientAddress: swapReq.RecipientAddr,
		RefundAddress:    swapReq.RefundAddr,
		ExtraID:          swapReq.ExtraID,
	})
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		out, _ := json.MarshalIndent(tx, "", "  ")
		fmt.Println(string(out))
	} else {
		if reused {
			color.Cyan("\nResuming existing transaction %s (%s).\n", tx.ID, tx.Status)
		}
		if tx.IsDemo {
			printWarning("Provider unavailable: this is a DEMO transaction. No real exchange will take place.")
		}
		displayDepositInstructions(tx)
	}

	if watchAfter && !jsonOutput {
		watchTransaction(ctx, a, tx.ID)
	} else if !jsonOutput {
		fmt.Println("You can track the swap status using:")
		color.Cyan("  flowswap status %s\n", tx.ID)
	}
}

func displayQuote(q *types.SwapQuote, swapReq *types.SwapRequest) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Pay:       %s %s\n", q.FromAmount, color.YellowString(strings.ToUpper(swapReq.SourceToken)))
	fmt.Printf("  Receive:   ~%s %s\n", q.EstimatedToAmount, color.YellowString(strings.ToUpper(swapReq.DestToken)))
	if q.SpeedForecast != "" {
		fmt.Printf("  Speed:     %s\n", q.SpeedForecast)
	}
	fmt.Printf("  Recipient: %s\n", color.CyanString(swapReq.RecipientAddr))

	fmt.Println("\n" + strings.Repeat("=", 60))
}

func displayDepositInstructions(tx *tracker.Transaction) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Yellow("                 DEPOSIT INSTRUCTIONS")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\nTransaction ID: %s\n", color.CyanString(tx.ID))
	fmt.Printf("\nTo complete the swap, send %s %s to:\n\n", tx.FromAmount, strings.ToUpper(tx.FromToken))
	color.Cyan("  %s\n", tx.DepositAddress)
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
