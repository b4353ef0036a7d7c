package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var transactionsCmd = &cobra.Command{
	Use:     "transactions",
	Aliases: []string{"txs", "history"},
	Short:   "List tracked swap transactions",
	Long: `List every swap transaction recorded in the local ledger, oldest
first. Use 'flowswap status <id>' to refresh a single transaction.`,
	Run: runTransactions,
}

func init() {
	rootCmd.AddCommand(transactionsCmd)
}

func runTransactions(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	txs := a.ledger.List()

	if jsonOutput {
		out, _ := json.MarshalIndent(txs, "", "  ")
		fmt.Println(string(out))
		return
	}

	if len(txs) == 0 {
		fmt.Println("\nNo transactions yet. Start one with 'flowswap swap'.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 72))
	color.Green("                        SWAP HISTORY (%d)", len(txs))
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()

	for _, tx := range txs {
		demo := ""
		if tx.IsDemo {
			demo = color.YellowString(" [demo]")
		}
		fmt.Printf("  %s%s\n", color.CyanString(tx.ID), demo)
		fmt.Printf("    %s %s -> %s %s  %s  %s\n",
			tx.FromAmount, strings.ToUpper(tx.FromToken),
			tx.ToAmount, strings.ToUpper(tx.ToToken),
			statusLabel(tx.Status),
			tx.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("\nLedger: %s\n\n", a.ledger.FilePath())
}
