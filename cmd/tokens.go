package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"flowswap/pkg/network"
	"flowswap/pkg/types"
)

var (
	chainFilter  string
	symbolFilter string
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens"},
	Short:   "List tokens available for swapping",
	Long: `Fetch the list of swappable tokens from the provider, grouped by the
network each token settles on. When the provider is unreachable a small
built-in list of popular tokens is shown instead.`,
	Run: runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&chainFilter, "chain", "", "Only show tokens on this network (e.g. ethereum, bsc, solana)")
	tokensCmd.Flags().StringVar(&symbolFilter, "symbol", "", "Only show tokens whose symbol contains this text")
}

func runTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching available tokens..."
		s.Start()
	}

	tokens, usedFallback := a.quotes.Currencies(context.Background())

	if !jsonOutput {
		s.Stop()
	}

	tokens = filterTokens(tokens)

	if jsonOutput {
		out, _ := json.MarshalIndent(map[string]interface{}{
			"fallback": usedFallback,
			"tokens":   tokens,
		}, "", "  ")
		fmt.Println(string(out))
		return
	}

	if usedFallback {
		printWarning("Provider unreachable, showing built-in token list.")
	}
	displayTokensByNetwork(tokens)
}

func filterTokens(tokens []types.Token) []types.Token {
	if chainFilter == "" && symbolFilter == "" {
		return tokens
	}

	chain := strings.ToLower(chainFilter)
	symbol := strings.ToLower(symbolFilter)

	out := make([]types.Token, 0, len(tokens))
	for _, t := range tokens {
		if chain != "" && string(network.Classify(t.ID, t.Symbol)) != chain {
			continue
		}
		if symbol != "" && !strings.Contains(strings.ToLower(t.Symbol), symbol) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func displayTokensByNetwork(tokens []types.Token) {
	groups := make(map[network.Tag][]types.Token)
	for _, t := range tokens {
		tag := network.Classify(t.ID, t.Symbol)
		groups[tag] = append(groups[tag], t)
	}

	tags := make([]network.Tag, 0, len(groups))
	for tag := range groups {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                  AVAILABLE TOKENS (%d)", len(tokens))
	fmt.Println(strings.Repeat("=", 60))

	for _, tag := range tags {
		fmt.Printf("\n%s\n", color.CyanString(tag.DisplayName()))
		group := groups[tag]
		sort.Slice(group, func(i, j int) bool { return group[i].Symbol < group[j].Symbol })
		for _, t := range group {
			name := t.Name
			if name == "" {
				name = t.ID
			}
			fmt.Printf("  %-12s %s\n", color.YellowString(strings.ToUpper(t.Symbol)), name)
		}
	}
	fmt.Println()
}
