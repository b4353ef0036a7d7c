package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"flowswap/pkg/address"
	"flowswap/pkg/network"
)

var validateCmd = &cobra.Command{
	Use:   "validate <token> <address>",
	Short: "Validate a wallet address for a token's network",
	Long: `Classify which network a token settles on and check that the given
address is well-formed for that network. EVM addresses with mixed case
are also checksum-verified.

Examples:
  flowswap validate btc bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq
  flowswap validate usdterc20 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed`,
	Args: cobra.ExactArgs(2),
	Run:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	token, addr := args[0], args[1]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	tag := network.Classify(token, token)
	verdict := address.Validate(addr, tag)

	if jsonOutput {
		out, _ := json.MarshalIndent(map[string]interface{}{
			"token":   token,
			"network": string(tag),
			"valid":   verdict.IsValid,
			"message": verdict.Message,
		}, "", "  ")
		fmt.Println(string(out))
		if !verdict.IsValid {
			os.Exit(1)
		}
		return
	}

	fmt.Printf("\nNetwork: %s\n", color.CyanString(tag.DisplayName()))
	if verdict.IsValid {
		color.Green("%s\n", verdict.Message)
		return
	}
	color.Red("%s\n", verdict.Message)
	os.Exit(1)
}
