package parser

import (
	"fmt"
	"regexp"
	"strings"

	"flowswap/pkg/types"
)

// Case-insensitive on structure, but capture groups keep their original
// case: recipient addresses may be EIP-55 checksummed.
var commandRe = regexp.MustCompile(
	`(?i)^\s*(?:swap\s+)?(\d+\.?\d*)\s+([a-z0-9]+)\s+to\s+([a-z0-9]+)` +
		`(?:\s+(?:and\s+)?send\s+(?:it\s+)?to\s+(\S+))?\s*$`)

// ParseSwapCommand parses a natural language swap command.
// Examples:
//   - "swap 1 BTC to ETH"
//   - "0.5 eth to sol"
//   - "swap 1 btc to eth and send it to bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"
func ParseSwapCommand(command string) (*types.SwapRequest, error) {
	matches := commandRe.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token> [and send it to <address>]' (e.g., 'swap 1 BTC to ETH')")
	}

	return &types.SwapRequest{
		Amount:        matches[1],
		SourceToken:   NormalizeTokenSymbol(matches[2]),
		DestToken:     NormalizeTokenSymbol(matches[3]),
		RecipientAddr: matches[4],
	}, nil
}

// ValidateSwapRequest validates that a swap request has all required fields.
func ValidateSwapRequest(req *types.SwapRequest) error {
	if req.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if req.SourceToken == "" {
		return fmt.Errorf("source token is required")
	}
	if req.DestToken == "" {
		return fmt.Errorf("destination token is required")
	}
	if req.SourceToken == req.DestToken {
		return fmt.Errorf("source and destination tokens must differ")
	}
	return nil
}

// NormalizeTokenSymbol normalizes token symbols to the provider's
// lowercase ticker format.
func NormalizeTokenSymbol(symbol string) string {
	return strings.TrimSpace(strings.ToLower(symbol))
}
