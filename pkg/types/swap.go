package types

import "time"

// Token is provider-issued currency reference data.
type Token struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	ImageURL string `json:"image,omitempty"`
}

// SwapRequest represents a user's swap command.
type SwapRequest struct {
	Amount        string
	SourceToken   string
	DestToken     string
	RecipientAddr string
	RefundAddr    string
	ExtraID       string
}

// SwapQuote is a single estimate for a swap. A newer quote supersedes an
// older one; quotes are never merged.
type SwapQuote struct {
	FromToken         string    `json:"from_token"`
	ToToken           string    `json:"to_token"`
	FromAmount        string    `json:"from_amount"`
	EstimatedToAmount string    `json:"estimated_to_amount"`
	SpeedForecast     string    `json:"speed_forecast,omitempty"`
	Warning           string    `json:"warning,omitempty"`
	FetchedAt         time.Time `json:"fetched_at"`
}

// MinimumAmount is the provider's minimum tradable input for a pair.
type MinimumAmount struct {
	FromToken string `json:"from_token"`
	ToToken   string `json:"to_token"`
	MinAmount string `json:"min_amount"`
}
