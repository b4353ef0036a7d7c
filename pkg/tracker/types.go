package tracker

import (
	"time"

	"flowswap/pkg/client"
)

// Status is the normalized lifecycle state of a tracked swap.
type Status string

const (
	StatusWaiting    Status = "waiting"    // waiting for the user's deposit
	StatusProcessing Status = "processing" // deposit seen, exchange in flight
	StatusConfirmed  Status = "confirmed"  // swap completed
	StatusFailed     Status = "failed"     // swap failed or was refunded
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// rank orders the forward-only success path. failed is reachable from
// any non-terminal state and is handled separately.
func (s Status) rank() int {
	switch s {
	case StatusWaiting:
		return 0
	case StatusProcessing:
		return 1
	case StatusConfirmed:
		return 2
	case StatusFailed:
		return 3
	}
	return -1
}

// MaxConfirmations is the confirmation count that completes the
// simulated (demo) path.
const MaxConfirmations = 6

// Transaction is the ledger record of one swap attempt. Records are
// appended on creation, updated in place by polls and never deleted.
type Transaction struct {
	ID               string `json:"id"`
	FromAmount       string `json:"from_amount"`
	FromToken        string `json:"from_token"`
	ToAmount         string `json:"to_amount"`
	ToToken          string `json:"to_token"`
	DepositAddress   string `json:"deposit_address"`
	RecipientAddress string `json:"recipient_address"`

	Status        Status `json:"status"`
	Confirmations int    `json:"confirmations"`
	Progress      int    `json:"progress"`

	// IsDemo marks locally simulated transactions created when the
	// provider was unavailable. Demo data must never be presented as
	// real.
	IsDemo bool `json:"is_demo,omitempty"`

	ProviderStatus string                      `json:"provider_status,omitempty"`
	ProviderData   *client.TransactionResponse `json:"provider_data,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SameRequest reports whether this record was created for an identical
// swap request. Used to deduplicate reopened swaps.
func (t *Transaction) SameRequest(fromAmount, fromToken, toAmount, toToken, recipient string) bool {
	return t.FromAmount == fromAmount &&
		t.FromToken == fromToken &&
		t.ToAmount == toAmount &&
		t.ToToken == toToken &&
		t.RecipientAddress == recipient
}

func (t *Transaction) clone() *Transaction {
	c := *t
	if t.ProviderData != nil {
		d := *t.ProviderData
		c.ProviderData = &d
	}
	return &c
}
