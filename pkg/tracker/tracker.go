package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"flowswap/pkg/client"
	"flowswap/pkg/network"
)

// DefaultPollInterval matches the auto-check cadence of the original
// monitoring toggle.
const DefaultPollInterval = 10 * time.Second

// demoDetectChance is the per-poll probability that a simulated
// transaction sees its deposit.
const demoDetectChance = 0.3

// Provider is the part of the exchange API the tracker needs.
type Provider interface {
	CreateTransaction(ctx context.Context, req *client.CreateTransactionRequest) (*client.TransactionResponse, error)
	Transaction(ctx context.Context, id string) (*client.TransactionStatus, error)
}

// OpenRequest describes the swap a transaction should be created for.
type OpenRequest struct {
	FromAmount       string
	FromToken        string
	ToAmount         string
	ToToken          string
	RecipientAddress string
	RefundAddress    string
	ExtraID          string
}

// Tracker owns transaction lifecycle: creation (with demo fallback),
// status polling and auto-poll timers. Timers are infrastructure; tests
// call Poll directly.
type Tracker struct {
	provider Provider
	ledger   *Ledger
	log      *zap.Logger

	// injectable for deterministic tests
	now    func() time.Time
	chance func() float64

	mu       sync.Mutex
	inflight map[string]bool
	autos    map[string]chan struct{}
}

// New creates a tracker over the given provider and ledger.
func New(provider Provider, ledger *Ledger, log *zap.Logger) *Tracker {
	return &Tracker{
		provider: provider,
		ledger:   ledger,
		log:      log.Named("tracker"),
		now:      time.Now,
		chance:   rand.Float64,
		inflight: make(map[string]bool),
		autos:    make(map[string]chan struct{}),
	}
}

// Placeholder deposit addresses shown for demo transactions, keyed by
// the source token's network.
var demoDepositAddresses = map[network.Tag]string{
	network.Bitcoin: "bc1qfl4svl3rkfw8d09naamyt7k6wrz903caq3684s",
	network.Solana:  "739jDqQeuewnq3yYRu4tWvtknZ6AtJ5aivL9d6uiJyzk",
}

const demoDepositAddressEVM = "0x731e64bd31a37B05e412c8D45971A79d1ffe58c7"

func demoDepositAddress(tag network.Tag) string {
	if addr, ok := demoDepositAddresses[tag]; ok {
		return addr
	}
	return demoDepositAddressEVM
}

// Open returns the transaction for a swap request, reusing the existing
// ledger record when the same request was already opened. Otherwise it
// creates a provider transaction, or falls back to a clearly marked
// demo transaction when the provider is unavailable. The second return
// value reports whether an existing record was reused.
func (t *Tracker) Open(ctx context.Context, req OpenRequest) (*Transaction, bool, error) {
	if existing, ok := t.ledger.FindRequest(req.FromAmount, req.FromToken, req.ToAmount, req.ToToken, req.RecipientAddress); ok {
		return existing, true, nil
	}

	now := t.now()
	tx := &Transaction{
		FromAmount:       req.FromAmount,
		FromToken:        req.FromToken,
		ToAmount:         req.ToAmount,
		ToToken:          req.ToToken,
		RecipientAddress: req.RecipientAddress,
		Status:           StatusWaiting,
		Progress:         progressWaiting,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	created, err := t.provider.CreateTransaction(ctx, &client.CreateTransactionRequest{
		From:          strings.ToLower(req.FromToken),
		To:            strings.ToLower(req.ToToken),
		Address:       req.RecipientAddress,
		Amount:        json.Number(req.FromAmount),
		ExtraID:       req.ExtraID,
		RefundAddress: req.RefundAddress,
	})
	if err != nil {
		// Degrade to a labeled demo transaction rather than failing the
		// whole flow.
		t.log.Warn("transaction creation failed, falling back to demo mode", zap.Error(err))
		tx.ID = "demo_" + strings.SplitN(uuid.NewString(), "-", 2)[0]
		tx.DepositAddress = demoDepositAddress(network.Classify(req.FromToken, req.FromToken))
		tx.IsDemo = true
	} else {
		tx.ID = created.ID
		tx.DepositAddress = created.PayinAddress
		tx.ProviderStatus = created.Status
		tx.ProviderData = created
	}

	if err := t.ledger.Append(tx); err != nil {
		return nil, false, fmt.Errorf("failed to record transaction: %w", err)
	}

	return tx.clone(), false, nil
}

// Progress percentages per lifecycle stage.
const (
	progressWaiting    = 25
	progressExchanging = 60
	progressSending    = 90
	progressDone       = 100
)

// mapProviderStatus translates the provider's status vocabulary into the
// normalized lifecycle state. ok is false for unknown vocabulary.
func mapProviderStatus(s string) (status Status, progress int, ok bool) {
	switch strings.ToLower(s) {
	case "new", "waiting":
		return StatusWaiting, progressWaiting, true
	case "confirming", "exchanging":
		return StatusProcessing, progressExchanging, true
	case "sending":
		return StatusProcessing, progressSending, true
	case "finished":
		return StatusConfirmed, progressDone, true
	case "failed", "refunded", "expired":
		return StatusFailed, 0, true
	}
	return "", 0, false
}

// Poll runs one status check for the transaction and persists the
// result. Concurrent polls for the same id are dropped: the second
// caller gets the current record unchanged. Terminal transactions are
// returned as-is. Transient provider errors are returned alongside the
// unchanged record and never mark the transaction failed.
func (t *Tracker) Poll(ctx context.Context, id string) (*Transaction, error) {
	t.mu.Lock()
	if t.inflight[id] {
		t.mu.Unlock()
		tx, err := t.ledger.Get(id)
		if err != nil {
			return nil, err
		}
		return tx, nil
	}
	t.inflight[id] = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.inflight, id)
		t.mu.Unlock()
	}()

	tx, err := t.ledger.Get(id)
	if err != nil {
		return nil, err
	}

	if tx.Status.Terminal() {
		return tx, nil
	}

	if tx.IsDemo {
		t.simulatePoll(tx)
	} else {
		if err := t.providerPoll(ctx, tx); err != nil {
			return tx, err
		}
	}

	tx.UpdatedAt = t.now()
	if err := t.ledger.Update(tx); err != nil {
		return tx, err
	}

	if tx.Status.Terminal() {
		t.StopAutoPoll(id)
	}

	return tx, nil
}

func (t *Tracker) providerPoll(ctx context.Context, tx *Transaction) error {
	status, err := t.provider.Transaction(ctx, tx.ID)
	if err != nil {
		// Transient failure: leave the record alone and let the next
		// poll try again. Only an explicit provider verdict is
		// definitive.
		t.log.Warn("status check failed",
			zap.String("id", tx.ID),
			zap.Error(err),
		)
		return err
	}

	tx.ProviderStatus = status.Status

	next, progress, ok := mapProviderStatus(status.Status)
	if !ok {
		t.log.Warn("unknown provider status",
			zap.String("id", tx.ID),
			zap.String("status", status.Status),
		)
		return nil
	}

	if next == StatusFailed {
		tx.Status = StatusFailed
		return nil
	}

	// The lifecycle only moves forward; a stale provider answer never
	// regresses the record.
	if next.rank() < tx.Status.rank() {
		return nil
	}

	tx.Status = next
	if progress > tx.Progress {
		tx.Progress = progress
	}
	if next == StatusConfirmed {
		tx.Progress = progressDone
	}
	return nil
}

// simulatePoll advances a demo transaction: a random chance to detect
// the deposit, then one confirmation per poll up to six.
func (t *Tracker) simulatePoll(tx *Transaction) {
	switch tx.Status {
	case StatusWaiting:
		if t.chance() < demoDetectChance {
			tx.Status = StatusProcessing
			tx.Confirmations = 0
			tx.Progress = 40
		}
	case StatusProcessing:
		if tx.Confirmations < MaxConfirmations {
			tx.Confirmations++
		}
		tx.Progress = 40 + tx.Confirmations*10
		if tx.Confirmations >= MaxConfirmations {
			tx.Status = StatusConfirmed
			tx.Progress = progressDone
		}
	}
}

// StartAutoPoll polls the transaction at the given interval until it
// reaches a terminal state, StopAutoPoll is called, or the context is
// cancelled. Starting an already auto-polled transaction is a no-op.
func (t *Tracker) StartAutoPoll(ctx context.Context, id string, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	t.mu.Lock()
	if _, exists := t.autos[id]; exists {
		t.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	t.autos[id] = stop
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				t.StopAutoPoll(id)
				return
			case <-ticker.C:
				if tx, err := t.Poll(ctx, id); err == nil && tx.Status.Terminal() {
					return
				}
			}
		}
	}()
}

// StopAutoPoll cancels the auto-poll timer for a transaction, if any.
func (t *Tracker) StopAutoPoll(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if stop, exists := t.autos[id]; exists {
		close(stop)
		delete(t.autos, id)
	}
}

// Close stops all auto-poll timers.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, stop := range t.autos {
		close(stop)
		delete(t.autos, id)
	}
}
