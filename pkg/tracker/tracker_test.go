package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"flowswap/pkg/client"
)

type fakeExchange struct {
	createErr error
	created   *client.TransactionResponse

	statusErr  error
	status     string
	statusSeen int
}

func (f *fakeExchange) CreateTransaction(ctx context.Context, req *client.CreateTransactionRequest) (*client.TransactionResponse, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakeExchange) Transaction(ctx context.Context, id string) (*client.TransactionStatus, error) {
	f.statusSeen++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &client.TransactionStatus{ID: id, Status: f.status}, nil
}

func newTestTracker(t *testing.T, p Provider) *Tracker {
	t.Helper()
	l, err := NewLedger(filepath.Join(t.TempDir(), "ledger.json"))
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}
	tr := New(p, l, zap.NewNop())
	t.Cleanup(tr.Close)
	return tr
}

var testReq = OpenRequest{
	FromAmount:       "1",
	FromToken:        "eth",
	ToAmount:         "0.05",
	ToToken:          "btc",
	RecipientAddress: "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
}

func TestOpenProvider(t *testing.T) {
	p := &fakeExchange{created: &client.TransactionResponse{
		ID:           "cn-123",
		PayinAddress: "0xdeposit",
		Status:       "new",
	}}
	tr := newTestTracker(t, p)

	tx, reused, err := tr.Open(context.Background(), testReq)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if reused {
		t.Fatal("fresh request reported as reused")
	}
	if tx.ID != "cn-123" || tx.DepositAddress != "0xdeposit" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if tx.IsDemo {
		t.Fatal("provider transaction marked demo")
	}
	if tx.Status != StatusWaiting || tx.Progress != 25 {
		t.Fatalf("initial state = %s/%d, want waiting/25", tx.Status, tx.Progress)
	}
}

func TestOpenDemoFallback(t *testing.T) {
	p := &fakeExchange{createErr: errors.New("provider down")}
	tr := newTestTracker(t, p)

	tx, _, err := tr.Open(context.Background(), testReq)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !tx.IsDemo {
		t.Fatal("fallback transaction not marked demo")
	}
	if !strings.HasPrefix(tx.ID, "demo_") {
		t.Fatalf("demo id = %q", tx.ID)
	}
	// Source token is eth, so the demo deposit address is EVM-shaped.
	if !strings.HasPrefix(tx.DepositAddress, "0x") {
		t.Fatalf("demo deposit address = %q", tx.DepositAddress)
	}
}

func TestOpenDemoDepositAddressPerNetwork(t *testing.T) {
	p := &fakeExchange{createErr: errors.New("provider down")}
	tr := newTestTracker(t, p)

	req := testReq
	req.FromToken = "btc"
	req.ToToken = "eth"
	tx, _, err := tr.Open(context.Background(), req)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !strings.HasPrefix(tx.DepositAddress, "bc1") {
		t.Fatalf("btc demo deposit address = %q", tx.DepositAddress)
	}
}

func TestOpenReusesIdenticalRequest(t *testing.T) {
	p := &fakeExchange{created: &client.TransactionResponse{ID: "cn-123", PayinAddress: "0xd", Status: "new"}}
	tr := newTestTracker(t, p)

	first, _, err := tr.Open(context.Background(), testReq)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	second, reused, err := tr.Open(context.Background(), testReq)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	if !reused {
		t.Fatal("identical request not reused")
	}
	if second.ID != first.ID {
		t.Fatalf("reused id = %q, want %q", second.ID, first.ID)
	}
	if tr.ledger.Count() != 1 {
		t.Fatalf("ledger has %d records, want 1", tr.ledger.Count())
	}
}

func TestMapProviderStatus(t *testing.T) {
	cases := []struct {
		provider string
		status   Status
		progress int
	}{
		{"new", StatusWaiting, 25},
		{"waiting", StatusWaiting, 25},
		{"confirming", StatusProcessing, 60},
		{"exchanging", StatusProcessing, 60},
		{"sending", StatusProcessing, 90},
		{"finished", StatusConfirmed, 100},
		{"failed", StatusFailed, 0},
		{"refunded", StatusFailed, 0},
		{"expired", StatusFailed, 0},
	}
	for _, tc := range cases {
		status, progress, ok := mapProviderStatus(tc.provider)
		if !ok {
			t.Errorf("mapProviderStatus(%q) not recognized", tc.provider)
			continue
		}
		if status != tc.status || progress != tc.progress {
			t.Errorf("mapProviderStatus(%q) = %s/%d, want %s/%d",
				tc.provider, status, progress, tc.status, tc.progress)
		}
	}

	if _, _, ok := mapProviderStatus("something-new"); ok {
		t.Fatal("unknown vocabulary recognized")
	}
}

func TestPollProviderProgression(t *testing.T) {
	p := &fakeExchange{
		created: &client.TransactionResponse{ID: "cn-123", PayinAddress: "0xd", Status: "new"},
		status:  "exchanging",
	}
	tr := newTestTracker(t, p)
	tx, _, _ := tr.Open(context.Background(), testReq)

	got, err := tr.Poll(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if got.Status != StatusProcessing || got.Progress != 60 {
		t.Fatalf("after exchanging: %s/%d, want processing/60", got.Status, got.Progress)
	}

	// A stale provider answer never moves the record backwards.
	p.status = "waiting"
	got, err = tr.Poll(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if got.Status != StatusProcessing || got.Progress != 60 {
		t.Fatalf("regressed to %s/%d", got.Status, got.Progress)
	}

	p.status = "finished"
	got, _ = tr.Poll(context.Background(), tx.ID)
	if got.Status != StatusConfirmed || got.Progress != 100 {
		t.Fatalf("after finished: %s/%d, want confirmed/100", got.Status, got.Progress)
	}

	// Terminal records are frozen; the provider is no longer asked.
	seen := p.statusSeen
	got, err = tr.Poll(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("Poll on terminal failed: %v", err)
	}
	if got.Status != StatusConfirmed {
		t.Fatalf("terminal status changed to %s", got.Status)
	}
	if p.statusSeen != seen {
		t.Fatal("provider polled for a terminal transaction")
	}
}

func TestPollProviderFailure(t *testing.T) {
	p := &fakeExchange{created: &client.TransactionResponse{ID: "cn-123", PayinAddress: "0xd", Status: "new"}}
	tr := newTestTracker(t, p)
	tx, _, _ := tr.Open(context.Background(), testReq)

	p.statusErr = errors.New("timeout")
	got, err := tr.Poll(context.Background(), tx.ID)
	if err == nil {
		t.Fatal("expected error")
	}
	if got == nil {
		t.Fatal("no record returned alongside the error")
	}
	if got.Status != StatusWaiting {
		t.Fatalf("transient failure changed status to %s", got.Status)
	}

	// Recovery on the next poll.
	p.statusErr = nil
	p.status = "sending"
	got, err = tr.Poll(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("Poll after recovery failed: %v", err)
	}
	if got.Status != StatusProcessing || got.Progress != 90 {
		t.Fatalf("after sending: %s/%d, want processing/90", got.Status, got.Progress)
	}
}

func TestPollFailedVerdict(t *testing.T) {
	p := &fakeExchange{
		created: &client.TransactionResponse{ID: "cn-123", PayinAddress: "0xd", Status: "new"},
		status:  "refunded",
	}
	tr := newTestTracker(t, p)
	tx, _, _ := tr.Open(context.Background(), testReq)

	got, err := tr.Poll(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if !got.Status.Terminal() {
		t.Fatal("failed not terminal")
	}
}

func TestDemoLifecycle(t *testing.T) {
	p := &fakeExchange{createErr: errors.New("provider down")}
	tr := newTestTracker(t, p)

	tx, _, _ := tr.Open(context.Background(), testReq)

	// Deposit never detected while chance stays above the threshold.
	tr.chance = func() float64 { return 0.9 }
	got, err := tr.Poll(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if got.Status != StatusWaiting {
		t.Fatalf("deposit detected at chance 0.9: %s", got.Status)
	}

	// Detection, then one confirmation per poll up to six.
	tr.chance = func() float64 { return 0.1 }
	got, _ = tr.Poll(context.Background(), tx.ID)
	if got.Status != StatusProcessing || got.Confirmations != 0 || got.Progress != 40 {
		t.Fatalf("after detection: %s conf=%d prog=%d", got.Status, got.Confirmations, got.Progress)
	}

	prevConf := 0
	for i := 1; i <= MaxConfirmations; i++ {
		got, err = tr.Poll(context.Background(), tx.ID)
		if err != nil {
			t.Fatalf("Poll %d failed: %v", i, err)
		}
		if got.Confirmations < prevConf {
			t.Fatalf("confirmations decreased: %d -> %d", prevConf, got.Confirmations)
		}
		prevConf = got.Confirmations
		if got.Confirmations != i {
			t.Fatalf("poll %d: confirmations = %d", i, got.Confirmations)
		}
		wantProgress := 40 + i*10
		if i == MaxConfirmations {
			wantProgress = 100
		}
		if got.Progress != wantProgress {
			t.Fatalf("poll %d: progress = %d, want %d", i, got.Progress, wantProgress)
		}
	}
	if got.Status != StatusConfirmed {
		t.Fatalf("status after %d confirmations = %s", MaxConfirmations, got.Status)
	}

	// Terminal freeze.
	got, _ = tr.Poll(context.Background(), tx.ID)
	if got.Status != StatusConfirmed || got.Confirmations != MaxConfirmations {
		t.Fatalf("terminal demo record changed: %s conf=%d", got.Status, got.Confirmations)
	}
}

func TestPollUnknownID(t *testing.T) {
	tr := newTestTracker(t, &fakeExchange{})
	if _, err := tr.Poll(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusWaiting.Terminal() || StatusProcessing.Terminal() {
		t.Fatal("non-terminal status reported terminal")
	}
	if !StatusConfirmed.Terminal() || !StatusFailed.Terminal() {
		t.Fatal("terminal status reported non-terminal")
	}
}

type blockingExchange struct {
	fakeExchange
	entered chan struct{}
	release chan struct{}
	calls   int
}

func (b *blockingExchange) Transaction(ctx context.Context, id string) (*client.TransactionStatus, error) {
	b.calls++
	close(b.entered)
	<-b.release
	return &client.TransactionStatus{ID: id, Status: "exchanging"}, nil
}

func TestPollDropsConcurrentCheck(t *testing.T) {
	p := &blockingExchange{
		fakeExchange: fakeExchange{created: &client.TransactionResponse{ID: "cn-123", PayinAddress: "0xd", Status: "new"}},
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	tr := newTestTracker(t, p)
	tx, _, _ := tr.Open(context.Background(), testReq)

	done := make(chan struct{})
	go func() {
		defer close(done)
		tr.Poll(context.Background(), tx.ID)
	}()

	<-p.entered

	// Second poll while the first is in flight: dropped, current record
	// returned unchanged.
	got, err := tr.Poll(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("dropped poll errored: %v", err)
	}
	if got.Status != StatusWaiting {
		t.Fatalf("dropped poll returned mutated record: %s", got.Status)
	}

	close(p.release)
	<-done

	if p.calls != 1 {
		t.Fatalf("provider asked %d times, want 1", p.calls)
	}
	final, _ := tr.ledger.Get(tx.ID)
	if final.Status != StatusProcessing {
		t.Fatalf("first poll result lost: %s", final.Status)
	}
}
