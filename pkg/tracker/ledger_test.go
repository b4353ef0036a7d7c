package tracker

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"flowswap/pkg/apperrors"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger(filepath.Join(t.TempDir(), "ledger.json"))
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}
	return l
}

func sampleTx(id string) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		ID:               id,
		FromAmount:       "1",
		FromToken:        "eth",
		ToAmount:         "0.05",
		ToToken:          "btc",
		DepositAddress:   "0x731e64bd31a37B05e412c8D45971A79d1ffe58c7",
		RecipientAddress: "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
		Status:           StatusWaiting,
		Progress:         25,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestLedgerAppendAndGet(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Append(sampleTx("tx-1")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l.Append(sampleTx("tx-1")); err == nil {
		t.Fatal("duplicate id accepted")
	}

	got, err := l.Get("tx-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.FromToken != "eth" || got.Status != StatusWaiting {
		t.Fatalf("unexpected record: %+v", got)
	}

	if _, err := l.Get("missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLedgerGetReturnsCopy(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Append(sampleTx("tx-1")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, _ := l.Get("tx-1")
	got.Status = StatusFailed

	again, _ := l.Get("tx-1")
	if again.Status != StatusWaiting {
		t.Fatal("mutating a returned record changed the stored one")
	}
}

func TestLedgerUpdate(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Append(sampleTx("tx-1")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	tx, _ := l.Get("tx-1")
	tx.Status = StatusProcessing
	tx.Confirmations = 3
	if err := l.Update(tx); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := l.Get("tx-1")
	if got.Status != StatusProcessing || got.Confirmations != 3 {
		t.Fatalf("update not applied: %+v", got)
	}

	ghost := sampleTx("ghost")
	if err := l.Update(ghost); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Update(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestLedgerFindRequest(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Append(sampleTx("tx-1")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, ok := l.FindRequest("1", "eth", "0.05", "btc", "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq")
	if !ok {
		t.Fatal("identical request not found")
	}
	if got.ID != "tx-1" {
		t.Fatalf("found %q, want tx-1", got.ID)
	}

	if _, ok := l.FindRequest("2", "eth", "0.05", "btc", "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"); ok {
		t.Fatal("different amount matched")
	}
}

func TestLedgerListOrderAndPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	l, err := NewLedger(path)
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}

	for _, id := range []string{"a", "b", "c"} {
		tx := sampleTx(id)
		tx.RecipientAddress = id // keep dedup tuples distinct
		if err := l.Append(tx); err != nil {
			t.Fatalf("Append(%s) failed: %v", id, err)
		}
	}

	list := l.List()
	if len(list) != 3 {
		t.Fatalf("got %d records, want 3", len(list))
	}
	for i, id := range []string{"a", "b", "c"} {
		if list[i].ID != id {
			t.Fatalf("list[%d] = %q, want %q (insertion order)", i, list[i].ID, id)
		}
	}

	// Reopen from disk.
	reopened, err := NewLedger(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if reopened.Count() != 3 {
		t.Fatalf("reopened ledger has %d records, want 3", reopened.Count())
	}
	got, err := reopened.Get("b")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got.FromAmount != "1" || got.ToToken != "btc" {
		t.Fatalf("record did not round-trip: %+v", got)
	}
}
