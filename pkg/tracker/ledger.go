package tracker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"flowswap/pkg/apperrors"
)

const DefaultLedgerFileName = ".flowswap-transactions.json"

// Ledger is the durable record of all swap attempts. Records keep their
// insertion order; writes replace the whole record by id (last writer
// wins, acceptable for the single-session model).
type Ledger struct {
	filePath string
	mu       sync.RWMutex
	records  []*Transaction
}

type ledgerFile struct {
	Transactions []*Transaction `json:"transactions"`
}

// NewLedger opens (or lazily creates) the ledger file. An empty path
// defaults to the user's home directory.
func NewLedger(filePath string) (*Ledger, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultLedgerFileName)
	}

	l := &Ledger{filePath: filePath}

	if err := l.load(); err != nil {
		// Missing file is fine, it is created on first save.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load ledger: %w", err)
		}
	}

	return l, nil
}

func (l *Ledger) load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return err
	}

	var file ledgerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal ledger: %w", err)
	}

	l.records = file.Transactions
	return nil
}

// saveLocked writes the ledger to disk. Callers must hold at least a
// read lock.
func (l *Ledger) saveLocked() error {
	data, err := json.MarshalIndent(ledgerFile{Transactions: l.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	dir := filepath.Dir(l.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temporary file first, then rename for an atomic write.
	tempFile := l.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}

	if err := os.Rename(tempFile, l.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Append adds a new transaction record.
func (l *Ledger) Append(tx *Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range l.records {
		if r.ID == tx.ID {
			return fmt.Errorf("transaction '%s' already recorded", tx.ID)
		}
	}

	l.records = append(l.records, tx.clone())
	return l.saveLocked()
}

// Update replaces the record with the same id.
func (l *Ledger) Update(tx *Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, r := range l.records {
		if r.ID == tx.ID {
			l.records[i] = tx.clone()
			return l.saveLocked()
		}
	}

	return fmt.Errorf("%w: transaction '%s'", apperrors.ErrNotFound, tx.ID)
}

// Get returns a copy of the record with the given id.
func (l *Ledger) Get(id string) (*Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, r := range l.records {
		if r.ID == id {
			return r.clone(), nil
		}
	}

	return nil, fmt.Errorf("%w: transaction '%s'", apperrors.ErrNotFound, id)
}

// FindRequest returns the record created for an identical swap request,
// if any. This is what keeps a reopened swap from creating a duplicate
// provider transaction.
func (l *Ledger) FindRequest(fromAmount, fromToken, toAmount, toToken, recipient string) (*Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, r := range l.records {
		if r.SameRequest(fromAmount, fromToken, toAmount, toToken, recipient) {
			return r.clone(), true
		}
	}

	return nil, false
}

// List returns copies of all records in insertion order.
func (l *Ledger) List() []*Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Transaction, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, r.clone())
	}
	return out
}

// Count returns the number of recorded transactions.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// FilePath returns the ledger's backing file path.
func (l *Ledger) FilePath() string {
	return l.filePath
}
