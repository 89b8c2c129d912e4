/*
store.go - Persistence interface for the calculation journal

PURPOSE:
  Defines the interface between the calculation layer and the database.
  Calculations themselves are pure; the journal only records their results
  so that payroll operators can audit what was withheld and why.

KEY INTERFACES:
  Store:          Append-only journal of calculation records
  ResettableStore: Development helper to clear the journal

APPEND-ONLY CONTRACT:
  - Append(): the only write operation
  - NO Update() or Delete() methods exist
  - A wrong calculation is corrected by recording a new one

IDEMPOTENCY:
  A record may carry an idempotency key. If the key already exists the
  write is rejected with ErrDuplicateIdempotencyKey and the caller can
  fetch the original with FindByIdempotencyKey.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - ledger.go: Journal wraps a Store and stamps IDs and timestamps
*/
package generic

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORD - One journaled calculation
// =============================================================================

// RecordLine is one adjustment applied on top of the base amount.
type RecordLine struct {
	Kind   string          `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
}

// Record is the immutable result of one withholding calculation.
type Record struct {
	ID             CalculationID
	WorkerRef      WorkerRef
	PayDate        TimePoint
	PayCycle       string
	Gross          decimal.Decimal
	Scale          string
	Base           decimal.Decimal
	Lines          []RecordLine
	Withheld       decimal.Decimal
	IdempotencyKey string
	Metadata       map[string]string
	CreatedAt      time.Time
}

// =============================================================================
// STORE - Interface for journal persistence (append-only)
// =============================================================================

// Store handles persistence of calculation records.
// IMPORTANT: Store is APPEND-ONLY. No Update, No Delete.
type Store interface {
	// Append persists a record. Returns ErrDuplicateIdempotencyKey if the
	// record's key was already used.
	Append(ctx context.Context, rec Record) error

	// Get returns a record by ID or ErrRecordNotFound.
	Get(ctx context.Context, id CalculationID) (Record, error)

	// FindByIdempotencyKey returns the record written with key or ErrRecordNotFound.
	FindByIdempotencyKey(ctx context.Context, key string) (Record, error)

	// LoadByWorker returns a worker's records with pay dates in [from, to],
	// ordered by pay date.
	LoadByWorker(ctx context.Context, worker WorkerRef, from, to TimePoint) ([]Record, error)

	// List returns the most recently created records, newest first.
	List(ctx context.Context, limit int) ([]Record, error)
}

// ResettableStore can be cleared. Development and demo use only.
type ResettableStore interface {
	Store
	Reset(ctx context.Context) error
}
