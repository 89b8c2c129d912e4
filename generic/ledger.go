/*
ledger.go - Append-only calculation journal

PURPOSE:
  The Journal is the audit trail of withholding calculations. It wraps a
  Store, assigns IDs and creation timestamps, and resolves idempotent
  retries to the original record.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. IMMUTABLE: Once written, records cannot be modified
  3. IDEMPOTENT: Same idempotency key = same record (no duplicates)

HISTORY QUERIES:
  History returns the records of one worker inside a Period, usually an
  Australian fiscal year. It does not total them; the engine performs no
  multi-period aggregation.

SEE ALSO:
  - store.go: Low-level persistence interface
  - api/handlers.go: Records calculations submitted over HTTP
*/
package generic

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// JOURNAL
// =============================================================================

// Journal records calculation results in a Store.
type Journal struct {
	store Store
	now   func() time.Time
}

func NewJournal(store Store) *Journal {
	return &Journal{store: store, now: time.Now}
}

// Record stamps rec with an ID and creation time and appends it.
//
// If rec carries an idempotency key that was already used, the original
// record is returned with replayed set to true.
func (j *Journal) Record(ctx context.Context, rec Record) (saved Record, replayed bool, err error) {
	if rec.ID == "" {
		rec.ID = CalculationID(uuid.NewString())
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = j.now().UTC()
	}

	err = j.store.Append(ctx, rec)
	if errors.Is(err, ErrDuplicateIdempotencyKey) {
		original, findErr := j.store.FindByIdempotencyKey(ctx, rec.IdempotencyKey)
		if findErr != nil {
			return Record{}, false, findErr
		}
		return original, true, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, false, nil
}

// Get returns a record by ID.
func (j *Journal) Get(ctx context.Context, id CalculationID) (Record, error) {
	return j.store.Get(ctx, id)
}

// History returns a worker's records with pay dates inside period.
func (j *Journal) History(ctx context.Context, worker WorkerRef, period Period) ([]Record, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return j.store.LoadByWorker(ctx, worker, period.Start, period.End)
}

// Recent returns up to limit records, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	return j.store.List(ctx, limit)
}
