/*
Package sqlite provides a SQLite-backed implementation of the journal store.

PURPOSE:
  Implements generic.Store and generic.ResettableStore using SQLite. In
  production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

APPEND-ONLY ENFORCEMENT:
  The Store enforces append-only semantics:
  - No UPDATE statements on the calculations table
  - No DELETE statements except Reset (development only)
  - A wrong calculation is corrected by recording a new one

KEY TABLES:
  calculations: Immutable journal of withholding calculations

INDEXES:
  - idx_calculations_worker_date: Fiscal year history (hot path)
  - idx_calculations_created:     Recent calculations listing
  - idempotency_key UNIQUE:       Rejects replayed submissions

DECIMALS:
  Money columns are stored as TEXT in decimal notation so values survive
  the round trip exactly. REAL would lose cents.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/payg.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  journal := generic.NewJournal(store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/ledger.go: Journal built on Store
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/manageitwa/payg-tax/generic"
)

// Store implements generic.ResettableStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ generic.ResettableStore = (*Store)(nil)

// Fixed-width so created_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database lives and dies with its connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Calculation journal (append-only)
	CREATE TABLE IF NOT EXISTS calculations (
		id TEXT PRIMARY KEY,
		worker_ref TEXT NOT NULL,
		pay_date TEXT NOT NULL,
		pay_cycle TEXT NOT NULL,
		gross TEXT NOT NULL,
		scale TEXT NOT NULL,
		base TEXT NOT NULL,
		lines_json TEXT,
		withheld TEXT NOT NULL,
		idempotency_key TEXT UNIQUE,
		metadata_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_calculations_worker_date
		ON calculations(worker_ref, pay_date);
	CREATE INDEX IF NOT EXISTS idx_calculations_created
		ON calculations(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// JOURNAL STORE (generic.Store interface)
// =============================================================================

const selectColumns = `
	SELECT id, worker_ref, pay_date, pay_cycle, gross, scale, base,
	       lines_json, withheld, idempotency_key, metadata_json, created_at
	FROM calculations
`

// Append adds a calculation record to the journal.
func (s *Store) Append(ctx context.Context, rec generic.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	linesJSON, err := json.Marshal(rec.Lines)
	if err != nil {
		return fmt.Errorf("failed to encode adjustment lines: %w", err)
	}
	metadataJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO calculations
		(id, worker_ref, pay_date, pay_cycle, gross, scale, base,
		 lines_json, withheld, idempotency_key, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		rec.ID,
		rec.WorkerRef,
		rec.PayDate.String(),
		rec.PayCycle,
		rec.Gross.String(),
		rec.Scale,
		rec.Base.String(),
		string(linesJSON),
		rec.Withheld.String(),
		nullString(rec.IdempotencyKey),
		string(metadataJSON),
		createdAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		if isUniqueConstraintError(err) && strings.Contains(err.Error(), "idempotency_key") {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append calculation: %w", err)
	}
	return nil
}

// Get returns a record by ID.
func (s *Store) Get(ctx context.Context, id generic.CalculationID) (generic.Record, error) {
	return s.queryOne(ctx, selectColumns+` WHERE id = ?`, id)
}

// FindByIdempotencyKey returns the record originally written with key.
func (s *Store) FindByIdempotencyKey(ctx context.Context, key string) (generic.Record, error) {
	if key == "" {
		return generic.Record{}, generic.ErrRecordNotFound
	}
	return s.queryOne(ctx, selectColumns+` WHERE idempotency_key = ?`, key)
}

// LoadByWorker returns a worker's records with pay dates in [from, to].
// Dates are stored as YYYY-MM-DD so string comparison orders them.
func (s *Store) LoadByWorker(ctx context.Context, worker generic.WorkerRef, from, to generic.TimePoint) ([]generic.Record, error) {
	query := selectColumns + `
		WHERE worker_ref = ? AND pay_date >= ? AND pay_date <= ?
		ORDER BY pay_date ASC, created_at ASC
	`
	return s.queryRecords(ctx, query, worker, from.String(), to.String())
}

// List returns the most recently created records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]generic.Record, error) {
	query := selectColumns + ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	return s.queryRecords(ctx, query, limit)
}

// Reset clears the journal. Development and demo use only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM calculations`); err != nil {
		return fmt.Errorf("failed to reset journal: %w", err)
	}
	return nil
}

func (s *Store) queryOne(ctx context.Context, query string, args ...any) (generic.Record, error) {
	recs, err := s.queryRecords(ctx, query, args...)
	if err != nil {
		return generic.Record{}, err
	}
	if len(recs) == 0 {
		return generic.Record{}, generic.ErrRecordNotFound
	}
	return recs[0], nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]generic.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculations: %w", err)
	}
	defer rows.Close()

	var result []generic.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func scanRecord(rows *sql.Rows) (generic.Record, error) {
	var (
		rec                                  generic.Record
		payDate, gross, base, withheld       string
		linesJSON, metadataJSON, idempotency sql.NullString
		createdAt                            string
	)

	err := rows.Scan(
		&rec.ID,
		&rec.WorkerRef,
		&payDate,
		&rec.PayCycle,
		&gross,
		&rec.Scale,
		&base,
		&linesJSON,
		&withheld,
		&idempotency,
		&metadataJSON,
		&createdAt,
	)
	if err != nil {
		return generic.Record{}, fmt.Errorf("failed to scan calculation: %w", err)
	}

	if rec.PayDate, err = generic.ParseDate(payDate); err != nil {
		return generic.Record{}, fmt.Errorf("corrupt pay date on %s: %w", rec.ID, err)
	}
	if rec.Gross, err = decimal.NewFromString(gross); err != nil {
		return generic.Record{}, fmt.Errorf("corrupt gross on %s: %w", rec.ID, err)
	}
	if rec.Base, err = decimal.NewFromString(base); err != nil {
		return generic.Record{}, fmt.Errorf("corrupt base on %s: %w", rec.ID, err)
	}
	if rec.Withheld, err = decimal.NewFromString(withheld); err != nil {
		return generic.Record{}, fmt.Errorf("corrupt withheld on %s: %w", rec.ID, err)
	}
	rec.IdempotencyKey = idempotency.String

	if linesJSON.Valid && linesJSON.String != "" && linesJSON.String != "null" {
		if err := json.Unmarshal([]byte(linesJSON.String), &rec.Lines); err != nil {
			return generic.Record{}, fmt.Errorf("corrupt adjustment lines on %s: %w", rec.ID, err)
		}
	}
	if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &rec.Metadata); err != nil {
			return generic.Record{}, fmt.Errorf("corrupt metadata on %s: %w", rec.ID, err)
		}
	}

	rec.CreatedAt, err = time.Parse(timestampLayout, createdAt)
	if err != nil {
		return generic.Record{}, fmt.Errorf("corrupt created_at on %s: %w", rec.ID, err)
	}
	return rec, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
