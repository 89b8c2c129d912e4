package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manageitwa/payg-tax/generic"
)

func insertRaw(t *testing.T, s *Store, id, gross, base, withheld string) {
	t.Helper()
	_, err := s.db.Exec(`
		INSERT INTO calculations (id, worker_ref, pay_date, pay_cycle, gross, scale, base,
			lines_json, withheld, idempotency_key, metadata_json, created_at)
		VALUES (?, 'emp-1', '2024-10-15', 'weekly', ?, 'nat1004.scale2', ?, NULL, ?, NULL, NULL,
			'2024-10-15T09:00:00.000000000Z')`,
		id, gross, base, withheld)
	require.NoError(t, err)
}

func TestScanRecord_CorruptMoneyColumns(t *testing.T) {
	tests := []struct {
		name     string
		gross    string
		base     string
		withheld string
		column   string
	}{
		{"gross", "12,50", "1", "1", "corrupt gross"},
		{"base", "12.50", "n/a", "1", "corrupt base"},
		{"withheld", "12.50", "1", "forty-two", "corrupt withheld"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN: a row whose money column was written by something else
			s, err := New(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			insertRaw(t, s, "calc-bad", tt.gross, tt.base, tt.withheld)
			ctx := context.Background()

			// WHEN: it is read back through every query
			// THEN: each returns an error naming the column instead of panicking
			_, err = s.Get(ctx, "calc-bad")
			assert.ErrorContains(t, err, tt.column)

			_, err = s.List(ctx, 10)
			assert.ErrorContains(t, err, tt.column)

			fy := generic.AustralianFiscalYear.FiscalYear(2025)
			_, err = s.LoadByWorker(ctx, "emp-1", fy.Start, fy.End)
			assert.ErrorContains(t, err, tt.column)
		})
	}
}
