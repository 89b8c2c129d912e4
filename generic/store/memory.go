// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/manageitwa/payg-tax/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	byWorker    map[generic.WorkerRef][]generic.Record
	byID        map[generic.CalculationID]generic.Record
	idempotency map[string]generic.CalculationID
	created     []generic.CalculationID
}

func NewMemory() *Memory {
	m := &Memory{}
	m.resetLocked()
	return m
}

func (m *Memory) resetLocked() {
	m.byWorker = make(map[generic.WorkerRef][]generic.Record)
	m.byID = make(map[generic.CalculationID]generic.Record)
	m.idempotency = make(map[string]generic.CalculationID)
	m.created = nil
}

// Append adds a single record. Append-only.
func (m *Memory) Append(_ context.Context, rec generic.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.IdempotencyKey != "" {
		if _, exists := m.idempotency[rec.IdempotencyKey]; exists {
			return generic.ErrDuplicateIdempotencyKey
		}
	}

	recs := m.byWorker[rec.WorkerRef]

	// Binary search for insertion point keeps records ordered by pay date
	i := sort.Search(len(recs), func(i int) bool {
		return recs[i].PayDate.After(rec.PayDate)
	})
	recs = append(recs, generic.Record{})
	copy(recs[i+1:], recs[i:])
	recs[i] = rec
	m.byWorker[rec.WorkerRef] = recs

	m.byID[rec.ID] = rec
	m.created = append(m.created, rec.ID)
	if rec.IdempotencyKey != "" {
		m.idempotency[rec.IdempotencyKey] = rec.ID
	}
	return nil
}

func (m *Memory) Get(_ context.Context, id generic.CalculationID) (generic.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byID[id]
	if !ok {
		return generic.Record{}, generic.ErrRecordNotFound
	}
	return rec, nil
}

func (m *Memory) FindByIdempotencyKey(_ context.Context, key string) (generic.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.idempotency[key]
	if !ok {
		return generic.Record{}, generic.ErrRecordNotFound
	}
	return m.byID[id], nil
}

func (m *Memory) LoadByWorker(_ context.Context, worker generic.WorkerRef, from, to generic.TimePoint) ([]generic.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []generic.Record
	for _, rec := range m.byWorker[worker] {
		if from.BeforeOrEqual(rec.PayDate) && rec.PayDate.BeforeOrEqual(to) {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (m *Memory) List(_ context.Context, limit int) ([]generic.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]generic.Record, 0, limit)
	for i := len(m.created) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.byID[m.created[i]])
	}
	return result, nil
}

// Reset clears every record.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	return nil
}
