package memory

import (
	"context"
	"sort"
	"sync"

	"poolscope/internal/domain"
	"poolscope/internal/storage"
)

// swapEventKey is the composite key for swap event deduplication.
type swapEventKey struct {
	PoolID   string
	TxHash   string
	LogIndex int
}

// SwapEventStore is an in-memory implementation of storage.SwapEventStore.
type SwapEventStore struct {
	mu   sync.RWMutex
	data []*domain.SwapEvent
	keys map[swapEventKey]bool
}

// NewSwapEventStore creates a new in-memory swap event store.
func NewSwapEventStore() *SwapEventStore {
	return &SwapEventStore{
		data: make([]*domain.SwapEvent, 0),
		keys: make(map[swapEventKey]bool),
	}
}

// Insert adds a new swap event. Returns ErrDuplicateKey if (pool_id, tx_hash, log_index) exists.
func (s *SwapEventStore) Insert(_ context.Context, e *domain.SwapEvent) error {
	if e == nil || e.PoolID == "" {
		return storage.ErrInvalidInput
	}

	key := swapEventKey{PoolID: e.PoolID, TxHash: e.TxHash, LogIndex: e.LogIndex}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys[key] {
		return storage.ErrDuplicateKey
	}

	// Store a copy
	copy := *e
	s.data = append(s.data, &copy)
	s.keys[key] = true

	return nil
}

// InsertBulk adds multiple swap events atomically. Fails entire batch on any duplicate.
func (s *SwapEventStore) InsertBulk(_ context.Context, events []*domain.SwapEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check for duplicates (both existing and intra-batch)
	batchKeys := make(map[swapEventKey]bool)
	for _, e := range events {
		if e == nil || e.PoolID == "" {
			return storage.ErrInvalidInput
		}

		key := swapEventKey{PoolID: e.PoolID, TxHash: e.TxHash, LogIndex: e.LogIndex}
		if s.keys[key] || batchKeys[key] {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = true
	}

	for _, e := range events {
		copy := *e
		s.data = append(s.data, &copy)
		s.keys[swapEventKey{PoolID: e.PoolID, TxHash: e.TxHash, LogIndex: e.LogIndex}] = true
	}

	return nil
}

// GetByPoolID retrieves all events for a pool, ordered by (timestamp, log_index) ASC.
func (s *SwapEventStore) GetByPoolID(_ context.Context, poolID string) ([]*domain.SwapEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapEvent
	for _, e := range s.data {
		if e.PoolID == poolID {
			copy := *e
			result = append(result, &copy)
		}
	}

	sortSwapEvents(result)
	return result, nil
}

// GetByTimeRange retrieves events for a pool within [start, end) (inclusive start, exclusive end).
func (s *SwapEventStore) GetByTimeRange(_ context.Context, poolID string, start, end int64) ([]*domain.SwapEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapEvent
	for _, e := range s.data {
		if e.PoolID == poolID && e.Timestamp >= start && e.Timestamp < end {
			copy := *e
			result = append(result, &copy)
		}
	}

	sortSwapEvents(result)
	return result, nil
}

// LatestTimestamp returns the newest event timestamp for a pool, or 0 when none exist.
func (s *SwapEventStore) LatestTimestamp(_ context.Context, poolID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest int64
	for _, e := range s.data {
		if e.PoolID == poolID && e.Timestamp > latest {
			latest = e.Timestamp
		}
	}
	return latest, nil
}

// sortSwapEvents sorts events by (timestamp, log_index).
func sortSwapEvents(events []*domain.SwapEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].LogIndex < events[j].LogIndex
	})
}

// Verify interface compliance at compile time.
var _ storage.SwapEventStore = (*SwapEventStore)(nil)
