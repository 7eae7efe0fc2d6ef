package memory

import (
	"context"
	"sort"
	"sync"

	"poolscope/internal/domain"
	"poolscope/internal/storage"
)

// liquidityEventKey is the composite key for liquidity event deduplication.
type liquidityEventKey struct {
	PoolID   string
	TxHash   string
	LogIndex int
}

// LiquidityEventStore is an in-memory implementation of storage.LiquidityEventStore.
type LiquidityEventStore struct {
	mu   sync.RWMutex
	data []*domain.ModifyLiquidityEvent
	keys map[liquidityEventKey]bool
}

// NewLiquidityEventStore creates a new in-memory liquidity event store.
func NewLiquidityEventStore() *LiquidityEventStore {
	return &LiquidityEventStore{
		data: make([]*domain.ModifyLiquidityEvent, 0),
		keys: make(map[liquidityEventKey]bool),
	}
}

// Insert adds a new liquidity modification. Returns ErrDuplicateKey if (pool_id, tx_hash, log_index) exists.
func (s *LiquidityEventStore) Insert(_ context.Context, e *domain.ModifyLiquidityEvent) error {
	if e == nil || e.PoolID == "" {
		return storage.ErrInvalidInput
	}

	key := liquidityEventKey{PoolID: e.PoolID, TxHash: e.TxHash, LogIndex: e.LogIndex}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys[key] {
		return storage.ErrDuplicateKey
	}

	copy := *e
	s.data = append(s.data, &copy)
	s.keys[key] = true

	return nil
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *LiquidityEventStore) InsertBulk(_ context.Context, events []*domain.ModifyLiquidityEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[liquidityEventKey]bool)
	for _, e := range events {
		if e == nil || e.PoolID == "" {
			return storage.ErrInvalidInput
		}

		key := liquidityEventKey{PoolID: e.PoolID, TxHash: e.TxHash, LogIndex: e.LogIndex}
		if s.keys[key] || batchKeys[key] {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = true
	}

	for _, e := range events {
		copy := *e
		s.data = append(s.data, &copy)
		s.keys[liquidityEventKey{PoolID: e.PoolID, TxHash: e.TxHash, LogIndex: e.LogIndex}] = true
	}

	return nil
}

// GetByPoolID retrieves all events for a pool, ordered by (timestamp, log_index) ASC.
func (s *LiquidityEventStore) GetByPoolID(_ context.Context, poolID string) ([]*domain.ModifyLiquidityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ModifyLiquidityEvent
	for _, e := range s.data {
		if e.PoolID == poolID {
			copy := *e
			result = append(result, &copy)
		}
	}

	sortLiquidityEvents(result)
	return result, nil
}

// GetByTimeRange retrieves events for a pool within [start, end) (inclusive start, exclusive end).
func (s *LiquidityEventStore) GetByTimeRange(_ context.Context, poolID string, start, end int64) ([]*domain.ModifyLiquidityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ModifyLiquidityEvent
	for _, e := range s.data {
		if e.PoolID == poolID && e.Timestamp >= start && e.Timestamp < end {
			copy := *e
			result = append(result, &copy)
		}
	}

	sortLiquidityEvents(result)
	return result, nil
}

// sortLiquidityEvents sorts events by (timestamp, log_index).
func sortLiquidityEvents(events []*domain.ModifyLiquidityEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].LogIndex < events[j].LogIndex
	})
}

// Verify interface compliance at compile time.
var _ storage.LiquidityEventStore = (*LiquidityEventStore)(nil)
