package memory

import (
	"context"
	"sort"
	"sync"

	"poolscope/internal/domain"
	"poolscope/internal/storage"
)

// timeSeriesKey is the composite key for series point deduplication.
type timeSeriesKey struct {
	PoolID    string
	Timestamp int64
}

// TimeSeriesStore is an in-memory implementation of storage.TimeSeriesStore.
type TimeSeriesStore struct {
	mu   sync.RWMutex
	data []*domain.TimeSeriesPoint
	keys map[timeSeriesKey]bool
}

// NewTimeSeriesStore creates a new in-memory time series store.
func NewTimeSeriesStore() *TimeSeriesStore {
	return &TimeSeriesStore{
		data: make([]*domain.TimeSeriesPoint, 0),
		keys: make(map[timeSeriesKey]bool),
	}
}

// InsertBulk adds multiple points. Fails entire batch on duplicate (pool_id, timestamp).
func (s *TimeSeriesStore) InsertBulk(_ context.Context, points []*domain.TimeSeriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[timeSeriesKey]bool)
	for _, p := range points {
		if p == nil || p.PoolID == "" {
			return storage.ErrInvalidInput
		}

		key := timeSeriesKey{PoolID: p.PoolID, Timestamp: p.Timestamp}
		if s.keys[key] || batchKeys[key] {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = true
	}

	for _, p := range points {
		copy := *p
		s.data = append(s.data, &copy)
		s.keys[timeSeriesKey{PoolID: p.PoolID, Timestamp: p.Timestamp}] = true
	}

	return nil
}

// GetByPoolID retrieves all points for a pool, ordered by timestamp ASC.
func (s *TimeSeriesStore) GetByPoolID(_ context.Context, poolID string) ([]*domain.TimeSeriesPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TimeSeriesPoint
	for _, p := range s.data {
		if p.PoolID == poolID {
			copy := *p
			result = append(result, &copy)
		}
	}

	sortTimeSeries(result)
	return result, nil
}

// GetByTimeRange retrieves points for a pool within [start, end] (inclusive).
func (s *TimeSeriesStore) GetByTimeRange(_ context.Context, poolID string, start, end int64) ([]*domain.TimeSeriesPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TimeSeriesPoint
	for _, p := range s.data {
		if p.PoolID == poolID && p.Timestamp >= start && p.Timestamp <= end {
			copy := *p
			result = append(result, &copy)
		}
	}

	sortTimeSeries(result)
	return result, nil
}

// sortTimeSeries sorts points by timestamp ASC.
func sortTimeSeries(points []*domain.TimeSeriesPoint) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})
}

// Verify interface compliance at compile time.
var _ storage.TimeSeriesStore = (*TimeSeriesStore)(nil)
