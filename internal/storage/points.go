package storage

import "poolscope/internal/domain"

// FilterNewPoints returns the candidate points whose (pool_id, timestamp)
// key is not present in existing, preserving candidate order. Rerunning a
// derivation over a partially stored range inserts only the missing days.
func FilterNewPoints(existing, candidates []*domain.TimeSeriesPoint) []*domain.TimeSeriesPoint {
	type key struct {
		poolID    string
		timestamp int64
	}

	seen := make(map[key]struct{}, len(existing))
	for _, p := range existing {
		seen[key{p.PoolID, p.Timestamp}] = struct{}{}
	}

	fresh := make([]*domain.TimeSeriesPoint, 0, len(candidates))
	for _, p := range candidates {
		if _, ok := seen[key{p.PoolID, p.Timestamp}]; ok {
			continue
		}
		fresh = append(fresh, p)
	}
	return fresh
}
