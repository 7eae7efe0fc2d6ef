package storage

import (
	"context"

	"poolscope/internal/domain"
)

// SwapEventStore provides access to swap_events storage.
type SwapEventStore interface {
	// Insert adds a new swap event. Returns ErrDuplicateKey if (pool_id, tx_hash, log_index) exists.
	Insert(ctx context.Context, e *domain.SwapEvent) error

	// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, events []*domain.SwapEvent) error

	// GetByPoolID retrieves all events for a pool, ordered by (timestamp, log_index) ASC.
	GetByPoolID(ctx context.Context, poolID string) ([]*domain.SwapEvent, error)

	// GetByTimeRange retrieves events for a pool within [start, end) (inclusive start, exclusive end).
	GetByTimeRange(ctx context.Context, poolID string, start, end int64) ([]*domain.SwapEvent, error)

	// LatestTimestamp returns the newest event timestamp for a pool, or 0 when none exist.
	LatestTimestamp(ctx context.Context, poolID string) (int64, error)
}

// LiquidityEventStore provides access to liquidity_events storage.
type LiquidityEventStore interface {
	// Insert adds a new liquidity modification. Returns ErrDuplicateKey if (pool_id, tx_hash, log_index) exists.
	Insert(ctx context.Context, e *domain.ModifyLiquidityEvent) error

	// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, events []*domain.ModifyLiquidityEvent) error

	// GetByPoolID retrieves all events for a pool, ordered by (timestamp, log_index) ASC.
	GetByPoolID(ctx context.Context, poolID string) ([]*domain.ModifyLiquidityEvent, error)

	// GetByTimeRange retrieves events for a pool within [start, end) (inclusive start, exclusive end).
	GetByTimeRange(ctx context.Context, poolID string, start, end int64) ([]*domain.ModifyLiquidityEvent, error)
}

// TimeSeriesStore provides access to the derived daily pool series.
type TimeSeriesStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate (pool_id, timestamp).
	InsertBulk(ctx context.Context, points []*domain.TimeSeriesPoint) error

	// GetByPoolID retrieves all points for a pool, ordered by timestamp ASC.
	GetByPoolID(ctx context.Context, poolID string) ([]*domain.TimeSeriesPoint, error)

	// GetByTimeRange retrieves points for a pool within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, poolID string, start, end int64) ([]*domain.TimeSeriesPoint, error)
}
