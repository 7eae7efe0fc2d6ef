package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"poolscope/internal/domain"
	"poolscope/internal/storage"
)

// LiquidityEventStore implements storage.LiquidityEventStore using PostgreSQL.
type LiquidityEventStore struct {
	pool *Pool
}

// NewLiquidityEventStore creates a new LiquidityEventStore.
func NewLiquidityEventStore(pool *Pool) *LiquidityEventStore {
	return &LiquidityEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LiquidityEventStore = (*LiquidityEventStore)(nil)

const insertLiquidityEventSQL = `
	INSERT INTO liquidity_events (
		id, pool_id, timestamp, sender, origin, liquidity_delta,
		amount0, amount1, amount_usd, tick_lower, tick_upper, tx_hash, log_index
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

// Insert adds a new liquidity modification. Returns ErrDuplicateKey if (pool_id, tx_hash, log_index) exists.
func (s *LiquidityEventStore) Insert(ctx context.Context, e *domain.ModifyLiquidityEvent) error {
	if e == nil || e.PoolID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertLiquidityEventSQL,
		e.ID, e.PoolID, e.Timestamp, e.Sender, e.Origin, e.LiquidityDelta,
		e.Amount0, e.Amount1, e.AmountUSD, e.TickLower, e.TickUpper, e.TxHash, e.LogIndex,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert liquidity event: %w", err)
	}
	return nil
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *LiquidityEventStore) InsertBulk(ctx context.Context, events []*domain.ModifyLiquidityEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range events {
		if e == nil || e.PoolID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertLiquidityEventSQL,
			e.ID, e.PoolID, e.Timestamp, e.Sender, e.Origin, e.LiquidityDelta,
			e.Amount0, e.Amount1, e.AmountUSD, e.TickLower, e.TickUpper, e.TxHash, e.LogIndex,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert liquidity event in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByPoolID retrieves all events for a pool, ordered by (timestamp, log_index) ASC.
func (s *LiquidityEventStore) GetByPoolID(ctx context.Context, poolID string) ([]*domain.ModifyLiquidityEvent, error) {
	query := `
		SELECT id, pool_id, timestamp, sender, origin, liquidity_delta,
		       amount0, amount1, amount_usd, tick_lower, tick_upper, tx_hash, log_index
		FROM liquidity_events
		WHERE pool_id = $1
		ORDER BY timestamp ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("get liquidity events by pool: %w", err)
	}
	defer rows.Close()

	return scanLiquidityEvents(rows)
}

// GetByTimeRange retrieves events for a pool within [start, end) (inclusive start, exclusive end).
func (s *LiquidityEventStore) GetByTimeRange(ctx context.Context, poolID string, start, end int64) ([]*domain.ModifyLiquidityEvent, error) {
	query := `
		SELECT id, pool_id, timestamp, sender, origin, liquidity_delta,
		       amount0, amount1, amount_usd, tick_lower, tick_upper, tx_hash, log_index
		FROM liquidity_events
		WHERE pool_id = $1 AND timestamp >= $2 AND timestamp < $3
		ORDER BY timestamp ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query, poolID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get liquidity events by time range: %w", err)
	}
	defer rows.Close()

	return scanLiquidityEvents(rows)
}

// scanLiquidityEvents scans multiple rows into a slice of ModifyLiquidityEvent.
func scanLiquidityEvents(rows pgx.Rows) ([]*domain.ModifyLiquidityEvent, error) {
	var events []*domain.ModifyLiquidityEvent

	for rows.Next() {
		var e domain.ModifyLiquidityEvent

		err := rows.Scan(
			&e.ID, &e.PoolID, &e.Timestamp, &e.Sender, &e.Origin, &e.LiquidityDelta,
			&e.Amount0, &e.Amount1, &e.AmountUSD, &e.TickLower, &e.TickUpper, &e.TxHash, &e.LogIndex,
		)
		if err != nil {
			return nil, fmt.Errorf("scan liquidity event row: %w", err)
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liquidity event rows: %w", err)
	}

	return events, nil
}
