package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"poolscope/internal/domain"
	"poolscope/internal/storage"
)

// SwapEventStore implements storage.SwapEventStore using PostgreSQL.
type SwapEventStore struct {
	pool *Pool
}

// NewSwapEventStore creates a new SwapEventStore.
func NewSwapEventStore(pool *Pool) *SwapEventStore {
	return &SwapEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SwapEventStore = (*SwapEventStore)(nil)

const insertSwapEventSQL = `
	INSERT INTO swap_events (
		id, pool_id, timestamp, sender, origin,
		amount0, amount1, amount_usd, sqrt_price, tick, tx_hash, log_index
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

// Insert adds a new swap event. Returns ErrDuplicateKey if (pool_id, tx_hash, log_index) exists.
func (s *SwapEventStore) Insert(ctx context.Context, e *domain.SwapEvent) error {
	if e == nil || e.PoolID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertSwapEventSQL,
		e.ID, e.PoolID, e.Timestamp, e.Sender, e.Origin,
		e.Amount0, e.Amount1, e.AmountUSD, e.SqrtPrice, e.Tick, e.TxHash, e.LogIndex,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert swap event: %w", err)
	}
	return nil
}

// InsertBulk adds multiple swap events atomically. Fails entire batch on any duplicate.
func (s *SwapEventStore) InsertBulk(ctx context.Context, events []*domain.SwapEvent) error {
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
		_, err := tx.Exec(ctx, insertSwapEventSQL,
			e.ID, e.PoolID, e.Timestamp, e.Sender, e.Origin,
			e.Amount0, e.Amount1, e.AmountUSD, e.SqrtPrice, e.Tick, e.TxHash, e.LogIndex,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert swap event in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByPoolID retrieves all events for a pool, ordered by (timestamp, log_index) ASC.
func (s *SwapEventStore) GetByPoolID(ctx context.Context, poolID string) ([]*domain.SwapEvent, error) {
	query := `
		SELECT id, pool_id, timestamp, sender, origin,
		       amount0, amount1, amount_usd, sqrt_price, tick, tx_hash, log_index
		FROM swap_events
		WHERE pool_id = $1
		ORDER BY timestamp ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("get swap events by pool: %w", err)
	}
	defer rows.Close()

	return scanSwapEvents(rows)
}

// GetByTimeRange retrieves events for a pool within [start, end) (inclusive start, exclusive end).
func (s *SwapEventStore) GetByTimeRange(ctx context.Context, poolID string, start, end int64) ([]*domain.SwapEvent, error) {
	query := `
		SELECT id, pool_id, timestamp, sender, origin,
		       amount0, amount1, amount_usd, sqrt_price, tick, tx_hash, log_index
		FROM swap_events
		WHERE pool_id = $1 AND timestamp >= $2 AND timestamp < $3
		ORDER BY timestamp ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query, poolID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get swap events by time range: %w", err)
	}
	defer rows.Close()

	return scanSwapEvents(rows)
}

// LatestTimestamp returns the newest event timestamp for a pool, or 0 when none exist.
func (s *SwapEventStore) LatestTimestamp(ctx context.Context, poolID string) (int64, error) {
	query := `
		SELECT COALESCE(MAX(timestamp), 0)
		FROM swap_events
		WHERE pool_id = $1
	`

	var latest int64
	if err := s.pool.QueryRow(ctx, query, poolID).Scan(&latest); err != nil {
		return 0, fmt.Errorf("get latest swap timestamp: %w", err)
	}
	return latest, nil
}

// scanSwapEvents scans multiple rows into a slice of SwapEvent.
func scanSwapEvents(rows pgx.Rows) ([]*domain.SwapEvent, error) {
	var events []*domain.SwapEvent

	for rows.Next() {
		var e domain.SwapEvent

		err := rows.Scan(
			&e.ID, &e.PoolID, &e.Timestamp, &e.Sender, &e.Origin,
			&e.Amount0, &e.Amount1, &e.AmountUSD, &e.SqrtPrice, &e.Tick, &e.TxHash, &e.LogIndex,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap event row: %w", err)
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap event rows: %w", err)
	}

	return events, nil
}
