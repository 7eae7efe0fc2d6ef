package clickhouse

import (
	"context"
	"fmt"

	"poolscope/internal/domain"
	"poolscope/internal/storage"
)

// TimeSeriesStore implements storage.TimeSeriesStore using ClickHouse.
type TimeSeriesStore struct {
	conn *Conn
}

// NewTimeSeriesStore creates a new TimeSeriesStore.
func NewTimeSeriesStore(conn *Conn) *TimeSeriesStore {
	return &TimeSeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TimeSeriesStore = (*TimeSeriesStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (pool_id, timestamp).
func (s *TimeSeriesStore) InsertBulk(ctx context.Context, points []*domain.TimeSeriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		poolID    string
		timestamp int64
	}
	seen := make(map[key]struct{})
	for _, p := range points {
		if p == nil || p.PoolID == "" {
			return storage.ErrInvalidInput
		}
		k := key{p.PoolID, p.Timestamp}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, p := range points {
		exists, err := s.exists(ctx, p.PoolID, p.Timestamp)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO pool_timeseries (
			pool_id, date, timestamp, liquidity, tvl_usd,
			token0_amount, token1_amount, tick, sqrt_price,
			fee_usd, volume_usd, swap_count
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.PoolID, p.Date, uint64(p.Timestamp), p.Liquidity, p.TVLUSD,
			p.Token0Amount, p.Token1Amount, int64(p.Tick), p.SqrtPrice,
			p.FeeUSD, p.VolumeUSD, uint32(p.SwapCount),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPoolID retrieves all points for a pool, ordered by timestamp ASC.
func (s *TimeSeriesStore) GetByPoolID(ctx context.Context, poolID string) ([]*domain.TimeSeriesPoint, error) {
	query := `
		SELECT pool_id, date, timestamp, liquidity, tvl_usd,
		       token0_amount, token1_amount, tick, sqrt_price,
		       fee_usd, volume_usd, swap_count
		FROM pool_timeseries
		WHERE pool_id = ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("query by pool id: %w", err)
	}
	defer rows.Close()

	return scanTimeSeries(rows)
}

// GetByTimeRange retrieves points for a pool within [start, end] (inclusive).
func (s *TimeSeriesStore) GetByTimeRange(ctx context.Context, poolID string, start, end int64) ([]*domain.TimeSeriesPoint, error) {
	query := `
		SELECT pool_id, date, timestamp, liquidity, tvl_usd,
		       token0_amount, token1_amount, tick, sqrt_price,
		       fee_usd, volume_usd, swap_count
		FROM pool_timeseries
		WHERE pool_id = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, poolID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanTimeSeries(rows)
}

// exists checks if a point with the given key exists.
func (s *TimeSeriesStore) exists(ctx context.Context, poolID string, timestamp int64) (bool, error) {
	query := `
		SELECT count(*) FROM pool_timeseries
		WHERE pool_id = ? AND timestamp = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, poolID, uint64(timestamp)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanTimeSeries scans multiple rows.
func scanTimeSeries(rows chRows) ([]*domain.TimeSeriesPoint, error) {
	var points []*domain.TimeSeriesPoint

	for rows.Next() {
		var p domain.TimeSeriesPoint
		var timestamp uint64
		var tick int64
		var swapCount uint32

		err := rows.Scan(
			&p.PoolID, &p.Date, &timestamp, &p.Liquidity, &p.TVLUSD,
			&p.Token0Amount, &p.Token1Amount, &tick, &p.SqrtPrice,
			&p.FeeUSD, &p.VolumeUSD, &swapCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan time series row: %w", err)
		}

		p.Timestamp = int64(timestamp)
		p.Tick = int(tick)
		p.SwapCount = int(swapCount)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time series rows: %w", err)
	}

	return points, nil
}
