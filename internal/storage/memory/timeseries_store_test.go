package memory

import (
	"context"
	"errors"
	"testing"

	"poolscope/internal/domain"
	"poolscope/internal/storage"
)

func TestTimeSeriesStore_InsertBulkAndGet(t *testing.T) {
	store := NewTimeSeriesStore()
	ctx := context.Background()

	points := []*domain.TimeSeriesPoint{
		{PoolID: "pool1", Date: "2024-03-02", Timestamp: 1709337600, Liquidity: 12, TVLUSD: 2000},
		{PoolID: "pool1", Date: "2024-03-01", Timestamp: 1709251200, Liquidity: 10, TVLUSD: 1000},
	}

	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByPoolID(ctx, "pool1")
	if err != nil {
		t.Fatalf("GetByPoolID failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(result))
	}
	if result[0].Date != "2024-03-01" || result[1].Date != "2024-03-02" {
		t.Errorf("Results not ordered by timestamp: %s, %s", result[0].Date, result[1].Date)
	}
}

func TestTimeSeriesStore_DuplicateDay(t *testing.T) {
	store := NewTimeSeriesStore()
	ctx := context.Background()

	points := []*domain.TimeSeriesPoint{
		{PoolID: "pool1", Timestamp: 1709251200},
	}
	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("First InsertBulk failed: %v", err)
	}

	err := store.InsertBulk(ctx, points)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTimeSeriesStore_GetByTimeRange_Inclusive(t *testing.T) {
	store := NewTimeSeriesStore()
	ctx := context.Background()

	points := []*domain.TimeSeriesPoint{
		{PoolID: "pool1", Timestamp: 1000},
		{PoolID: "pool1", Timestamp: 2000},
		{PoolID: "pool1", Timestamp: 3000},
	}
	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, "pool1", 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}

	if len(result) != 2 {
		t.Errorf("Expected 2 points (both ends inclusive), got %d", len(result))
	}
}

func TestTimeSeriesStore_InvalidInput(t *testing.T) {
	store := NewTimeSeriesStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.TimeSeriesPoint{nil})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil point, got %v", err)
	}

	err = store.InsertBulk(ctx, []*domain.TimeSeriesPoint{{PoolID: ""}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty PoolID, got %v", err)
	}
}
