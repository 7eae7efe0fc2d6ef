package aggregate

import (
	"math"
	"testing"

	"poolscope/internal/domain"
)

// 2023-11-14 22:13:20 UTC
const baseTs int64 = 1700000000

func makeSwap(ts int64, amountUSD float64) *domain.SwapEvent {
	return &domain.SwapEvent{
		ID:        "e",
		PoolID:    "0xpool",
		Timestamp: ts,
		AmountUSD: amountUSD,
	}
}

func TestCalculateDailyFees_Empty(t *testing.T) {
	result := CalculateDailyFees(nil, 3000)
	if len(result) != 0 {
		t.Errorf("expected empty result, got %d buckets", len(result))
	}
}

func TestCalculateDailyFees_SingleDay(t *testing.T) {
	swaps := []*domain.SwapEvent{
		makeSwap(baseTs, 1000),
		makeSwap(baseTs+60, 500),
		makeSwap(baseTs+120, -300), // negative notional counts by magnitude
	}

	result := CalculateDailyFees(swaps, 3000)
	if len(result) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(result))
	}

	bucket := result[0]
	if bucket.Count != 3 {
		t.Errorf("expected count 3, got %d", bucket.Count)
	}
	if bucket.VolumeUSD != 1800 {
		t.Errorf("expected volume 1800, got %v", bucket.VolumeUSD)
	}
	// 0.3% of 1800
	if math.Abs(bucket.FeeUSD-5.4) > 1e-9 {
		t.Errorf("expected fee 5.4, got %v", bucket.FeeUSD)
	}
	if bucket.Timestamp != DayStart(baseTs) {
		t.Errorf("expected bucket at day start %d, got %d", DayStart(baseTs), bucket.Timestamp)
	}
}

func TestCalculateDailyFees_MultipleDaysSorted(t *testing.T) {
	swaps := []*domain.SwapEvent{
		makeSwap(baseTs+2*secondsPerDay, 100),
		makeSwap(baseTs, 100),
		makeSwap(baseTs+secondsPerDay, 100),
	}

	result := CalculateDailyFees(swaps, 500)
	if len(result) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(result))
	}
	for i := 1; i < len(result); i++ {
		if result[i].Timestamp <= result[i-1].Timestamp {
			t.Errorf("buckets not ascending at %d: %d <= %d", i, result[i].Timestamp, result[i-1].Timestamp)
		}
	}
}

func TestCalculateDailyFees_MalformedSkipped(t *testing.T) {
	swaps := []*domain.SwapEvent{
		makeSwap(0, 100),                // zero timestamp
		makeSwap(baseTs, 0),             // zero amount
		makeSwap(baseTs, math.NaN()),    // unparsable amount upstream
		makeSwap(baseTs, math.Inf(1)),   // overflowed amount upstream
		makeSwap(baseTs, 250),           // the only valid record
	}

	result := CalculateDailyFees(swaps, 3000)
	if len(result) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(result))
	}
	if result[0].Count != 1 || result[0].VolumeUSD != 250 {
		t.Errorf("expected only the valid record aggregated, got %+v", result[0])
	}
}
