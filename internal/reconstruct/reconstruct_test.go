package reconstruct

import (
	"testing"
	"time"

	"poolscope/internal/domain"
)

var testNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

func testPool() *domain.Pool {
	return &domain.Pool{
		ID:          "0xpool",
		Liquidity:   "5000000",
		TVLUSD:      1_000_000,
		TVLToken0:   250,
		TVLToken1:   500_000,
		Token0Price: 2000,
		Token1Price: 1,
		Tick:        203450,
		SqrtPrice:   "79228162514264337593543950336",
		FeeTier:     3000,
		TickSpacing: 60,
	}
}

func makeLiq(ts int64, delta string, amount0, amount1 float64) *domain.ModifyLiquidityEvent {
	return &domain.ModifyLiquidityEvent{
		ID:             "liq",
		PoolID:         "0xpool",
		Timestamp:      ts,
		LiquidityDelta: delta,
		Amount0:        amount0,
		Amount1:        amount1,
	}
}

func makeSwapEvent(ts int64, tick int, amountUSD float64) *domain.SwapEvent {
	return &domain.SwapEvent{
		ID:        "swap",
		PoolID:    "0xpool",
		Timestamp: ts,
		Tick:      tick,
		SqrtPrice: "80000000000000000000000000000",
		AmountUSD: amountUSD,
	}
}

// daysAgo returns a timestamp n days before testNow, at 06:00 UTC.
func daysAgo(n int) int64 {
	return testNow.AddDate(0, 0, -n).Truncate(24*time.Hour).Unix() + 6*3600
}

func TestReconstructState_NoEvents(t *testing.T) {
	pool := testPool()
	series := ReconstructStateAt(nil, nil, pool, testNow, 90)

	if len(series) != 1 {
		t.Fatalf("expected a single metadata row, got %d", len(series))
	}
	point := series[0]
	if point.TVLUSD != pool.TVLUSD {
		t.Errorf("expected TVL %v from metadata, got %v", pool.TVLUSD, point.TVLUSD)
	}
	if point.Token0Amount != pool.TVLToken0 || point.Token1Amount != pool.TVLToken1 {
		t.Errorf("expected token balances from metadata, got %v/%v", point.Token0Amount, point.Token1Amount)
	}
	if point.Liquidity != 5.0 { // 5000000 scaled by 10^6
		t.Errorf("expected display liquidity 5.0, got %v", point.Liquidity)
	}
	if point.Tick != pool.Tick {
		t.Errorf("expected metadata tick, got %d", point.Tick)
	}
}

func TestReconstructState_AscendingGapFree(t *testing.T) {
	liq := []*domain.ModifyLiquidityEvent{
		makeLiq(daysAgo(20), "10000000", 5, 10000),
		makeLiq(daysAgo(3), "4000000", 2, 4000),
	}
	swaps := []*domain.SwapEvent{
		makeSwapEvent(daysAgo(10), 203400, 1500),
	}

	series := ReconstructStateAt(liq, swaps, testPool(), testNow, 30)
	if len(series) != 31 {
		t.Fatalf("expected 31 daily rows over a 30-day window, got %d", len(series))
	}

	seen := make(map[int64]bool)
	for i, point := range series {
		if seen[point.Timestamp] {
			t.Errorf("duplicate day at %d", point.Timestamp)
		}
		seen[point.Timestamp] = true
		if i > 0 {
			gap := point.Timestamp - series[i-1].Timestamp
			if gap != secondsPerDay {
				t.Errorf("gap of %d seconds between rows %d and %d", gap, i-1, i)
			}
		}
	}
}

func TestReconstructState_LiquidityAccumulates(t *testing.T) {
	liq := []*domain.ModifyLiquidityEvent{
		makeLiq(daysAgo(20), "10000000", 5, 10000),
		makeLiq(daysAgo(10), "-4000000", 2, 4000),
	}

	series := ReconstructStateAt(liq, nil, testPool(), testNow, 30)

	byDay := make(map[int64]*domain.TimeSeriesPoint)
	for _, point := range series {
		byDay[point.Timestamp] = point
	}

	afterAdd := byDay[dayStartOf(daysAgo(20))]
	if afterAdd.Liquidity != 10.0 {
		t.Errorf("expected display liquidity 10.0 after add, got %v", afterAdd.Liquidity)
	}
	afterRemove := byDay[dayStartOf(daysAgo(10))]
	if afterRemove.Liquidity != 6.0 {
		t.Errorf("expected display liquidity 6.0 after remove, got %v", afterRemove.Liquidity)
	}
	// Carried forward to the final day.
	if series[len(series)-1].Liquidity != 6.0 {
		t.Errorf("expected final liquidity 6.0, got %v", series[len(series)-1].Liquidity)
	}
}

func TestReconstructState_SameDayRoundTrip(t *testing.T) {
	ts := daysAgo(5)
	liq := []*domain.ModifyLiquidityEvent{
		makeLiq(ts, "7000000", 3, 6000),
		makeLiq(ts+600, "-7000000", 3, 6000),
	}

	series := ReconstructStateAt(liq, nil, testPool(), testNow, 30)
	for _, point := range series {
		if point.Timestamp == dayStartOf(ts) {
			if point.Liquidity != 0 {
				t.Errorf("expected add+remove round trip back to 0, got %v", point.Liquidity)
			}
			if point.Token0Amount != 0 || point.Token1Amount != 0 {
				t.Errorf("expected token balances back to 0, got %v/%v", point.Token0Amount, point.Token1Amount)
			}
			return
		}
	}
	t.Fatal("no row emitted for the event day")
}

func TestReconstructState_NeverNegative(t *testing.T) {
	// Removal before any addition, plus an unparsable delta.
	liq := []*domain.ModifyLiquidityEvent{
		makeLiq(daysAgo(20), "-9000000", 4, 8000),
		makeLiq(daysAgo(15), "garbage", 1, 2000),
		makeLiq(daysAgo(10), "3000000", 1, 2000),
	}

	series := ReconstructStateAt(liq, nil, testPool(), testNow, 30)
	for _, point := range series {
		if point.Liquidity < 0 {
			t.Errorf("negative liquidity %v on %s", point.Liquidity, point.Date)
		}
		if point.TVLUSD < 0 {
			t.Errorf("negative TVL %v on %s", point.TVLUSD, point.Date)
		}
		if point.Token0Amount < 0 || point.Token1Amount < 0 {
			t.Errorf("negative balance on %s", point.Date)
		}
	}
}

func TestReconstructState_SwapUpdatesPrice(t *testing.T) {
	liq := []*domain.ModifyLiquidityEvent{
		makeLiq(daysAgo(10), "10000000", 5, 10000),
	}
	swaps := []*domain.SwapEvent{
		makeSwapEvent(daysAgo(10)+3600, 200000, 1500), // same day as the add
		makeSwapEvent(daysAgo(4), 199000, 800),        // swap-only day
	}

	series := ReconstructStateAt(liq, swaps, testPool(), testNow, 30)
	byDay := make(map[int64]*domain.TimeSeriesPoint)
	for _, point := range series {
		byDay[point.Timestamp] = point
	}

	sameDay := byDay[dayStartOf(daysAgo(10))]
	if sameDay.Tick != 200000 {
		t.Errorf("expected swap to overwrite tick in place, got %d", sameDay.Tick)
	}
	if sameDay.Liquidity != 10.0 {
		t.Errorf("swap must not disturb liquidity, got %v", sameDay.Liquidity)
	}

	swapOnly := byDay[dayStartOf(daysAgo(4))]
	if swapOnly.Tick != 199000 {
		t.Errorf("expected swap-only day tick 199000, got %d", swapOnly.Tick)
	}
	if swapOnly.Liquidity != 10.0 {
		t.Errorf("swap-only day must carry running liquidity forward, got %v", swapOnly.Liquidity)
	}
}

func TestReconstructState_DailyFeesMerged(t *testing.T) {
	swaps := []*domain.SwapEvent{
		makeSwapEvent(daysAgo(6), 203000, 1000),
		makeSwapEvent(daysAgo(6)+60, 203100, 500),
	}

	series := ReconstructStateAt(nil, swaps, testPool(), testNow, 30)
	byDay := make(map[int64]*domain.TimeSeriesPoint)
	for _, point := range series {
		byDay[point.Timestamp] = point
	}

	active := byDay[dayStartOf(daysAgo(6))]
	if active.SwapCount != 2 || active.VolumeUSD != 1500 {
		t.Errorf("expected 2 swaps / $1500 volume, got %d / %v", active.SwapCount, active.VolumeUSD)
	}
	// 0.3% fee tier
	if diff := active.FeeUSD - 4.5; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected $4.50 fees, got %v", active.FeeUSD)
	}

	quiet := byDay[dayStartOf(daysAgo(5))]
	if quiet.SwapCount != 0 || quiet.FeeUSD != 0 || quiet.VolumeUSD != 0 {
		t.Errorf("gap-filled day must have zero fees, got %+v", quiet)
	}
}

func TestReconstructState_EventsOutsideWindowIgnored(t *testing.T) {
	liq := []*domain.ModifyLiquidityEvent{
		makeLiq(daysAgo(120), "99000000", 50, 100000), // outside 30-day window
		makeLiq(daysAgo(5), "2000000", 1, 2000),
	}

	series := ReconstructStateAt(liq, nil, testPool(), testNow, 30)
	last := series[len(series)-1]
	if last.Liquidity != 2.0 {
		t.Errorf("expected only in-window events applied, got liquidity %v", last.Liquidity)
	}
}

func TestCountPrecisionFallbacks(t *testing.T) {
	events := []*domain.ModifyLiquidityEvent{
		makeLiq(daysAgo(3), "5000000", 1, 2000),   // exact
		makeLiq(daysAgo(2), "1.5e7", 1, 2000),     // float fallback
		makeLiq(daysAgo(1), "not-a-number", 0, 0), // skipped, not a fallback
	}

	if got := CountPrecisionFallbacks(events); got != 1 {
		t.Errorf("expected 1 fallback, got %d", got)
	}
	if got := CountPrecisionFallbacks(nil); got != 0 {
		t.Errorf("expected 0 fallbacks for no events, got %d", got)
	}
}

func dayStartOf(ts int64) int64 {
	return (ts / secondsPerDay) * secondsPerDay
}
