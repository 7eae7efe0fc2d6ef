// Package reconstruct replays liquidity-modification and swap events in
// chronological order to produce a dense, gap-free daily series of
// liquidity, TVL, token balances and price for one pool.
package reconstruct

import (
	"log"
	"sort"
	"time"

	"poolscope/internal/aggregate"
	"poolscope/internal/domain"
	"poolscope/internal/tickmath"
)

// DefaultLookbackDays bounds the reconstruction window.
const DefaultLookbackDays = 90

const secondsPerDay = 86400

// ReconstructState replays events from the last DefaultLookbackDays into a
// daily series ending today. See ReconstructStateAt.
func ReconstructState(liqEvents []*domain.ModifyLiquidityEvent, swapEvents []*domain.SwapEvent, pool *domain.Pool) []*domain.TimeSeriesPoint {
	return ReconstructStateAt(liqEvents, swapEvents, pool, time.Now().UTC(), DefaultLookbackDays)
}

// ReconstructStateAt produces one TimeSeriesPoint per UTC calendar day from
// the start of the lookback window through the day containing now, strictly
// ascending with no gaps. Input order does not matter; both streams are
// sorted before the replay. Days without activity carry the last known
// state forward with zero fee/volume. With no events in the window the
// result is a single snapshot built from pool metadata alone.
//
// Historical TVL is recomputed from running token balances with the pool's
// *current* token prices applied retroactively. This understates or
// overstates TVL whenever token price has moved; it is preserved behavior,
// not an oversight.
func ReconstructStateAt(liqEvents []*domain.ModifyLiquidityEvent, swapEvents []*domain.SwapEvent, pool *domain.Pool, now time.Time, lookbackDays int) []*domain.TimeSeriesPoint {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	windowStart := now.Unix() - int64(lookbackDays)*secondsPerDay

	liq := filterLiquidityEvents(liqEvents, windowStart)
	swaps := filterSwapEvents(swapEvents, windowStart)
	SortLiquidityEvents(liq)
	SortSwapEvents(swaps)

	state := newRunningState(pool)

	// No events in the window: a single row anchored on the metadata.
	if len(liq) == 0 && len(swaps) == 0 {
		point := state.snapshot(pool.ID, aggregate.DayStart(now.Unix()))
		point.Liquidity = parseDisplayLiquidity(pool.Liquidity)
		point.TVLUSD = pool.TVLUSD
		point.Token0Amount = pool.TVLToken0
		point.Token1Amount = pool.TVLToken1
		return []*domain.TimeSeriesPoint{point}
	}

	snapshots := make(map[int64]*domain.TimeSeriesPoint)

	// Window-start row from the initial state.
	startDay := aggregate.DayStart(windowStart)
	snapshots[startDay] = state.snapshot(pool.ID, startDay)

	skipped := 0
	for _, e := range liq {
		if !state.applyLiquidity(e, pool) {
			skipped++
			continue
		}
		day := aggregate.DayStart(e.Timestamp)
		snapshots[day] = state.snapshot(pool.ID, day)
	}
	if skipped > 0 {
		log.Printf("Reconstruction for pool %s skipped %d liquidity events with unparsable deltas", pool.ID, skipped)
	}
	if !state.exact {
		log.Printf("Reconstruction for pool %s lost precision on at least one liquidity delta (float fallback)", pool.ID)
	}

	// Swaps report authoritative post-trade price: update price fields in
	// place for days that already have a row, otherwise open a new row that
	// carries the running totals forward.
	for _, e := range swaps {
		state.applySwap(e)
		day := aggregate.DayStart(e.Timestamp)
		if point, ok := snapshots[day]; ok {
			point.Tick = state.tick
			point.SqrtPrice = state.sqrtPrice
		} else {
			snapshots[day] = state.snapshot(pool.ID, day)
		}
	}

	attachDailyFees(snapshots, swaps, pool.FeeTier)
	gapFill(snapshots, pool.ID, startDay, aggregate.DayStart(now.Unix()))

	result := make([]*domain.TimeSeriesPoint, 0, len(snapshots))
	for _, point := range snapshots {
		result = append(result, point)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result
}

// CountPrecisionFallbacks reports how many liquidity deltas parse only
// through the float fallback. Unparsable deltas are skipped events, not
// fallbacks, and are excluded. Callers feed the count to the precision
// metrics around a replay.
func CountPrecisionFallbacks(events []*domain.ModifyLiquidityEvent) int {
	n := 0
	for _, e := range events {
		if v, exact := tickmath.ParseLiquidity(e.LiquidityDelta); v != nil && !exact {
			n++
		}
	}
	return n
}

// attachDailyFees merges the daily fee/volume aggregates into the matching
// day rows. Days with no aggregate entry keep zeros.
func attachDailyFees(snapshots map[int64]*domain.TimeSeriesPoint, swaps []*domain.SwapEvent, feeTierPPM int) {
	for _, bucket := range aggregate.CalculateDailyFees(swaps, feeTierPPM) {
		if point, ok := snapshots[bucket.Timestamp]; ok {
			point.FeeUSD = bucket.FeeUSD
			point.VolumeUSD = bucket.VolumeUSD
			point.SwapCount = bucket.Count
		}
	}
}

// gapFill walks every calendar day in [firstDay, lastDay] and synthesizes
// rows for days with no snapshot by carrying the previous day's state
// forward with zero fee/volume: a quiet day still reports the standing
// liquidity level.
func gapFill(snapshots map[int64]*domain.TimeSeriesPoint, poolID string, firstDay, lastDay int64) {
	prev := snapshots[firstDay]
	for day := firstDay; day <= lastDay; day += secondsPerDay {
		if point, ok := snapshots[day]; ok {
			prev = point
			continue
		}
		point := *prev
		point.Date = time.Unix(day, 0).UTC().Format("2006-01-02")
		point.Timestamp = day
		point.FeeUSD = 0
		point.VolumeUSD = 0
		point.SwapCount = 0
		snapshots[day] = &point
		prev = &point
	}
}

func filterLiquidityEvents(events []*domain.ModifyLiquidityEvent, since int64) []*domain.ModifyLiquidityEvent {
	result := make([]*domain.ModifyLiquidityEvent, 0, len(events))
	for _, e := range events {
		if e.Timestamp >= since {
			result = append(result, e)
		}
	}
	return result
}

func filterSwapEvents(events []*domain.SwapEvent, since int64) []*domain.SwapEvent {
	result := make([]*domain.SwapEvent, 0, len(events))
	for _, e := range events {
		if e.Timestamp >= since {
			result = append(result, e)
		}
	}
	return result
}
