// Package aggregate reduces swap events into per-period fee and volume
// totals.
package aggregate

import (
	"math"
	"sort"

	"poolscope/internal/domain"
	"poolscope/internal/tickmath"
)

// CalculateDailyFees reduces swap events into one aggregate per UTC
// calendar day present in the input. Fee revenue is |amountUSD| times the
// pool's fee rate. Days with zero swaps are simply absent: gap-filling is
// the reconstructor's responsibility. Events with a zero or unparsable
// timestamp or amount are skipped, never erroring the batch.
func CalculateDailyFees(swaps []*domain.SwapEvent, feeTierPPM int) []*domain.PeriodAggregate {
	feeRate := tickmath.FeeRate(feeTierPPM)
	buckets := make(map[int64]*domain.PeriodAggregate)

	for _, s := range swaps {
		if s.Timestamp <= 0 {
			continue
		}
		volume := math.Abs(s.AmountUSD)
		if volume == 0 || math.IsNaN(volume) || math.IsInf(volume, 0) {
			continue
		}

		day := DayStart(s.Timestamp)
		bucket, ok := buckets[day]
		if !ok {
			bucket = &domain.PeriodAggregate{Timestamp: day}
			buckets[day] = bucket
		}

		bucket.FeeUSD += volume * feeRate
		bucket.VolumeUSD += volume
		bucket.Count++
	}

	result := make([]*domain.PeriodAggregate, 0, len(buckets))
	for _, bucket := range buckets {
		result = append(result, bucket)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result
}
