package aggregate

import (
	"sort"
	"time"

	"poolscope/internal/domain"
)

const secondsPerDay = 86400

// DayStart returns the UTC day boundary at or before ts.
func DayStart(ts int64) int64 {
	return (ts / secondsPerDay) * secondsPerDay
}

// WeekStart returns the most recent Monday 00:00 UTC at or before ts.
func WeekStart(ts int64) int64 {
	t := time.Unix(DayStart(ts), 0).UTC()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -daysSinceMonday).Unix()
}

// MonthStart returns the first of the month 00:00 UTC at or before ts.
func MonthStart(ts int64) int64 {
	t := time.Unix(ts, 0).UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).Unix()
}

// AggregateByPeriod re-buckets a daily aggregate series. Day buckets pass
// through unchanged; week buckets start Monday, month buckets start on day
// 1. Bucket boundaries are deterministic functions of the period type.
func AggregateByPeriod(daily []*domain.PeriodAggregate, period domain.Period) []*domain.PeriodAggregate {
	if period == domain.PeriodDay {
		return daily
	}

	bucketStart := WeekStart
	if period == domain.PeriodMonth {
		bucketStart = MonthStart
	}

	buckets := make(map[int64]*domain.PeriodAggregate)
	for _, day := range daily {
		start := bucketStart(day.Timestamp)
		bucket, ok := buckets[start]
		if !ok {
			bucket = &domain.PeriodAggregate{Timestamp: start}
			buckets[start] = bucket
		}
		bucket.FeeUSD += day.FeeUSD
		bucket.VolumeUSD += day.VolumeUSD
		bucket.Count += day.Count
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
