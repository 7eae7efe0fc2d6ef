package domain

// TimeSeriesPoint is one row of the reconstructed daily series. Rows are
// strictly ascending by Timestamp with exactly one row per UTC calendar day
// between the first and last observed event day.
type TimeSeriesPoint struct {
	PoolID       string  // pool the row belongs to
	Date         string  // UTC calendar date, YYYY-MM-DD
	Timestamp    int64   // UTC day start, Unix seconds
	Liquidity    float64 // active liquidity, scaled for display
	TVLUSD       float64 // total value locked in USD
	Token0Amount float64 // running token0 balance
	Token1Amount float64 // running token1 balance
	Tick         int     // last known tick on this day
	SqrtPrice    string  // last known price root on this day (decimal string)
	FeeUSD       float64 // fee revenue earned on this day
	VolumeUSD    float64 // trade volume on this day
	SwapCount    int     // number of swaps on this day
}

// Period selects the bucket size for fee/volume aggregation.
type Period string

// Supported aggregation periods.
const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"  // buckets start Monday 00:00 UTC
	PeriodMonth Period = "month" // buckets start on day 1 00:00 UTC
)

// PeriodAggregate is one fee/volume bucket. Bucket boundaries are a
// deterministic function of the period type.
type PeriodAggregate struct {
	Timestamp int64   // bucket start, Unix seconds UTC
	FeeUSD    float64 // summed fee revenue in the bucket
	VolumeUSD float64 // summed trade volume in the bucket
	Count     int     // number of events in the bucket
}

// TickNode is one row of the liquidity-by-tick histogram.
type TickNode struct {
	Tick            int     // tick index
	LiquidityNet    float64 // signed liquidity delta at this tick boundary
	LiquidityGross  float64 // total liquidity touching this tick
	LiquidityActive float64 // running in-range liquidity at this tick
	Price0          float64 // token0 price at this tick (1.0001^tick)
	Price1          float64 // token1 price at this tick (reciprocal)
}
