package reconstruct

import (
	"math"
	"math/big"
	"time"

	"poolscope/internal/domain"
	"poolscope/internal/tickmath"
)

// runningState is the accumulator threaded through the replay fold. It is
// local to one reconstruction call; concurrent reconstructions never share
// one.
type runningState struct {
	liquidity *big.Int // active liquidity, arbitrary precision
	exact     bool     // false once any delta took the float fallback
	token0    float64  // running token0 balance
	token1    float64  // running token1 balance
	tvlUSD    float64  // running TVL in USD
	tick      int      // last known tick
	sqrtPrice string   // last known price root
}

// newRunningState starts the accumulator at zero balances with the pool's
// current tick/price, used only until the first real event overrides them.
func newRunningState(pool *domain.Pool) *runningState {
	return &runningState{
		liquidity: big.NewInt(0),
		exact:     true,
		tick:      pool.Tick,
		sqrtPrice: pool.SqrtPrice,
	}
}

// applyLiquidity folds one modification event into the state. Additions
// increase token balances, removals decrease them; balances and TVL clamp
// at zero so malformed or out-of-order deltas never surface as negative
// display values. TVL is recomputed with the pool's current token prices
// applied retroactively, a kept approximation of the upstream logic.
// Returns false when the delta is unparsable and the record was skipped.
func (st *runningState) applyLiquidity(e *domain.ModifyLiquidityEvent, pool *domain.Pool) bool {
	delta, exact := tickmath.ParseLiquidity(e.LiquidityDelta)
	if delta == nil {
		return false
	}
	if !exact {
		st.exact = false
	}

	st.liquidity.Add(st.liquidity, delta)
	if st.liquidity.Sign() < 0 {
		st.liquidity.SetInt64(0)
	}

	sign := 1.0
	if delta.Sign() < 0 {
		sign = -1.0
	}
	st.token0 = clampZero(st.token0 + sign*math.Abs(e.Amount0))
	st.token1 = clampZero(st.token1 + sign*math.Abs(e.Amount1))
	st.tvlUSD = clampZero(st.token0*pool.Token0Price + st.token1*pool.Token1Price)

	return true
}

// applySwap updates the price fields from a swap's authoritative post-trade
// tick and price root.
func (st *runningState) applySwap(e *domain.SwapEvent) {
	st.tick = e.Tick
	if e.SqrtPrice != "" {
		st.sqrtPrice = e.SqrtPrice
	}
}

// snapshot materializes the accumulator for one calendar day.
func (st *runningState) snapshot(poolID string, dayTs int64) *domain.TimeSeriesPoint {
	return &domain.TimeSeriesPoint{
		PoolID:       poolID,
		Date:         time.Unix(dayTs, 0).UTC().Format("2006-01-02"),
		Timestamp:    dayTs,
		Liquidity:    tickmath.ScaleLiquidity(st.liquidity),
		TVLUSD:       st.tvlUSD,
		Token0Amount: st.token0,
		Token1Amount: st.token1,
		Tick:         st.tick,
		SqrtPrice:    st.sqrtPrice,
	}
}

// parseDisplayLiquidity converts a raw liquidity string straight to the
// display scale, for the metadata-only fallback row.
func parseDisplayLiquidity(raw string) float64 {
	l, _ := tickmath.ParseLiquidity(raw)
	return tickmath.ScaleLiquidity(l)
}

func clampZero(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
