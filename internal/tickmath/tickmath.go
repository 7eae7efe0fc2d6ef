// Package tickmath provides price/tick conversion and big-integer-safe
// arithmetic helpers shared by the derivation pipeline.
package tickmath

import (
	"math"
	"math/big"
	"strconv"
)

// Tick bounds of a concentrated-liquidity pool. Prices outside this range
// are not representable on-chain; conversions clamp instead of erroring.
const (
	MinTick = -887272
	MaxTick = 887272
)

// liquidityScale downsizes raw liquidity for display (divide by 10^6).
var liquidityScale = new(big.Float).SetFloat64(1e6)

// TickToPrice0 returns the token0 price at a tick: 1.0001^tick.
// Ticks outside [MinTick, MaxTick] are clamped to the bound first.
func TickToPrice0(tick int) float64 {
	if tick < MinTick {
		tick = MinTick
	} else if tick > MaxTick {
		tick = MaxTick
	}
	return math.Pow(1.0001, float64(tick))
}

// TickToPrice1 returns the token1 price at a tick, the reciprocal of the
// token0 price.
func TickToPrice1(tick int) float64 {
	return 1 / TickToPrice0(tick)
}

// FeeRate converts a fee tier in parts-per-million to an effective rate.
func FeeRate(feeTierPPM int) float64 {
	return float64(feeTierPPM) / 1_000_000
}

// FeePercent converts a fee tier in parts-per-million to a display
// percentage (e.g. 3000 -> 0.3).
func FeePercent(feeTierPPM int) float64 {
	return float64(feeTierPPM) / 10_000
}

// ParseLiquidity parses a signed on-chain liquidity value. Values can exceed
// 2^53, so the primary path is arbitrary-precision. When the string is not a
// plain integer it falls back to float parsing and reports exact=false; this
// is the single observable precision-loss branch, callers must not fall back
// silently elsewhere. Returns nil for values that parse under neither path.
func ParseLiquidity(s string) (v *big.Int, exact bool) {
	if i, ok := new(big.Int).SetString(s, 10); ok {
		return i, true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	approx, _ := new(big.Float).SetFloat64(f).Int(nil)
	return approx, false
}

// ScaleLiquidity converts raw liquidity to a display number by dividing by
// 10^6. Only this final value is allowed to leave precise arithmetic.
func ScaleLiquidity(l *big.Int) float64 {
	if l == nil {
		return 0
	}
	scaled := new(big.Float).Quo(new(big.Float).SetInt(l), liquidityScale)
	f, _ := scaled.Float64()
	return f
}

// LiquidityFloat converts raw liquidity to float64 at its native scale,
// for outputs that carry raw units rather than display units.
func LiquidityFloat(l *big.Int) float64 {
	if l == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(l).Float64()
	return f
}
