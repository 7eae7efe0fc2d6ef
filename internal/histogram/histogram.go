// Package histogram folds open positions into a per-tick liquidity
// distribution: net and gross liquidity at each initialized tick plus a
// running active-liquidity curve swept from the lowest tick upward.
package histogram

import (
	"log"
	"math/big"
	"sort"

	"poolscope/internal/domain"
	"poolscope/internal/observability"
	"poolscope/internal/tickmath"
)

const scaffoldHalfWidth = 50 // tick spacings on each side of the current tick

// tickAccumulator collects the exact per-tick sums before conversion.
type tickAccumulator struct {
	net   *big.Int
	gross *big.Int
}

// Builder turns position snapshots into tick histograms.
type Builder struct {
	logger  *log.Logger
	metrics *observability.Metrics
}

// Options configures a Builder.
type Options struct {
	Logger  *log.Logger
	Metrics *observability.Metrics // optional
}

// NewBuilder returns a Builder. A nil logger disables logging.
func NewBuilder(opts Options) *Builder {
	return &Builder{logger: opts.Logger, metrics: opts.Metrics}
}

// Build folds every position into its two boundary ticks and sweeps the
// result into an active-liquidity curve. At a position's lower tick its
// liquidity enters the net sum positively; at the upper tick it leaves
// negatively. Gross liquidity counts the magnitude at both boundaries.
// The returned nodes are sorted by tick ascending. Positions with an
// unparsable or non-positive liquidity are skipped. When no position
// yields a tick, Build falls back to an all-zero scaffold around the
// pool's current tick so downstream charting always has an x-axis.
func (b *Builder) Build(positions []*domain.Position, pool *domain.Pool) []*domain.TickNode {
	ticks := make(map[int]*tickAccumulator)
	skipped := 0
	inexact := 0

	for _, pos := range positions {
		liquidity, exact := tickmath.ParseLiquidity(pos.Liquidity)
		if liquidity == nil || liquidity.Sign() <= 0 {
			skipped++
			continue
		}
		if !exact {
			inexact++
		}

		lower := accumulatorAt(ticks, pos.TickLower)
		lower.net.Add(lower.net, liquidity)
		lower.gross.Add(lower.gross, liquidity)

		upper := accumulatorAt(ticks, pos.TickUpper)
		upper.net.Sub(upper.net, liquidity)
		upper.gross.Add(upper.gross, liquidity)
	}

	if skipped > 0 && b.logger != nil {
		b.logger.Printf("Tick histogram for pool %s skipped %d positions with unusable liquidity", pool.ID, skipped)
	}
	if inexact > 0 {
		if b.metrics != nil {
			b.metrics.PrecisionFallbacks.Add(float64(inexact))
		}
		if b.logger != nil {
			b.logger.Printf("Tick histogram for pool %s lost precision on %d positions (float fallback)", pool.ID, inexact)
		}
	}

	if len(ticks) == 0 {
		return b.scaffold(pool)
	}

	// Tick nodes carry raw liquidity units: a position of liquidity L
	// contributes exactly +L/-L at its boundaries, no display scaling.
	nodes := make([]*domain.TickNode, 0, len(ticks))
	for tick, acc := range ticks {
		nodes = append(nodes, &domain.TickNode{
			Tick:           tick,
			LiquidityNet:   tickmath.LiquidityFloat(acc.net),
			LiquidityGross: tickmath.LiquidityFloat(acc.gross),
			Price0:         tickmath.TickToPrice0(tick),
			Price1:         tickmath.TickToPrice1(tick),
		})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Tick < nodes[j].Tick })

	// Sweep upward: active liquidity at a tick is the prefix sum of net
	// deltas up to and including it, floored at zero.
	active := 0.0
	for _, node := range nodes {
		active += node.LiquidityNet
		if active < 0 {
			active = 0
		}
		node.LiquidityActive = active
	}

	return nodes
}

// scaffold emits an evenly spaced zero-liquidity grid centered on the
// pool's current tick, snapped to the tick spacing.
func (b *Builder) scaffold(pool *domain.Pool) []*domain.TickNode {
	spacing := pool.TickSpacing
	if spacing <= 0 {
		spacing = 60
	}
	center := (pool.Tick / spacing) * spacing

	nodes := make([]*domain.TickNode, 0, 2*scaffoldHalfWidth+1)
	for i := -scaffoldHalfWidth; i <= scaffoldHalfWidth; i++ {
		tick := center + i*spacing
		if tick < tickmath.MinTick || tick > tickmath.MaxTick {
			continue
		}
		nodes = append(nodes, &domain.TickNode{
			Tick:   tick,
			Price0: tickmath.TickToPrice0(tick),
			Price1: tickmath.TickToPrice1(tick),
		})
	}
	return nodes
}

func accumulatorAt(ticks map[int]*tickAccumulator, tick int) *tickAccumulator {
	acc, ok := ticks[tick]
	if !ok {
		acc = &tickAccumulator{net: big.NewInt(0), gross: big.NewInt(0)}
		ticks[tick] = acc
	}
	return acc
}
