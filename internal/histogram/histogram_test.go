package histogram

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"poolscope/internal/domain"
	"poolscope/internal/observability"
	"poolscope/internal/tickmath"
)

func histPool() *domain.Pool {
	return &domain.Pool{
		ID:          "0xpool",
		Tick:        150,
		TickSpacing: 60,
		FeeTier:     3000,
	}
}

func pos(lower, upper int, liquidity string) *domain.Position {
	return &domain.Position{ID: "pos", TickLower: lower, TickUpper: upper, Liquidity: liquidity}
}

func TestBuild_SinglePosition(t *testing.T) {
	b := NewBuilder(Options{})
	nodes := b.Build([]*domain.Position{pos(100, 200, "50")}, histPool())

	if len(nodes) != 2 {
		t.Fatalf("expected 2 boundary ticks, got %d", len(nodes))
	}

	lower, upper := nodes[0], nodes[1]
	if lower.Tick != 100 || upper.Tick != 200 {
		t.Fatalf("expected ticks 100 and 200, got %d and %d", lower.Tick, upper.Tick)
	}
	if lower.LiquidityNet != 50 || lower.LiquidityGross != 50 {
		t.Errorf("lower boundary: expected net/gross 50, got %v/%v", lower.LiquidityNet, lower.LiquidityGross)
	}
	if upper.LiquidityNet != -50 || upper.LiquidityGross != 50 {
		t.Errorf("upper boundary: expected net -50 gross 50, got %v/%v", upper.LiquidityNet, upper.LiquidityGross)
	}

	// Active liquidity: 50 inside the range, 0 at and above the upper tick.
	if lower.LiquidityActive != 50 {
		t.Errorf("expected active 50 at lower tick, got %v", lower.LiquidityActive)
	}
	if upper.LiquidityActive != 0 {
		t.Errorf("expected active 0 at upper tick, got %v", upper.LiquidityActive)
	}
}

func TestBuild_OverlappingPositions(t *testing.T) {
	b := NewBuilder(Options{})
	positions := []*domain.Position{
		pos(100, 300, "10"),
		pos(200, 300, "5"),
	}
	nodes := b.Build(positions, histPool())

	if len(nodes) != 3 {
		t.Fatalf("expected 3 ticks, got %d", len(nodes))
	}

	// Shared upper boundary at 300 merges both exits.
	top := nodes[2]
	if top.Tick != 300 || top.LiquidityNet != -15 || top.LiquidityGross != 15 {
		t.Errorf("unexpected shared boundary %+v", top)
	}

	wantActive := []float64{10, 15, 0}
	for i, node := range nodes {
		if node.LiquidityActive != wantActive[i] {
			t.Errorf("tick %d: expected active %v, got %v", node.Tick, wantActive[i], node.LiquidityActive)
		}
	}
}

func TestBuild_PricesAttached(t *testing.T) {
	b := NewBuilder(Options{})
	nodes := b.Build([]*domain.Position{pos(0, 6932, "1")}, histPool())

	if nodes[0].Price0 != 1.0 {
		t.Errorf("expected price 1.0 at tick 0, got %v", nodes[0].Price0)
	}
	if got := nodes[1].Price0; got < 1.99 || got > 2.01 {
		t.Errorf("expected price near 2.0 at tick 6932, got %v", got)
	}
	if got := nodes[1].Price1; got < 0.49 || got > 0.51 {
		t.Errorf("expected inverse price near 0.5, got %v", got)
	}
}

func TestBuild_SkipsUnusablePositions(t *testing.T) {
	b := NewBuilder(Options{})
	positions := []*domain.Position{
		pos(100, 200, "not-a-number"),
		pos(100, 200, "0"),
		pos(100, 200, "-5"),
		pos(100, 200, "2"),
	}
	nodes := b.Build(positions, histPool())

	if len(nodes) != 2 {
		t.Fatalf("expected only the valid position's ticks, got %d nodes", len(nodes))
	}
	if nodes[0].LiquidityNet != 2 {
		t.Errorf("expected net 2 from the single valid position, got %v", nodes[0].LiquidityNet)
	}
}

func TestBuild_RawLiquidityUnits(t *testing.T) {
	// Large on-chain magnitudes must pass through at their native scale.
	b := NewBuilder(Options{})
	nodes := b.Build([]*domain.Position{pos(-60, 60, "340282366920938463")}, histPool())

	want := 3.40282366920938463e17
	if nodes[0].LiquidityNet != want {
		t.Errorf("expected net %v at lower tick, got %v", want, nodes[0].LiquidityNet)
	}
	if nodes[1].LiquidityNet != -want {
		t.Errorf("expected net %v at upper tick, got %v", -want, nodes[1].LiquidityNet)
	}
	if nodes[0].LiquidityActive != want {
		t.Errorf("expected active %v in range, got %v", want, nodes[0].LiquidityActive)
	}
}

func TestBuild_CountsPrecisionFallbacks(t *testing.T) {
	metrics := observability.NewMetrics("histogram_fallback_test")
	b := NewBuilder(Options{Metrics: metrics})

	// Scientific notation forces the float fallback parse path.
	positions := []*domain.Position{
		pos(100, 200, "2e6"),
		pos(100, 200, "50"),
	}
	nodes := b.Build(positions, histPool())

	if len(nodes) != 2 {
		t.Fatalf("expected 2 ticks, got %d", len(nodes))
	}
	if got := testutil.ToFloat64(metrics.PrecisionFallbacks); got != 1 {
		t.Errorf("expected 1 precision fallback recorded, got %v", got)
	}
}

func TestBuild_EmptyScaffold(t *testing.T) {
	b := NewBuilder(Options{})
	nodes := b.Build(nil, histPool())

	if len(nodes) != 101 {
		t.Fatalf("expected 101 scaffold ticks, got %d", len(nodes))
	}

	center := (histPool().Tick / 60) * 60
	if nodes[0].Tick != center-50*60 || nodes[len(nodes)-1].Tick != center+50*60 {
		t.Errorf("unexpected scaffold range [%d, %d]", nodes[0].Tick, nodes[len(nodes)-1].Tick)
	}
	for i, node := range nodes {
		if node.LiquidityNet != 0 || node.LiquidityGross != 0 || node.LiquidityActive != 0 {
			t.Fatalf("scaffold node %d must carry zero liquidity", i)
		}
		if i > 0 && node.Tick-nodes[i-1].Tick != 60 {
			t.Fatalf("scaffold ticks must be evenly spaced, gap at %d", i)
		}
	}
}

func TestBuild_ScaffoldClampsAtRangeEnd(t *testing.T) {
	pool := histPool()
	pool.Tick = tickmath.MaxTick - 60
	b := NewBuilder(Options{})
	nodes := b.Build(nil, pool)

	for _, node := range nodes {
		if node.Tick > tickmath.MaxTick {
			t.Fatalf("scaffold tick %d above the usable range", node.Tick)
		}
	}
	if len(nodes) >= 101 {
		t.Errorf("expected a truncated scaffold near the range end, got %d nodes", len(nodes))
	}
}
