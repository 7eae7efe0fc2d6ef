package domain

// Pool holds the current reference metadata for one pool. It anchors a
// reconstruction run: the reconstructor derives state from events and only
// falls back to these absolute values when no events exist.
type Pool struct {
	ID           string  // pool address
	Token0Symbol string  // display symbol of token0
	Token1Symbol string  // display symbol of token1
	Liquidity    string  // current active liquidity (raw integer string)
	TVLUSD       float64 // current total value locked in USD
	TVLToken0    float64 // current token0 balance of the pool
	TVLToken1    float64 // current token1 balance of the pool
	Token0Price  float64 // current USD price of token0
	Token1Price  float64 // current USD price of token1
	Tick         int     // current tick
	SqrtPrice    string  // current price root (decimal string)
	FeeTier      int     // swap fee in parts-per-million
	TickSpacing  int     // spacing between initializable ticks
}

// Position is one open liquidity position: a tick range and the liquidity
// amount deposited into it. Only positions with liquidity > 0 are returned
// by the query service.
type Position struct {
	ID        string // position id assigned by the indexer
	TickLower int    // lower tick boundary
	TickUpper int    // upper tick boundary
	Liquidity string // position liquidity (raw integer string)
}
