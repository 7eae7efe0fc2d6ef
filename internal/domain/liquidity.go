package domain

// ModifyLiquidityEvent represents a liquidity add or remove against a
// position range. A positive LiquidityDelta adds liquidity, a negative one
// removes it. The delta is kept as the raw integer string from the indexer
// because on-chain liquidity values exceed float64 precision.
type ModifyLiquidityEvent struct {
	ID             string  // event id assigned by the indexer (txHash#logIndex)
	PoolID         string  // pool the position belongs to
	Timestamp      int64   // Unix timestamp in seconds
	Sender         string  // contract that initiated the modification
	Origin         string  // externally-owned account that sent the transaction
	LiquidityDelta string  // signed liquidity delta (raw integer string)
	Amount0        float64 // signed token0 delta
	Amount1        float64 // signed token1 delta
	AmountUSD      float64 // USD notional of the modification
	TickLower      int     // lower tick boundary of the affected range
	TickUpper      int     // upper tick boundary of the affected range
	TxHash         string  // originating transaction hash
	LogIndex       int     // log index within the transaction
}
