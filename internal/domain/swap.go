package domain

// SwapEvent represents one indexed swap against a pool, as returned by the
// query service. Token deltas are signed from the pool's perspective:
// positive means the pool received the token, negative means it paid it out.
type SwapEvent struct {
	ID        string  // event id assigned by the indexer (txHash#logIndex)
	PoolID    string  // pool the swap executed against
	Timestamp int64   // Unix timestamp in seconds
	Sender    string  // contract that initiated the swap
	Origin    string  // externally-owned account that sent the transaction
	Amount0   float64 // signed token0 delta
	Amount1   float64 // signed token1 delta
	AmountUSD float64 // USD notional of the swap
	SqrtPrice string  // post-trade price root (decimal string, never parsed as float upstream)
	Tick      int     // post-trade tick
	TxHash    string  // originating transaction hash
	LogIndex  int     // log index within the transaction
}
