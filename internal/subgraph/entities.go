package subgraph

import (
	"strconv"

	"poolscope/internal/domain"
)

// Response entities mirror the query service's wire shape. Every numeric
// field is transported as a decimal string and must be parsed before any
// arithmetic; native-precision numeric transport is never assumed.

type swapResponse struct {
	ID           string `json:"id"`
	Timestamp    string `json:"timestamp"`
	Sender       string `json:"sender"`
	Origin       string `json:"origin"`
	Amount0      string `json:"amount0"`
	Amount1      string `json:"amount1"`
	AmountUSD    string `json:"amountUSD"`
	SqrtPriceX96 string `json:"sqrtPriceX96"`
	Tick         string `json:"tick"`
	LogIndex     string `json:"logIndex"`
	Transaction  struct {
		ID string `json:"id"`
	} `json:"transaction"`
}

type modifyLiquidityResponse struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	Sender      string `json:"sender"`
	Origin      string `json:"origin"`
	Amount      string `json:"amount"`
	Amount0     string `json:"amount0"`
	Amount1     string `json:"amount1"`
	AmountUSD   string `json:"amountUSD"`
	TickLower   string `json:"tickLower"`
	TickUpper   string `json:"tickUpper"`
	LogIndex    string `json:"logIndex"`
	Transaction struct {
		ID string `json:"id"`
	} `json:"transaction"`
}

type positionResponse struct {
	ID        string `json:"id"`
	TickLower string `json:"tickLower"`
	TickUpper string `json:"tickUpper"`
	Liquidity string `json:"liquidity"`
}

type poolResponse struct {
	ID                   string        `json:"id"`
	Liquidity            string        `json:"liquidity"`
	TotalValueLockedUSD  string        `json:"totalValueLockedUSD"`
	TotalValueLockedTok0 string        `json:"totalValueLockedToken0"`
	TotalValueLockedTok1 string        `json:"totalValueLockedToken1"`
	Tick                 string        `json:"tick"`
	SqrtPrice            string        `json:"sqrtPrice"`
	FeeTier              string        `json:"feeTier"`
	TickSpacing          string        `json:"tickSpacing"`
	Token0               tokenResponse `json:"token0"`
	Token1               tokenResponse `json:"token1"`
}

type tokenResponse struct {
	ID         string `json:"id"`
	Symbol     string `json:"symbol"`
	DerivedETH string `json:"derivedETH"`
}

type bundleResponse struct {
	EthPriceUSD string `json:"ethPriceUSD"`
}

// toSwapEvent converts a wire swap into a domain event. Records with an
// unparsable or zero timestamp are malformed and reported as not ok.
func (r *swapResponse) toSwapEvent(poolID string) (*domain.SwapEvent, bool) {
	ts, err := strconv.ParseInt(r.Timestamp, 10, 64)
	if err != nil || ts == 0 {
		return nil, false
	}
	tick, err := strconv.Atoi(r.Tick)
	if err != nil {
		return nil, false
	}
	logIndex, _ := strconv.Atoi(r.LogIndex)

	return &domain.SwapEvent{
		ID:        r.ID,
		PoolID:    poolID,
		Timestamp: ts,
		Sender:    r.Sender,
		Origin:    r.Origin,
		Amount0:   parseFloatOrZero(r.Amount0),
		Amount1:   parseFloatOrZero(r.Amount1),
		AmountUSD: parseFloatOrZero(r.AmountUSD),
		SqrtPrice: r.SqrtPriceX96,
		Tick:      tick,
		TxHash:    r.Transaction.ID,
		LogIndex:  logIndex,
	}, true
}

// toModifyLiquidityEvent converts a wire liquidity modification into a
// domain event. The liquidity delta stays a raw string; precise parsing is
// deferred to the reconstructor.
func (r *modifyLiquidityResponse) toModifyLiquidityEvent(poolID string) (*domain.ModifyLiquidityEvent, bool) {
	ts, err := strconv.ParseInt(r.Timestamp, 10, 64)
	if err != nil || ts == 0 {
		return nil, false
	}
	tickLower, err := strconv.Atoi(r.TickLower)
	if err != nil {
		return nil, false
	}
	tickUpper, err := strconv.Atoi(r.TickUpper)
	if err != nil {
		return nil, false
	}
	logIndex, _ := strconv.Atoi(r.LogIndex)

	return &domain.ModifyLiquidityEvent{
		ID:             r.ID,
		PoolID:         poolID,
		Timestamp:      ts,
		Sender:         r.Sender,
		Origin:         r.Origin,
		LiquidityDelta: r.Amount,
		Amount0:        parseFloatOrZero(r.Amount0),
		Amount1:        parseFloatOrZero(r.Amount1),
		AmountUSD:      parseFloatOrZero(r.AmountUSD),
		TickLower:      tickLower,
		TickUpper:      tickUpper,
		TxHash:         r.Transaction.ID,
		LogIndex:       logIndex,
	}, true
}

func (r *positionResponse) toPosition() (*domain.Position, bool) {
	tickLower, err := strconv.Atoi(r.TickLower)
	if err != nil {
		return nil, false
	}
	tickUpper, err := strconv.Atoi(r.TickUpper)
	if err != nil {
		return nil, false
	}

	return &domain.Position{
		ID:        r.ID,
		TickLower: tickLower,
		TickUpper: tickUpper,
		Liquidity: r.Liquidity,
	}, true
}

func (r *poolResponse) toPool(ethPriceUSD float64) (*domain.Pool, bool) {
	tick, err := strconv.Atoi(r.Tick)
	if err != nil {
		return nil, false
	}
	feeTier, err := strconv.Atoi(r.FeeTier)
	if err != nil {
		return nil, false
	}
	tickSpacing, err := strconv.Atoi(r.TickSpacing)
	if err != nil {
		return nil, false
	}

	return &domain.Pool{
		ID:           r.ID,
		Token0Symbol: r.Token0.Symbol,
		Token1Symbol: r.Token1.Symbol,
		Liquidity:    r.Liquidity,
		TVLUSD:       parseFloatOrZero(r.TotalValueLockedUSD),
		TVLToken0:    parseFloatOrZero(r.TotalValueLockedTok0),
		TVLToken1:    parseFloatOrZero(r.TotalValueLockedTok1),
		Token0Price:  parseFloatOrZero(r.Token0.DerivedETH) * ethPriceUSD,
		Token1Price:  parseFloatOrZero(r.Token1.DerivedETH) * ethPriceUSD,
		Tick:         tick,
		SqrtPrice:    r.SqrtPrice,
		FeeTier:      feeTier,
		TickSpacing:  tickSpacing,
	}, true
}

func parseFloatOrZero(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
