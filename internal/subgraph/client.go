// Package subgraph implements the read-only client for the remote query
// service: filterable, orderable record queries for swap events, liquidity
// modifications, open positions, pool metadata and token prices.
package subgraph

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/machinebox/graphql"

	"poolscope/internal/domain"
	"poolscope/internal/observability"
)

// Default query sizes.
const (
	DefaultLiquidityPageSize = 1000
	DefaultPositionPageSize  = 1000
)

// Errors returned by the client.
var (
	ErrPoolNotFound  = errors.New("pool not found")
	ErrTokenNotFound = errors.New("token not found")
)

//go:embed assets/swapevents.graphql
var swapEventsQuery string

//go:embed assets/liquidityevents.graphql
var liquidityEventsQuery string

//go:embed assets/positions.graphql
var positionsQuery string

//go:embed assets/pool.graphql
var poolQuery string

//go:embed assets/tokenprice.graphql
var tokenPriceQuery string

// Client queries the remote indexer over GraphQL.
type Client struct {
	gql     *graphql.Client
	apiKey  string
	logger  *log.Logger
	metrics *observability.Metrics
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithAPIKey sets the bearer token sent with every query.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithLogger sets the logger for dropped-record diagnostics.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics enables per-query duration/error metrics and dropped-record
// counting.
func WithMetrics(metrics *observability.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// NewClient creates a query-service client for the given endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		gql:    graphql.NewClient(endpoint),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newRequest builds a request with auth headers applied.
func (c *Client) newRequest(query string) *graphql.Request {
	req := graphql.NewRequest(query)
	if c.apiKey != "" {
		req.Header.Add("Authorization", "Bearer "+c.apiKey)
	}
	return req
}

// run executes a request, recording duration and errors under the query name.
func (c *Client) run(ctx context.Context, name string, req *graphql.Request, resp interface{}) error {
	start := time.Now()
	err := c.gql.Run(ctx, req, resp)
	if c.metrics != nil {
		c.metrics.SubgraphQueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			c.metrics.SubgraphQueryErrors.WithLabelValues(name).Inc()
		}
	}
	return err
}

// dropRecord logs and counts one malformed record of the given entity type.
func (c *Client) dropRecord(entity, id string) {
	if c.metrics != nil {
		c.metrics.RecordsDropped.WithLabelValues(entity).Inc()
	}
	c.logger.Printf("Dropping malformed %s record %s", entity, id)
}

// SwapEvents returns up to first swap events for a pool with
// timestamp >= minTimestamp, ascending by timestamp. Malformed records are
// dropped, not errored.
func (c *Client) SwapEvents(ctx context.Context, poolID string, minTimestamp int64, first int) ([]*domain.SwapEvent, error) {
	req := c.newRequest(swapEventsQuery)
	req.Var("pool", poolID)
	req.Var("minTimestamp", minTimestamp)
	req.Var("first", first)

	respData := struct {
		Swaps []swapResponse `json:"swaps"`
	}{}
	if err := c.run(ctx, "swap_events", req, &respData); err != nil {
		return nil, fmt.Errorf("query swap events: %w", err)
	}

	events := make([]*domain.SwapEvent, 0, len(respData.Swaps))
	for i := range respData.Swaps {
		event, ok := respData.Swaps[i].toSwapEvent(poolID)
		if !ok {
			c.dropRecord("swap", respData.Swaps[i].ID)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// LiquidityEvents returns all liquidity-modification events for a pool,
// ascending by timestamp. Pages through the service until a short page.
func (c *Client) LiquidityEvents(ctx context.Context, poolID string) ([]*domain.ModifyLiquidityEvent, error) {
	var events []*domain.ModifyLiquidityEvent

	for skip := 0; ; skip += DefaultLiquidityPageSize {
		req := c.newRequest(liquidityEventsQuery)
		req.Var("pool", poolID)
		req.Var("first", DefaultLiquidityPageSize)
		req.Var("skip", skip)

		respData := struct {
			ModifyLiquiditys []modifyLiquidityResponse `json:"modifyLiquiditys"`
		}{}
		if err := c.run(ctx, "liquidity_events", req, &respData); err != nil {
			return nil, fmt.Errorf("query liquidity events: %w", err)
		}

		for i := range respData.ModifyLiquiditys {
			event, ok := respData.ModifyLiquiditys[i].toModifyLiquidityEvent(poolID)
			if !ok {
				c.dropRecord("liquidity", respData.ModifyLiquiditys[i].ID)
				continue
			}
			events = append(events, event)
		}

		if len(respData.ModifyLiquiditys) < DefaultLiquidityPageSize {
			return events, nil
		}
	}
}

// Positions returns all open positions (liquidity > 0) for a pool.
func (c *Client) Positions(ctx context.Context, poolID string) ([]*domain.Position, error) {
	var positions []*domain.Position

	for skip := 0; ; skip += DefaultPositionPageSize {
		req := c.newRequest(positionsQuery)
		req.Var("pool", poolID)
		req.Var("first", DefaultPositionPageSize)
		req.Var("skip", skip)

		respData := struct {
			Positions []positionResponse `json:"positions"`
		}{}
		if err := c.run(ctx, "positions", req, &respData); err != nil {
			return nil, fmt.Errorf("query positions: %w", err)
		}

		for i := range respData.Positions {
			position, ok := respData.Positions[i].toPosition()
			if !ok {
				c.dropRecord("position", respData.Positions[i].ID)
				continue
			}
			positions = append(positions, position)
		}

		if len(respData.Positions) < DefaultPositionPageSize {
			return positions, nil
		}
	}
}

// Pool returns current metadata for one pool, with token prices resolved to
// USD via the service's bundle price.
func (c *Client) Pool(ctx context.Context, poolID string) (*domain.Pool, error) {
	req := c.newRequest(poolQuery)
	req.Var("id", poolID)

	respData := struct {
		Pool   *poolResponse   `json:"pool"`
		Bundle *bundleResponse `json:"bundle"`
	}{}
	if err := c.run(ctx, "pool", req, &respData); err != nil {
		return nil, fmt.Errorf("query pool: %w", err)
	}
	if respData.Pool == nil {
		return nil, ErrPoolNotFound
	}

	ethPriceUSD := 0.0
	if respData.Bundle != nil {
		ethPriceUSD = parseFloatOrZero(respData.Bundle.EthPriceUSD)
	}

	pool, ok := respData.Pool.toPool(ethPriceUSD)
	if !ok {
		return nil, fmt.Errorf("pool %s: unparsable metadata", poolID)
	}
	return pool, nil
}

// TokenPrice returns the current USD price of a token.
func (c *Client) TokenPrice(ctx context.Context, tokenID string) (float64, error) {
	req := c.newRequest(tokenPriceQuery)
	req.Var("id", tokenID)

	respData := struct {
		Token  *tokenResponse  `json:"token"`
		Bundle *bundleResponse `json:"bundle"`
	}{}
	if err := c.run(ctx, "token_price", req, &respData); err != nil {
		return 0, fmt.Errorf("query token price: %w", err)
	}
	if respData.Token == nil {
		return 0, ErrTokenNotFound
	}

	ethPriceUSD := 0.0
	if respData.Bundle != nil {
		ethPriceUSD = parseFloatOrZero(respData.Bundle.EthPriceUSD)
	}
	return parseFloatOrZero(respData.Token.DerivedETH) * ethPriceUSD, nil
}
