// Package main backfills a pool's raw event history from the indexer into
// PostgreSQL, resuming from the newest stored swap when possible. Without a
// DSN it runs dry: events are fetched and summarized but not stored.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"poolscope/internal/domain"
	"poolscope/internal/fetch"
	"poolscope/internal/storage"
	"poolscope/internal/storage/migrations"
	"poolscope/internal/storage/postgres"
	"poolscope/internal/subgraph"
)

func main() {
	endpoint := flag.String("endpoint", "", "GraphQL endpoint of the pool indexer (required)")
	apiKey := flag.String("api-key", "", "Bearer token for the indexer")
	poolID := flag.String("pool", "", "Pool ID to backfill (required)")
	days := flag.Int("days", 90, "How far back to fetch when the database is empty")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL DSN; omit to fetch and summarize without storing")
	flag.Parse()

	if *endpoint == "" || *poolID == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "backfill ", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling", sig)
		cancel()
	}()

	if err := run(ctx, logger, *endpoint, *apiKey, *poolID, *days, *postgresDSN); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *log.Logger, endpoint, apiKey, poolID string, days int, dsn string) error {
	var swapStore *postgres.SwapEventStore
	var liqStore *postgres.LiquidityEventStore
	if dsn != "" {
		pool, err := postgres.NewPool(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}

		swapStore = postgres.NewSwapEventStore(pool)
		liqStore = postgres.NewLiquidityEventStore(pool)
	}

	client := subgraph.NewClient(endpoint,
		subgraph.WithAPIKey(apiKey),
		subgraph.WithLogger(logger),
	)

	// Resume after the newest stored swap; fall back to the lookback window.
	var startTime int64
	if swapStore != nil {
		latest, err := swapStore.LatestTimestamp(ctx, poolID)
		if err != nil {
			return fmt.Errorf("read resume point: %w", err)
		}
		startTime = latest
	}
	if startTime > 0 {
		startTime++
		logger.Printf("Resuming from timestamp %d", startTime)
	} else {
		startTime = time.Now().UTC().AddDate(0, 0, -days).Unix()
		logger.Printf("Fetching from timestamp %d", startTime)
	}

	fetcher := fetch.NewBulkFetcher(fetch.Options{Source: client, Logger: logger})
	result, err := fetcher.FetchAllSwapEvents(ctx, poolID, startTime, func(p fetch.Progress) {
		logger.Printf("Fetch progress: %.0f%% (%d events, %s)", p.Percent, p.Events, p.Message)
	})
	if err != nil {
		return fmt.Errorf("fetch swap events: %w", err)
	}

	// Dry run: summarize what a backfill would ingest and stop.
	if swapStore == nil {
		liqEvents, err := client.LiquidityEvents(ctx, poolID)
		if err != nil {
			return fmt.Errorf("fetch liquidity events: %w", err)
		}
		fmt.Print(summarize(poolID, result, liqEvents))
		return nil
	}

	stored := 0
	for _, e := range result.Events {
		if err := swapStore.Insert(ctx, e); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			return fmt.Errorf("store swap event %s: %w", e.ID, err)
		}
		stored++
	}
	fmt.Printf("Stored %d of %d fetched swap events", stored, len(result.Events))
	if result.Truncated {
		fmt.Print(" (fetch truncated at page cap, rerun to continue)")
	}
	fmt.Println()

	liqEvents, err := client.LiquidityEvents(ctx, poolID)
	if err != nil {
		return fmt.Errorf("fetch liquidity events: %w", err)
	}

	liqStored := 0
	for _, e := range liqEvents {
		if err := liqStore.Insert(ctx, e); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			return fmt.Errorf("store liquidity event %s: %w", e.ID, err)
		}
		liqStored++
	}
	fmt.Printf("Stored %d of %d fetched liquidity events\n", liqStored, len(liqEvents))

	return nil
}

// summarize formats the dry-run report of the fetched event streams.
func summarize(poolID string, result *fetch.FetchResult, liqEvents []*domain.ModifyLiquidityEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pool %s: %d swap events in %d pages, %d liquidity events\n",
		poolID, len(result.Events), result.Pages, len(liqEvents))
	if len(result.Events) > 0 {
		first := time.Unix(result.Events[0].Timestamp, 0).UTC()
		last := time.Unix(result.Events[len(result.Events)-1].Timestamp, 0).UTC()
		fmt.Fprintf(&b, "Swap range %s to %s\n", first.Format(time.RFC3339), last.Format(time.RFC3339))
	}
	if result.Truncated {
		b.WriteString("Fetch truncated at page cap, the summary is incomplete\n")
	}
	b.WriteString("No DSN provided, nothing stored\n")
	return b.String()
}
