// Package main derives analytics for one pool: bulk-fetches its event
// history, reconstructs the daily liquidity/TVL series, rolls up fees and
// volume, and builds the tick liquidity histogram.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"poolscope/internal/aggregate"
	"poolscope/internal/domain"
	"poolscope/internal/fetch"
	"poolscope/internal/histogram"
	"poolscope/internal/observability"
	"poolscope/internal/reconstruct"
	"poolscope/internal/storage"
	"poolscope/internal/storage/clickhouse"
	"poolscope/internal/storage/migrations"
	"poolscope/internal/subgraph"
)

func main() {
	endpoint := flag.String("endpoint", "", "GraphQL endpoint of the pool indexer (required)")
	apiKey := flag.String("api-key", "", "Bearer token for the indexer")
	poolID := flag.String("pool", "", "Pool ID to derive analytics for (required)")
	days := flag.Int("days", reconstruct.DefaultLookbackDays, "Lookback window in days")
	period := flag.String("period", "day", "Fee/volume roll-up period: day, week or month")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "Optional ClickHouse DSN to persist the daily series")
	metricsAddr := flag.String("metrics-addr", "", "Optional address for the Prometheus /metrics endpoint")
	flag.Parse()

	if *endpoint == "" || *poolID == "" {
		flag.Usage()
		os.Exit(2)
	}

	aggPeriod, err := parsePeriod(*period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "derive ", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling", sig)
		cancel()
	}()

	var metrics *observability.Metrics
	if *metricsAddr != "" {
		metrics = observability.NewMetrics("")
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	client := subgraph.NewClient(*endpoint,
		subgraph.WithAPIKey(*apiKey),
		subgraph.WithLogger(logger),
		subgraph.WithMetrics(metrics),
	)

	if err := run(ctx, client, logger, metrics, *poolID, *days, aggPeriod, *clickhouseDSN); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *subgraph.Client, logger *log.Logger, metrics *observability.Metrics, poolID string, days int, period domain.Period, clickhouseDSN string) error {
	pool, err := client.Pool(ctx, poolID)
	if err != nil {
		return fmt.Errorf("load pool metadata: %w", err)
	}
	fmt.Printf("Pool %s (%s/%s), fee tier %d ppm, tick spacing %d\n",
		pool.ID, pool.Token0Symbol, pool.Token1Symbol, pool.FeeTier, pool.TickSpacing)

	now := time.Now().UTC()
	startTime := now.AddDate(0, 0, -days).Unix()

	fetcher := fetch.NewBulkFetcher(fetch.Options{
		Source:  client,
		Logger:  logger,
		Metrics: metrics,
	})
	fetchResult, err := fetcher.FetchAllSwapEvents(ctx, poolID, startTime, func(p fetch.Progress) {
		logger.Printf("Fetch progress: %.0f%% (%d events, %s)", p.Percent, p.Events, p.Message)
	})
	if err != nil {
		return fmt.Errorf("fetch swap events: %w", err)
	}
	fmt.Printf("Fetched %d swap events in %d pages", len(fetchResult.Events), fetchResult.Pages)
	if fetchResult.Truncated {
		fmt.Print(" (truncated at page cap)")
	}
	fmt.Println()

	liqEvents, err := client.LiquidityEvents(ctx, poolID)
	if err != nil {
		return fmt.Errorf("fetch liquidity events: %w", err)
	}
	fmt.Printf("Fetched %d liquidity events\n", len(liqEvents))

	reconstructStart := time.Now()
	series := reconstruct.ReconstructStateAt(liqEvents, fetchResult.Events, pool, now, days)
	if metrics != nil {
		metrics.ReconstructDuration.Observe(time.Since(reconstructStart).Seconds())
		metrics.SeriesPointsProduced.Add(float64(len(series)))
		metrics.PrecisionFallbacks.Add(float64(reconstruct.CountPrecisionFallbacks(liqEvents)))
	}
	fmt.Printf("Reconstructed %d daily points (%s to %s)\n",
		len(series), series[0].Date, series[len(series)-1].Date)

	daily := aggregate.CalculateDailyFees(fetchResult.Events, pool.FeeTier)
	buckets := aggregate.AggregateByPeriod(daily, period)
	fmt.Printf("Fee/volume roll-up (%s): %d buckets\n", period, len(buckets))
	for _, b := range buckets {
		fmt.Printf("  %s  fees $%.2f  volume $%.2f  swaps %d\n",
			time.Unix(b.Timestamp, 0).UTC().Format("2006-01-02"), b.FeeUSD, b.VolumeUSD, b.Count)
	}

	positions, err := client.Positions(ctx, poolID)
	if err != nil {
		return fmt.Errorf("fetch positions: %w", err)
	}
	builder := histogram.NewBuilder(histogram.Options{Logger: logger, Metrics: metrics})
	nodes := builder.Build(positions, pool)
	if metrics != nil {
		metrics.HistogramTicksEmitted.Add(float64(len(nodes)))
	}
	fmt.Printf("Tick histogram: %d nodes from %d positions\n", len(nodes), len(positions))

	if clickhouseDSN != "" {
		inserted, err := persistSeries(ctx, clickhouseDSN, poolID, series)
		if err != nil {
			return fmt.Errorf("persist series: %w", err)
		}
		fmt.Printf("Persisted %d new points to ClickHouse (%d already stored)\n", inserted, len(series)-inserted)
	}

	if metrics != nil {
		metrics.LastSuccessfulRun.Set(float64(time.Now().Unix()))
	}
	return nil
}

// persistSeries writes the daily series to ClickHouse and returns how many
// points were actually inserted. Days already stored from a previous run are
// filtered out first, so a rerun over a partially stored range fills the
// gaps instead of failing the whole batch on the first duplicate.
func persistSeries(ctx context.Context, dsn, poolID string, series []*domain.TimeSeriesPoint) (int, error) {
	if len(series) == 0 {
		return 0, nil
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	if err != nil {
		return 0, fmt.Errorf("migrate clickhouse: %w", err)
	}
	defer conn.Close()

	tsStore := clickhouse.NewTimeSeriesStore(conn)
	existing, err := tsStore.GetByTimeRange(ctx, poolID, series[0].Timestamp, series[len(series)-1].Timestamp)
	if err != nil {
		return 0, fmt.Errorf("read stored range: %w", err)
	}

	fresh := storage.FilterNewPoints(existing, series)
	if len(fresh) == 0 {
		return 0, nil
	}
	if err := tsStore.InsertBulk(ctx, fresh); err != nil {
		return 0, err
	}
	return len(fresh), nil
}

func parsePeriod(s string) (domain.Period, error) {
	switch domain.Period(s) {
	case domain.PeriodDay, domain.PeriodWeek, domain.PeriodMonth:
		return domain.Period(s), nil
	default:
		return "", fmt.Errorf("unknown period %q (want day, week or month)", s)
	}
}
