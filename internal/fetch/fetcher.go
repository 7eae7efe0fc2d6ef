// Package fetch implements bulk retrieval of swap events from the query
// service: serialized cursor pagination with a stall guard, a page-count
// safety cap and progress reporting.
package fetch

import (
	"context"
	"fmt"
	"log"
	"time"

	"poolscope/internal/domain"
	"poolscope/internal/observability"
)

// Default pagination configuration.
const (
	DefaultPageSize  = 1000
	DefaultMaxPages  = 50
	DefaultPageDelay = 250 * time.Millisecond
)

// SwapEventSource returns one page of swap events for a pool with
// timestamp >= minTimestamp, ascending by timestamp, at most first records.
type SwapEventSource interface {
	SwapEvents(ctx context.Context, poolID string, minTimestamp int64, first int) ([]*domain.SwapEvent, error)
}

// Progress describes the state of an in-flight bulk fetch. It is an
// observability side channel, not part of the correctness contract.
type Progress struct {
	Page     int     // pages fetched so far
	MaxPages int     // configured safety cap
	Events   int     // events accumulated so far
	Percent  float64 // Page as a percentage of MaxPages
	Message  string  // human-readable status
}

// ProgressFunc receives a Progress report after every fetched page.
type ProgressFunc func(Progress)

// FetchResult is the outcome of a bulk fetch.
type FetchResult struct {
	Events    []*domain.SwapEvent // ascending by timestamp
	Pages     int                 // number of service calls made
	Truncated bool                // true when the page cap stopped the fetch early
}

// BulkFetcher pages swap events out of a SwapEventSource until exhaustion
// or the safety cap.
type BulkFetcher struct {
	source    SwapEventSource
	pageSize  int
	maxPages  int
	pageDelay time.Duration
	logger    *log.Logger
	metrics   *observability.Metrics
}

// Options contains configuration for creating a BulkFetcher.
type Options struct {
	Source    SwapEventSource
	PageSize  int           // records per page, default DefaultPageSize
	MaxPages  int           // safety cap, default DefaultMaxPages
	PageDelay time.Duration // cooperative delay between pages, default DefaultPageDelay
	Logger    *log.Logger
	Metrics   *observability.Metrics // optional
}

// NewBulkFetcher creates a bulk fetcher.
func NewBulkFetcher(opts Options) *BulkFetcher {
	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	maxPages := opts.MaxPages
	if maxPages == 0 {
		maxPages = DefaultMaxPages
	}
	pageDelay := opts.PageDelay
	if pageDelay == 0 {
		pageDelay = DefaultPageDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &BulkFetcher{
		source:    opts.Source,
		pageSize:  pageSize,
		maxPages:  maxPages,
		pageDelay: pageDelay,
		logger:    logger,
		metrics:   opts.Metrics,
	}
}

// FetchAllSwapEvents returns the ordered concatenation of all swap events
// for a pool with timestamp >= startTime, capped at maxPages*pageSize
// records. Pages are requested serially: the cursor for page n+1 depends on
// the last timestamp observed in page n. Advancing the cursor by one second
// past the last record assumes no two boundary events share a timestamp;
// the upstream interface offers no secondary sort key to paginate by.
//
// Any transport failure aborts the fetch and discards the partial
// accumulation. The context is checked between pages, so an abandoned fetch
// stops issuing remote calls.
func (f *BulkFetcher) FetchAllSwapEvents(ctx context.Context, poolID string, startTime int64, onProgress ProgressFunc) (*FetchResult, error) {
	result := &FetchResult{}

	cursorTime := startTime
	var lastTimestamp int64 = -1 // sentinel: no page seen yet

	for {
		pageStart := time.Now()
		page, err := f.source.SwapEvents(ctx, poolID, cursorTime, f.pageSize)
		if err != nil {
			if f.metrics != nil {
				f.metrics.FetchErrors.Inc()
			}
			return nil, fmt.Errorf("fetch page %d: %w", result.Pages+1, err)
		}
		if f.metrics != nil {
			f.metrics.PageFetchLatency.Observe(time.Since(pageStart).Seconds())
		}

		// No more data.
		if len(page) == 0 {
			f.finish(onProgress, result, "no more events")
			return result, nil
		}

		// Stall guard: the service returned an overlapping page. Treated as
		// a soft termination, otherwise the loop would never advance.
		pageLast := page[len(page)-1].Timestamp
		if pageLast == lastTimestamp {
			if f.metrics != nil {
				f.metrics.PaginationStalls.Inc()
			}
			f.logger.Printf("Pagination stalled at timestamp %d for pool %s, stopping", pageLast, poolID)
			f.finish(onProgress, result, "pagination stalled")
			return result, nil
		}

		result.Events = append(result.Events, page...)
		result.Pages++
		lastTimestamp = pageLast
		cursorTime = lastTimestamp + 1

		if f.metrics != nil {
			f.metrics.PagesFetched.Inc()
			f.metrics.SwapEventsFetched.Add(float64(len(page)))
		}
		f.report(onProgress, result, fmt.Sprintf("fetched page %d of %d", result.Pages, f.maxPages))

		// Safety cap: the caller must be told the result may be incomplete.
		if result.Pages >= f.maxPages {
			result.Truncated = true
			if f.metrics != nil {
				f.metrics.FetchTruncations.Inc()
			}
			f.logger.Printf("Reached page cap %d for pool %s, result may be truncated", f.maxPages, poolID)
			f.finish(onProgress, result, "page cap reached")
			return result, nil
		}

		// A short page is implicitly the last one.
		if len(page) < f.pageSize {
			f.finish(onProgress, result, "final page")
			return result, nil
		}

		// Cooperative delay between pages to respect the remote rate limit.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.pageDelay):
		}
	}
}

// finish marks a fetch that ran to a terminal state without a transport
// error and delivers the closing progress update.
func (f *BulkFetcher) finish(onProgress ProgressFunc, result *FetchResult, message string) {
	if f.metrics != nil {
		f.metrics.LastSuccessfulFetch.Set(float64(time.Now().Unix()))
	}
	f.report(onProgress, result, message)
}

// report delivers a progress update if a callback was supplied.
func (f *BulkFetcher) report(onProgress ProgressFunc, result *FetchResult, message string) {
	if onProgress == nil {
		return
	}
	onProgress(Progress{
		Page:     result.Pages,
		MaxPages: f.maxPages,
		Events:   len(result.Events),
		Percent:  float64(result.Pages) / float64(f.maxPages) * 100,
		Message:  message,
	})
}
