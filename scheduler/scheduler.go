// Package scheduler drives the bounded worker pool that turns frontier
// items into ScanResults: each worker calls the fetch strategy (C3), feeds
// the extracted links through the extractor's output into C1's normalize/
// filter/same-origin pipeline, and pushes novel URLs back onto the frontier.
package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grantelam/webscan/classify"
	"github.com/grantelam/webscan/control"
	"github.com/grantelam/webscan/fetch"
	"github.com/grantelam/webscan/frontier"
	"github.com/grantelam/webscan/scan"
	"github.com/grantelam/webscan/session"
	"github.com/grantelam/webscan/urlutil"
)

// pausePollInterval is how often the coordinator re-checks the control plane
// while the frontier is momentarily empty but workers are still in flight.
// Short enough to keep stopScan's observed latency well under the ~100ms
// bound spec.md asks for.
const pausePollInterval = 100 * time.Millisecond

// stuckQueueWarnAfter is how long the frontier can sit empty with workers
// still running before the coordinator logs a one-time stuck-queue warning.
const stuckQueueWarnAfter = 20 * time.Second

// Run drives one scan to completion: it opens a headless browser if cfg
// asks for one, then loops starting workers against f — bounded to
// cfg.MaxConcurrent via an errgroup limit — until the frontier drains,
// maxPages is hit, or the session is stopped, writing every result and log
// event through store as they land. A worker's own failure never aborts the
// crawl (failure isolation, see scanOne); Run only returns a non-nil error
// for a stop condition or context cancellation.
func Run(ctx context.Context, cfg scan.Config, jar http.CookieJar, f *frontier.Frontier, plane *control.Plane, store *session.Store, errs *classify.Summary) error {
	strategy, closeBrowser, err := newStrategy(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open fetch strategy: %w", err)
	}
	defer closeBrowser()

	fetchCfg := fetch.Config{
		Timeout:            cfg.Timeout(),
		CustomHeaders:      cfg.CustomHeaders,
		Jar:                jar,
		DetectSoftErrors:   cfg.DetectSoftErrors,
		DynamicContentWait: cfg.DynamicContentWait(),
	}
	pipeline := linkPipeline{
		startOrigin: cfg.URL,
		pathFilter:  urlutil.NewPathFilter(cfg.PathRegexFilter),
		maxDepth:    cfg.MaxDepth,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxConcurrent)
	var inFlight atomic.Int64

	tracker := session.NewTracker()
	scanStart := time.Now()

	var mu sync.Mutex
	var results []scan.Result

	emitLog := func(logType scan.LogType, message, url string, responseTime time.Duration) {
		mu.Lock()
		count := len(results)
		mu.Unlock()
		stats, progress, perf := tracker.Snapshot(count, cfg.MaxPages, f.Len(), f.Visited(), responseTime)
		perf.ElapsedTimeMs = time.Since(scanStart).Milliseconds()
		store.AppendLog(cfg.ScanID, scan.Log{
			Type:        logType,
			Message:     message,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			URL:         url,
			Stats:       stats,
			Progress:    progress,
			Performance: perf,
		})
	}

	recordResult := func(result scan.Result, discovered []frontier.Item) {
		mu.Lock()
		if cfg.MaxPages <= 0 || len(results) < cfg.MaxPages {
			results = append(results, result)
		}
		snapshot := append([]scan.Result(nil), results...)
		mu.Unlock()

		tracker.RecordResult(result)
		if result.Status == scan.StatusError {
			c := classify.Classification{
				Kind:            result.ErrorKind,
				Severity:        result.ErrorSeverity,
				Retryable:       result.ErrorRetryable,
				SuggestedAction: result.SuggestedAction,
			}
			errs.Record(c, result.StatusCode, result.URL, result.Error, result.Timestamp)
		}
		for _, next := range discovered {
			f.Enqueue(next.URL, next.Depth)
		}
		store.SetResults(cfg.ScanID, snapshot)

		logType := scan.LogInfo
		if result.Status == scan.StatusError {
			logType = scan.LogError
		}
		emitLog(logType, fmt.Sprintf("scanned %s", result.URL), result.URL, result.ResponseTime)
	}

	pausePoll := time.NewTicker(pausePollInterval)
	defer pausePoll.Stop()

	var stopErr error
	var emptySince time.Time
	warnedStuck := false

mainLoop:
	for {
		if err := plane.WaitIfPaused(cfg.ScanID); err != nil {
			stopErr = err
			break mainLoop
		}

		mu.Lock()
		atCap := cfg.MaxPages > 0 && len(results) >= cfg.MaxPages
		mu.Unlock()
		if atCap {
			break mainLoop
		}

		item, ok := f.Dequeue()
		if ok {
			inFlight.Add(1)
			g.Go(func() error {
				defer inFlight.Add(-1)
				result, discovered, _ := scanOne(gctx, item, strategy, fetchCfg, pipeline)
				recordResult(result, discovered)
				return nil
			})
			emptySince = time.Time{}
			continue mainLoop
		}

		if inFlight.Load() == 0 {
			// Nothing queued and nothing running: the frontier is drained.
			break mainLoop
		}

		if emptySince.IsZero() {
			emptySince = time.Now()
		}

		// The frontier is momentarily empty but workers are still in flight.
		// Poll the control plane frequently rather than blocking on a long
		// timer, so a pause/stop issued mid-wait is observed promptly.
		select {
		case <-pausePoll.C:
			if err := plane.WaitIfPaused(cfg.ScanID); err != nil {
				stopErr = err
				break mainLoop
			}
			if !warnedStuck && time.Since(emptySince) > stuckQueueWarnAfter {
				warnedStuck = true
				emitLog(scan.LogWarning, "frontier queue has made no progress in over 20s", "", 0)
			}
		case <-ctx.Done():
			stopErr = ctx.Err()
			break mainLoop
		}
	}

	// g.Go never returns a non-nil error (scanOne recovers its own panics),
	// so Wait only ever blocks until every in-flight worker has settled.
	_ = g.Wait()

	return stopErr
}

// newStrategy builds the fetch strategy cfg asks for, and a cleanup func
// that closes the headless browser if one was opened (a no-op otherwise).
func newStrategy(ctx context.Context, cfg scan.Config) (fetch.Strategy, func(), error) {
	if !cfg.UseHeadlessBrowser {
		return fetch.NewLite(), func() {}, nil
	}
	rich, cancel := fetch.NewRich(ctx)
	return rich, cancel, nil
}
