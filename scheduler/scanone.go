// Package scheduler drives the bounded worker pool that turns frontier
// items into ScanResults: each worker calls the fetch strategy (C3), feeds
// the extracted links through the extractor's output into C1's normalize/
// filter/same-origin pipeline, and pushes novel URLs back onto the frontier.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/grantelam/webscan/classify"
	"github.com/grantelam/webscan/fetch"
	"github.com/grantelam/webscan/frontier"
	"github.com/grantelam/webscan/scan"
	"github.com/grantelam/webscan/urlutil"
)

// linkPipeline holds the C1 inputs scanOne needs to normalize, same-origin
// filter, static-asset filter, and path-regex filter every extracted link.
type linkPipeline struct {
	startOrigin string
	pathFilter  *urlutil.PathFilter
	maxDepth    int
}

// scanOne fetches one frontier item, extracts and filters its links, and
// returns the ScanResult plus the novel URLs discovered on the page
// (already normalized, same-origin, non-static, and regex-passing) at
// depth+1, ready for the caller to enqueue (P6). It never panics: a
// recovered panic is folded into an error ScanResult just like any other
// failure, per the coordinator's failure-isolation requirement.
func scanOne(ctx context.Context, item frontier.Item, strategy fetch.Strategy, fetchCfg fetch.Config, pipeline linkPipeline) (result scan.Result, discovered []frontier.Item, panicked error) {
	defer func() {
		if r := recover(); r != nil {
			panicked = fmt.Errorf("panic scanning %s: %v", item.URL, r)
			result = errorResult(item, panicked, 0, "")
		}
	}()

	target, err := url.Parse(item.URL)
	if err != nil {
		result = errorResult(item, fmt.Errorf("parse url: %w", err), 0, "")
		return result, nil, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, fetchCfg.Timeout)
	defer cancel()

	start := time.Now()
	outcome, err := strategy.Fetch(reqCtx, target, fetchCfg)
	elapsed := time.Since(start)

	if err != nil {
		// outcome may still carry a partially-recovered response (e.g. the
		// last hop of a redirect loop, or a binary error page) even when
		// Fetch itself errors - thread it through so classification and the
		// reported body aren't thrown away.
		result = errorResult(item, err, outcome.StatusCode, outcome.BodySample)
		result.ResponseTime = elapsed
		return result, nil, nil
	}

	status := scan.StatusError
	if outcome.StatusCode >= 200 && outcome.StatusCode < 300 {
		status = scan.StatusSuccess
	}

	filtered, next := pipeline.filterLinks(outcome.Links, outcome.FinalURL, item.Depth)

	result = scan.Result{
		URL:          item.URL,
		Status:       status,
		StatusCode:   outcome.StatusCode,
		Links:        filtered,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Depth:        item.Depth,
		ResponseTime: elapsed,
	}

	if status == scan.StatusError {
		c := classify.Classify(outcome.StatusCode, nil, outcome.BodySample)
		result.ErrorKind = c.Kind
		result.ErrorSeverity = c.Severity
		result.ErrorRetryable = c.Retryable
		result.SuggestedAction = c.SuggestedAction
		result.Error = fmt.Sprintf("unexpected status %d", outcome.StatusCode)
		if outcome.StatusCode >= 400 && outcome.StatusCode < 600 {
			result.ResponseBody = outcome.BodySample
		}
	}

	for _, jsonURL := range outcome.JSONSeeds {
		if normalized, ok := pipeline.acceptJSONSeed(jsonURL, outcome.FinalURL); ok {
			next = append(next, frontier.Item{URL: normalized, Depth: item.Depth + 1})
		}
	}

	return result, next, nil
}

// errorResult synthesizes an error ScanResult for a transport-level failure,
// classified the same way an HTTP error status would be. statusCode/body are
// whatever partial response data the strategy recovered (0/"" for a failure
// with no response at all, e.g. DNS or timeout).
func errorResult(item frontier.Item, err error, statusCode int, body string) scan.Result {
	c := classify.Classify(statusCode, err, body)

	// A redirect loop isn't a meaningful HTTP status to report - the last
	// hop's raw 3xx is only useful to route the classifier to the network
	// kind via the message check above. Report a synthesized 508 instead.
	reportStatus := statusCode
	if errors.Is(err, fetch.ErrRedirectLoop) {
		reportStatus = http.StatusLoopDetected
	}

	return scan.Result{
		URL:             item.URL,
		Status:          scan.StatusError,
		StatusCode:      reportStatus,
		Links:           []string{},
		ResponseBody:    body,
		Error:           err.Error(),
		ErrorKind:       c.Kind,
		ErrorSeverity:   c.Severity,
		ErrorRetryable:  c.Retryable,
		SuggestedAction: c.SuggestedAction,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Depth:           item.Depth,
	}
}

// filterLinks runs every raw candidate through C1's normalize -> same-origin
// -> static-asset -> path-regex pipeline (in that order, per spec.md §5's
// "extract -> normalize -> filter -> enqueue" ordering guarantee), returning
// the filtered, deduplicated set for the ScanResult (Q1) and the subset that
// should be enqueued at depth+1 (I5/P6). maxDepth = 0 means unlimited.
func (p linkPipeline) filterLinks(rawLinks []string, pageURL string, depth int) (filtered []string, toEnqueue []frontier.Item) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil
	}

	seen := make(map[string]bool)
	for _, raw := range rawLinks {
		normalized, err := urlutil.Normalize(raw, base)
		if err != nil {
			continue
		}
		if !urlutil.SameOrigin(normalized, p.startOrigin) {
			continue
		}
		if urlutil.IsStaticAsset(normalized) {
			continue
		}
		if !p.pathFilter.Match(normalized) {
			continue
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		filtered = append(filtered, normalized)

		if p.maxDepth <= 0 || depth+1 < p.maxDepth {
			toEnqueue = append(toEnqueue, frontier.Item{URL: normalized, Depth: depth + 1})
		}
	}
	return filtered, toEnqueue
}

// acceptJSONSeed normalizes and same-origin-filters a single JSON-derived
// seed candidate (no static-asset or path-regex filtering is specified for
// these in spec.md §4.3 — they are a secondary discovery channel, not page
// links, so they skip straight to depth+1 enqueue).
func (p linkPipeline) acceptJSONSeed(raw, pageURL string) (string, bool) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	normalized, err := urlutil.Normalize(raw, base)
	if err != nil {
		return "", false
	}
	if !urlutil.SameOrigin(normalized, p.startOrigin) {
		return "", false
	}
	return normalized, true
}
