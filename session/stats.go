package session

import (
	"sync"
	"time"

	"github.com/grantelam/webscan/scan"
)

// Tracker accumulates the running counters a scheduler needs to stamp onto
// every log event: URLs scanned, links found, errors, and the mean response
// time observed so far. One Tracker per scan.
type Tracker struct {
	mu            sync.Mutex
	startedAt     time.Time
	urlsScanned   int
	linksFound    int
	errors        int
	responseTimes []time.Duration
}

// NewTracker returns a Tracker whose elapsed-time clock starts now.
func NewTracker() *Tracker {
	return &Tracker{startedAt: time.Now()}
}

// RecordResult folds one completed scanOne call into the running counters.
func (t *Tracker) RecordResult(r scan.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.urlsScanned++
	t.linksFound += len(r.Links)
	if r.Status == scan.StatusError {
		t.errors++
	}
	if r.ResponseTime > 0 {
		t.responseTimes = append(t.responseTimes, r.ResponseTime)
	}
}

// Snapshot computes the Stats, Progress, and Performance blocks for a log
// event, given the frontier's current queue/visited sizes and the current
// result count and page cap.
func (t *Tracker) Snapshot(resultCount, maxPages, queueSize, visitedCount int, lastResponseTime time.Duration) (scan.Stats, scan.Progress, scan.Performance) {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := visitedCount + queueSize
	var percentage float64
	if maxPages > 0 {
		percentage = 100 * float64(resultCount) / float64(maxPages)
	} else if total > 0 {
		percentage = 100 * float64(resultCount) / float64(total)
	}

	var avg float64
	if n := len(t.responseTimes); n > 0 {
		var sum time.Duration
		for _, d := range t.responseTimes {
			sum += d
		}
		avg = float64(sum.Milliseconds()) / float64(n)
	}

	stats := scan.Stats{
		URLsScanned:  t.urlsScanned,
		LinksFound:   t.linksFound,
		Errors:       t.errors,
		QueueSize:    queueSize,
		VisitedCount: visitedCount,
	}
	progress := scan.Progress{
		Current:    resultCount,
		Total:      total,
		Percentage: percentage,
	}
	perf := scan.Performance{
		ElapsedTimeMs:         time.Since(t.startedAt).Milliseconds(),
		AverageResponseTimeMs: avg,
	}
	if lastResponseTime > 0 {
		perf.ResponseTimeMs = lastResponseTime.Milliseconds()
	}
	return stats, progress, perf
}
