package session

import (
	"testing"
	"time"

	"github.com/grantelam/webscan/scan"
)

func TestAppendLogRingBufferDropsOldest(t *testing.T) {
	s := NewStore()
	s.Open("scan-1", 3, time.Minute)

	for i := 0; i < 5; i++ {
		s.AppendLog("scan-1", scan.Log{Message: string(rune('a' + i))})
	}

	logs := s.Logs("scan-1")
	if len(logs) != 3 {
		t.Fatalf("len(logs) = %d, want 3", len(logs))
	}
	if logs[0].Message != "c" || logs[2].Message != "e" {
		t.Errorf("logs = %+v, want oldest two dropped, newest retained", logs)
	}
}

func TestSetResultsReplacesWholesale(t *testing.T) {
	s := NewStore()
	s.Open("scan-1", 10, time.Minute)

	s.SetResults("scan-1", []scan.Result{{URL: "https://example.com/a"}})
	s.SetResults("scan-1", []scan.Result{{URL: "https://example.com/b"}, {URL: "https://example.com/c"}})

	results := s.Results("scan-1")
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].URL != "https://example.com/b" {
		t.Errorf("results[0].URL = %q, want b", results[0].URL)
	}
}

func TestUnknownSessionReturnsNil(t *testing.T) {
	s := NewStore()
	if logs := s.Logs("missing"); logs != nil {
		t.Errorf("Logs(missing) = %v, want nil", logs)
	}
	if results := s.Results("missing"); results != nil {
		t.Errorf("Results(missing) = %v, want nil", results)
	}
}

func TestSweepEvictsExpiredSessions(t *testing.T) {
	s := NewStore()
	s.Open("scan-1", 10, 10*time.Millisecond)
	s.AppendLog("scan-1", scan.Log{Message: "hi"})
	s.MarkComplete("scan-1")

	time.Sleep(30 * time.Millisecond)
	s.Sweep()

	if logs := s.Logs("scan-1"); logs != nil {
		t.Errorf("Logs(scan-1) after sweep = %v, want nil (evicted)", logs)
	}
}

func TestSweepKeepsIncompleteSessions(t *testing.T) {
	s := NewStore()
	s.Open("scan-1", 10, 10*time.Millisecond)
	s.AppendLog("scan-1", scan.Log{Message: "hi"})

	time.Sleep(30 * time.Millisecond)
	s.Sweep()

	if logs := s.Logs("scan-1"); logs == nil {
		t.Error("Sweep evicted a session that was never marked complete")
	}
}

func TestTrackerSnapshot(t *testing.T) {
	tr := NewTracker()
	tr.RecordResult(scan.Result{Status: scan.StatusSuccess, Links: []string{"a", "b"}, ResponseTime: 100 * time.Millisecond})
	tr.RecordResult(scan.Result{Status: scan.StatusError, ResponseTime: 200 * time.Millisecond})

	stats, progress, perf := tr.Snapshot(2, 10, 3, 5, 200*time.Millisecond)
	if stats.URLsScanned != 2 || stats.LinksFound != 2 || stats.Errors != 1 {
		t.Errorf("stats = %+v, want scanned=2 links=2 errors=1", stats)
	}
	if progress.Current != 2 || progress.Total != 8 {
		t.Errorf("progress = %+v, want current=2 total=8", progress)
	}
	if perf.AverageResponseTimeMs != 150 {
		t.Errorf("AverageResponseTimeMs = %v, want 150", perf.AverageResponseTimeMs)
	}
	if perf.ResponseTimeMs != 200 {
		t.Errorf("ResponseTimeMs = %v, want 200", perf.ResponseTimeMs)
	}
}
