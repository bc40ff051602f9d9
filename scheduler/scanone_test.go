package scheduler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/grantelam/webscan/classify"
	"github.com/grantelam/webscan/fetch"
	"github.com/grantelam/webscan/frontier"
)

func TestErrorResultRedirectLoopSynthesizesLoopDetectedStatus(t *testing.T) {
	item := frontier.Item{URL: "https://example.com/a", Depth: 1}
	result := errorResult(item, fetch.ErrRedirectLoop, http.StatusFound, "<html>last hop</html>")

	if result.StatusCode != http.StatusLoopDetected {
		t.Errorf("StatusCode = %d, want %d (StatusLoopDetected)", result.StatusCode, http.StatusLoopDetected)
	}
	if result.ErrorKind != classify.KindNetwork {
		t.Errorf("ErrorKind = %q, want %q", result.ErrorKind, classify.KindNetwork)
	}
	if !result.ErrorRetryable {
		t.Error("expected a redirect loop to be classified as retryable")
	}
	if result.ResponseBody != "<html>last hop</html>" {
		t.Errorf("ResponseBody = %q, want the threaded-through body", result.ResponseBody)
	}
}

func TestErrorResultNoResponseReportsNoStatus(t *testing.T) {
	item := frontier.Item{URL: "https://example.com/a", Depth: 0}
	result := errorResult(item, errors.New("dial tcp: i/o timeout"), 0, "")

	if result.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 when no response was recovered", result.StatusCode)
	}
	if result.ResponseBody != "" {
		t.Errorf("ResponseBody = %q, want empty", result.ResponseBody)
	}
}

// TestScanOneRedirectLoopThreadsOutcomeThroughToResult exercises the full
// scanOne -> errorResult path against a real redirect loop, confirming the
// strategy's partially-recovered Outcome isn't discarded on the error path.
func TestScanOneRedirectLoopThreadsOutcomeThroughToResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/a", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	item := frontier.Item{URL: srv.URL + "/a", Depth: 0}
	strategy := fetch.NewLite()
	fetchCfg := fetch.Config{Timeout: 2 * time.Second}
	pipeline := linkPipeline{startOrigin: srv.URL, maxDepth: 5}

	result, discovered, panicked := scanOne(context.Background(), item, strategy, fetchCfg, pipeline)
	if panicked != nil {
		t.Fatalf("scanOne panicked: %v", panicked)
	}
	if len(discovered) != 0 {
		t.Errorf("discovered = %v, want none for a failed fetch", discovered)
	}
	if result.StatusCode != http.StatusLoopDetected {
		t.Errorf("StatusCode = %d, want %d (StatusLoopDetected)", result.StatusCode, http.StatusLoopDetected)
	}
	if result.ErrorKind != classify.KindNetwork {
		t.Errorf("ErrorKind = %q, want %q", result.ErrorKind, classify.KindNetwork)
	}
}
