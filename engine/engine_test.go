package engine_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/grantelam/webscan/engine"
	"github.com/grantelam/webscan/scan"
)

func newTestServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/page1">p1</a><a href="/missing">missing</a></body></html>`)
	})
	mux.HandleFunc("/page1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>no links</body></html>`)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	return httptest.NewServer(mux)
}

func TestScanWebsiteCrawlsAndSummarizesErrors(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	e := engine.New()
	cfg := scan.Config{
		URL:                 srv.URL + "/",
		MaxDepth:            5,
		LogRetentionMinutes: 1,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out, err := e.ScanWebsite(ctx, cfg)
	if err != nil {
		t.Fatalf("ScanWebsite() error = %v", err)
	}
	if out.ScanID == "" {
		t.Error("expected a generated scanId")
	}
	if len(out.Results) != 3 {
		t.Fatalf("got %d results, want 3 (/, /page1, /missing): %+v", len(out.Results), out.Results)
	}
	if out.ErrorSummary.ByStatusCode[404] != 1 {
		t.Errorf("ErrorSummary.ByStatusCode[404] = %d, want 1", out.ErrorSummary.ByStatusCode[404])
	}

	if got := e.GetScanResults(out.ScanID); len(got) != 3 {
		t.Errorf("GetScanResults after completion = %d entries, want 3", len(got))
	}
}

func TestScanWebsiteLogsCSRFRetryDetails(t *testing.T) {
	tokens := []string{"stale-token", "fresh-token"}
	callCount := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		tok := tokens[0]
		if callCount > 0 {
			tok = tokens[1]
		}
		callCount++
		fmt.Fprintf(w, `<html><body><form action="/session" method="POST">
			<input type="hidden" name="_token" value="%s">
			<input type="text" name="username"><input type="password" name="password">
		</form></body></html>`, tok)
	})
	mux.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.FormValue("_token") != "fresh-token" {
			w.WriteHeader(419)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>no links</body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := engine.New()
	cfg := scan.Config{
		URL:      srv.URL + "/",
		ScanID:   "csrf-retry",
		MaxDepth: 1,
		LoginURL: srv.URL + "/login",
		Username: "alice",
		Password: "hunter2",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out, err := e.ScanWebsite(ctx, cfg)
	if err != nil {
		t.Fatalf("ScanWebsite() error = %v", err)
	}

	found := false
	for _, l := range out.Logs {
		if retried, ok := l.Details["csrfRetried"].(bool); ok && retried {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a log entry with Details[\"csrfRetried\"]=true, got %+v", out.Logs)
	}
}

func TestPauseResumeStopAreSafeOnUnknownScan(t *testing.T) {
	e := engine.New()
	if r := e.PauseScan("nope"); !r.Success {
		t.Errorf("PauseScan on unknown id = %+v, want Success=true (idempotent no-op)", r)
	}
	if r := e.ResumeScan("nope"); !r.Success {
		t.Errorf("ResumeScan on unknown id = %+v, want Success=true", r)
	}
	if r := e.StopScan("nope"); !r.Success {
		t.Errorf("StopScan on unknown id = %+v, want Success=true", r)
	}
}

func TestStopScanAfterCompletionIsSafeNoOp(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	e := engine.New()
	cfg := scan.Config{URL: srv.URL + "/", ScanID: "stop-me", MaxDepth: 5}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := e.ScanWebsite(ctx, cfg); err != nil {
		t.Fatalf("ScanWebsite() error = %v", err)
	}
	if r := e.StopScan(cfg.ScanID); !r.Success {
		t.Errorf("StopScan after completion = %+v, want Success=true", r)
	}
}
