// Package engine is the single wiring point for a scan: it authenticates
// (C4) if credentials were given, discovers extra seed URLs (C9), seeds the
// frontier (C5), and drives the scheduler (C6) to completion, exposing the
// five RPC-shaped operations an external transport calls against.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/grantelam/webscan/auth"
	"github.com/grantelam/webscan/classify"
	"github.com/grantelam/webscan/control"
	"github.com/grantelam/webscan/frontier"
	"github.com/grantelam/webscan/scan"
	"github.com/grantelam/webscan/scheduler"
	"github.com/grantelam/webscan/session"
)

// ScanOutcome is what scanWebsite hands back on completion: the full result
// and log sets plus the aggregate error report.
type ScanOutcome struct {
	ScanID       string            `json:"scanId"`
	Results      []scan.Result     `json:"results"`
	Logs         []scan.Log        `json:"logs"`
	ErrorSummary scan.ErrorSummary `json:"errorSummary"`
}

// OpResult is the shape pauseScan/resumeScan/stopScan return.
type OpResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Engine holds the process-wide state shared by every scan: the control
// plane, the session store, and the diagnostic logger. One Engine is meant
// to live for the lifetime of the process.
type Engine struct {
	plane  *control.Plane
	store  *session.Store
	logger zerolog.Logger
}

// New returns an Engine ready to run scans.
func New() *Engine {
	return &Engine{
		plane:  control.New(),
		store:  session.NewStore(),
		logger: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger(),
	}
}

// ScanWebsite runs cfg to completion and returns the full result set. It is
// long-running; callers that want progress while it runs should poll
// GetScanLogs/GetScanResults with cfg.ScanID from another goroutine.
func (e *Engine) ScanWebsite(ctx context.Context, cfg scan.Config) (ScanOutcome, error) {
	cfg = cfg.WithDefaults()
	if cfg.ScanID == "" {
		cfg.ScanID = uuid.NewString()
	}
	log := e.logger.With().Str("scanId", cfg.ScanID).Str("url", cfg.URL).Logger()
	log.Info().Msg("scan starting")

	e.plane.Initialize(cfg.ScanID)
	e.store.Open(cfg.ScanID, cfg.MaxLogEntries, cfg.LogRetention())
	errs := classify.NewSummary()

	startURL := cfg.URL
	var jar http.CookieJar
	if cfg.LoginURL != "" {
		result, err := e.authenticate(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("authentication failed; continuing unauthenticated")
		} else {
			jar = result.Jar
			if result.StartURL != "" {
				startURL = result.StartURL
			}
			if result.Warning != "" {
				log.Warn().Msg(result.Warning)
			}
			if result.CSRFRetried {
				log.Warn().Msg("login retried once after a CSRF token mismatch")
				e.store.AppendLog(cfg.ScanID, scan.Log{
					Type:      scan.LogWarning,
					Message:   "login retried once after a CSRF token mismatch",
					Timestamp: time.Now().UTC().Format(time.RFC3339),
					URL:       cfg.LoginURL,
					Details:   map[string]any{"csrfRetried": true, "retryCount": 1},
				})
			}
		}
	}

	f, err := frontier.New()
	if err != nil {
		return ScanOutcome{}, fmt.Errorf("build frontier: %w", err)
	}
	defer f.Close()

	e.seedFrontier(ctx, cfg, startURL, f, &log)
	f.Enqueue(startURL, 0)

	if runErr := scheduler.Run(ctx, cfg, jar, f, e.plane, e.store, errs); runErr != nil {
		log.Warn().Err(runErr).Msg("scan ended before the frontier drained")
	}

	e.store.MarkComplete(cfg.ScanID)
	results := e.store.Results(cfg.ScanID)
	logs := e.store.Logs(cfg.ScanID)
	summary := toErrorSummary(errs)

	log.Info().Int("results", len(results)).Msg("scan complete")

	retention := cfg.LogRetention()
	scanID := cfg.ScanID
	time.AfterFunc(retention, func() {
		e.store.Cleanup(scanID)
		e.plane.Cleanup(scanID)
	})

	return ScanOutcome{ScanID: cfg.ScanID, Results: results, Logs: logs, ErrorSummary: summary}, nil
}

// GetScanLogs returns the current log buffer for scanID.
func (e *Engine) GetScanLogs(scanID string) []scan.Log {
	return e.store.Logs(scanID)
}

// GetScanResults returns the current result snapshot for scanID.
func (e *Engine) GetScanResults(scanID string) []scan.Result {
	return e.store.Results(scanID)
}

// PauseScan idempotently pauses scanID.
func (e *Engine) PauseScan(scanID string) OpResult {
	e.plane.Pause(scanID)
	return OpResult{Success: true, Message: "scan paused"}
}

// ResumeScan idempotently resumes scanID.
func (e *Engine) ResumeScan(scanID string) OpResult {
	e.plane.Resume(scanID)
	return OpResult{Success: true, Message: "scan resumed"}
}

// StopScan idempotently and stickily stops scanID.
func (e *Engine) StopScan(scanID string) OpResult {
	e.plane.Stop(scanID)
	return OpResult{Success: true, Message: "scan stopped"}
}

func toErrorSummary(s *classify.Summary) scan.ErrorSummary {
	recent := s.Recent()
	entries := make([]scan.ErrorEntry, 0, len(recent))
	for _, r := range recent {
		entries = append(entries, scan.ErrorEntry{
			URL:       r.URL,
			Message:   r.Message,
			Severity:  r.Severity,
			Timestamp: r.Timestamp,
		})
	}
	return scan.ErrorSummary{
		ByKind:       s.ByKind(),
		BySeverity:   s.BySeverity(),
		ByStatusCode: s.ByStatusCode(),
		Recent:       entries,
	}
}

// authenticate picks an auth.Negotiator based on cfg.UseHeadlessBrowser and
// runs the login, returning the cookie jar and effective start URL the
// crawl should use.
func (e *Engine) authenticate(ctx context.Context, cfg scan.Config) (auth.Result, error) {
	creds := auth.Credentials{
		LoginURL:      cfg.LoginURL,
		Username:      cfg.Username,
		Password:      cfg.Password,
		UsernameField: cfg.UsernameField,
		PasswordField: cfg.PasswordField,
	}

	var negotiator auth.Negotiator
	var closeBrowser func()
	if cfg.UseHeadlessBrowser {
		browserCtx, cancel := newBrowserContext(ctx)
		negotiator = auth.NewBrowser(browserCtx)
		closeBrowser = cancel
	} else {
		negotiator = auth.NewHTTPForm()
		closeBrowser = func() {}
	}
	defer closeBrowser()

	return negotiator.Login(creds, cfg.URL)
}
