// Package fetch implements the two ways a page can be retrieved: a plain
// HTTP GET (Lite) and a headless-browser navigation (Rich). Both variants
// share a result shape and a soft-error body-sniffing pass.
package fetch

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// bodySampleLimit bounds how much of an error response body is retained on
// the Outcome, in runes.
const bodySampleLimit = 1000

// DefaultUserAgent is supplied on every request unless CustomHeaders carries
// a "User-Agent" key that overrides it.
const DefaultUserAgent = "Mozilla/5.0 (compatible; webscan/1.0; +https://github.com/grantelam/webscan)"

// Config carries the per-scan settings both strategies need.
type Config struct {
	Timeout            time.Duration
	CustomHeaders      map[string]string
	Jar                http.CookieJar
	DetectSoftErrors   bool
	DynamicContentWait time.Duration
}

// Outcome is what a Strategy produces for one URL: the authoritative status,
// classified content, and the raw candidate links pulled from it. Links are
// unnormalized and unfiltered — C1/C5 handle that downstream.
type Outcome struct {
	RequestedURL string
	FinalURL     string
	StatusCode   int
	ContentType  string
	Links        []string
	JSONSeeds    []string
	BodySample   string
	ResponseTime time.Duration
	TimedOut     bool
}

// Strategy fetches target and returns what was found there.
type Strategy interface {
	Fetch(ctx context.Context, target *url.URL, cfg Config) (Outcome, error)
}

// userAgent returns the operator-supplied User-Agent header if one was set
// in CustomHeaders, else DefaultUserAgent.
func userAgent(cfg Config) string {
	for k, v := range cfg.CustomHeaders {
		if httpCanonicalEqual(k, "User-Agent") {
			return v
		}
	}
	return DefaultUserAgent
}

func httpCanonicalEqual(a, b string) bool {
	return http.CanonicalHeaderKey(a) == http.CanonicalHeaderKey(b)
}

// truncateSample returns at most bodySampleLimit runes of s.
func truncateSample(s string) string {
	runes := []rune(s)
	if len(runes) <= bodySampleLimit {
		return s
	}
	return string(runes[:bodySampleLimit])
}
