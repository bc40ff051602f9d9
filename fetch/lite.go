package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/grantelam/webscan/extract"
)

// maxBodyBytes caps how much of a response body Lite reads into memory
// before handing it to the extractor or the soft-error sniffer.
const maxBodyBytes = 10 << 20 // 10 MiB

// ErrRedirectLoop is wrapped into the returned error when a request's
// redirect chain revisits a URL it has already seen.
var ErrRedirectLoop = errors.New("redirect loop detected")

// Lite fetches a URL with a plain GET, following redirects, and extracts
// links from the final response body with extract.Static.
type Lite struct {
	Limiter *HostLimiter
}

// NewLite returns a Lite strategy with its own per-host pacing limiter.
func NewLite() *Lite {
	return &Lite{Limiter: NewHostLimiter()}
}

// Fetch implements Strategy.
func (l *Lite) Fetch(ctx context.Context, target *url.URL, cfg Config) (Outcome, error) {
	if l.Limiter != nil {
		if err := l.Limiter.Limiter(target).Wait(ctx); err != nil {
			return Outcome{RequestedURL: target.String()}, err
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	var isRedirectLoop bool
	var chain []string
	client := &http.Client{
		Timeout: cfg.Timeout,
		Jar:     cfg.Jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			cur := req.URL.String()
			for _, seen := range chain {
				if seen == cur {
					isRedirectLoop = true
					return http.ErrUseLastResponse
				}
			}
			chain = append(chain, cur)
			if len(via) >= 10 {
				isRedirectLoop = true
				return errors.New("stopped after 10 redirects")
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Outcome{RequestedURL: target.String()}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(cfg))
	for k, v := range cfg.CustomHeaders {
		if http.CanonicalHeaderKey(k) == "User-Agent" {
			continue
		}
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return Outcome{RequestedURL: target.String(), ResponseTime: elapsed}, err
	}
	defer resp.Body.Close()

	if isRedirectLoop {
		return Outcome{
			RequestedURL: target.String(),
			FinalURL:     resp.Request.URL.String(),
			StatusCode:   resp.StatusCode,
			ResponseTime: elapsed,
		}, ErrRedirectLoop
	}

	out := Outcome{
		RequestedURL: target.String(),
		FinalURL:     resp.Request.URL.String(),
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		ResponseTime: elapsed,
	}

	if loc := resp.Header.Get("Location"); loc != "" {
		out.Links = append(out.Links, loc)
	}

	if isBinaryContentType(out.ContentType) {
		if out.StatusCode >= 400 {
			out.BodySample = readSample(resp.Body)
		}
		return out, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return out, fmt.Errorf("read body: %w", err)
	}

	if isJSONContentType(out.ContentType) {
		out.JSONSeeds = extract.JSONSeeds(string(body))
	} else {
		links, extractErr := extract.Static(bytes.NewReader(body), resp.Request.URL)
		if extractErr != nil {
			return out, fmt.Errorf("extract links: %w", extractErr)
		}
		out.Links = append(out.Links, links...)
	}

	out.StatusCode = applySoftErrorDetection(cfg.DetectSoftErrors, out.StatusCode, string(body))
	if out.StatusCode >= 400 {
		out.BodySample = truncateSample(string(body))
	}

	return out, nil
}

func readSample(r io.Reader) string {
	buf, _ := io.ReadAll(io.LimitReader(r, bodySampleLimit))
	return string(buf)
}

func isJSONContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

// isBinaryContentType reports whether contentType names a format that is
// never worth handing to the extractor: images, video, audio, fonts, and the
// common compressed/archive application types.
func isBinaryContentType(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}

	switch {
	case strings.HasPrefix(contentType, "image/"),
		strings.HasPrefix(contentType, "video/"),
		strings.HasPrefix(contentType, "audio/"),
		strings.HasPrefix(contentType, "font/"):
		return true
	}

	switch contentType {
	case "application/pdf", "application/zip", "application/x-zip-compressed",
		"application/gzip", "application/vnd.rar", "application/x-7z-compressed",
		"application/octet-stream":
		return true
	}
	return false
}
