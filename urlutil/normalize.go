// Package urlutil normalizes, classifies, and filters URLs for the crawl
// engine. Crawl identity is path-only: fragments and query strings are
// stripped during normalization so that "/about#team" and "/about?ref=x"
// collapse onto the same visited entry as "/about".
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// excludedSchemes are never crawlable; Normalize rejects hrefs that begin
// with one of these, case-insensitively.
var excludedSchemes = []string{"javascript:", "mailto:", "tel:", "data:", "blob:"}

// ErrExcludedScheme is returned when href uses a scheme that is never crawled.
var ErrExcludedScheme = errors.New("excluded scheme")

// ErrEmptyHref is returned when href is empty or all whitespace.
var ErrEmptyHref = errors.New("empty href")

// Normalize resolves href against base (which must itself already be an
// absolute, normalized URL) and returns the canonical crawl identity for the
// result: lowercase scheme/host, no fragment, no query string, and no
// trailing slash except on the root path.
//
// Normalize is idempotent: Normalize(Normalize(u, base), base) == Normalize(u, base)
// for any href that normalizes successfully, since re-resolving an absolute
// URL against any base yields the same URL back.
func Normalize(href string, base *url.URL) (string, error) {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" {
		return "", ErrEmptyHref
	}

	lower := strings.ToLower(trimmed)
	for _, scheme := range excludedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return "", fmt.Errorf("%w: %s", ErrExcludedScheme, scheme)
		}
	}

	ref, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}

	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}

	if resolved.Scheme == "" || resolved.Host == "" {
		return "", errors.New("URL must have both scheme and host")
	}

	resolved.Scheme = strings.ToLower(resolved.Scheme)
	resolved.Host = strings.ToLower(resolved.Host)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	resolved.RawQuery = ""

	if resolved.Path != "/" && strings.HasSuffix(resolved.Path, "/") {
		resolved.Path = strings.TrimSuffix(resolved.Path, "/")
	}
	if resolved.Path == "" {
		resolved.Path = "/"
	}

	return resolved.String(), nil
}

// IsHTTPScheme reports whether rawURL parses with an http or https scheme.
func IsHTTPScheme(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return scheme == "http" || scheme == "https"
}
