package urlutil

import (
	"net/url"
	"strings"
)

// SameOrigin reports whether u and base share a hostname, case-insensitively.
// Scheme and port are deliberately not compared: this matches the historical
// behavior of the system being reimplemented, where a crawl seeded at
// http://host/ will follow links into https://host:8443/ and vice versa.
func SameOrigin(u, base string) bool {
	uParsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	baseParsed, err := url.Parse(base)
	if err != nil {
		return false
	}
	return strings.EqualFold(uParsed.Hostname(), baseParsed.Hostname())
}

// Hostname extracts the lowercase hostname (no port) from rawURL, or the
// empty string if rawURL does not parse.
func Hostname(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
