package seed

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/temoto/robotstxt"
)

// RobotsSeeds fetches origin's robots.txt and mines it for seed candidates:
// every `Sitemap:` line's URL (same-origin only, via the robotstxt library's
// parsed Sitemaps field) and every `Disallow:` path, reinterpreted as a
// depth-0 URL candidate rather than as a crawl restriction — the intent
// here is discovery, not policy enforcement. robotstxt's public API only
// exposes rule membership testing (Group.Test), not the literal disallowed
// path strings, so Disallow paths are mined with a direct line scan instead.
// Transport and parse errors are swallowed the same way Sitemaps does.
func (d *Discoverer) RobotsSeeds(ctx context.Context, baseURL string, onWarning func(error)) (sitemaps, disallowPaths []string) {
	origin, err := originOf(baseURL)
	if err != nil {
		return nil, nil
	}

	body, err := d.fetch(ctx, origin+"/robots.txt")
	if err != nil {
		if !isTimeout(err) && onWarning != nil {
			onWarning(fmt.Errorf("fetch robots.txt: %w", err))
		}
		return nil, nil
	}

	robots, err := robotstxt.FromStatusAndBytes(http.StatusOK, body)
	if err != nil || robots == nil {
		if err != nil && onWarning != nil {
			onWarning(fmt.Errorf("parse robots.txt: %w", err))
		}
		return nil, nil
	}

	sitemaps = sameOriginOnly(robots.Sitemaps, origin)

	for _, path := range scanDisallowPaths(body) {
		disallowPaths = append(disallowPaths, origin+path)
	}

	return sitemaps, disallowPaths
}

// scanDisallowPaths extracts every "Disallow: <path>" directive's path,
// case-insensitively, skipping blanket "/" and empty disallows (which carry
// no discoverable URL).
func scanDisallowPaths(body []byte) []string {
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(strings.NewReader(string(body)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lower := strings.ToLower(line)
		if !strings.HasPrefix(lower, "disallow:") {
			continue
		}
		path := strings.TrimSpace(line[len("disallow:"):])
		if path == "" || path == "/" || seen[path] {
			continue
		}
		if !strings.HasPrefix(path, "/") {
			continue
		}
		seen[path] = true
		paths = append(paths, path)
	}
	return paths
}
