// Package seed discovers extra depth-0 crawl candidates before the frontier
// is seeded with the operator-supplied start URL: sitemap files and
// robots.txt directives, mined for URLs rather than enforced as policy.
package seed

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// sitemapCandidates are probed in order; the first 2xx XML response wins.
var sitemapCandidates = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemap1.xml",
	"/sitemap-index.xml",
	"/sitemaps.xml",
}

// urlSet mirrors the <urlset><url><loc> sitemap schema.
type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []locEntry `xml:"url"`
}

// sitemapIndex mirrors the <sitemapindex><sitemap><loc> schema.
type sitemapIndex struct {
	XMLName  xml.Name   `xml:"sitemapindex"`
	Sitemaps []locEntry `xml:"sitemap"`
}

type locEntry struct {
	Loc string `xml:"loc"`
}

// Discoverer probes a site for sitemap and robots.txt seed URLs.
type Discoverer struct {
	Client *http.Client
}

// NewDiscoverer returns a Discoverer using client for all fetches.
func NewDiscoverer(client *http.Client) *Discoverer {
	return &Discoverer{Client: client}
}

// Sitemaps probes sitemapCandidates against baseURL's origin in order,
// returning the first same-origin `<url><loc>` entries found (depth 0).
// `<sitemap><loc>` children of a sitemap index are handed to onChildSitemap
// as they're discovered, so the caller can fetch them in the background
// (fire-and-forget) rather than blocking seeding on a potentially large
// index. Fetch errors are swallowed: a timeout is silent, and the first
// other failure (transport error or non-2xx status) is reported to onWarning
// once per call. A body that does not parse as a sitemap is skipped silently.
func (d *Discoverer) Sitemaps(ctx context.Context, baseURL string, onChildSitemap func(loc string), onWarning func(error)) []string {
	origin, err := originOf(baseURL)
	if err != nil {
		return nil
	}

	warned := false
	for _, path := range sitemapCandidates {
		body, err := d.fetch(ctx, origin+path)
		if err != nil {
			if !isTimeout(err) && onWarning != nil && !warned {
				onWarning(fmt.Errorf("fetch %s: %w", path, err))
				warned = true
			}
			continue
		}

		if locs, childSitemaps, ok := parseSitemapBody(body); ok {
			for _, child := range childSitemaps {
				if onChildSitemap != nil {
					onChildSitemap(child)
				}
			}
			return sameOriginOnly(locs, origin)
		}
	}
	return nil
}

// FetchChildSitemap fetches a single `<sitemap><loc>` URL discovered from a
// sitemap index and returns its same-origin `<url><loc>` entries. Meant to
// be called from a background goroutine per spec's fire-and-forget model.
func (d *Discoverer) FetchChildSitemap(ctx context.Context, loc string, onWarning func(error)) []string {
	origin, err := originOf(loc)
	if err != nil {
		return nil
	}
	body, err := d.fetch(ctx, loc)
	if err != nil {
		if !isTimeout(err) && onWarning != nil {
			onWarning(fmt.Errorf("fetch child sitemap %s: %w", loc, err))
		}
		return nil
	}
	locs, _, ok := parseSitemapBody(body)
	if !ok {
		return nil
	}
	return sameOriginOnly(locs, origin)
}

func parseSitemapBody(body []byte) (urls []string, childSitemaps []string, ok bool) {
	var set urlSet
	if err := xml.Unmarshal(body, &set); err == nil && len(set.URLs) > 0 {
		for _, u := range set.URLs {
			urls = append(urls, u.Loc)
		}
		return urls, nil, true
	}

	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err == nil && len(index.Sitemaps) > 0 {
		for _, s := range index.Sitemaps {
			childSitemaps = append(childSitemaps, s.Loc)
		}
		return nil, childSitemaps, true
	}

	return nil, nil, false
}

func (d *Discoverer) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func originOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("not an absolute URL: %s", rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

func sameOriginOnly(locs []string, origin string) []string {
	out := make([]string, 0, len(locs))
	for _, loc := range locs {
		locOrigin, err := originOf(loc)
		if err != nil || !strings.EqualFold(locOrigin, origin) {
			continue
		}
		out = append(out, loc)
	}
	return out
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}
