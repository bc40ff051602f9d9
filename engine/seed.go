package engine

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/grantelam/webscan/frontier"
	"github.com/grantelam/webscan/scan"
	"github.com/grantelam/webscan/seed"
	"github.com/grantelam/webscan/urlutil"
)

// seedFrontier probes sitemap.xml/robots.txt for extra depth-0 candidates
// before the caller pushes startURL itself (spec.md §4.9). Sitemap-index
// children are fetched in the background, fire-and-forget, exactly as the
// spec describes; everything else here is synchronous since it only costs
// a couple of HTTP round trips before the real crawl begins.
func (e *Engine) seedFrontier(ctx context.Context, cfg scan.Config, startURL string, f *frontier.Frontier, log *zerolog.Logger) {
	discoverer := seed.NewDiscoverer(&http.Client{Timeout: cfg.Timeout()})
	pathFilter := urlutil.NewPathFilter(cfg.PathRegexFilter)

	onWarning := func(err error) {
		log.Warn().Err(err).Msg("seed discovery")
	}

	onChildSitemap := func(loc string) {
		go func() {
			for _, u := range discoverer.FetchChildSitemap(ctx, loc, onWarning) {
				f.Enqueue(u, 0)
			}
		}()
	}

	for _, u := range discoverer.Sitemaps(ctx, startURL, onChildSitemap, onWarning) {
		f.Enqueue(u, 0)
	}

	sitemaps, disallows := discoverer.RobotsSeeds(ctx, startURL, onWarning)
	for _, u := range sitemaps {
		f.Enqueue(u, 0)
	}
	for _, u := range disallows {
		if urlutil.IsStaticAsset(u) || !pathFilter.Match(u) {
			continue
		}
		f.Enqueue(u, 0)
	}
}
