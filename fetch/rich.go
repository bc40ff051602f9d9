package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/grantelam/webscan/extract"
)

// Rich fetches a URL by driving a headless browser: it captures the
// authoritative response status from the network stack (not just the
// goto result), salvages partial content on a navigation timeout, and
// extracts links from the live, interactively-revealed DOM.
type Rich struct {
	// Allocator is the parent chromedp context each worker derives its own
	// tab from. One browser process is shared by the whole scan; one page
	// context is created per worker invocation so concurrent workers never
	// share a tab.
	Allocator context.Context
}

// NewRich returns a Rich strategy backed by a freshly-allocated headless
// Chrome process. Callers must cancel the returned context.CancelFunc once
// the scan finishes to close the browser.
func NewRich(ctx context.Context) (*Rich, context.CancelFunc) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	cancel := func() {
		cancelBrowser()
		cancelAlloc()
	}
	return &Rich{Allocator: browserCtx}, cancel
}

// Fetch implements Strategy.
func (r *Rich) Fetch(ctx context.Context, target *url.URL, cfg Config) (Outcome, error) {
	pageCtx, cancelPage := chromedp.NewContext(r.Allocator)
	defer cancelPage()

	reqCtx, cancel := context.WithTimeout(pageCtx, cfg.Timeout)
	defer cancel()

	nav := &navObserver{target: target.String()}
	chromedp.ListenTarget(reqCtx, nav.onEvent)

	if err := chromedp.Run(reqCtx, network.Enable()); err != nil {
		return Outcome{RequestedURL: target.String()}, fmt.Errorf("enable network domain: %w", err)
	}
	if len(cfg.CustomHeaders) > 0 {
		headers := network.Headers{}
		for k, v := range cfg.CustomHeaders {
			headers[k] = v
		}
		if err := chromedp.Run(reqCtx, network.SetExtraHTTPHeaders(headers)); err != nil {
			return Outcome{RequestedURL: target.String()}, fmt.Errorf("set extra headers: %w", err)
		}
	}

	start := time.Now()
	timedOut := false
	var html string

	err := chromedp.Run(reqCtx, chromedp.Navigate(target.String()))
	if err != nil {
		if reqCtx.Err() != nil {
			// Navigation deadline exceeded: salvage whatever the DOM holds
			// rather than discarding the page outright.
			timedOut = true
			salvageCtx, cancelSalvage := context.WithTimeout(pageCtx, 3*time.Second)
			_ = chromedp.Run(salvageCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
			cancelSalvage()
		} else {
			return Outcome{RequestedURL: target.String(), ResponseTime: time.Since(start)}, err
		}
	}

	if cfg.DynamicContentWait > 0 && !timedOut {
		_ = chromedp.Run(reqCtx, chromedp.Sleep(cfg.DynamicContentWait))
	}

	if !timedOut {
		_ = extract.Reveal(reqCtx, cfg.DynamicContentWait)
		if err := chromedp.Run(reqCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
			return Outcome{RequestedURL: target.String(), ResponseTime: time.Since(start)}, fmt.Errorf("read rendered html: %w", err)
		}
	}

	links, extractErr := extract.Dynamic(reqCtx, target)
	if extractErr != nil {
		// Extraction against a torn-down or timed-out page can fail even
		// though salvage succeeded; fall back to the static backend over
		// whatever HTML was captured.
		links, _ = extract.Static(strings.NewReader(html), target)
	}

	status := int(nav.status)
	finalURL := nav.finalURL
	if status == 0 {
		if timedOut {
			status = 200
		}
		if finalURL == "" {
			finalURL = target.String()
		}
	}

	contentType := nav.contentType
	out := Outcome{
		RequestedURL: target.String(),
		FinalURL:     finalURL,
		StatusCode:   status,
		ContentType:  contentType,
		Links:        links,
		ResponseTime: time.Since(start),
		TimedOut:     timedOut,
	}

	if isJSONContentType(contentType) {
		out.JSONSeeds = extract.JSONSeeds(html)
		out.Links = nil
	}

	out.StatusCode = applySoftErrorDetection(cfg.DetectSoftErrors, out.StatusCode, html)
	if out.StatusCode >= 400 {
		out.BodySample = truncateSample(html)
	}

	return out, nil
}

// navObserver remembers the last response whose URL matches the navigation
// target (by CDP request/response events), which is the authoritative final
// status per the Rich strategy's navigation contract: it can differ from
// whatever chromedp.Navigate's own return value implies, e.g. when a
// service worker or redirect chain changes what actually resolved.
type navObserver struct {
	target      string
	status      int64
	finalURL    string
	contentType string
}

func (n *navObserver) onEvent(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventResponseReceived:
		if urlsMatchIgnoringFragment(e.Response.URL, n.target) || e.Response.URL == n.finalURL {
			n.status = e.Response.Status
			n.finalURL = e.Response.URL
			if ct, ok := e.Response.Headers["content-type"].(string); ok {
				n.contentType = ct
			} else if ct, ok := e.Response.Headers["Content-Type"].(string); ok {
				n.contentType = ct
			}
		}
	}
}

func urlsMatchIgnoringFragment(a, b string) bool {
	au, errA := url.Parse(a)
	bu, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	au.Fragment, bu.Fragment = "", ""
	return au.String() == bu.String()
}
