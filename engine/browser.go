package engine

import (
	"context"

	"github.com/chromedp/chromedp"
)

// newBrowserContext allocates a headless Chrome process for a one-shot
// login negotiation. It is independent of the browser the scheduler later
// opens for the crawl itself (auth.Browser.Login only needs to live long
// enough to harvest cookies into the jar it returns).
func newBrowserContext(ctx context.Context) (context.Context, context.CancelFunc) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	cancel := func() {
		cancelAlloc()
	}
	return allocCtx, cancel
}
