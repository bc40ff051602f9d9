package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/grantelam/webscan/urlutil"
)

// RevealLimit bounds how many elements of each interactive-reveal category
// (dropdowns, tabs, accordions, load-more buttons) are clicked per page, so a
// pathological page cannot turn extraction into an unbounded click loop.
const RevealLimit = 5

// revealScriptTemplate performs the interactive-reveal pass: smooth
// top-to-bottom scrolling in viewport increments, a jump to mid and back to
// top, a horizontal scroll when the document overflows the viewport, and up
// to %d (RevealLimit) clicks on each of dropdown/tab/accordion/load-more
// triggers, plus a mouseenter dispatch on tooltip-bearing elements.
const revealScriptTemplate = `(function(limit) {
	function dispatchMouseEnter(el) {
		el.dispatchEvent(new MouseEvent('mouseenter', {bubbles: true}));
	}
	var vh = window.innerHeight || document.documentElement.clientHeight;
	var full = document.body.scrollHeight;
	for (var y = 0; y < full; y += vh) {
		window.scrollTo(0, y);
	}
	window.scrollTo(0, full / 2);
	window.scrollTo(0, 0);
	var vw = window.innerWidth || document.documentElement.clientWidth;
	if (document.body.scrollWidth > vw) {
		window.scrollTo(document.body.scrollWidth, 0);
		window.scrollTo(0, 0);
	}

	var triggerSelectors = [
		'[data-toggle="dropdown"]', '.dropdown-toggle',
		'[role="tab"]', '.tab-trigger', '[data-tab]',
		'.accordion-toggle', '[data-toggle="collapse"]', 'details > summary',
	];
	triggerSelectors.forEach(function(sel) {
		var els = document.querySelectorAll(sel);
		for (var i = 0; i < Math.min(els.length, limit); i++) {
			try { els[i].click(); } catch (e) {}
		}
	});

	var loadMoreRe = /load more|show more|xem th(e|ê)m/i;
	var clickable = document.querySelectorAll('button, a, [role="button"]');
	var clicked = 0;
	for (var j = 0; j < clickable.length && clicked < limit; j++) {
		var text = (clickable[j].textContent || '').trim();
		if (loadMoreRe.test(text)) {
			try { clickable[j].click(); clicked++; } catch (e) {}
		}
	}

	var tooltipEls = document.querySelectorAll('[title], [data-tooltip], [data-toggle="tooltip"]');
	for (var k = 0; k < Math.min(tooltipEls.length, limit); k++) {
		dispatchMouseEnter(tooltipEls[k]);
	}
	return true;
})(%d)`

// extractScript walks the live DOM and returns the catalogue's raw source
// material as separate buckets, so the Go side can run the exact same
// pattern-matching helpers (scanFreeText, scanJSONText) used by the static
// backend against the buckets gathered here.
const extractScript = `(function() {
	function attr(el, name) { return el.getAttribute(name) || ''; }
	function pushAll(arr, vals) { vals.forEach(function(v) { if (v) arr.push(v); }); }

	var directLinks = [];
	var onclickText = [];
	var scriptText = [];
	var jsonText = [];
	var styleText = [];
	var commentText = [];
	var sameOriginScriptSrc = [];

	document.querySelectorAll('a').forEach(function(el) {
		pushAll(directLinks, [attr(el, 'href'), attr(el, 'data-href'), attr(el, 'data-url')]);
	});
	document.querySelectorAll('form').forEach(function(el) { directLinks.push(attr(el, 'action')); });
	document.querySelectorAll('img').forEach(function(el) { directLinks.push(attr(el, 'srcset')); });
	document.querySelectorAll('source').forEach(function(el) {
		pushAll(directLinks, [attr(el, 'src'), attr(el, 'srcset')]);
	});
	document.querySelectorAll('video').forEach(function(el) { directLinks.push(attr(el, 'poster')); });
	document.querySelectorAll('object').forEach(function(el) { directLinks.push(attr(el, 'data')); });
	document.querySelectorAll('embed').forEach(function(el) { directLinks.push(attr(el, 'src')); });
	document.querySelectorAll('area').forEach(function(el) { directLinks.push(attr(el, 'href')); });
	document.querySelectorAll('base').forEach(function(el) { directLinks.push(attr(el, 'href')); });
	document.querySelectorAll('button, [role="button"], [role="link"]').forEach(function(el) {
		pushAll(directLinks, [attr(el, 'data-href'), attr(el, 'data-url')]);
	});
	document.querySelectorAll('meta[property="og:url"], meta[property="og:image"], meta[name="twitter:url"], meta[name="twitter:image"]').forEach(function(el) {
		directLinks.push(attr(el, 'content'));
	});
	document.querySelectorAll('meta[http-equiv="refresh"]').forEach(function(el) { jsonText.push(attr(el, 'content')); onclickText.push(attr(el, 'content')); });
	document.querySelectorAll('link[rel]').forEach(function(el) {
		var rel = attr(el, 'rel').toLowerCase();
		if (/\b(canonical|manifest|prefetch|preload|dns-prefetch|prerender)\b/.test(rel)) {
			directLinks.push(attr(el, 'href'));
		}
	});
	document.querySelectorAll('[onclick]').forEach(function(el) { onclickText.push(attr(el, 'onclick')); });
	document.querySelectorAll('[style]').forEach(function(el) { styleText.push(attr(el, 'style')); });
	document.querySelectorAll('style').forEach(function(el) { styleText.push(el.textContent || ''); });
	document.querySelectorAll('script').forEach(function(el) {
		var type = (attr(el, 'type') || '').toLowerCase();
		if (type === 'application/ld+json' || type === 'application/json') {
			jsonText.push(el.textContent || '');
		} else if (!attr(el, 'src')) {
			scriptText.push(el.textContent || '');
		} else if (el.src && el.src.indexOf(location.origin) === 0) {
			sameOriginScriptSrc.push(attr(el, 'src'));
		}
	});
	document.querySelectorAll('[data-href], [data-url], [data-link], [data-action], [data-path], [data-route]').forEach(function(el) {
		for (var i = 0; i < el.attributes.length; i++) {
			var a = el.attributes[i];
			if (/^data-.*(href|url|link|action|path|route).*$/i.test(a.name)) {
				directLinks.push(a.value);
			}
		}
	});

	var walker = document.createTreeWalker(document.documentElement, NodeFilter.SHOW_COMMENT, null);
	var node;
	while ((node = walker.nextNode())) {
		commentText.push(node.nodeValue || '');
	}

	var bodyText = document.body ? (document.body.innerText || '') : '';

	return JSON.stringify({
		directLinks: directLinks,
		onclickText: onclickText,
		scriptText: scriptText,
		jsonText: jsonText,
		styleText: styleText,
		commentText: commentText,
		sameOriginScriptSrc: sameOriginScriptSrc,
		bodyText: bodyText,
	});
})()`

type domBuckets struct {
	DirectLinks         []string `json:"directLinks"`
	OnclickText         []string `json:"onclickText"`
	ScriptText          []string `json:"scriptText"`
	JSONText            []string `json:"jsonText"`
	StyleText           []string `json:"styleText"`
	CommentText         []string `json:"commentText"`
	SameOriginScriptSrc []string `json:"sameOriginScriptSrc"`
	BodyText            string   `json:"bodyText"`
}

// Reveal runs the interactive-reveal pass (scroll, expand, hover) against the
// page currently loaded in ctx, then waits briefly for any content that
// revealing triggered to settle.
func Reveal(ctx context.Context, settleWait time.Duration) error {
	script := fmt.Sprintf(revealScriptTemplate, RevealLimit)
	var ok bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return err
	}
	return chromedp.Run(ctx, chromedp.Sleep(settleWait))
}

// Dynamic extracts the same source catalogue as Static but against a live,
// already-navigated DOM: it does not itself reveal interactive content —
// callers invoke Reveal first — and it walks comment nodes with a
// TreeWalker instead of the tokenizer's comment tokens.
func Dynamic(ctx context.Context, base *url.URL) ([]string, error) {
	var raw string
	if err := chromedp.Run(ctx, chromedp.Evaluate(extractScript, &raw)); err != nil {
		return nil, err
	}

	var buckets domBuckets
	if err := json.Unmarshal([]byte(raw), &buckets); err != nil {
		return nil, err
	}

	c := &collector{seen: make(map[string]bool)}
	for _, l := range buckets.DirectLinks {
		addSrcset(c, l)
		c.add(l)
	}
	for _, t := range buckets.OnclickText {
		scanFreeText(c, t)
	}
	for _, t := range buckets.ScriptText {
		scanFreeText(c, t)
	}
	for _, t := range buckets.StyleText {
		scanFreeText(c, t)
	}
	for _, t := range buckets.JSONText {
		scanJSONText(c, t)
	}
	for _, t := range buckets.CommentText {
		scanFreeText(c, t)
	}
	scanVisibleText(c, buckets.BodyText)

	if base != nil {
		for _, src := range buckets.SameOriginScriptSrc {
			if resolved, err := urlutil.Normalize(src, base); err == nil && urlutil.SameOrigin(resolved, base.String()) {
				c.add(src)
			}
		}
	}

	return c.links, nil
}
