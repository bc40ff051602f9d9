package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/grantelam/webscan/urlutil"
	"golang.org/x/net/html"
)

// rawTextKind identifies which rawtext element a following TextToken belongs
// to, so inline script/style content can be scanned with the right patterns.
type rawTextKind int

const (
	rawTextNone rawTextKind = iota
	rawTextScript
	rawTextScriptJSON
	rawTextStyle
)

// collector accumulates candidate URL strings in first-encountered order
// while deduplicating exact repeats.
type collector struct {
	seen  map[string]bool
	links []string
}

func (c *collector) add(raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" || c.seen[raw] {
		return
	}
	c.seen[raw] = true
	c.links = append(c.links, raw)
}

func (c *collector) addAll(matches []string) {
	for _, m := range matches {
		c.add(m)
	}
}

// Static parses HTML from body and returns every candidate URL string found
// via the fixed source catalogue: anchors (href/data-href/data-url/onclick/
// visible text), data-* URL-ish attributes, forms, onclick anywhere, inline
// script and style content, media src/srcset/poster/data attributes,
// ld+json/application-json bodies, HTML comments, meta/link discovery tags,
// buttons and ARIA link/button roles, <area>, <base href>, and same-origin
// <script src>. <iframe> is deliberately never followed.
//
// Returned strings are raw and unnormalized — resolving against base,
// filtering scheme/origin/static-asset/regex, and deduplicating post-
// normalization are the caller's job (urlutil + the frontier).
func Static(body io.Reader, base *url.URL) ([]string, error) {
	z := html.NewTokenizer(body)
	c := &collector{seen: make(map[string]bool)}
	pendingRaw := rawTextNone

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != nil && err != io.EOF {
				return c.links, fmt.Errorf("tokenize html: %w", err)
			}
			return c.links, nil

		case html.CommentToken:
			scanFreeText(c, z.Token().Data)

		case html.TextToken:
			text := z.Token().Data
			switch pendingRaw {
			case rawTextScriptJSON:
				scanJSONText(c, text)
			case rawTextScript, rawTextStyle:
				scanFreeText(c, text)
			default:
				scanVisibleText(c, text)
			}
			pendingRaw = rawTextNone

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			extractFromTag(c, tok, base)
			if tok.Data == "script" {
				pendingRaw = scriptRawKind(tok)
			} else if tok.Data == "style" {
				pendingRaw = rawTextStyle
			}
		}
	}
}

// JSONSeeds walks raw JSON text (e.g. an application/json response body) and
// returns every URL-like string leaf it contains, in first-encountered
// order. Used by the Lite fetch strategy to turn JSON API responses into
// depth+1 frontier seeds.
func JSONSeeds(text string) []string {
	c := &collector{seen: make(map[string]bool)}
	scanJSONText(c, text)
	return c.links
}

func scriptRawKind(tok html.Token) rawTextKind {
	typ := strings.ToLower(attrVal(tok, "type"))
	if typ == "application/ld+json" || typ == "application/json" {
		return rawTextScriptJSON
	}
	return rawTextScript
}

// extractFromTag applies every static-catalogue rule that keys off a single
// start/self-closing tag's name and attributes.
func extractFromTag(c *collector, tok html.Token, base *url.URL) {
	if tok.Data == "iframe" {
		return
	}

	for _, attr := range tok.Attr {
		key := strings.ToLower(attr.Key)
		switch {
		case key == "onclick":
			scanFreeText(c, attr.Val)
		case key == "style":
			scanFreeText(c, attr.Val)
		case dataAttrNameRe.MatchString(key):
			c.add(attr.Val)
		}
	}

	switch tok.Data {
	case "a":
		c.add(attrVal(tok, "href"))
		c.add(attrVal(tok, "data-href"))
		c.add(attrVal(tok, "data-url"))
	case "form":
		c.add(attrVal(tok, "action"))
	case "img":
		addSrcset(c, attrVal(tok, "srcset"))
	case "source":
		c.add(attrVal(tok, "src"))
		addSrcset(c, attrVal(tok, "srcset"))
	case "video":
		c.add(attrVal(tok, "poster"))
	case "object":
		c.add(attrVal(tok, "data"))
	case "embed":
		c.add(attrVal(tok, "src"))
	case "meta":
		extractMeta(c, tok)
	case "link":
		extractLink(c, tok)
	case "button":
		c.add(attrVal(tok, "data-href"))
		c.add(attrVal(tok, "data-url"))
	case "area":
		c.add(attrVal(tok, "href"))
	case "base":
		c.add(attrVal(tok, "href"))
	case "script":
		if src := attrVal(tok, "src"); src != "" && base != nil {
			if resolved, err := urlutil.Normalize(src, base); err == nil && urlutil.SameOrigin(resolved, base.String()) {
				c.add(src)
			}
		}
	}

	role := strings.ToLower(attrVal(tok, "role"))
	if (role == "button" || role == "link") && hasAnyDataAttr(tok) {
		c.add(attrVal(tok, "data-href"))
		c.add(attrVal(tok, "data-url"))
	}
}

func extractMeta(c *collector, tok html.Token) {
	property := strings.ToLower(attrVal(tok, "property"))
	name := strings.ToLower(attrVal(tok, "name"))
	httpEquiv := strings.ToLower(attrVal(tok, "http-equiv"))

	switch property {
	case "og:url", "og:image":
		c.add(attrVal(tok, "content"))
	}
	switch name {
	case "twitter:url", "twitter:image":
		c.add(attrVal(tok, "content"))
	}
	if httpEquiv == "refresh" {
		scanFreeText(c, attrVal(tok, "content"))
	}
}

var canonicalRels = map[string]bool{
	"canonical": true, "manifest": true, "prefetch": true,
	"preload": true, "dns-prefetch": true, "prerender": true,
}

func extractLink(c *collector, tok html.Token) {
	for _, rel := range strings.Fields(strings.ToLower(attrVal(tok, "rel"))) {
		if canonicalRels[rel] {
			c.add(attrVal(tok, "href"))
			return
		}
	}
}

func hasAnyDataAttr(tok html.Token) bool {
	for _, attr := range tok.Attr {
		if strings.HasPrefix(strings.ToLower(attr.Key), "data-") {
			return true
		}
	}
	return false
}

func addSrcset(c *collector, srcset string) {
	if srcset == "" {
		return
	}
	for _, candidate := range strings.Split(srcset, ",") {
		fields := strings.Fields(strings.TrimSpace(candidate))
		if len(fields) > 0 {
			c.add(fields[0])
		}
	}
}

func attrVal(tok html.Token, key string) string {
	for _, attr := range tok.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val
		}
	}
	return ""
}

// scanFreeText applies the onclick/script/style patterns (JS assignment,
// JS network calls, CSS url()/@import) plus a bare-URL scan to arbitrary text.
func scanFreeText(c *collector, text string) {
	for _, m := range jsAssignRe.FindAllStringSubmatch(text, -1) {
		c.add(m[2])
	}
	for _, m := range jsCallRe.FindAllStringSubmatch(text, -1) {
		c.add(m[1])
	}
	for _, m := range cssURLRe.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			c.add(m[1])
		}
		if m[2] != "" {
			c.add(m[2])
		}
	}
	c.addAll(bareURLRe.FindAllString(text, -1))
}

// scanVisibleText scans rendered page text for bare http(s) URLs only; it
// skips the JS/CSS patterns since visible text is not code.
func scanVisibleText(c *collector, text string) {
	c.addAll(bareURLRe.FindAllString(text, -1))
}

// scanJSONText decodes text as JSON and walks it, emitting any string leaf
// that looks like an absolute or root-relative URL.
func scanJSONText(c *collector, text string) {
	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		// Not valid JSON (e.g. a JS object literal with unquoted keys);
		// fall back to a plain free-text scan rather than discarding it.
		scanFreeText(c, text)
		return
	}
	walkJSON(c, doc)
}

func walkJSON(c *collector, node any) {
	switch v := node.(type) {
	case string:
		if bareURLRe.MatchString(v) {
			c.addAll(bareURLRe.FindAllString(v, -1))
		} else if rootRelativeRe.MatchString(v) {
			c.add(v)
		}
	case []any:
		for _, elem := range v {
			walkJSON(c, elem)
		}
	case map[string]any:
		for _, elem := range v {
			walkJSON(c, elem)
		}
	}
}
