// Package extract pulls candidate URL strings out of a page. It returns raw,
// unnormalized, unfiltered strings in first-encountered order: normalization
// (urlutil.Normalize) and same-origin/static-asset/regex filtering happen
// downstream, once per candidate, rather than being duplicated here.
package extract

import "regexp"

// dataAttrNameRe matches data-* attribute names that plausibly carry a URL:
// data-href, data-url, data-action, data-path, data-route, and friends.
var dataAttrNameRe = regexp.MustCompile(`(?i)^data-.*(href|url|link|action|path|route).*$`)

// bareURLRe finds bare http(s) URLs embedded in free text: visible text,
// inline scripts, style blocks, JSON string leaves.
var bareURLRe = regexp.MustCompile(`https?://[^\s'"<>\\]+`)

// rootRelativeRe finds bare root-relative paths ("/foo/bar") inside JSON
// string leaves; deliberately narrower than bareURLRe since JSON text is full
// of unrelated "/"-prefixed strings (MIME types, etc.) — the caller is
// expected to apply this only to values, not arbitrary prose.
var rootRelativeRe = regexp.MustCompile(`^/[^/][^\s'"<>\\]*$`)

// jsAssignRe matches onclick/script idioms that assign or invoke a
// navigation with a quoted URL:
//
//	location = '...'        location.href = '...'     window.location = '...'
//	window.open('...')      href = '...'               url = '...'
//	link = '...'
var jsAssignRe = regexp.MustCompile(`(?i)(href|url|link|location|window\.location|window\.open|location\.href)\s*[=:.]?\s*\(?\s*['"]([^'"]+)['"]`)

// jsCallRe matches fetch/axios/ajax/XHR-style calls with a quoted first
// argument: fetch('...'), axios.get('...'), $.ajax('...'), .post('...'), etc.
var jsCallRe = regexp.MustCompile(`(?i)(?:fetch|axios(?:\.(?:get|post|put|delete))?|\$?\.?ajax|XMLHttpRequest\(?\)?\.open\s*\(\s*['"]\w+['"]\s*,|\.(?:get|post|put|delete))\s*\(\s*['"]([^'"]+)['"]`)

// cssURLRe matches url(...) and @import '...' inside inline style text or
// <style> blocks.
var cssURLRe = regexp.MustCompile(`(?i)url\(\s*['"]?([^'")]+)['"]?\s*\)|@import\s+['"]([^'"]+)['"]`)

// loadMoreTextRe recognizes "load more" / "show more" triggers, including the
// Vietnamese phrase named in the source catalogue. The dynamic backend's
// reveal step does not use it: revealScriptTemplate carries its own
// JavaScript copy of the pattern.
var loadMoreTextRe = regexp.MustCompile(`(?i)(load more|show more|xem thêm)`)
