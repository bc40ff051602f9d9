package urlutil

import (
	"net/url"
	"regexp"
)

// PathFilter applies a case-insensitive regular expression to a URL's path
// component only. An empty pattern matches every path. An invalid pattern
// matches nothing, rather than erroring at match time — callers that want to
// surface a bad pattern should inspect CompileErr.
type PathFilter struct {
	re         *regexp.Regexp
	matchAll   bool
	CompileErr error
}

// NewPathFilter compiles pattern for repeated use against URL paths.
func NewPathFilter(pattern string) *PathFilter {
	if pattern == "" {
		return &PathFilter{matchAll: true}
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return &PathFilter{CompileErr: err}
	}
	return &PathFilter{re: re}
}

// Match reports whether rawURL's path satisfies the filter.
func (f *PathFilter) Match(rawURL string) bool {
	if f == nil {
		return true
	}
	if f.matchAll {
		return true
	}
	if f.re == nil {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return f.re.MatchString(parsed.Path)
}
