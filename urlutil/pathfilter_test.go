package urlutil

import "testing"

func TestPathFilterEmptyMatchesAll(t *testing.T) {
	f := NewPathFilter("")
	if f.CompileErr != nil {
		t.Fatalf("unexpected compile error: %v", f.CompileErr)
	}
	for _, u := range []string{"https://example.com/", "https://example.com/anything/at/all"} {
		if !f.Match(u) {
			t.Errorf("Match(%q) = false, want true for empty pattern", u)
		}
	}
}

func TestPathFilterMatch(t *testing.T) {
	f := NewPathFilter("^/blog/")
	if f.CompileErr != nil {
		t.Fatalf("unexpected compile error: %v", f.CompileErr)
	}
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/blog/post-1", true},
		{"https://example.com/BLOG/post-1", true},
		{"https://example.com/about", false},
	}
	for _, tt := range tests {
		if got := f.Match(tt.url); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestPathFilterInvalidPatternMatchesNothing(t *testing.T) {
	f := NewPathFilter("(unterminated")
	if f.CompileErr == nil {
		t.Fatal("expected CompileErr for invalid pattern")
	}
	if f.Match("https://example.com/anything") {
		t.Error("Match should return false when pattern failed to compile")
	}
}

func TestPathFilterNilReceiverMatchesAll(t *testing.T) {
	var f *PathFilter
	if !f.Match("https://example.com/x") {
		t.Error("nil *PathFilter should match everything")
	}
}

func TestPathFilterUnparsableURL(t *testing.T) {
	f := NewPathFilter("^/blog/")
	if f.Match("://bad") {
		t.Error("Match on unparsable URL should be false")
	}
}
