package urlutil

import "testing"

func TestIsStaticAsset(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"javascript file", "https://example.com/app.js", true},
		{"stylesheet", "https://example.com/styles/main.css", true},
		{"image", "https://example.com/img/logo.png", true},
		{"font", "https://example.com/fonts/a.woff2", true},
		{"pdf document", "https://example.com/files/report.pdf", true},
		{"static dir segment", "https://example.com/static/chunk.abc123", true},
		{"next static dir", "https://example.com/_next/static/chunk.js", true},
		{"cdn host prefix", "https://cdn.example.com/anything", true},
		{"static host prefix", "https://static.example.com/x", true},
		{"plain html page", "https://example.com/about", false},
		{"page with no extension", "https://example.com/blog/my-post", false},
		{"unparsable url", "://bad", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStaticAsset(tt.url); got != tt.want {
				t.Errorf("IsStaticAsset(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
