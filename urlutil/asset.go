package urlutil

import (
	"net/url"
	"strings"
)

// staticExtensions is the closed set of path extensions that mark a URL as a
// non-HTML static asset: scripts, styles, images, fonts, media, archives,
// and common document formats.
var staticExtensions = map[string]bool{
	".js": true, ".mjs": true, ".css": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true, ".webp": true, ".ico": true, ".bmp": true, ".avif": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".mp4": true, ".webm": true, ".mp3": true, ".wav": true, ".ogg": true, ".avi": true, ".mov": true,
	".zip": true, ".tar": true, ".gz": true, ".rar": true, ".7z": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
}

// staticDirSegments are well-known build-output / asset-serving path
// segments; a URL whose path contains any of these is treated as a static
// asset regardless of its extension.
var staticDirSegments = []string{
	"/static/", "/assets/", "/public/", "/_next/static/", "/dist/", "/build/",
}

// staticHostPrefixes mark CDN/asset subdomains that never serve crawlable HTML.
var staticHostPrefixes = []string{"cdn.", "static.", "assets.", "media."}

// IsStaticAsset reports whether rawURL looks like a non-HTML static asset:
// a known file extension, a well-known static directory segment in the
// path, or a CDN-style hostname prefix.
func IsStaticAsset(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	path := strings.ToLower(parsed.Path)
	if ext := extOf(path); staticExtensions[ext] {
		return true
	}
	for _, seg := range staticDirSegments {
		if strings.Contains(path, seg) {
			return true
		}
	}

	host := strings.ToLower(parsed.Hostname())
	for _, prefix := range staticHostPrefixes {
		if strings.HasPrefix(host, prefix) {
			return true
		}
	}

	return false
}

// extOf returns the lowercase file extension (including the leading dot) of
// the final path segment, or "" if there is none.
func extOf(path string) string {
	slash := strings.LastIndex(path, "/")
	name := path
	if slash >= 0 {
		name = path[slash+1:]
	}
	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		return ""
	}
	return name[dot:]
}
