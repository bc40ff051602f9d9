package auth

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
)

// cookieJar returns a standard in-memory cookie jar, the same one every
// strategy in this repo uses once authentication has populated it (C4 is the
// only writer; everything downstream reads it).
func cookieJar() (http.CookieJar, error) {
	return cookiejar.New(nil)
}

// cookieValue returns the URL-decoded value of the named cookie the jar
// holds for u, or "" if it isn't set. Frameworks like Laravel and Angular
// percent-encode the CSRF cookie, and the decoded value is what's expected
// back in the X-XSRF-TOKEN header.
func cookieValue(jar http.CookieJar, u *url.URL, name string) string {
	if jar == nil || u == nil {
		return ""
	}
	for _, c := range jar.Cookies(u) {
		if c.Name == name {
			decoded, err := url.QueryUnescape(c.Value)
			if err != nil {
				return c.Value
			}
			return decoded
		}
	}
	return ""
}
