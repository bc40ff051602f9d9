// Package auth negotiates a login before a scan starts, when an operator
// supplies a loginUrl/username/password. It picks between an HTTP form
// negotiator and a headless-browser login depending on whether the scan
// has a browser available.
package auth

import (
	"net/http"
	"net/url"
	"strings"
)

// Credentials is the operator-supplied login configuration.
type Credentials struct {
	LoginURL string
	Username string
	Password string
	// UsernameField/PasswordField override field auto-detection when set.
	UsernameField string
	PasswordField string
}

// Result is what a successful (or attempted) login produces: the cookie jar
// to carry into the crawl, and the effective start URL.
type Result struct {
	Jar              http.CookieJar
	StartURL         string
	LoginRedirectURL string
	Warning          string
	// CSRFRetried reports whether the initial submission was rejected with a
	// 419 CSRF mismatch and a refetch-and-resubmit was needed to log in.
	CSRFRetried bool
}

// Negotiator performs a login and returns the session state to crawl with.
type Negotiator interface {
	Login(creds Credentials, fallbackStartURL string) (Result, error)
}

// loginPageTokens are the substrings (English and Vietnamese) that mark a
// post-login page as still being the login page, for Verify.
var loginPageTokens = []string{"login", "đăng nhập", "dang-nhap"}

// Verify reports whether candidateURL or candidateBody indicates the crawl
// is still looking at the login page after authentication, in which case
// callers should revert to the operator-supplied start URL and warn.
func Verify(candidateURL, loginURL, candidateBody string) (stillOnLoginPage bool) {
	if candidateURL != "" && sameURL(candidateURL, loginURL) {
		return true
	}
	lower := strings.ToLower(candidateBody)
	for _, tok := range loginPageTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

func sameURL(a, b string) bool {
	au, errA := url.Parse(a)
	bu, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	au.Fragment, bu.Fragment = "", ""
	return au.String() == bu.String()
}
