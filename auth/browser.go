package auth

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// keystrokeDelay matches a human typing cadence closely enough that sites
// with keystroke-based bot detection on the login form don't immediately
// reject the session.
const keystrokeDelay = 30 * time.Millisecond

// Browser negotiates a login by driving the same headless browser the Rich
// fetch strategy uses: navigate to the login page, type credentials, submit,
// and snapshot cookies from the resulting page. Unless the operator named the
// fields, it types into the first text/email input and the first password
// input; it does not apply HTTPForm's "user"/"login" name-or-id filter.
type Browser struct {
	Allocator context.Context
}

// NewBrowser returns a Browser negotiator sharing ctx's browser allocator.
func NewBrowser(ctx context.Context) *Browser {
	return &Browser{Allocator: ctx}
}

// Login implements Negotiator.
func (b *Browser) Login(creds Credentials, fallbackStartURL string) (Result, error) {
	ctx, cancel := chromedp.NewContext(b.Allocator)
	defer cancel()

	usernameSelector := fieldSelector(creds.UsernameField, "text", "email")
	passwordSelector := fieldSelector(creds.PasswordField, "password", "")

	var finalURL, pageBody string
	var cookies []*network.Cookie

	err := chromedp.Run(ctx,
		chromedp.Navigate(creds.LoginURL),
		chromedp.WaitVisible(usernameSelector, chromedp.ByQuery),
		chromedp.SendKeys(usernameSelector, creds.Username, chromedp.ByQuery),
		chromedp.Sleep(keystrokeDelay),
		chromedp.SendKeys(passwordSelector, creds.Password, chromedp.ByQuery),
		submitAction(),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &pageBody, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return Result{}, err
	}

	jar, _ := cookiejar.New(nil)
	if loginURL, parseErr := url.Parse(finalURL); parseErr == nil {
		jar.SetCookies(loginURL, toHTTPCookies(cookies))
	}

	startURL := finalURL
	result := Result{
		Jar:              jar,
		StartURL:         startURL,
		LoginRedirectURL: finalURL,
	}
	if Verify(finalURL, creds.LoginURL, pageBody) {
		result.StartURL = fallbackStartURL
		result.Warning = "login appears to have failed: start URL reverted to the operator-supplied URL"
	}
	return result, nil
}

// fieldSelector builds a best-effort CSS selector for the login form's
// username or password input when the operator didn't name one explicitly.
func fieldSelector(override, primaryType, altType string) string {
	if override != "" {
		return `input[name="` + override + `"], #` + override
	}
	if altType != "" {
		return `input[type="` + primaryType + `"], input[type="` + altType + `"]`
	}
	return `input[type="` + primaryType + `"]`
}

// submitAction clicks the first submit control it finds, falling back to
// pressing Enter in the password field when none exists.
func submitAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var hasSubmit bool
		_ = chromedp.Run(ctx, chromedp.Evaluate(
			`!!document.querySelector('button[type="submit"], input[type="submit"]')`,
			&hasSubmit,
		))
		if hasSubmit {
			return chromedp.Click(`button[type="submit"], input[type="submit"]`, chromedp.ByQuery).Do(ctx)
		}
		return chromedp.SendKeys(`input[type="password"]`, "\r", chromedp.ByQuery).Do(ctx)
	})
}

func toHTTPCookies(cookies []*network.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value, Path: c.Path, Domain: c.Domain})
	}
	return out
}
