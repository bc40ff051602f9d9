package auth

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// csrfFieldNames are the <input name=...> values checked for a CSRF token,
// in priority order.
var csrfFieldNames = []string{"_token", "csrf_token", "authenticity_token"}

// csrfMetaNames are the <meta name=...> values checked when no matching
// input field is present.
var csrfMetaNames = []string{"csrf-token", "_token"}

// formFields is what HTML scanning discovered about the login form.
type formFields struct {
	action        string
	method        string
	enctype       string
	usernameField string
	passwordField string
	csrfToken     string
	csrfFieldName string
}

// HTTPForm negotiates a login via a plain HTTP form POST: GET the login
// page, discover the CSRF token and field names, POST credentials, and
// retry once on a 419 CSRF mismatch.
type HTTPForm struct {
	Client *http.Client
}

// NewHTTPForm returns an HTTPForm negotiator with its own cookie jar.
func NewHTTPForm() *HTTPForm {
	jar, _ := cookieJar()
	return &HTTPForm{Client: &http.Client{Jar: jar}}
}

// Login implements Negotiator.
func (f *HTTPForm) Login(creds Credentials, fallbackStartURL string) (Result, error) {
	_, fields, err := f.fetchLoginPage(creds.LoginURL)
	if err != nil {
		return Result{}, fmt.Errorf("fetch login page: %w", err)
	}
	applyFieldOverrides(&fields, creds)

	resp, err := f.submit(creds, fields)
	if err != nil {
		return Result{}, fmt.Errorf("submit login form: %w", err)
	}

	csrfRetried := false
	if resp.statusCode == 419 {
		csrfRetried = true
		_, fields, err = f.fetchLoginPage(creds.LoginURL)
		if err != nil {
			return Result{}, fmt.Errorf("refetch login page after 419: %w", err)
		}
		applyFieldOverrides(&fields, creds)
		resp, err = f.submit(creds, fields)
		if err != nil {
			return Result{}, fmt.Errorf("retry login form submit: %w", err)
		}
	}

	startURL := fallbackStartURL
	if resp.redirectURL != "" {
		startURL = resp.redirectURL
	}

	result := Result{
		Jar:              f.Client.Jar,
		StartURL:         startURL,
		LoginRedirectURL: resp.redirectURL,
		CSRFRetried:      csrfRetried,
	}

	if Verify(startURL, creds.LoginURL, resp.body) {
		result.StartURL = fallbackStartURL
		result.Warning = "login appears to have failed: start URL reverted to the operator-supplied URL"
	}

	return result, nil
}

// fetchLoginPage GETs loginURL and scans the body for form field metadata.
func (f *HTTPForm) fetchLoginPage(loginURL string) (string, formFields, error) {
	req, err := http.NewRequest(http.MethodGet, loginURL, nil)
	if err != nil {
		return "", formFields{}, err
	}
	req.Header.Set("User-Agent", defaultBrowserUserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", formFields{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", formFields{}, err
	}

	fields, err := scanFormFields(bytes.NewReader(raw))
	if err != nil {
		return "", formFields{}, err
	}
	if fields.csrfToken == "" {
		if cookieVal := cookieValue(f.Client.Jar, resp.Request.URL, "XSRF-TOKEN"); cookieVal != "" {
			fields.csrfToken = cookieVal
		}
	}

	return string(raw), fields, nil
}

type submitResponse struct {
	statusCode  int
	redirectURL string
	body        string
}

// submit POSTs the login form and captures a 3xx Location without following
// the redirect, mirroring a "redirect: manual" fetch.
func (f *HTTPForm) submit(creds Credentials, fields formFields) (submitResponse, error) {
	action := fields.action
	if action == "" {
		action = creds.LoginURL
	} else if resolved, err := resolveAgainst(creds.LoginURL, action); err == nil {
		action = resolved
	}
	method := fields.method
	if method == "" {
		method = http.MethodPost
	}

	values := url.Values{}
	values.Set(fields.usernameField, creds.Username)
	values.Set(fields.passwordField, creds.Password)
	if fields.csrfToken != "" {
		for _, name := range csrfFieldNames {
			values.Set(name, fields.csrfToken)
		}
	}

	isJSON := strings.Contains(strings.ToLower(fields.enctype), "json")
	var bodyReader io.Reader
	var contentType string
	if isJSON {
		bodyReader = strings.NewReader(jsonEncode(values))
		contentType = "application/json"
	} else {
		bodyReader = strings.NewReader(values.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequest(method, action, bodyReader)
	if err != nil {
		return submitResponse{}, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", defaultBrowserUserAgent)
	req.Header.Set("Referer", creds.LoginURL)
	if origin, err := originOf(creds.LoginURL); err == nil {
		req.Header.Set("Origin", origin)
	}
	if fields.csrfToken != "" {
		req.Header.Set("X-XSRF-TOKEN", fields.csrfToken)
		req.Header.Set("X-CSRF-TOKEN", fields.csrfToken)
	}

	client := &http.Client{
		Jar: f.Client.Jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		return submitResponse{}, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	out := submitResponse{statusCode: resp.StatusCode, body: string(raw)}
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		out.redirectURL = resp.Header.Get("Location")
	}
	return out, nil
}

func applyFieldOverrides(fields *formFields, creds Credentials) {
	if creds.UsernameField != "" {
		fields.usernameField = creds.UsernameField
	}
	if creds.PasswordField != "" {
		fields.passwordField = creds.PasswordField
	}
	if fields.usernameField == "" {
		fields.usernameField = "username"
	}
	if fields.passwordField == "" {
		fields.passwordField = "password"
	}
}

// resolveAgainst resolves ref (typically a form's "action" attribute)
// against base, the same way a browser resolves a relative form action.
func resolveAgainst(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

func originOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.Scheme + "://" + u.Host, nil
}

// jsonEncode turns form values into a flat JSON object without pulling in
// encoding/json for what is, at most, a handful of string fields.
func jsonEncode(values url.Values) string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for k := range values {
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(fmt.Sprintf("%q:%q", k, values.Get(k)))
	}
	b.WriteByte('}')
	return b.String()
}

const defaultBrowserUserAgent = "Mozilla/5.0 (compatible; webscan/1.0)"

// scanFormFields tokenizes body and discovers the login form's action,
// method, enctype, CSRF token, and best-guess username/password field names.
func scanFormFields(body io.Reader) (formFields, error) {
	z := html.NewTokenizer(body)
	var fields formFields
	var usernameCandidate string
	var metaToken string

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != nil && err != io.EOF {
				return fields, err
			}
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()

		switch tok.Data {
		case "form":
			if fields.action == "" {
				fields.action = attrOf(tok, "action")
				fields.method = strings.ToUpper(attrOf(tok, "method"))
				fields.enctype = attrOf(tok, "enctype")
			}
		case "meta":
			name := strings.ToLower(attrOf(tok, "name"))
			for _, want := range csrfMetaNames {
				if name == want && metaToken == "" {
					metaToken = attrOf(tok, "content")
				}
			}
		case "input":
			name := attrOf(tok, "name")
			typ := strings.ToLower(attrOf(tok, "type"))
			lowerName := strings.ToLower(name)

			if fields.csrfToken == "" {
				for _, want := range csrfFieldNames {
					if lowerName == want {
						fields.csrfToken = attrOf(tok, "value")
						fields.csrfFieldName = name
					}
				}
			}
			if typ == "password" && fields.passwordField == "" {
				fields.passwordField = name
			}
			if (typ == "text" || typ == "email") && usernameCandidate == "" {
				id := strings.ToLower(attrOf(tok, "id"))
				if strings.Contains(lowerName, "user") || strings.Contains(lowerName, "login") ||
					strings.Contains(id, "user") || strings.Contains(id, "login") {
					usernameCandidate = name
				}
			}
		}
	}

	if fields.csrfToken == "" {
		fields.csrfToken = metaToken
	}
	fields.usernameField = usernameCandidate
	return fields, nil
}

func attrOf(tok html.Token, key string) string {
	for _, attr := range tok.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val
		}
	}
	return ""
}
