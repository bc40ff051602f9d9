// Package classify maps a raw scan failure — an HTTP status code, a
// transport error, or a soft-error-corrected body — onto a structured
// classification, and keeps a running aggregate of everything classified
// during a scan.
package classify

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Kind is the broad failure category.
type Kind string

const (
	KindServer  Kind = "server"
	KindClient  Kind = "client"
	KindTimeout Kind = "timeout"
	KindNetwork Kind = "network"
	KindUnknown Kind = "unknown"
)

// Severity ranks how urgently a human should care.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// Classification is the outcome of classifying one failure.
type Classification struct {
	Kind            Kind
	Severity        Severity
	Retryable       bool
	SuggestedAction string
}

var networkPhrases = []string{
	"econnrefused", "enotfound", "econnreset", "econnaborted",
	"connection refused", "connection reset", "no such host", "dns",
	"redirect loop",
}

var timeoutPhrases = []string{
	"timeout", "und_err_headers_timeout", "etimedout", "timeouterror", "abort", "deadline exceeded",
}

var criticalBodyPhrases = []string{"out of memory", "memory", "crash", "fatal"}

// Classify maps a raw failure to a Classification, in the priority order
// spec.md lays out: status-code rules first, then message/error-text
// pattern matches, then a body sniff for critical phrases, finally the
// unknown default.
func Classify(statusCode int, err error, body string) Classification {
	switch {
	case statusCode >= 500:
		return Classification{Kind: KindServer, Severity: SeverityHigh, Retryable: true, SuggestedAction: "retry after a delay; the server reported an internal failure"}
	case statusCode == 401 || statusCode == 403:
		return Classification{Kind: KindClient, Severity: SeverityHigh, Retryable: false, SuggestedAction: "check credentials or access rights for this URL"}
	case statusCode == 429:
		return Classification{Kind: KindClient, Severity: SeverityMedium, Retryable: true, SuggestedAction: "back off and retry; the server is rate-limiting requests"}
	case statusCode == 408:
		return Classification{Kind: KindClient, Severity: SeverityMedium, Retryable: true, SuggestedAction: "retry; the server closed an idle connection"}
	case statusCode >= 400:
		return Classification{Kind: KindClient, Severity: SeverityMedium, Retryable: false, SuggestedAction: "verify the URL is still valid"}
	}

	msg := strings.ToLower(errString(err))
	if containsAny(msg, timeoutPhrases) || isTimeoutErr(err) {
		return Classification{Kind: KindTimeout, Severity: SeverityMedium, Retryable: true, SuggestedAction: "increase the request timeout or retry"}
	}
	if containsAny(msg, networkPhrases) || isNetworkErr(err) {
		return Classification{Kind: KindNetwork, Severity: SeverityHigh, Retryable: true, SuggestedAction: "check connectivity to the target host"}
	}

	if containsAny(strings.ToLower(body), criticalBodyPhrases) {
		return Classification{Kind: KindUnknown, Severity: SeverityCritical, Retryable: false, SuggestedAction: "investigate immediately: the response suggests a server crash"}
	}

	return Classification{Kind: KindUnknown, Severity: SeverityMedium, Retryable: false, SuggestedAction: "investigate manually"}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func isTimeoutErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isNetworkErr(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
