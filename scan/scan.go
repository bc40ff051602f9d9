// Package scan holds the crawl's data model: the configuration an operator
// supplies, the per-URL results and log events a scan produces, and the
// aggregate error summary returned when it completes.
package scan

import (
	"time"

	"github.com/grantelam/webscan/classify"
)

// Config is the input to a scan, immutable for the session's lifetime.
type Config struct {
	URL      string `json:"url"`
	LoginURL string `json:"loginUrl,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	UsernameField string `json:"usernameField,omitempty"`
	PasswordField string `json:"passwordField,omitempty"`

	MaxDepth      int `json:"maxDepth"`
	MaxPages      int `json:"maxPages"`
	TimeoutMs     int `json:"timeoutMs"`
	MaxConcurrent int `json:"maxConcurrent"`

	CustomHeaders   map[string]string `json:"customHeaders,omitempty"`
	PathRegexFilter string            `json:"pathRegexFilter,omitempty"`

	UseHeadlessBrowser bool `json:"useHeadlessBrowser"`

	IncludeDataAttributes      bool `json:"includeDataAttributes"`
	IncludeOnClick             bool `json:"includeOnClick"`
	IncludeForms               bool `json:"includeForms"`
	IncludeMetaRefresh         bool `json:"includeMetaRefresh"`
	IncludeCanonical           bool `json:"includeCanonical"`
	IncludeInteractiveElements bool `json:"includeInteractiveElements"`

	ExcludeProtocols []string `json:"excludeProtocols,omitempty"`

	MaxLogEntries       int `json:"maxLogEntries"`
	LogRetentionMinutes int `json:"logRetentionMinutes"`
	DynamicContentWaitMs int `json:"dynamicContentWait"`

	DetectSoftErrors bool `json:"detectSoftErrors"`

	ScanID string `json:"scanId,omitempty"`
}

// Status is a ScanResult's coarse success/error classification (I4).
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is one scanned URL's outcome.
type Result struct {
	URL             string             `json:"url"`
	Status          Status             `json:"status"`
	StatusCode      int                `json:"statusCode,omitempty"`
	Links           []string           `json:"links"`
	ResponseBody    string             `json:"responseBody,omitempty"`
	Error           string             `json:"error,omitempty"`
	ErrorKind       classify.Kind      `json:"errorKind,omitempty"`
	ErrorSeverity   classify.Severity  `json:"errorSeverity,omitempty"`
	ErrorRetryable  bool               `json:"errorRetryable,omitempty"`
	SuggestedAction string             `json:"suggestedAction,omitempty"`
	Timestamp       string             `json:"timestamp"`
	Depth           int                `json:"depth"`
	ResponseTime    time.Duration      `json:"responseTimeMs,omitempty"`
}

// LogType is a ScanLog's severity/kind tag.
type LogType string

const (
	LogInfo     LogType = "info"
	LogSuccess  LogType = "success"
	LogWarning  LogType = "warning"
	LogError    LogType = "error"
	LogCritical LogType = "critical"
)

// Progress is the frontier/result progress snapshot attached to a log event.
type Progress struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Stats is the running-total statistics snapshot attached to a log event.
type Stats struct {
	URLsScanned  int `json:"urlsScanned"`
	LinksFound   int `json:"linksFound"`
	Errors       int `json:"errors"`
	QueueSize    int `json:"queueSize"`
	VisitedCount int `json:"visitedCount"`
}

// Performance is the response-time snapshot attached to a log event.
type Performance struct {
	ResponseTimeMs        int64   `json:"responseTimeMs,omitempty"`
	ElapsedTimeMs         int64   `json:"elapsedTimeMs"`
	AverageResponseTimeMs float64 `json:"averageResponseTimeMs"`
}

// Log is one emitted progress/diagnostic event. Details is an escape hatch
// for log sites that need to attach ad hoc structured context (e.g. the
// CSRF-retry warning's retry count) beyond the plain Message string.
type Log struct {
	Type        LogType        `json:"type"`
	Message     string         `json:"message"`
	Timestamp   string         `json:"timestamp"`
	URL         string         `json:"url,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	Stats       Stats          `json:"stats"`
	Progress    Progress       `json:"progress"`
	Performance Performance    `json:"performance"`
}

// ErrorEntry is one entry in an ErrorSummary's bounded recent tail.
type ErrorEntry struct {
	URL       string            `json:"url"`
	Message   string            `json:"message"`
	Severity  classify.Severity `json:"severity"`
	Timestamp string            `json:"timestamp"`
}

// ErrorSummary is the aggregate error report returned alongside results.
type ErrorSummary struct {
	ByKind       map[classify.Kind]int     `json:"byKind"`
	BySeverity   map[classify.Severity]int `json:"bySeverity"`
	ByStatusCode map[int]int               `json:"byStatusCode"`
	Recent       []ErrorEntry              `json:"recent"`
}
