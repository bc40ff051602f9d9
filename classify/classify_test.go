package classify

import (
	"context"
	"errors"
	"net"
	"testing"
)

func TestClassifyStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantKind   Kind
		wantSev    Severity
		wantRetry  bool
	}{
		{"server error", 500, KindServer, SeverityHigh, true},
		{"unauthorized", 401, KindClient, SeverityHigh, false},
		{"forbidden", 403, KindClient, SeverityHigh, false},
		{"rate limited", 429, KindClient, SeverityMedium, true},
		{"request timeout", 408, KindClient, SeverityMedium, true},
		{"other 4xx", 404, KindClient, SeverityMedium, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.statusCode, nil, "")
			if got.Kind != tt.wantKind || got.Severity != tt.wantSev || got.Retryable != tt.wantRetry {
				t.Errorf("Classify(%d) = %+v, want kind=%v severity=%v retryable=%v", tt.statusCode, got, tt.wantKind, tt.wantSev, tt.wantRetry)
			}
		})
	}
}

func TestClassifyTimeout(t *testing.T) {
	got := Classify(0, context.DeadlineExceeded, "")
	if got.Kind != KindTimeout || !got.Retryable {
		t.Errorf("Classify(deadline exceeded) = %+v, want timeout/retryable", got)
	}
}

func TestClassifyNetworkError(t *testing.T) {
	dnsErr := &net.DNSError{Err: "no such host", Name: "example.invalid"}
	got := Classify(0, dnsErr, "")
	if got.Kind != KindNetwork || !got.Retryable {
		t.Errorf("Classify(dns error) = %+v, want network/retryable", got)
	}
}

func TestClassifyNetworkPhraseInMessage(t *testing.T) {
	got := Classify(0, errors.New("dial tcp: connection refused"), "")
	if got.Kind != KindNetwork {
		t.Errorf("Classify(connection refused) kind = %v, want network", got.Kind)
	}
}

func TestClassifyRedirectLoop(t *testing.T) {
	// A redirect loop's last hop is usually a 3xx, which the status-code
	// switch doesn't claim, so it falls through to the network phrase match.
	got := Classify(302, errors.New("redirect loop detected"), "")
	if got.Kind != KindNetwork || !got.Retryable {
		t.Errorf("Classify(redirect loop) = %+v, want network/retryable", got)
	}
}

func TestClassifyCriticalBody(t *testing.T) {
	got := Classify(0, nil, "Fatal error: out of memory")
	if got.Kind != KindUnknown || got.Severity != SeverityCritical || got.Retryable {
		t.Errorf("Classify(critical body) = %+v, want unknown/critical/not-retryable", got)
	}
}

func TestClassifyUnknownDefault(t *testing.T) {
	got := Classify(0, nil, "")
	if got.Kind != KindUnknown || got.Severity != SeverityMedium {
		t.Errorf("Classify(nothing) = %+v, want unknown/medium", got)
	}
}

func TestSummaryRecordAndAggregate(t *testing.T) {
	s := NewSummary()
	s.Record(Classify(500, nil, ""), 500, "https://example.com/a", "server error", "2026-01-01T00:00:00Z")
	s.Record(Classify(404, nil, ""), 404, "https://example.com/b", "not found", "2026-01-01T00:00:01Z")
	s.Record(Classify(500, nil, ""), 500, "https://example.com/c", "server error", "2026-01-01T00:00:02Z")

	byKind := s.ByKind()
	if byKind[KindServer] != 2 || byKind[KindClient] != 1 {
		t.Errorf("ByKind() = %+v, want server=2 client=1", byKind)
	}
	byStatus := s.ByStatusCode()
	if byStatus[500] != 2 || byStatus[404] != 1 {
		t.Errorf("ByStatusCode() = %+v, want 500=2 404=1", byStatus)
	}
	if len(s.Recent()) != 3 {
		t.Errorf("Recent() length = %d, want 3", len(s.Recent()))
	}
}

func TestSummaryRecentCapsAtTwenty(t *testing.T) {
	s := NewSummary()
	for i := 0; i < 60; i++ {
		s.Record(Classify(500, nil, ""), 500, "https://example.com/x", "err", "ts")
	}
	recent := s.Recent()
	if len(recent) != 20 {
		t.Errorf("Recent() length = %d, want 20", len(recent))
	}
	if s.ByStatusCode()[500] != 60 {
		t.Errorf("internal totals should not be truncated by Recent's cap, got %d", s.ByStatusCode()[500])
	}
}
