package fetch

import (
	"net/http"
	"regexp"
	"strings"
)

// softErrorRule describes one row of the soft-error detection table: a
// status code a 200 response should be overwritten to, the regex that must
// match the lowercased body, and (for 404 only) an additional anchor
// substring the pattern match alone isn't specific enough to guarantee.
type softErrorRule struct {
	code    int
	pattern *regexp.Regexp
	anchors []string // nil means "unconditional on pattern match"
}

// softErrorRules is ordered 404 > 403 > 500 > 401: the first rule whose
// conditions are satisfied wins, per the tie-break rule.
var softErrorRules = []softErrorRule{
	{
		code:    404,
		pattern: regexp.MustCompile(`(?i)(404|not found|page not found|trang không tồn tại|không tìm thấy)`),
		anchors: []string{"404", "not found", "không tìm thấy"},
	},
	{
		code:    403,
		pattern: regexp.MustCompile(`(?i)(403|forbidden|access denied|permission denied|không có quyền|bị cấm)`),
	},
	{
		code:    500,
		pattern: regexp.MustCompile(`(?i)(500|internal server error|server error|lỗi máy chủ)`),
	},
	{
		code:    401,
		pattern: regexp.MustCompile(`(?i)(401|unauthorized|authentication required|chưa đăng nhập)`),
	},
}

// detectSoftError inspects a literal-200 response body and returns the
// status code it should be overwritten to, if any.
func detectSoftError(body string) (code int, matched bool) {
	lower := strings.ToLower(body)
	for _, rule := range softErrorRules {
		if !rule.pattern.MatchString(lower) {
			continue
		}
		if len(rule.anchors) > 0 && !containsAny(lower, rule.anchors) {
			continue
		}
		return rule.code, true
	}
	return 0, false
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// applySoftErrorDetection overwrites statusCode when it is literally 200 and
// the body matches one of the soft-error patterns; otherwise it returns the
// status unchanged.
func applySoftErrorDetection(enabled bool, statusCode int, body string) int {
	if !enabled || statusCode != http.StatusOK {
		return statusCode
	}
	if code, ok := detectSoftError(body); ok {
		return code
	}
	return statusCode
}
