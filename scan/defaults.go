package scan

import "time"

// defaultExcludeProtocols fills ExcludeProtocols when the operator left it
// empty. urlutil.Normalize does not read ExcludeProtocols: it always rejects
// its own fixed list of these same schemes, so overriding the field has no
// effect on normalization.
var defaultExcludeProtocols = []string{"javascript:", "mailto:", "tel:", "data:", "blob:"}

// WithDefaults returns a copy of cfg with every unset field filled in,
// mirroring the defaulting crawler.New applies in the teacher repo.
func (c Config) WithDefaults() Config {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 10
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 1000
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 10
	}
	if c.TimeoutMs <= 0 {
		c.TimeoutMs = 10000
	}
	if c.MaxLogEntries <= 0 {
		c.MaxLogEntries = 500
	}
	if c.LogRetentionMinutes <= 0 {
		c.LogRetentionMinutes = 5
	}
	if len(c.ExcludeProtocols) == 0 {
		c.ExcludeProtocols = defaultExcludeProtocols
	}
	return c
}

// Timeout returns TimeoutMs as a time.Duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// DynamicContentWait returns DynamicContentWaitMs as a time.Duration.
func (c Config) DynamicContentWait() time.Duration {
	return time.Duration(c.DynamicContentWaitMs) * time.Millisecond
}

// LogRetention returns LogRetentionMinutes as a time.Duration.
func (c Config) LogRetention() time.Duration {
	return time.Duration(c.LogRetentionMinutes) * time.Minute
}
