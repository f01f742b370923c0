package filter

import (
	"regexp"

	"github.com/vburojevic/logview/internal/domain"
)

// entryStartPattern recognizes the first line of a multi-line log record:
// leveled or bracketed timestamps, bare ISO date-times with optional
// millis/zone/thread, Erlang "=INFO REPORT====" headers, access-log lines and
// Apache error-log lines.
const entryStartPattern = `^(` +
	`(\[[^\]]+\] )?([A-Z]+:\s*)?\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}` +
	`|\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d{3})?([+-]\d{4})?\s*(\[[a-zA-Z ]+\])?` +
	`|=[A-Z]+ REPORT====` +
	`|\d+\.\d+\.\d+\.\d+ (-|[^ ]+) (-|[^ ]+) \[[0-9A-Za-z/:+ ]+\]` +
	`|\[[0-9A-Za-z/:+ ]+\] \[error\] \[client \d+\.\d+\.\d+\.\d+\] ` +
	`)`

var entryStart = regexp.MustCompile(entryStartPattern)

// IsEntryStart reports whether s looks like the first line of a log entry
func IsEntryStart(s string) bool {
	return entryStart.MatchString(s)
}

// RegexFilter passes groups where any line matches a pattern
type RegexFilter struct {
	pattern *regexp.Regexp
}

// NewRegexFilter creates a regex filter from a pattern string
func NewRegexFilter(pattern string) (*RegexFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexFilter{pattern: re}, nil
}

// Match returns true if any line of the group matches the pattern
func (f *RegexFilter) Match(group []domain.Line) bool {
	if f.pattern == nil {
		return true
	}
	for _, l := range group {
		if f.pattern.MatchString(l.Str) {
			return true
		}
	}
	return false
}
