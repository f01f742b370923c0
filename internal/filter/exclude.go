package filter

import (
	"regexp"

	"github.com/vburojevic/logview/internal/domain"
)

// ExcludePatternFilter drops groups containing a line that matches a regex
type ExcludePatternFilter struct {
	pattern *regexp.Regexp
}

// NewExcludePatternFilter creates an exclusion filter from a pattern string
func NewExcludePatternFilter(pattern string) (*ExcludePatternFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &ExcludePatternFilter{pattern: re}, nil
}

// Match returns true if no line of the group matches the exclusion pattern
func (f *ExcludePatternFilter) Match(group []domain.Line) bool {
	if f.pattern == nil {
		return true
	}
	for _, l := range group {
		if f.pattern.MatchString(l.Str) {
			return false
		}
	}
	return true
}
