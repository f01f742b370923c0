package filter

import (
	"strings"

	"github.com/vburojevic/logview/internal/domain"
)

// Terms is a set-cover filter: a group passes when every term occurs in at
// least one of its lines. Terms are plain substrings, matched case-sensitively.
type Terms struct {
	terms []string
}

// NewTerms builds a Terms filter from raw search terms. Empty and duplicate
// terms are dropped.
func NewTerms(terms []string) *Terms {
	return &Terms{terms: domain.SearchTerms(terms)}
}

// Len returns the number of distinct terms
func (f *Terms) Len() int { return len(f.terms) }

// Match returns true when the group covers every term. A filter without
// terms matches any group, including an empty one.
func (f *Terms) Match(group []domain.Line) bool {
	if len(f.terms) == 0 {
		return true
	}
	if len(group) == 0 {
		return false
	}
	// unmatched terms are kept at the front of pending
	pending := make([]string, len(f.terms))
	copy(pending, f.terms)
	left := len(pending)
	for _, l := range group {
		for i := 0; i < left; {
			if strings.Contains(l.Str, pending[i]) {
				left--
				pending[i], pending[left] = pending[left], pending[i]
				continue
			}
			i++
		}
		if left == 0 {
			return true
		}
	}
	return false
}

// MatchLine is Match for a single line
func (f *Terms) MatchLine(line domain.Line) bool {
	for _, t := range f.terms {
		if !strings.Contains(line.Str, t) {
			return false
		}
	}
	return true
}
