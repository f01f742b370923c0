package filter

import (
	"github.com/vburojevic/logview/internal/domain"
)

// Pipeline is the filter built from command-line flags: any pattern must
// match, no exclude may match and every where clause must hold.
type Pipeline struct {
	chain *Chain
}

// CompilePipeline builds a Pipeline from flag values. Empty patterns are
// ignored; it returns nil when nothing is left to test, so callers can skip
// filtering altogether.
func CompilePipeline(patterns, excludes, where []string) (*Pipeline, error) {
	chain := NewChain()

	var anyOf []Filter
	for _, p := range patterns {
		if p == "" {
			continue
		}
		f, err := NewRegexFilter(p)
		if err != nil {
			return nil, err
		}
		anyOf = append(anyOf, f)
	}
	if len(anyOf) > 0 {
		chain.Add(NewOrChain(anyOf...))
	}

	for _, ex := range excludes {
		if ex == "" {
			continue
		}
		f, err := NewExcludePatternFilter(ex)
		if err != nil {
			return nil, err
		}
		chain.Add(f)
	}

	wf, err := NewWhereFilter(where)
	if err != nil {
		return nil, err
	}
	if wf != nil {
		chain.Add(wf)
	}

	if chain.Len() == 0 {
		return nil, nil
	}
	return &Pipeline{chain: chain}, nil
}

// Match returns true when the group passes every stage
func (p *Pipeline) Match(group []domain.Line) bool {
	if p == nil {
		return true
	}
	return p.chain.Match(group)
}
