package scan

import (
	"github.com/vburojevic/logview/internal/domain"
	"github.com/vburojevic/logview/internal/filter"
)

// procedure decides which lines read from the file are forwarded.
type procedure interface {
	// feed takes the next line in reading order and returns the lines that
	// are ready to forward
	feed(line domain.Line) []domain.Line
	// drain releases lines held back while waiting for more input
	drain() []domain.Line
}

func (t *Task) procedure() procedure {
	switch t.req.Procedure {
	case domain.ProcedureSearch:
		return &plainSearch{terms: filter.NewTerms(t.req.Search), extra: t.opts.Filter}
	case domain.ProcedureSearchSmart:
		return &smartSearch{
			filter:   t.filter(),
			backward: t.req.Direction == domain.Backward,
			group:    newRingBuffer(t.opts.MaxGroupLines),
		}
	default:
		return &reader{filter: t.opts.Filter}
	}
}

func (t *Task) filter() filter.Filter {
	chain := filter.NewChain(filter.NewTerms(t.req.Search))
	if t.opts.Filter != nil {
		chain.Add(t.opts.Filter)
	}
	return chain
}

// reader forwards every line that passes the optional filter
type reader struct {
	filter filter.Filter
	one    [1]domain.Line
}

func (r *reader) feed(line domain.Line) []domain.Line {
	r.one[0] = line
	if r.filter != nil && !r.filter.Match(r.one[:]) {
		return nil
	}
	return r.one[:]
}

func (r *reader) drain() []domain.Line { return nil }

// plainSearch forwards each line containing every term that also passes
// the optional extra filter.
type plainSearch struct {
	terms *filter.Terms
	extra filter.Filter
	one   [1]domain.Line
}

func (s *plainSearch) feed(line domain.Line) []domain.Line {
	if !s.terms.MatchLine(line) {
		return nil
	}
	s.one[0] = line
	if s.extra != nil && !s.extra.Match(s.one[:]) {
		return nil
	}
	return s.one[:]
}

func (s *plainSearch) drain() []domain.Line { return nil }

// smartSearch groups lines into log entries and forwards an entry in full
// when the entry as a whole satisfies the filter.
//
// Reading forward, an entry-start line closes the previous entry and opens
// a new one. Reading backward, the entry-start line is the last line read
// for its entry, so it is added to the open entry and then closes it.
type smartSearch struct {
	filter   filter.Filter
	backward bool
	group    *ringBuffer
}

func (s *smartSearch) feed(line domain.Line) []domain.Line {
	start := filter.IsEntryStart(line.Str)
	if start && !s.backward {
		out := s.evaluate()
		s.group.Push(line)
		return out
	}
	s.group.Push(line)
	if start {
		return s.evaluate()
	}
	return nil
}

func (s *smartSearch) drain() []domain.Line { return s.evaluate() }

func (s *smartSearch) evaluate() []domain.Line {
	if s.group.Count() == 0 {
		return nil
	}
	lines := s.group.GetAll()
	s.group.Clear()
	if !s.filter.Match(lines) {
		return nil
	}
	return lines
}
