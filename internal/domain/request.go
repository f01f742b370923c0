package domain

import "fmt"

// Procedure selects the scan task variant
type Procedure string

const (
	ProcedureRead        Procedure = "read"
	ProcedureSearch      Procedure = "search"
	ProcedureSearchSmart Procedure = "searchSmart"
)

// ParseProcedure validates a wire procedure name
func ParseProcedure(s string) (Procedure, error) {
	switch p := Procedure(s); p {
	case ProcedureRead, ProcedureSearch, ProcedureSearchSmart:
		return p, nil
	}
	return "", fmt.Errorf("unknown procedure %q", s)
}

// Direction is the line reading direction
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// ParseDirection validates a wire direction name
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Forward, Backward:
		return d, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Anchor is the reference point an offset is measured from
type Anchor string

const (
	Head Anchor = "head"
	Tail Anchor = "tail"
)

// ParseAnchor validates a wire anchor name; empty means head.
func ParseAnchor(s string) (Anchor, error) {
	switch a := Anchor(s); a {
	case "":
		return Head, nil
	case Head, Tail:
		return a, nil
	}
	return "", fmt.Errorf("unknown offset start %q", s)
}

// LineLimit bounds how many lines a scan forwards before sending eor.
// The zero value is a limit of zero lines; use Unlimited for no bound.
type LineLimit struct {
	n         int
	unbounded bool
}

// Unlimited returns a limit that is never reached
func Unlimited() LineLimit { return LineLimit{unbounded: true} }

// LimitOf returns a limit of n lines. Negative n is treated as zero.
func LimitOf(n int) LineLimit {
	if n < 0 {
		n = 0
	}
	return LineLimit{n: n}
}

// IsUnlimited reports whether the limit has no bound
func (l LineLimit) IsUnlimited() bool { return l.unbounded }

// Value returns the bound and whether there is one
func (l LineLimit) Value() (int, bool) { return l.n, !l.unbounded }

// Reached reports whether count lines exhaust the limit
func (l LineLimit) Reached(count int) bool {
	return !l.unbounded && count >= l.n
}

// Remaining returns how many more lines may be sent after count, capped at max.
func (l LineLimit) Remaining(count, max int) int {
	if l.unbounded {
		return max
	}
	left := l.n - count
	if left < 0 {
		return 0
	}
	if left > max {
		return max
	}
	return left
}

func (l LineLimit) String() string {
	if l.unbounded {
		return "unlimited"
	}
	return fmt.Sprintf("%d", l.n)
}

// ScanRequest defines the lifetime of one scan task.
type ScanRequest struct {
	Path        string // physical path of the file to scan
	Procedure   Procedure
	Direction   Direction
	Lines       LineLimit
	OffsetBytes int64
	OffsetStart Anchor
	SkipLines   int // positive skips toward the end, negative toward the start
	Follow      bool
	Search      []string
}

// Following reports whether the task keeps streaming appended data.
// Only forward scans can follow.
func (r ScanRequest) Following() bool {
	return r.Follow && r.Direction == Forward
}

// SearchTerms returns the ordered set of non-empty search terms, keeping the
// first occurrence of each.
func SearchTerms(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
