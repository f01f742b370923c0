package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vburojevic/logview/internal/domain"
)

// WhereClause represents a parsed --where condition on a line group
type WhereClause struct {
	Field    string
	Operator string
	Value    string
	regex    *regexp.Regexp // Compiled regex for ~ and !~ operators
	num      int64          // Parsed value for numeric fields
}

// Fields a where clause can test. text is the whole group joined by
// newlines, first its first line; pos, len and lines are numeric.
var whereFields = map[string]bool{
	"text":  false,
	"first": false,
	"pos":   true,
	"len":   true,
	"lines": true,
}

// ParseWhereClause parses a where clause like "lines>=3" or "text~timeout"
// Supported operators: =, !=, ~, !~, >=, <=, ^, $
func ParseWhereClause(clause string) (*WhereClause, error) {
	// Try operators in order of length (longest first to avoid partial matches)
	operators := []string{"!~", ">=", "<=", "!=", "~", "=", "^", "$"}

	for _, op := range operators {
		idx := strings.Index(clause, op)
		if idx <= 0 {
			continue
		}
		field := strings.ToLower(strings.TrimSpace(clause[:idx]))
		value := strings.TrimSpace(clause[idx+len(op):])

		if field == "" || value == "" {
			return nil, fmt.Errorf("invalid where clause: %s", clause)
		}
		numeric, known := whereFields[field]
		if !known {
			return nil, fmt.Errorf("unknown field %q in where clause (use text, first, pos, len, lines)", field)
		}

		// Support quoted values so operators can appear in value.
		if (strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"")) ||
			(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'")) {
			unq, err := unquote(value)
			if err != nil {
				return nil, fmt.Errorf("invalid quoted value in where clause '%s': %w", clause, err)
			}
			value = unq
		}

		wc := &WhereClause{
			Field:    field,
			Operator: op,
			Value:    value,
		}

		switch op {
		case "~", "!~":
			re, err := regexp.Compile(value)
			if err != nil {
				return nil, fmt.Errorf("invalid regex in where clause '%s': %w", clause, err)
			}
			wc.regex = re
		case ">=", "<=":
			if !numeric {
				return nil, fmt.Errorf("operator %s needs a numeric field in where clause '%s'", op, clause)
			}
		}
		if numeric && op != "~" && op != "!~" && op != "^" && op != "$" {
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number in where clause '%s': %w", clause, err)
			}
			wc.num = n
		}

		return wc, nil
	}

	return nil, fmt.Errorf("no valid operator found in where clause: %s (use =, !=, ~, !~, >=, <=, ^, $)", clause)
}

// unquote accepts Go double-quoted strings and single-quoted strings of any
// length.
func unquote(value string) (string, error) {
	if value[0] == '\'' {
		if len(value) < 2 {
			return "", fmt.Errorf("unterminated quote")
		}
		return value[1 : len(value)-1], nil
	}
	return strconv.Unquote(value)
}

// Match checks if a line group matches this where clause
func (wc *WhereClause) Match(group []domain.Line) bool {
	if wc.isNumericOp() {
		return wc.compareNumeric(group)
	}

	fieldValue := wc.fieldValue(group)
	switch wc.Operator {
	case "=":
		return fieldValue == wc.Value
	case "!=":
		return fieldValue != wc.Value
	case "~": // Contains (regex)
		return wc.regex.MatchString(fieldValue)
	case "!~": // Not contains (regex)
		return !wc.regex.MatchString(fieldValue)
	case "^": // Starts with
		return strings.HasPrefix(fieldValue, wc.Value)
	case "$": // Ends with
		return strings.HasSuffix(fieldValue, wc.Value)
	}

	return false
}

func (wc *WhereClause) isNumericOp() bool {
	if !whereFields[wc.Field] {
		return false
	}
	switch wc.Operator {
	case "=", "!=", ">=", "<=":
		return true
	}
	return false
}

// fieldValue renders the clause's field of a group as text
func (wc *WhereClause) fieldValue(group []domain.Line) string {
	switch wc.Field {
	case "text":
		if len(group) == 1 {
			return group[0].Str
		}
		strs := make([]string, len(group))
		for i, l := range group {
			strs[i] = l.Str
		}
		return strings.Join(strs, "\n")
	case "first":
		if len(group) == 0 {
			return ""
		}
		return group[0].Str
	default:
		return strconv.FormatInt(numericField(wc.Field, group), 10)
	}
}

func numericField(field string, group []domain.Line) int64 {
	switch field {
	case "pos":
		if len(group) == 0 {
			return 0
		}
		pos := group[0].Pos
		for _, l := range group[1:] {
			if l.Pos < pos {
				pos = l.Pos
			}
		}
		return pos
	case "len":
		var n int64
		for _, l := range group {
			n += l.Len
		}
		return n
	case "lines":
		return int64(len(group))
	}
	return 0
}

// compareNumeric handles =, !=, >= and <= for pos, len and lines
func (wc *WhereClause) compareNumeric(group []domain.Line) bool {
	v := numericField(wc.Field, group)
	switch wc.Operator {
	case "=":
		return v == wc.num
	case "!=":
		return v != wc.num
	case ">=":
		return v >= wc.num
	case "<=":
		return v <= wc.num
	}
	return false
}

// WhereFilter is a filter that applies multiple where clauses (AND logic)
type WhereFilter struct {
	clauses []*WhereClause
}

// NewWhereFilter creates a filter from multiple where clause strings
func NewWhereFilter(whereClauses []string) (*WhereFilter, error) {
	if len(whereClauses) == 0 {
		return nil, nil
	}

	filter := &WhereFilter{}
	for _, clause := range whereClauses {
		wc, err := ParseWhereClause(clause)
		if err != nil {
			return nil, err
		}
		filter.clauses = append(filter.clauses, wc)
	}

	return filter, nil
}

// Match returns true if the group matches ALL where clauses (AND logic)
func (f *WhereFilter) Match(group []domain.Line) bool {
	if f == nil {
		return true
	}
	for _, wc := range f.clauses {
		if !wc.Match(group) {
			return false
		}
	}
	return true
}
