package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/logview/internal/domain"
)

func TestParseWhereClause(t *testing.T) {
	tests := []struct {
		clause  string
		field   string
		op      string
		value   string
		wantErr bool
	}{
		{"text~timeout", "text", "~", "timeout", false},
		{"first^2024-", "first", "^", "2024-", false},
		{"lines>=3", "lines", ">=", "3", false},
		{"len <= 200", "len", "<=", "200", false},
		{`first="a=b"`, "first", "=", "a=b", false},
		{"TEXT!~debug", "text", "!~", "debug", false},
		{"text>=3", "", "", "", true},
		{"lines=many", "", "", "", true},
		{"level=error", "", "", "", true},
		{"text~(", "", "", "", true},
		{"text", "", "", "", true},
		{"=x", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.clause, func(t *testing.T) {
			wc, err := ParseWhereClause(tt.clause)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.field, wc.Field)
			assert.Equal(t, tt.op, wc.Operator)
			assert.Equal(t, tt.value, wc.Value)
		})
	}
}

func TestWhereClauseMatch(t *testing.T) {
	entry := []domain.Line{
		{Pos: 100, Len: 31, Str: "2024-03-01 12:00:00 ERROR boom"},
		{Pos: 131, Len: 15, Str: "  at main.go:1"},
	}

	tests := []struct {
		clause   string
		expected bool
	}{
		{"text~main\\.go", true},
		{"text!~main\\.go", false},
		{"first~main", false},
		{"first^2024-03", true},
		{"first$boom", true},
		{"first=2024-03-01 12:00:00 ERROR boom", true},
		{"first!=boom", true},
		{"pos=100", true},
		{"pos>=101", false},
		{"len=46", true},
		{"len<=45", false},
		{"lines>=2", true},
		{"lines!=2", false},
		{"lines<=1", false},
	}

	for _, tt := range tests {
		t.Run(tt.clause, func(t *testing.T) {
			wc, err := ParseWhereClause(tt.clause)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, wc.Match(entry))
		})
	}
}

func TestWhereFilter(t *testing.T) {
	f, err := NewWhereFilter(nil)
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.True(t, f.Match(group("anything")))

	f, err = NewWhereFilter([]string{"text~ERROR", "lines>=2"})
	require.NoError(t, err)
	assert.True(t, f.Match(group("ERROR x", "  detail")))
	assert.False(t, f.Match(group("ERROR x")))
	assert.False(t, f.Match(group("INFO x", "  detail")))

	_, err = NewWhereFilter([]string{"text~ok", "bogus"})
	assert.Error(t, err)
}

func TestPipeline(t *testing.T) {
	p, err := CompilePipeline(nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, p)
	p, err = CompilePipeline([]string{""}, []string{""}, nil)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.True(t, p.Match(group("x")))

	p, err = CompilePipeline([]string{"ERROR", "", "WARN"}, []string{"", "heartbeat"}, []string{"lines<=2"})
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.True(t, p.Match(group("WARN disk", "  detail")))
	assert.True(t, p.Match(group("ERROR disk")))
	assert.False(t, p.Match(group("INFO disk")), "pattern")
	assert.False(t, p.Match(group("ERROR x", "heartbeat")), "exclude")
	assert.False(t, p.Match(group("ERROR x", "a", "b")), "where")

	_, err = CompilePipeline([]string{"("}, nil, nil)
	assert.Error(t, err)
	_, err = CompilePipeline(nil, []string{"["}, nil)
	assert.Error(t, err)
	_, err = CompilePipeline(nil, nil, []string{"nope"})
	assert.Error(t, err)
}
