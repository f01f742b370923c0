package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetClamps(t *testing.T) {
	o := NewOffset(100, 150)
	assert.Equal(t, int64(100), o.Position())
	assert.True(t, o.IsEOF())

	o = o.WithPosition(-3)
	assert.Equal(t, int64(0), o.Position())
	assert.True(t, o.IsBOF())

	o = NewOffset(100, 80).WithLength(200)
	assert.Equal(t, int64(80), o.Position())
	assert.False(t, o.IsEOF())

	o = o.WithLength(50)
	assert.Equal(t, int64(50), o.Position())
	assert.True(t, o.IsEOF())

	var zero Offset
	assert.True(t, zero.IsBOF())
	assert.True(t, zero.IsEOF())
}

func TestLineLimit(t *testing.T) {
	unlimited := Unlimited()
	assert.True(t, unlimited.IsUnlimited())
	assert.False(t, unlimited.Reached(1<<30))
	assert.Equal(t, 100, unlimited.Remaining(5, 100))
	assert.Equal(t, "unlimited", unlimited.String())

	five := LimitOf(5)
	n, ok := five.Value()
	assert.True(t, ok)
	assert.Equal(t, 5, n)
	assert.False(t, five.Reached(4))
	assert.True(t, five.Reached(5))
	assert.Equal(t, 2, five.Remaining(3, 100))
	assert.Equal(t, 0, five.Remaining(9, 100))
	assert.Equal(t, 1, five.Remaining(0, 1))

	assert.True(t, LimitOf(-2).Reached(0))
}

func TestParseEnums(t *testing.T) {
	p, err := ParseProcedure("searchSmart")
	require.NoError(t, err)
	assert.Equal(t, ProcedureSearchSmart, p)
	_, err = ParseProcedure("grep")
	assert.Error(t, err)

	d, err := ParseDirection("backward")
	require.NoError(t, err)
	assert.Equal(t, Backward, d)
	_, err = ParseDirection("sideways")
	assert.Error(t, err)

	a, err := ParseAnchor("")
	require.NoError(t, err)
	assert.Equal(t, Head, a)
	a, err = ParseAnchor("tail")
	require.NoError(t, err)
	assert.Equal(t, Tail, a)
	_, err = ParseAnchor("middle")
	assert.Error(t, err)
}

func TestFollowingRequiresForward(t *testing.T) {
	assert.True(t, ScanRequest{Direction: Forward, Follow: true}.Following())
	assert.False(t, ScanRequest{Direction: Backward, Follow: true}.Following())
	assert.False(t, ScanRequest{Direction: Forward}.Following())
}

func TestSearchTerms(t *testing.T) {
	assert.Nil(t, SearchTerms(nil))
	assert.Equal(t, []string{"b", "a"}, SearchTerms([]string{"b", "", "a", "b"}))
	assert.Empty(t, SearchTerms([]string{""}))
}

func TestMessageJSON(t *testing.T) {
	b, err := json.Marshal([]Message{FileLength(42), Line{Pos: 1, Len: 2, Str: "x"}, EOR})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"signal":"file_length","value":42},{"pos":1,"len":2,"str":"x"},{"signal":"eor"}]`, string(b))
}
