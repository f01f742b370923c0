package textfile

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/logview/internal/domain"
)

func TestResolveOffset(t *testing.T) {
	// 10 lines of 11 bytes
	r := openSmall(t, digitLines(10), DefaultBufferSize)

	tests := []struct {
		name        string
		offsetBytes int64
		anchor      domain.Anchor
		skipLines   int
		want        int64
	}{
		{"head", 0, domain.Head, 0, 0},
		{"head beyond length", 200, domain.Head, 0, 110},
		{"tail", 0, domain.Tail, 0, 110},
		{"tail offset", 10, domain.Tail, 0, 100},
		{"tail beyond length", 500, domain.Tail, 0, 0},
		{"skip forward", 0, domain.Head, 3, 33},
		{"skip forward past end", 0, domain.Tail, 3, 110},
		{"skip forward from mid line", 5, domain.Head, 1, 11},
		{"skip backward from tail", 0, domain.Tail, -3, 77},
		{"skip backward from head", 0, domain.Head, -3, 0},
		{"skip backward all lines", 0, domain.Tail, -10, 0},
		{"skip backward too many", 0, domain.Tail, -11, 0},
		{"skip backward from mid line", 5, domain.Tail, -1, 99},
		{"skip backward from mid line two", 5, domain.Tail, -2, 88},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off, err := ResolveOffset(r, tt.offsetBytes, tt.anchor, tt.skipLines)
			require.NoError(t, err)
			assert.Equal(t, int64(110), off.Length())
			assert.Equal(t, tt.want, off.Position())
		})
	}
}

func TestResolveOffsetBackwardAcrossBlocks(t *testing.T) {
	// 2000 lines of 11 bytes span several 4096 byte blocks
	r := openSmall(t, digitLines(2000), DefaultBufferSize)

	for _, n := range []int{1, 50, 372, 373, 1000, 1999, 2000} {
		t.Run(fmt.Sprintf("last %d", n), func(t *testing.T) {
			off, err := ResolveOffset(r, 0, domain.Tail, -n)
			require.NoError(t, err)
			assert.Equal(t, int64((2000-n)*11), off.Position())
		})
	}

	off, err := ResolveOffset(r, 0, domain.Tail, -2001)
	require.NoError(t, err)
	assert.Equal(t, int64(0), off.Position())
}

func TestResolveOffsetBackwardVariableLines(t *testing.T) {
	var b strings.Builder
	var starts []int64
	for i := 0; i < 700; i++ {
		starts = append(starts, int64(b.Len()))
		b.WriteString(strings.Repeat("y", (i*7)%53))
		if i%3 == 0 {
			b.WriteString("\r\n")
		} else {
			b.WriteString("\n")
		}
	}
	content := b.String()
	r := openSmall(t, content, 512)

	for _, n := range []int{1, 2, 10, 99, 350, 699, 700} {
		off, err := ResolveOffset(r, 0, domain.Tail, -n)
		require.NoError(t, err)
		assert.Equal(t, starts[len(starts)-n], off.Position(), "n=%d", n)
	}
}

func TestResolveOffsetExtremeSkips(t *testing.T) {
	content := digitLines(5)
	r := openSmall(t, content, 16)

	off, err := ResolveOffset(r, 0, domain.Tail, math.MinInt)
	require.NoError(t, err)
	assert.Equal(t, int64(0), off.Position())

	off, err = ResolveOffset(r, 0, domain.Head, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), off.Position())
}

func TestResolveOffsetAlwaysInRange(t *testing.T) {
	content := digitLines(37) + "partial"
	r := openSmall(t, content, 16)
	length := int64(len(content))

	for _, anchor := range []domain.Anchor{domain.Head, domain.Tail} {
		for _, offsetBytes := range []int64{-4, 0, 1, 17, 200, 406, 500} {
			for _, skip := range []int{math.MinInt, -100, -38, -37, -5, -1, 0, 1, 5, 37, 100, math.MaxInt} {
				off, err := ResolveOffset(r, offsetBytes, anchor, skip)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, off.Position(), int64(0))
				assert.LessOrEqual(t, off.Position(), length)
			}
		}
	}
}
