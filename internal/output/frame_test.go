package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/logview/internal/domain"
)

func TestEncodeFrame(t *testing.T) {
	b, err := EncodeFrame(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	b, err = EncodeFrame([]domain.Message{domain.FileLength(7), domain.Line{Pos: 0, Len: 7, Str: "a\"b\\c"}, domain.EOR})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"signal":"file_length","value":7},{"pos":0,"len":7,"str":"a\"b\\c"},{"signal":"eor"}]`, string(b))
}

func TestDecodeFrameRoundTrip(t *testing.T) {
	in := []domain.Message{
		domain.FileLength(0),
		domain.Line{Pos: 10, Len: 4, Str: "日本"},
		domain.BOF,
		domain.Stopped,
	}
	b, err := EncodeFrame(in)
	require.NoError(t, err)

	out, err := DecodeFrame(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeFrameRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `[{"pos":`},
		{"object", `{"signal":"eof"}`},
		{"scalar element", `[1]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrame([]byte(tt.data))
			assert.Error(t, err)
		})
	}

	msgs, err := DecodeFrame([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
