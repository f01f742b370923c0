package textfile

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// digitLines builds n lines of ten copies of the line index's last digit.
func digitLines(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		d := byte('0' + i%10)
		b.WriteString(strings.Repeat(string(d), 10))
		b.WriteByte('\n')
	}
	return b.String()
}

func openSmall(t *testing.T, content string, window int) *ByteReader {
	t.Helper()
	f, err := os.Open(writeTemp(t, content))
	require.NoError(t, err)
	r := NewByteReader(f, window)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestByteReaderReadByte(t *testing.T) {
	r := openSmall(t, "abcdefghij", 4)

	var got []byte
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, b)
	}
	assert.Equal(t, "abcdefghij", string(got))
	assert.Equal(t, int64(10), r.Position())

	// EOF is sticky, not an error
	_, err := r.ReadByte()
	assert.Equal(t, io.EOF, err)
}

func TestByteReaderSeek(t *testing.T) {
	r := openSmall(t, "0123456789", 4)

	t.Run("inside window", func(t *testing.T) {
		_, err := r.ReadByte()
		require.NoError(t, err)
		pos, err := r.Seek(3)
		require.NoError(t, err)
		assert.Equal(t, int64(3), pos)
		b, err := r.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, byte('3'), b)
	})

	t.Run("outside window", func(t *testing.T) {
		pos, err := r.Seek(8)
		require.NoError(t, err)
		assert.Equal(t, int64(8), pos)
		b, err := r.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, byte('8'), b)
	})

	t.Run("clamps", func(t *testing.T) {
		pos, err := r.Seek(-5)
		require.NoError(t, err)
		assert.Equal(t, int64(0), pos)

		pos, err = r.Seek(100)
		require.NoError(t, err)
		assert.Equal(t, int64(10), pos)
		_, err = r.ReadByte()
		assert.Equal(t, io.EOF, err)
	})

	t.Run("back one byte after window end", func(t *testing.T) {
		_, err := r.Seek(0)
		require.NoError(t, err)
		buf := make([]byte, 4)
		n, err := r.Read(buf)
		require.NoError(t, err)
		require.Equal(t, 4, n)
		require.NoError(t, r.UnreadByte())
		b, err := r.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, byte('3'), b)
	})
}

func TestByteReaderRead(t *testing.T) {
	r := openSmall(t, "0123456789", 3)

	buf := make([]byte, 7)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, "0123456", string(buf))

	n, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "789", string(buf[:n]))

	n, err = r.Read(buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestByteReaderObservesGrowth(t *testing.T) {
	path := writeTemp(t, "abc")
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	size, err := r.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)

	buf := make([]byte, 8)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf[:n]))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("def")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	size, err = r.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(6), size)

	n, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "def", string(buf[:n]))
}

func TestStreamMarkReset(t *testing.T) {
	r := openSmall(t, "hello world", 4)
	s := r.Stream()

	buf := make([]byte, 5)
	_, err := io.ReadFull(s, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))

	s.Mark()
	skipped, err := s.Skip(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), skipped)

	avail, err := s.Available()
	require.NoError(t, err)
	assert.Equal(t, int64(5), avail)

	_, err = io.ReadFull(s, buf)
	require.NoError(t, err)
	assert.Equal(t, "world", string(buf))

	require.NoError(t, s.Reset())
	assert.Equal(t, int64(5), r.Position())
}
