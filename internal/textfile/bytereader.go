// Package textfile implements random-access, line-oriented reading of large
// and growing text files: a windowed byte cursor, a line scanner, offset
// resolution and a bidirectional line reader.
package textfile

import (
	"fmt"
	"io"
	"os"
)

// DefaultBufferSize is the size of the byte window read from disk at once.
const DefaultBufferSize = 4096

// File is the subset of *os.File that ByteReader needs.
type File interface {
	io.ReaderAt
	io.Closer
	Stat() (os.FileInfo, error)
}

// ByteReader is a buffered random-access byte cursor over a file.
// Seeks that land inside the buffered window are O(1).
// A ByteReader is not safe for concurrent use.
type ByteReader struct {
	f    File
	buf  []byte
	n    int   // valid bytes in buf; -1 when no window is loaded
	off  int   // cursor inside buf
	base int64 // absolute position of buf[0], or the cursor when n == -1
}

// Open opens path for reading with the default window size.
func Open(path string) (*ByteReader, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	return NewByteReader(f, DefaultBufferSize), nil
}

// openFile is replaced in tests to inject read failures
var openFile = func(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// NewByteReader wraps f with a window of size bytes.
func NewByteReader(f File, size int) *ByteReader {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &ByteReader{f: f, buf: make([]byte, size), n: -1}
}

// Position returns the absolute position of the cursor
func (r *ByteReader) Position() int64 {
	if r.n < 0 {
		return r.base
	}
	return r.base + int64(r.off)
}

// Seek moves the cursor to pos and returns the position actually set.
// Negative positions clamp to 0 and positions outside the buffered window
// clamp to the current file size.
func (r *ByteReader) Seek(pos int64) (int64, error) {
	if pos < 0 {
		pos = 0
	}
	if r.n >= 0 && pos >= r.base && pos <= r.base+int64(r.n) {
		r.off = int(pos - r.base)
		return pos, nil
	}
	size, err := r.Size()
	if err != nil {
		return r.Position(), err
	}
	if pos > size {
		pos = size
	}
	r.n = -1
	r.off = 0
	r.base = pos
	return pos, nil
}

// ReadByte reads one byte, returning io.EOF at the end of the file.
func (r *ByteReader) ReadByte() (byte, error) {
	if err := r.fill(); err != nil {
		return 0, err
	}
	b := r.buf[r.off]
	r.advance(1)
	return b, nil
}

// UnreadByte steps the cursor back one byte.
func (r *ByteReader) UnreadByte() error {
	pos := r.Position()
	if pos == 0 {
		return fmt.Errorf("textfile: unread at start of file")
	}
	_, err := r.Seek(pos - 1)
	return err
}

// Read reads up to len(p) bytes, crossing window refills as needed.
// It returns io.EOF only when no byte could be read.
func (r *ByteReader) Read(p []byte) (int, error) {
	read := 0
	for read < len(p) {
		if err := r.fill(); err != nil {
			if err == io.EOF && read > 0 {
				return read, nil
			}
			return read, err
		}
		n := copy(p[read:], r.buf[r.off:r.n])
		r.advance(n)
		read += n
	}
	return read, nil
}

// Size returns the current size of the file. It is re-queried on every
// call so a growing file is observed.
func (r *ByteReader) Size() (int64, error) {
	fi, err := r.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// Close closes the underlying file
func (r *ByteReader) Close() error {
	return r.f.Close()
}

// Stream returns a mark/reset capable view of the cursor.
func (r *ByteReader) Stream() *Stream {
	return &Stream{r: r, mark: r.Position()}
}

// fill loads a window at the cursor when none is loaded.
func (r *ByteReader) fill() error {
	if r.n >= 0 && r.off < r.n {
		return nil
	}
	if r.n >= 0 {
		// window exhausted; continue right after it
		r.base += int64(r.n)
		r.n = -1
		r.off = 0
	}
	n, err := r.f.ReadAt(r.buf, r.base)
	if n == 0 {
		if err == nil || err == io.EOF {
			return io.EOF
		}
		return err
	}
	if err != nil && err != io.EOF {
		return err
	}
	r.n = n
	r.off = 0
	return nil
}

func (r *ByteReader) advance(n int) {
	r.off += n
}

// Stream exposes a ByteReader as an io.Reader with mark and reset.
type Stream struct {
	r    *ByteReader
	mark int64
}

// Read implements io.Reader
func (s *Stream) Read(p []byte) (int, error) { return s.r.Read(p) }

// Mark remembers the current position
func (s *Stream) Mark() { s.mark = s.r.Position() }

// Reset returns to the last marked position
func (s *Stream) Reset() error {
	_, err := s.r.Seek(s.mark)
	return err
}

// Skip advances n bytes and returns how far the cursor actually moved.
func (s *Stream) Skip(n int64) (int64, error) {
	cur := s.r.Position()
	next, err := s.r.Seek(cur + n)
	return next - cur, err
}

// Available returns the number of bytes between the cursor and file end.
func (s *Stream) Available() (int64, error) {
	size, err := s.r.Size()
	if err != nil {
		return 0, err
	}
	left := size - s.r.Position()
	if left < 0 {
		left = 0
	}
	return left, nil
}
