package textfile

import (
	"fmt"

	"github.com/vburojevic/logview/internal/domain"
)

const (
	// DefaultPrefetch is the number of lines buffered per refill
	DefaultPrefetch = 100
	// backwardChunkFactor scales the prefetch count into the byte span of
	// the first backward refill step
	backwardChunkFactor = 100
)

// LineReaderOptions configures OpenLineReader.
type LineReaderOptions struct {
	BufferSize int          // byte window size; DefaultBufferSize when zero
	Prefetch   int          // lines per refill; DefaultPrefetch when zero
	Detect     DetectOptions
}

// LineReader reads lines forward or backward from a resolved offset,
// buffering a small window of lines and refilling on demand.
type LineReader struct {
	r        *ByteReader
	cs       Charset
	dir      domain.Direction
	off      domain.Offset
	lines    []domain.Line
	capacity int
}

// OpenLineReader opens req.Path, detects its charset and positions the
// reader at the offset described by req.
func OpenLineReader(req domain.ScanRequest, opts LineReaderOptions) (*LineReader, error) {
	f, err := openFile(req.Path)
	if err != nil {
		return nil, err
	}
	r := NewByteReader(f, opts.BufferSize)
	lr, err := NewLineReader(r, req, opts)
	if err != nil {
		r.Close()
		return nil, err
	}
	return lr, nil
}

// NewLineReader builds a LineReader on an already open ByteReader.
func NewLineReader(r *ByteReader, req domain.ScanRequest, opts LineReaderOptions) (*LineReader, error) {
	cs := DetectCharset(r, opts.Detect)
	off, err := ResolveOffset(r, req.OffsetBytes, req.OffsetStart, req.SkipLines)
	if err != nil {
		return nil, fmt.Errorf("resolve offset: %w", err)
	}
	capacity := prefetchCapacity(req, opts.Prefetch)
	dir := req.Direction
	if dir == "" {
		dir = domain.Forward
	}
	return &LineReader{r: r, cs: cs, dir: dir, off: off, capacity: capacity}, nil
}

// prefetchCapacity is the number of lines buffered per refill. A read
// forwards every line it reads, so it never needs more than its limit;
// searches count matches and keep the full prefetch.
func prefetchCapacity(req domain.ScanRequest, prefetch int) int {
	if prefetch <= 0 {
		prefetch = DefaultPrefetch
	}
	if req.Procedure != domain.ProcedureRead && req.Procedure != "" {
		return prefetch
	}
	if n, ok := req.Lines.Value(); ok && n < prefetch {
		return max(n, 1)
	}
	return prefetch
}

// Offset returns the reader's current offset. Lines already buffered lie
// between the offset and the previously returned line.
func (lr *LineReader) Offset() domain.Offset { return lr.off }

// Charset returns the charset detected when the reader was opened
func (lr *LineReader) Charset() Charset { return lr.cs }

// Refresh updates the recorded file length so appended data becomes
// readable.
func (lr *LineReader) Refresh() error {
	size, err := lr.r.Size()
	if err != nil {
		return err
	}
	lr.off = lr.off.WithLength(size)
	return nil
}

// HasNextLine reports whether ReadLine would return a line. It may refill
// the buffer, exactly as the following ReadLine would.
func (lr *LineReader) HasNextLine() (bool, error) {
	if err := lr.ensure(); err != nil {
		return false, err
	}
	return len(lr.lines) > 0, nil
}

// ReadLine returns the next line in the reader's direction. ok is false
// when the directional boundary has been reached.
func (lr *LineReader) ReadLine() (line domain.Line, ok bool, err error) {
	if err := lr.ensure(); err != nil {
		return domain.Line{}, false, err
	}
	if len(lr.lines) == 0 {
		return domain.Line{}, false, nil
	}
	if lr.dir == domain.Forward {
		line = lr.lines[0]
		lr.lines = lr.lines[1:]
	} else {
		last := len(lr.lines) - 1
		line = lr.lines[last]
		lr.lines = lr.lines[:last]
	}
	return line, true, nil
}

// Close releases the underlying file
func (lr *LineReader) Close() error {
	return lr.r.Close()
}

func (lr *LineReader) ensure() error {
	if len(lr.lines) > 0 {
		return nil
	}
	if lr.dir == domain.Forward {
		if lr.off.IsEOF() {
			return nil
		}
		return lr.fillForward()
	}
	if lr.off.IsBOF() {
		return nil
	}
	return lr.fillBackward()
}

func (lr *LineReader) fillForward() error {
	if _, err := lr.r.Seek(lr.off.Position()); err != nil {
		return err
	}
	lines := make([]domain.Line, 0, lr.capacity)
	err := ScanLines(lr.r, lr.cs, func(l domain.Line) bool {
		lines = append(lines, l)
		return len(lines) < lr.capacity
	})
	if err != nil {
		return err
	}
	lr.lines = lines
	if n := len(lines); n > 0 {
		end := lines[n-1].End()
		if end > lr.off.Length() {
			// the file grew past the recorded length while scanning
			lr.off = lr.off.WithLength(end)
		}
		lr.off = lr.off.WithPosition(end)
	}
	return nil
}

// fillBackward collects whole lines that start before the current position,
// walking back in chunks that double each step, until the buffer holds at
// least capacity lines or the start of the file is reached.
func (lr *LineReader) fillBackward() error {
	end := lr.off.Position()
	chunk := int64(lr.capacity) * backwardChunkFactor
	var collected []domain.Line
	for len(collected) < lr.capacity && end > 0 {
		start := max(0, end-chunk)
		chunk *= 2
		if _, err := lr.r.Seek(start); err != nil {
			return err
		}
		first := start
		if start > 0 {
			next, err := SkipLine(lr.r)
			if err != nil {
				return err
			}
			if next >= end {
				// no line begins inside this chunk; widen it
				continue
			}
			first = next
		}
		if _, err := lr.r.Seek(first); err != nil {
			return err
		}
		var block []domain.Line
		err := ScanLines(lr.r, lr.cs, func(l domain.Line) bool {
			block = append(block, l)
			return l.End() < end
		})
		if err != nil {
			return err
		}
		collected = append(block, collected...)
		end = first
	}
	lr.lines = collected
	if len(collected) > 0 {
		lr.off = lr.off.WithPosition(collected[0].Pos)
	}
	return nil
}
