package textfile

import (
	"bytes"
	"io"

	"github.com/vburojevic/logview/internal/domain"
)

const (
	lf = '\n'
	cr = '\r'
)

// ScanLines decodes lines from the cursor of r and passes each to fn until
// fn returns false or the end of the file is reached.
//
// LF terminates a line and CR LF counts as a single terminator. A lone CR is
// line content. A trailing fragment without terminator is delivered once if
// it is non-empty. The reported length includes the terminator bytes.
func ScanLines(r *ByteReader, cs Charset, fn func(domain.Line) bool) error {
	var buf bytes.Buffer
	for {
		pos := r.Position()
		buf.Reset()
		eof := false
	line:
		for {
			b, err := r.ReadByte()
			if err == io.EOF {
				eof = true
				break
			}
			if err != nil {
				return err
			}
			switch b {
			case lf:
				break line
			case cr:
				next, err := r.ReadByte()
				if err == io.EOF {
					buf.WriteByte(cr)
					eof = true
					break line
				}
				if err != nil {
					return err
				}
				if next == lf {
					break line
				}
				if err := r.UnreadByte(); err != nil {
					return err
				}
				buf.WriteByte(cr)
			default:
				buf.WriteByte(b)
			}
		}
		if eof && buf.Len() == 0 {
			return nil
		}
		line := domain.Line{Pos: pos, Len: r.Position() - pos, Str: cs.Decode(buf.Bytes())}
		if !fn(line) || eof {
			return nil
		}
	}
}

// SkipLine moves the cursor past the next LF, or to the end of the file,
// without decoding, and returns the new position.
func SkipLine(r *ByteReader) (int64, error) {
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			return r.Position(), nil
		}
		if err != nil {
			return r.Position(), err
		}
		if b == lf {
			return r.Position(), nil
		}
	}
}
