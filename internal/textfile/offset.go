package textfile

import (
	"math"

	"github.com/vburojevic/logview/internal/domain"
)

// blockSize is the span scanned per step when counting lines backward
const blockSize int64 = DefaultBufferSize

// ResolveOffset computes the initial scan cursor.
//
// The base position is offsetBytes from the head or the tail of the file.
// A positive skipLines then moves that many lines toward the end; a negative
// one moves to the start of the |skipLines|-th line before the base, or to 0
// when there are not that many lines. Backward skipping reads the file in
// blocks ending at the base, so its cost depends on the number of lines
// skipped and not on the file size.
func ResolveOffset(r *ByteReader, offsetBytes int64, anchor domain.Anchor, skipLines int) (domain.Offset, error) {
	length, err := r.Size()
	if err != nil {
		return domain.Offset{}, err
	}
	if offsetBytes < 0 {
		offsetBytes = 0
	}
	var base int64
	if anchor == domain.Tail {
		base = max(0, length-offsetBytes)
	} else {
		base = min(offsetBytes, length)
	}

	switch {
	case skipLines > 0:
		pos, err := skipForward(r, base, length, skipLines)
		if err != nil {
			return domain.Offset{}, err
		}
		return domain.NewOffset(length, pos), nil
	case skipLines < 0:
		n := -skipLines
		if n < 0 {
			// -math.MinInt overflows
			n = math.MaxInt
		}
		pos, err := skipBackward(r, base, n)
		if err != nil {
			return domain.Offset{}, err
		}
		return domain.NewOffset(length, pos), nil
	default:
		return domain.NewOffset(length, base), nil
	}
}

func skipForward(r *ByteReader, pos, length int64, n int) (int64, error) {
	if _, err := r.Seek(pos); err != nil {
		return 0, err
	}
	for i := 0; i < n && pos < length; i++ {
		next, err := SkipLine(r)
		if err != nil {
			return 0, err
		}
		if next == pos {
			break
		}
		pos = next
	}
	return pos, nil
}

// skipBackward returns the start of the n-th line starting before anchor.
func skipBackward(r *ByteReader, anchor int64, n int) (int64, error) {
	found := 0 // line starts collected from blocks after the current one
	end := anchor
	for end > 0 {
		start := max(0, end-blockSize)
		starts, err := lineStarts(r, start, end, anchor)
		if err != nil {
			return 0, err
		}
		if found+len(starts) >= n {
			return starts[len(starts)-(n-found)], nil
		}
		found += len(starts)
		if start == 0 {
			break
		}
		end = start
	}
	return 0, nil
}

// lineStarts returns, in ascending order, the line starts s with
// start < s <= end and s < anchor, plus 0 when the block begins the file.
func lineStarts(r *ByteReader, start, end, anchor int64) ([]int64, error) {
	var starts []int64
	if start == 0 && anchor > 0 {
		starts = append(starts, 0)
	}
	if _, err := r.Seek(start); err != nil {
		return nil, err
	}
	pos := start
	for pos < end {
		next, err := SkipLine(r)
		if err != nil {
			return nil, err
		}
		if next == pos {
			break // end of file
		}
		if next <= end && next < anchor {
			starts = append(starts, next)
		}
		pos = next
	}
	return starts, nil
}
