package domain

// Offset is a cursor position within a file of a known length.
// The zero value is an empty file positioned at its start.
type Offset struct {
	length   int64
	position int64
}

// NewOffset returns an Offset for a file of the given length, with position
// clamped into [0, length].
func NewOffset(length, position int64) Offset {
	if length < 0 {
		length = 0
	}
	return Offset{length: length}.WithPosition(position)
}

// Length returns the file length recorded by this offset
func (o Offset) Length() int64 { return o.length }

// Position returns the absolute byte position
func (o Offset) Position() int64 { return o.position }

// IsBOF reports whether the position is at file start
func (o Offset) IsBOF() bool { return o.position == 0 }

// IsEOF reports whether the position is at the recorded file end
func (o Offset) IsEOF() bool { return o.position == o.length }

// WithPosition returns a copy moved to pos, clamped into [0, length].
func (o Offset) WithPosition(pos int64) Offset {
	switch {
	case pos < 0:
		pos = 0
	case pos > o.length:
		pos = o.length
	}
	return Offset{length: o.length, position: pos}
}

// WithLength returns a copy with a refreshed file length. The position is
// left untouched; a shrunken file is clamped so the invariant still holds.
func (o Offset) WithLength(length int64) Offset {
	if length < 0 {
		length = 0
	}
	pos := o.position
	if pos > length {
		pos = length
	}
	return Offset{length: length, position: pos}
}
