package scan

import (
	"github.com/vburojevic/logview/internal/domain"
)

// ringBuffer is a circular buffer of lines that keeps the most recent size
// lines. It is owned by a single task and not safe for concurrent use.
type ringBuffer struct {
	buffer []domain.Line
	size   int
	head   int
	count  int
}

// newRingBuffer creates a ring buffer with the specified capacity
func newRingBuffer(size int) *ringBuffer {
	if size <= 0 {
		size = DefaultMaxGroupLines
	}
	return &ringBuffer{size: size}
}

// Push adds a line, dropping the oldest one when full
func (rb *ringBuffer) Push(line domain.Line) {
	if len(rb.buffer) < rb.size {
		// grow lazily; most entries are a handful of lines
		rb.buffer = append(rb.buffer, line)
		rb.head = len(rb.buffer) % rb.size
		rb.count++
		return
	}
	rb.buffer[rb.head] = line
	rb.head = (rb.head + 1) % rb.size
	if rb.count < rb.size {
		rb.count++
	}
}

// GetAll returns all lines in push order (oldest first)
func (rb *ringBuffer) GetAll() []domain.Line {
	result := make([]domain.Line, rb.count)

	if rb.count < rb.size {
		copy(result, rb.buffer[:rb.count])
	} else {
		copy(result, rb.buffer[rb.head:])
		copy(result[rb.size-rb.head:], rb.buffer[:rb.head])
	}

	return result
}

// Count returns the number of lines in the buffer
func (rb *ringBuffer) Count() int {
	return rb.count
}

// Clear empties the buffer, keeping its storage
func (rb *ringBuffer) Clear() {
	rb.buffer = rb.buffer[:0]
	rb.head = 0
	rb.count = 0
}
