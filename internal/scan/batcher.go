package scan

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vburojevic/logview/internal/domain"
)

// batcher buffers outbound lines and decides when a frame is sent: when it
// holds size lines, when the oldest unsent output is interval old, or when
// forced. trailer is appended to every line frame.
type batcher struct {
	sink     Sink
	clk      clock.Clock
	size     int
	interval time.Duration
	trailer  []domain.Message

	buf  []domain.Message
	last time.Time
}

func newBatcher(sink Sink, clk clock.Clock, size int, interval time.Duration) *batcher {
	return &batcher{
		sink:     sink,
		clk:      clk,
		size:     size,
		interval: interval,
		buf:      make([]domain.Message, 0, size+1),
		last:     clk.Now(),
	}
}

// add buffers lines, sending a frame each time the buffer fills.
func (b *batcher) add(lines []domain.Line) error {
	for _, l := range lines {
		b.buf = append(b.buf, l)
		if len(b.buf) >= b.size {
			if err := b.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// maybe sends buffered lines once the flush interval has passed.
func (b *batcher) maybe() error {
	if len(b.buf) == 0 || b.clk.Since(b.last) < b.interval {
		return nil
	}
	return b.flush()
}

// flush sends whatever is buffered.
func (b *batcher) flush() error {
	b.last = b.clk.Now()
	if len(b.buf) == 0 {
		return nil
	}
	frame := append(b.buf, b.trailer...)
	b.buf = b.buf[:0]
	return ioErr("send", b.sink.Send(frame))
}

// send writes a frame of signals directly. Buffered lines must have been
// flushed first.
func (b *batcher) send(msgs ...domain.Message) error {
	return ioErr("send", b.sink.Send(msgs))
}
