package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/vburojevic/logview/internal/domain"
)

// Emitter writes scan frames through a MessageWriter and keeps a running
// Summary. Send satisfies scan.Sink and is safe for concurrent use.
type Emitter struct {
	mu      sync.Mutex
	w       MessageWriter
	summary *Summary
}

// NewEmitter creates an Emitter that writes NDJSON to w
func NewEmitter(w io.Writer) *Emitter {
	return NewEmitterFor(NewNDJSONWriter(w))
}

// NewEmitterFor creates an Emitter over any MessageWriter
func NewEmitterFor(w MessageWriter) *Emitter {
	return &Emitter{w: w, summary: NewSummary()}
}

// Send writes every message of a frame
func (e *Emitter) Send(msgs []domain.Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.summary.AddFrame(msgs)
	for _, msg := range msgs {
		if err := e.w.Write(msg); err != nil {
			return err
		}
	}
	return nil
}

// Summary returns a copy of the running summary
func (e *Emitter) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.summary
}

func (e *Emitter) WriteSummary() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.w.WriteSummary(e.summary)
}

func (e *Emitter) Error(code, msg string, hint ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.w.WriteError(code, msg, hint...)
}

func (e *Emitter) WriteWarning(msg string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.w.WriteWarning(msg)
}

func (e *Emitter) WriteInfo(msg string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.w.WriteInfo(msg)
}

// Reconnect reports a reconnect attempt. Writers without a dedicated record
// get a warning.
func (e *Emitter) Reconnect(msg string, attempt int, delay time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rw, ok := e.w.(interface {
		WriteReconnect(string, int, int64) error
	}); ok {
		return rw.WriteReconnect(msg, attempt, delay.Milliseconds())
	}
	return e.w.WriteWarning(fmt.Sprintf("%s (attempt %d, retrying in %s)", msg, attempt, delay.Round(time.Millisecond)))
}
