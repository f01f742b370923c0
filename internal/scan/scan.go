// Package scan implements the scan tasks that stream a log file to a
// client: plain reads, per-line searches and entry-aware searches, each
// optionally following the file as it grows.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/vburojevic/logview/internal/domain"
	"github.com/vburojevic/logview/internal/filter"
	"github.com/vburojevic/logview/internal/textfile"
)

const (
	DefaultBatchSize     = 100
	DefaultFlushInterval = 100 * time.Millisecond
	DefaultPollInterval  = 200 * time.Millisecond
	DefaultGroupIdle     = 600 * time.Millisecond
	DefaultMaxGroupLines = 10000
)

// Sink receives outbound frames. Send must not retain msgs after returning.
type Sink interface {
	Send(msgs []domain.Message) error
}

// SinkFunc adapts a function to a Sink
type SinkFunc func(msgs []domain.Message) error

// Send calls f(msgs)
func (f SinkFunc) Send(msgs []domain.Message) error { return f(msgs) }

// Options configures a Task. Zero fields take the package defaults.
type Options struct {
	Logger        *zap.Logger
	Clock         clock.Clock
	Reader        textfile.LineReaderOptions
	BatchSize     int           // lines per frame
	FlushInterval time.Duration // search output age that forces a flush
	PollInterval  time.Duration // follow-mode sleep when no data arrived
	GroupIdle     time.Duration // follow-mode age after which an open entry is evaluated
	MaxGroupLines int           // lines kept per entry, oldest dropped
	Filter        filter.Filter // extra predicate on lines (read, search) or entries (searchSmart)
	ConnID        string        // log context only
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = DefaultFlushInterval
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.GroupIdle <= 0 {
		o.GroupIdle = DefaultGroupIdle
	}
	if o.MaxGroupLines <= 0 {
		o.MaxGroupLines = DefaultMaxGroupLines
	}
	return o
}

// IOError reports a failure reading the file or writing to the sink.
// A task ending with an IOError is terminated silently.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func ioErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Err: err}
}

// Task is one scan over one file, owned by one connection.
type Task struct {
	req  domain.ScanRequest
	sink Sink
	opts Options
	log  *zap.Logger
}

// New validates req and builds a task that writes to sink.
func New(req domain.ScanRequest, sink Sink, opts Options) (*Task, error) {
	if _, err := domain.ParseProcedure(string(req.Procedure)); err != nil {
		return nil, err
	}
	if _, err := domain.ParseDirection(string(req.Direction)); err != nil {
		return nil, err
	}
	if req.OffsetStart == "" {
		req.OffsetStart = domain.Head
	}
	if req.Path == "" {
		return nil, errors.New("path is required")
	}
	if sink == nil {
		return nil, errors.New("sink is required")
	}
	opts = opts.withDefaults()
	log := opts.Logger.With(
		zap.String("conn", opts.ConnID),
		zap.String("path", req.Path),
		zap.String("procedure", string(req.Procedure)),
		zap.String("direction", string(req.Direction)),
	)
	return &Task{req: req, sink: sink, opts: opts, log: log}, nil
}

// Request returns the request the task was built from
func (t *Task) Request() domain.ScanRequest { return t.req }

// Run streams the file until the request is satisfied, ctx is cancelled or
// an error occurs. It returns ctx.Err() on cancellation and an *IOError on
// file or sink failure. Panics are recovered and returned as errors.
// Run never sends a stopped signal.
func (t *Task) Run(ctx context.Context) (err error) {
	started := t.opts.Clock.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan panicked: %v", r)
		}
		t.report(err, t.opts.Clock.Since(started))
	}()
	return t.run(ctx)
}

func (t *Task) report(err error, elapsed time.Duration) {
	var ioe *IOError
	switch {
	case err == nil:
		t.log.Debug("scan finished", zap.Duration("elapsed", elapsed))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	case errors.As(err, &ioe):
		t.log.Debug("scan ended by i/o failure", zap.Error(err))
	default:
		t.log.Error("scan failed", zap.Error(err), zap.Duration("elapsed", elapsed))
	}
}

func (t *Task) run(ctx context.Context) error {
	openReq := t.req
	if t.opts.Filter != nil {
		// the limit counts filtered lines, so refills must not shrink to it
		openReq.Lines = domain.Unlimited()
	}
	lr, err := textfile.OpenLineReader(openReq, t.opts.Reader)
	if err != nil {
		return ioErr("open", err)
	}
	defer lr.Close()
	t.log.Debug("scan started",
		zap.Int64("length", lr.Offset().Length()),
		zap.Int64("position", lr.Offset().Position()),
		zap.String("charset", lr.Charset().Name()),
		zap.Stringer("lines", t.req.Lines),
	)

	out := newBatcher(t.sink, t.opts.Clock, t.opts.BatchSize, t.opts.FlushInterval)
	head := []domain.Message{domain.FileLength(lr.Offset().Length())}
	if lr.Offset().IsBOF() {
		head = append(head, domain.BOF)
	}
	if err := out.send(head...); err != nil {
		return err
	}

	proc := t.procedure()
	if err := t.stream(ctx, lr, proc, out); err != nil {
		return err
	}
	if err := out.send(domain.EOR); err != nil {
		return err
	}

	more, err := lr.HasNextLine()
	if err != nil {
		return ioErr("read", err)
	}
	if more {
		// the limit stopped the scan before the boundary; nothing to follow
		return nil
	}
	boundary := domain.EOF
	if t.req.Direction == domain.Backward {
		boundary = domain.BOF
	}
	if err := out.send(boundary); err != nil {
		return err
	}
	if !t.req.Following() {
		return nil
	}
	return t.follow(ctx, lr, proc, out)
}

// stream forwards lines until the limit or the directional boundary.
func (t *Task) stream(ctx context.Context, lr *textfile.LineReader, proc procedure, out *batcher) error {
	sent := 0
	forward := func(lines []domain.Line) error {
		n := t.req.Lines.Remaining(sent, len(lines))
		sent += n
		return out.add(lines[:n])
	}
	for !t.req.Lines.Reached(sent) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := out.maybe(); err != nil {
			return err
		}
		line, ok, err := lr.ReadLine()
		if err != nil {
			return ioErr("read", err)
		}
		if !ok {
			if err := forward(proc.drain()); err != nil {
				return err
			}
			break
		}
		if err := forward(proc.feed(line)); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return out.flush()
}

// follow streams data appended to the file until ctx is cancelled. Every
// frame it sends ends with eof.
func (t *Task) follow(ctx context.Context, lr *textfile.LineReader, proc procedure, out *batcher) error {
	out.trailer = []domain.Message{domain.EOF}
	lastLine := t.opts.Clock.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := lr.Refresh(); err != nil {
			return ioErr("stat", err)
		}
		read := 0
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			line, ok, err := lr.ReadLine()
			if err != nil {
				return ioErr("read", err)
			}
			if !ok {
				break
			}
			read++
			if err := out.add(proc.feed(line)); err != nil {
				return err
			}
			if err := out.maybe(); err != nil {
				return err
			}
		}

		now := t.opts.Clock.Now()
		if read > 0 {
			lastLine = now
		} else if now.Sub(lastLine) > t.opts.GroupIdle {
			if err := out.add(proc.drain()); err != nil {
				return err
			}
		}
		if err := out.flush(); err != nil {
			return err
		}
		if read > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.opts.Clock.After(t.opts.PollInterval):
		}
	}
}
