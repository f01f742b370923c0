package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"

	"github.com/vburojevic/logview/internal/domain"
	"github.com/vburojevic/logview/internal/output"
	"github.com/vburojevic/logview/internal/tmux"
)

// TailCmd streams a log file from a logview server
type TailCmd struct {
	ScanFlags

	Path        string        `arg:"" help:"Logical path on the server (mount/relative/file.log)"`
	Server      string        `short:"S" help:"Server websocket URL (default: derived from server.addr and server.path)"`
	Positions   bool          `help:"Prefix text lines with their byte position"`
	Summary     bool          `help:"Print a summary when the stream ends"`
	MaxRetries  int           `default:"10" help:"Reconnect attempts before giving up (0 disables reconnecting)"`
	StopTimeout time.Duration `default:"2s" help:"How long to wait for the server to confirm a stop"`
	Tmux        bool          `help:"Stream lines into a detached tmux session"`
	Session     string        `help:"tmux session name (default: derived from the path)"`
}

// errPermanent marks failures a reconnect cannot fix
type errPermanent struct{ err error }

func (e *errPermanent) Error() string { return e.err.Error() }
func (e *errPermanent) Unwrap() error { return e.err }

// Run executes the tail command
func (c *TailCmd) Run(globals *Globals) error {
	frame := c.startFrame(c.Path)
	// validate locally so flag mistakes are not reported as close codes
	req, err := frame.Request(nil)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_REQUEST", err.Error())
	}
	endpoint, err := c.endpoint(globals)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_URL", err.Error(), "use ws://host:port/path")
	}

	emitter := output.NewEmitterFor(newMessageWriter(globals, c.Positions))
	if c.Tmux {
		var closeTmux func()
		emitter, closeTmux = c.openTmux(globals, emitter)
		defer closeTmux()
	}
	if req.Follow && !req.Following() {
		emitWarning(globals, emitter, "--follow only applies to forward scans; ignoring it")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	t := &tailStream{
		cmd:      c,
		globals:  globals,
		emitter:  emitter,
		frame:    frame,
		endpoint: endpoint,
		follow:   req.Following(),
		forward:  req.Direction == domain.Forward,
		limit:    req.Lines,
	}
	globals.Debug("tail %s from %s", c.Path, endpoint)

	if err := t.run(ctx); err != nil {
		var pe *errPermanent
		if errors.As(err, &pe) {
			return emitError(globals, emitter, "STREAM_REJECTED", pe.Error(), hintForRejected(pe))
		}
		return emitError(globals, emitter, "STREAM_FAILED", err.Error(), hintForDial(err))
	}
	if c.Summary && !globals.Quiet {
		emitter.WriteSummary()
	}
	return nil
}

// endpoint returns the websocket URL to dial
func (c *TailCmd) endpoint(globals *Globals) (string, error) {
	raw := c.Server
	if raw == "" {
		cfg := globalConfig(globals)
		raw = "ws://" + cfg.Server.Addr + cfg.Server.Path
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}

// openTmux moves line output into a tmux pane and announces the session on
// stdout. Without tmux, it warns and keeps emitter.
func (c *TailCmd) openTmux(globals *Globals, emitter *output.Emitter) (*output.Emitter, func()) {
	name := c.Session
	if name == "" {
		name = tmux.GenerateSessionName(c.Path)
	}
	om := tmux.NewOutputManager(&tmux.Config{SessionName: name}, globals.Stdout)
	if err := om.FallbackReason(); err != nil {
		emitWarning(globals, emitter, fmt.Sprintf("%v; writing to stdout", err))
		return emitter, func() {}
	}

	mgr := om.TmuxManager()
	if err := mgr.ClearPaneWithBanner("tail " + c.Path); err != nil {
		globals.Debug("tmux banner: %v", err)
	}
	if globals.Format == "ndjson" {
		output.NewNDJSONWriter(globals.Stdout).WriteTmux(mgr.SessionName(), mgr.AttachCommand())
	} else {
		fmt.Fprintf(globals.Stdout, "Tmux session: %s\n", mgr.SessionName())
		fmt.Fprintf(globals.Stdout, "Attach with: %s\n", mgr.AttachCommand())
	}

	// panes receive text through echo, so escape sequences stay out
	output.UsePlainStyles()
	paned := output.NewEmitterFor(output.NewTextWriter(om.Writer(), c.Positions))
	return paned, func() {
		if err := om.Cleanup(); err != nil {
			globals.Debug("tmux flush: %v", err)
		}
	}
}

// tailStream is one tail invocation across reconnects
type tailStream struct {
	cmd      *TailCmd
	globals  *Globals
	emitter  *output.Emitter
	frame    output.StartFrame
	endpoint string
	follow   bool
	forward  bool
	limit    domain.LineLimit

	received int   // lines forwarded to the emitter
	lastEnd  int64 // end of the last forwarded line
	done     bool  // the request was satisfied
}

// run streams until the request completes, ctx is cancelled or retries are
// exhausted. Dropped connections are resumed where the last line ended.
func (t *tailStream) run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0

	attempt := 0
	for {
		progressed, err := t.stream(ctx)
		if err == nil || t.done || ctx.Err() != nil {
			return nil
		}
		var pe *errPermanent
		if errors.As(err, &pe) {
			return err
		}
		if progressed {
			attempt = 0
			b.Reset()
		}
		if !t.resumable() {
			return fmt.Errorf("connection lost and a backward scan cannot resume: %w", err)
		}
		attempt++
		if attempt > t.cmd.MaxRetries {
			return err
		}
		delay := b.NextBackOff()
		if delay == backoff.Stop {
			return err
		}
		if !t.globals.Quiet {
			t.emitter.Reconnect(err.Error(), attempt, delay)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		if t.resume() {
			emitInfo(t.globals, t.emitter, fmt.Sprintf("resuming at byte %d after %d lines", t.lastEnd, t.received))
		}
	}
}

// resumable reports whether a fresh request can continue the stream
func (t *tailStream) resumable() bool {
	return t.forward || t.received == 0
}

// resume rewrites the start frame to continue after the last received line.
// It reports whether the frame changed.
func (t *tailStream) resume() bool {
	if t.received == 0 {
		return false
	}
	t.frame.OffsetStart = ""
	t.frame.OffsetBytes = t.lastEnd
	t.frame.SkipLines = 0
	if n, ok := t.limit.Value(); ok {
		left := n - t.received
		if left < 0 {
			left = 0
		}
		t.frame.Lines = &left
	}
	return true
}

type inbound struct {
	data []byte
	err  error
}

// stream runs one connection. progressed reports whether any frame arrived.
func (t *tailStream) stream(ctx context.Context) (progressed bool, err error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, t.endpoint, nil)
	if err != nil {
		return false, err
	}
	defer ws.Close()

	if err := ws.WriteJSON(t.frame); err != nil {
		return false, err
	}
	t.globals.Debug("sent start: offset=%d lines=%v", t.frame.OffsetBytes, t.frame.Lines)

	frames := make(chan inbound, 16)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		defer close(frames)
		for {
			_, data, err := ws.ReadMessage()
			select {
			case frames <- inbound{data: data, err: err}:
			case <-quit:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	stopSent := false
	var stopDeadline <-chan time.Time
	sendStop := func() error {
		if stopSent {
			return nil
		}
		stopSent = true
		stopDeadline = time.After(t.cmd.StopTimeout)
		return ws.WriteMessage(websocket.TextMessage, output.EncodeStop())
	}
	closeNormal := func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	}

	ctxDone := ctx.Done()
	for {
		select {
		case <-ctxDone:
			ctxDone = nil
			if err := sendStop(); err != nil {
				return progressed, nil
			}
		case <-stopDeadline:
			t.globals.Debug("no stop confirmation within %s", t.cmd.StopTimeout)
			closeNormal()
			return progressed, nil
		case in, ok := <-frames:
			if !ok {
				return progressed, errors.New("connection closed")
			}
			if in.err != nil {
				if stopSent {
					return progressed, nil
				}
				return progressed, classifyClose(in.err)
			}
			progressed = true
			msgs, err := output.DecodeFrame(in.data)
			if err != nil {
				return progressed, &errPermanent{err: fmt.Errorf("bad frame from server: %w", err)}
			}
			stopped := t.track(msgs)
			if rest := withoutStopped(msgs); len(rest) > 0 {
				if err := t.emitter.Send(rest); err != nil {
					return progressed, &errPermanent{err: err}
				}
			}
			if stopped {
				t.done = true
				closeNormal()
				return progressed, nil
			}
			if t.done && !t.follow {
				if err := sendStop(); err != nil {
					return progressed, nil
				}
			}
		}
	}
}

// track records progress from a frame and reports whether it confirms a stop
func (t *tailStream) track(msgs []domain.Message) (stopped bool) {
	for _, m := range msgs {
		switch v := m.(type) {
		case domain.Line:
			t.received++
			if end := v.End(); t.forward && end > t.lastEnd {
				t.lastEnd = end
			}
		case domain.Signal:
			switch v.Signal {
			case domain.SignalEOR:
				// a following scan keeps streaming after eor
				if !t.follow {
					t.done = true
				}
			case domain.SignalStopped:
				stopped = true
			}
		}
	}
	return stopped
}

// withoutStopped drops the stop confirmation, which only ends the stream
func withoutStopped(msgs []domain.Message) []domain.Message {
	out := msgs[:0:0]
	for _, m := range msgs {
		if s, ok := m.(domain.Signal); ok && s.Signal == domain.SignalStopped {
			continue
		}
		out = append(out, m)
	}
	return out
}

// classifyClose maps a read error to a retryable or permanent failure.
// Protocol and policy violations would recur on every retry.
func classifyClose(err error) error {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		switch ce.Code {
		case websocket.CloseUnsupportedData, websocket.ClosePolicyViolation:
			return &errPermanent{err: fmt.Errorf("server closed the stream (%d): %s", ce.Code, ce.Text)}
		case websocket.CloseNormalClosure:
			return &errPermanent{err: errors.New("server closed the stream")}
		}
		return fmt.Errorf("server closed the stream (%d): %s", ce.Code, ce.Text)
	}
	return err
}
