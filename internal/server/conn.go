package server

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vburojevic/logview/internal/domain"
	"github.com/vburojevic/logview/internal/output"
	"github.com/vburojevic/logview/internal/scan"
	"github.com/vburojevic/logview/internal/session"
)

// maxCloseReason is the longest reason a close frame can carry
const maxCloseReason = 123

var errConnClosed = errors.New("connection closed")

// conn is one client connection. writePump is the only writer of ws; tasks
// hand frames to it through send.
type conn struct {
	id      string
	s       *Server
	ws      *websocket.Conn
	log     *zap.Logger
	send    chan []byte
	done    chan struct{}
	limiter *rate.Limiter

	closeOnce   sync.Once
	closeCode   int
	closeReason string

	frames atomic.Int64
	bytes  atomic.Int64
}

// handleWebSocket upgrades the request and starts the connection's pumps
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	c := &conn{
		id:      id,
		s:       s,
		ws:      ws,
		log:     s.log.With(zap.String("conn", id)),
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(s.opts.ControlRate), s.opts.ControlBurst),
	}
	if !s.register(c) {
		deadline := time.Now().Add(s.opts.WriteTimeout)
		_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline)
		ws.Close()
		return
	}
	c.log.Debug("client connected", zap.String("remote", r.RemoteAddr))

	go c.writePump()
	go c.readPump()
}

// Send queues one outbound frame. It blocks while the queue is full and
// fails once the connection is closing.
func (c *conn) Send(msgs []domain.Message) error {
	data, err := output.EncodeFrame(msgs)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case <-c.done:
		return errConnClosed
	case c.send <- data:
		return nil
	}
}

// closeWith records the close frame to send and signals both pumps. Only the
// first call has an effect.
func (c *conn) closeWith(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = truncateReason(reason)
		close(c.done)
	})
}

// writePump sends queued frames and periodic pings until the connection
// closes, then writes the close frame.
func (c *conn) writePump() {
	ticker := time.NewTicker(c.s.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
		c.s.wg.Done()
	}()

	for {
		select {
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(c.s.opts.WriteTimeout))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(c.closeCode, c.closeReason))
			return

		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.s.opts.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug("write failed", zap.Error(err))
				c.closeWith(websocket.CloseAbnormalClosure, "")
				return
			}
			c.frames.Add(1)
			c.bytes.Add(int64(len(data)))

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.s.opts.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.closeWith(websocket.CloseAbnormalClosure, "")
				return
			}
		}
	}
}

// readPump applies control frames until the client goes away or breaks the
// protocol. On exit the connection's task is retired without notification.
func (c *conn) readPump() {
	defer func() {
		c.s.manager.Disconnect(c.id)
		c.closeWith(websocket.CloseNormalClosure, "")
		c.s.unregister(c)
		c.log.Debug("client disconnected",
			zap.Int64("frames", c.frames.Load()),
			zap.String("sent", humanize.IBytes(uint64(c.bytes.Load()))),
		)
		c.s.wg.Done()
	}()

	pongWait := 2 * c.s.opts.PingInterval
	c.ws.SetReadLimit(c.s.opts.ReadLimit)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				c.log.Debug("read failed", zap.Error(err))
			}
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(pongWait))

		if !c.limiter.Allow() {
			c.log.Warn("control frame flood")
			c.closeWith(websocket.ClosePolicyViolation, "too many control frames")
			return
		}
		if mt != websocket.TextMessage {
			c.closeWith(websocket.CloseUnsupportedData, "binary frames are not supported")
			return
		}

		if err := c.handleControl(data); err != nil {
			var pe *output.ProtocolError
			switch {
			case errors.As(err, &pe):
				c.log.Debug("protocol error", zap.String("reason", pe.Reason))
				c.closeWith(websocket.CloseUnsupportedData, pe.Reason)
			case errors.Is(err, session.ErrClosed):
				c.closeWith(websocket.CloseGoingAway, "server shutting down")
			default:
				c.log.Error("control frame failed", zap.Error(err))
				c.closeWith(websocket.CloseInternalServerErr, "internal error")
			}
			return
		}
	}
}

func (c *conn) handleControl(data []byte) error {
	ctl, err := output.ParseControl(data)
	if err != nil {
		return err
	}
	switch ctl.Status {
	case output.StatusStart:
		req, err := ctl.Start.Request(c.s.resolver.ResolveFile)
		if err != nil {
			return err
		}
		opts := c.s.opts.Scan
		opts.Logger = c.s.log.Named("scan")
		opts.ConnID = c.id
		c.log.Debug("start requested",
			zap.String("path", ctl.Start.Path),
			zap.String("procedure", string(req.Procedure)),
			zap.String("direction", string(req.Direction)),
			zap.Stringer("lines", req.Lines),
		)
		return c.s.manager.Start(c.id, func() (session.Runner, error) {
			return scan.New(req, c, opts)
		})
	case output.StatusStop:
		return c.s.manager.Stop(c.id, func() {
			if err := c.Send([]domain.Message{domain.Stopped}); err != nil {
				c.log.Debug("stopped not delivered", zap.Error(err))
			}
		})
	}
	return nil
}

func truncateReason(reason string) string {
	if len(reason) <= maxCloseReason {
		return reason
	}
	cut := maxCloseReason
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}
	return reason[:cut]
}
