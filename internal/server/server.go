// Package server exposes scan tasks over websocket connections. Each
// connection owns at most one task; control frames start and stop it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vburojevic/logview/internal/scan"
	"github.com/vburojevic/logview/internal/session"
)

const (
	DefaultPath            = "/ws"
	DefaultReadLimit       = 64 * 1024
	DefaultPingInterval    = 30 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultControlRate     = 10
	DefaultControlBurst    = 20
	DefaultShutdownTimeout = 10 * time.Second

	// outbound frames queued per connection before a task blocks
	sendBufferSize = 16
)

// Resolver maps a logical path from a start frame to a file on disk
type Resolver interface {
	ResolveFile(logical string) (string, error)
}

// Options configures a Server. Zero fields take the package defaults.
type Options struct {
	Path            string
	ReadLimit       int64
	PingInterval    time.Duration
	WriteTimeout    time.Duration
	ControlRate     float64 // control frames per second
	ControlBurst    int
	ShutdownTimeout time.Duration
	Workers         int64
	Scan            scan.Options // template for every task; Logger and ConnID are set per connection
}

func (o Options) withDefaults() Options {
	if o.Path == "" {
		o.Path = DefaultPath
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = DefaultReadLimit
	}
	if o.PingInterval <= 0 {
		o.PingInterval = DefaultPingInterval
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.ControlRate <= 0 {
		o.ControlRate = DefaultControlRate
	}
	if o.ControlBurst <= 0 {
		o.ControlBurst = DefaultControlBurst
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = DefaultShutdownTimeout
	}
	return o
}

// Server accepts websocket connections and runs their scan tasks
type Server struct {
	log      *zap.Logger
	opts     Options
	resolver Resolver
	manager  *session.Manager
	upgrader websocket.Upgrader

	mu      sync.Mutex
	conns   map[string]*conn
	closing bool
	wg      sync.WaitGroup
}

// New creates a server that resolves paths with resolver
func New(log *zap.Logger, resolver Resolver, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	opts = opts.withDefaults()
	return &Server{
		log:      log,
		opts:     opts,
		resolver: resolver,
		manager:  session.NewManager(log.Named("session"), opts.Workers),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The server binds to loopback by default and carries no credentials
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[string]*conn),
	}
}

// Handler returns the HTTP handler serving the websocket endpoint
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.opts.Path, s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Manager returns the session manager owning the connections' tasks
func (s *Server) Manager() *session.Manager { return s.manager }

// ConnectionCount returns the number of open connections
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// ListenAndServe listens on addr and serves until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("listening", zap.String("addr", ln.Addr().String()), zap.String("path", s.opts.Path))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		// hijacked websocket connections are not tracked by http.Server
		err := httpSrv.Shutdown(shutdownCtx)
		return errors.Join(err, s.Shutdown(shutdownCtx))
	})
	return g.Wait()
}

// Shutdown closes every connection with 1001, cancels every task and waits
// for the connections' goroutines to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.closeWith(websocket.CloseGoingAway, "server shutting down")
	}
	err := s.manager.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		err = errors.Join(err, ctx.Err())
	}
	s.log.Info("server stopped", zap.Int("connections", len(conns)))
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	conns, running := s.manager.Stats()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Status      string `json:"status"`
		Connections int    `json:"connections"`
		Running     int    `json:"running"`
	}{"ok", conns, running})
}

func (s *Server) register(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[c.id] = c
	s.wg.Add(2)
	return true
}

func (s *Server) unregister(c *conn) {
	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()
}
