// Package session tracks the scan task owned by each client connection and
// guarantees that at most one task per connection runs at any time.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// DefaultWorkers bounds concurrently running tasks across all connections
const DefaultWorkers = 64

// ErrClosed is returned for control operations after Shutdown
var ErrClosed = errors.New("session manager closed")

// State of a connection's task slot
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Runner is the unit of work a connection owns; *scan.Task implements it.
type Runner interface {
	Run(ctx context.Context) error
}

// Factory builds the next task. It is called only after the connection's
// previous task has fully returned.
type Factory func() (Runner, error)

// Manager owns the connection -> task registry.
//
// Control operations (Start, Stop, Disconnect) for one connection are
// applied in call order on a goroutine of their own, so callers never block
// on a long running scan. Retiring a task means cancelling its context and
// waiting for Run to return; a new task is launched only after that.
type Manager struct {
	log *zap.Logger
	sem *semaphore.Weighted

	ctx    context.Context // parent of every task context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	conns  map[string]*slot
	closed bool
}

type slot struct {
	id   string
	last chan struct{} // closed when the most recently queued op has run
	task *handle
	gone bool
}

type handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a manager that runs at most workers tasks at once.
func NewManager(log *zap.Logger, workers int64) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		log:    log,
		sem:    semaphore.NewWeighted(workers),
		ctx:    ctx,
		cancel: cancel,
		conns:  make(map[string]*slot),
	}
}

// Start retires the connection's running task, if any, then builds a new
// one with factory and runs it. A factory error is logged and leaves the
// connection idle.
func (m *Manager) Start(connID string, factory Factory) error {
	return m.enqueue(connID, false, func(s *slot) {
		m.retire(s)
		m.launch(s, factory)
	})
}

// Stop retires the connection's running task and then calls notify. notify
// is called exactly once per successful Stop, also when nothing was running.
func (m *Manager) Stop(connID string, notify func()) error {
	return m.enqueue(connID, false, func(s *slot) {
		m.retire(s)
		if notify != nil {
			notify()
		}
	})
}

// Disconnect retires the connection's task without notification and forgets
// the connection. Later operations for connID are rejected.
func (m *Manager) Disconnect(connID string) {
	m.enqueue(connID, true, func(s *slot) {
		m.retire(s)
		m.mu.Lock()
		if m.conns[connID] == s {
			delete(m.conns, connID)
		}
		m.mu.Unlock()
		m.log.Debug("connection released", zap.String("conn", connID))
	})
}

// State reports whether connID currently has a running task
func (m *Manager) State(connID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.conns[connID]; ok && s.task != nil {
		return Running
	}
	return Idle
}

// Stats returns the number of known connections and running tasks
func (m *Manager) Stats() (connections, running int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.conns {
		if s.task != nil {
			running++
		}
	}
	return len(m.conns), running
}

// Running returns the number of running tasks
func (m *Manager) Running() int {
	_, running := m.Stats()
	return running
}

// Shutdown rejects further operations, cancels every task and waits for all
// of them and all queued operations to finish, or for ctx to expire.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueue chains op after the connection's previously queued operation.
func (m *Manager) enqueue(connID string, disconnect bool, op func(*slot)) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	s, ok := m.conns[connID]
	if !ok {
		if disconnect {
			m.mu.Unlock()
			return nil
		}
		s = &slot{id: connID}
		m.conns[connID] = s
	}
	if s.gone {
		m.mu.Unlock()
		return ErrClosed
	}
	if disconnect {
		s.gone = true
	}
	prev := s.last
	next := make(chan struct{})
	s.last = next
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer close(next)
		if prev != nil {
			<-prev
		}
		op(s)
	}()
	return nil
}

// retire cancels the slot's task and waits until it has returned.
func (m *Manager) retire(s *slot) {
	m.mu.Lock()
	h := s.task
	m.mu.Unlock()
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
	m.log.Debug("task retired", zap.String("conn", s.id))
}

func (m *Manager) launch(s *slot, factory Factory) {
	if m.ctx.Err() != nil {
		return
	}
	r, err := factory()
	if err != nil {
		m.log.Warn("task not started", zap.String("conn", s.id), zap.Error(err))
		return
	}
	ctx, cancel := context.WithCancel(m.ctx)
	h := &handle{cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	s.task = h
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer close(h.done)
		defer cancel()
		defer func() {
			m.mu.Lock()
			if s.task == h {
				s.task = nil
			}
			m.mu.Unlock()
		}()

		if err := m.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer m.sem.Release(1)
		_ = r.Run(ctx)
	}()
}
