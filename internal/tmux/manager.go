// Package tmux streams rendered output into a detached tmux session so a
// long-running tail can be attached to later.
package tmux

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	"github.com/GianlucaP106/gotmux/gotmux"
)

// Config holds tmux session configuration
type Config struct {
	SessionName    string // e.g., "logview-app-server-log"
	StartDirectory string
}

// Manager handles all tmux session operations
type Manager struct {
	tmux    *gotmux.Tmux
	session *gotmux.Session
	pane    *gotmux.Pane
	config  *Config
	mu      sync.Mutex
}

// Errors
var (
	ErrTmuxNotInstalled = fmt.Errorf("tmux is not installed")
	ErrNoPaneAvailable  = fmt.Errorf("no tmux pane available")
)

// IsTmuxAvailable checks if tmux is installed
func IsTmuxAvailable() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

// NewManager creates a new tmux manager instance
func NewManager(cfg *Config) (*Manager, error) {
	if !IsTmuxAvailable() {
		return nil, ErrTmuxNotInstalled
	}

	tmux, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tmux: %w", err)
	}

	return &Manager{
		tmux:   tmux,
		config: cfg,
	}, nil
}

// GetOrCreateSession finds existing session or creates new one
func (m *Manager) GetOrCreateSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, err := m.tmux.ListSessions()
	if err == nil {
		for _, s := range sessions {
			if s.Name == m.config.SessionName {
				m.session = s
				return m.firstPane()
			}
		}
	}

	session, err := m.tmux.NewSession(&gotmux.SessionOptions{
		Name:           m.config.SessionName,
		StartDirectory: m.config.StartDirectory,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	m.session = session
	return m.firstPane()
}

func (m *Manager) firstPane() error {
	windows, err := m.session.ListWindows()
	if err != nil {
		return fmt.Errorf("failed to list windows: %w", err)
	}
	if len(windows) == 0 {
		return ErrNoPaneAvailable
	}
	panes, err := windows[0].ListPanes()
	if err != nil {
		return fmt.Errorf("failed to list panes: %w", err)
	}
	if len(panes) == 0 {
		return ErrNoPaneAvailable
	}
	m.pane = panes[0]
	return nil
}

// SessionName returns the current session name
func (m *Manager) SessionName() string {
	return m.config.SessionName
}

// AttachCommand returns the command string for attaching to this session
func (m *Manager) AttachCommand() string {
	return AttachCommand(m.config.SessionName)
}

// AttachCommand returns the attach command for a session name
func AttachCommand(session string) string {
	return fmt.Sprintf("tmux attach -t %s", session)
}

// Cleanup cleans up internal references (session persists)
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = nil
	m.pane = nil
}

var unsafeSessionChars = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSessionName creates a tmux-safe session name from a logical path
func GenerateSessionName(path string) string {
	name := strings.ToLower(path)
	name = unsafeSessionChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		return "logview"
	}
	return "logview-" + name
}
