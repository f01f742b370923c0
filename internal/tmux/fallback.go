package tmux

import (
	"fmt"
	"io"
)

// OutputMode represents the output destination
type OutputMode int

const (
	OutputModeTmux   OutputMode = iota // Output to tmux pane
	OutputModeStdout                   // Output to the fallback writer
)

// OutputManager picks tmux when it can and falls back to a plain writer
type OutputManager struct {
	mode     OutputMode
	tmux     *Manager
	writer   io.Writer
	fallback error
}

// NewOutputManager tries to open the tmux session described by cfg. When that
// fails, output goes to fallback and FallbackReason reports why.
func NewOutputManager(cfg *Config, fallback io.Writer) *OutputManager {
	om := &OutputManager{mode: OutputModeStdout, writer: fallback}

	mgr, err := NewManager(cfg)
	if err != nil {
		om.fallback = err
		return om
	}
	if err := mgr.GetOrCreateSession(); err != nil {
		om.fallback = fmt.Errorf("failed to set up tmux session: %w", err)
		return om
	}

	om.mode = OutputModeTmux
	om.tmux = mgr
	om.writer = NewWriter(mgr)
	return om
}

// Writer returns the io.Writer for output
func (om *OutputManager) Writer() io.Writer {
	return om.writer
}

// Mode returns the current output mode
func (om *OutputManager) Mode() OutputMode {
	return om.mode
}

// FallbackReason reports why tmux is not used, or nil in tmux mode
func (om *OutputManager) FallbackReason() error {
	return om.fallback
}

// TmuxManager returns the tmux manager if in tmux mode
func (om *OutputManager) TmuxManager() *Manager {
	return om.tmux
}

// IsTmuxMode returns true if outputting to tmux
func (om *OutputManager) IsTmuxMode() bool {
	return om.mode == OutputModeTmux
}

// Cleanup flushes pending output; the session persists
func (om *OutputManager) Cleanup() error {
	if om.tmux == nil {
		return nil
	}
	var err error
	if w, ok := om.writer.(*Writer); ok {
		err = w.Flush()
	}
	om.tmux.Cleanup()
	return err
}
