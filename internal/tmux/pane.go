package tmux

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ClearPane clears the pane content and scrollback history
func (m *Manager) ClearPane() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pane == nil {
		return ErrNoPaneAvailable
	}

	paneTarget := m.target()
	if _, err := m.tmux.Command("send-keys", "-t", paneTarget, "-R"); err != nil {
		return fmt.Errorf("failed to reset terminal: %w", err)
	}
	if _, err := m.tmux.Command("clear-history", "-t", paneTarget); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	if _, err := m.tmux.Command("send-keys", "-t", paneTarget, "clear", "Enter"); err != nil {
		return fmt.Errorf("failed to clear screen: %w", err)
	}
	return nil
}

// ClearPaneWithBanner clears the pane and displays a stream marker
func (m *Manager) ClearPaneWithBanner(message string) error {
	if err := m.ClearPane(); err != nil {
		return err
	}
	for _, line := range banner(message, m.config.SessionName, time.Now()) {
		if err := m.WriteLine(line); err != nil {
			return err
		}
	}
	return nil
}

func banner(message, session string, now time.Time) []string {
	rule := strings.Repeat("═", 59)
	return []string{
		rule,
		"  logview - " + message,
		fmt.Sprintf("  Session: %s | Started: %s", session, now.Format("2006-01-02 15:04:05")),
		rule,
	}
}

// WriteLine writes a single line to the tmux pane using echo
func (m *Manager) WriteLine(line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pane == nil {
		return ErrNoPaneAvailable
	}
	_, err := m.tmux.Command("send-keys", "-t", m.target(), fmt.Sprintf("echo '%s'", escapeTmuxString(line)), "Enter")
	return err
}

func (m *Manager) target() string {
	return m.config.SessionName + ":0.0"
}

// escapeTmuxString escapes special characters for tmux send-keys
func escapeTmuxString(s string) string {
	s = strings.ReplaceAll(s, "'", "'\"'\"'")
	s = strings.ReplaceAll(s, "\\", "\\\\")
	return s
}

// LineWriter receives complete lines
type LineWriter interface {
	WriteLine(line string) error
}

// Writer implements io.Writer by splitting output into lines for a pane
type Writer struct {
	lines  LineWriter
	buffer strings.Builder
}

// NewWriter creates a new writer that streams to lw
func NewWriter(lw LineWriter) *Writer {
	return &Writer{lines: lw}
}

// Write implements io.Writer. Incomplete trailing text is held until the
// next newline or Flush.
func (w *Writer) Write(p []byte) (n int, err error) {
	w.buffer.Write(p)

	content := w.buffer.String()
	lines := strings.Split(content, "\n")
	w.buffer.Reset()
	// the last element is "" after a trailing newline, or the partial line
	w.buffer.WriteString(lines[len(lines)-1])
	lines = lines[:len(lines)-1]

	for _, line := range lines {
		if line == "" {
			continue
		}
		if err := w.lines.WriteLine(line); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Flush writes any remaining buffered content
func (w *Writer) Flush() error {
	if w.buffer.Len() > 0 {
		err := w.lines.WriteLine(w.buffer.String())
		w.buffer.Reset()
		return err
	}
	return nil
}

var _ io.Writer = (*Writer)(nil)
