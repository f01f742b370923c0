package output

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vburojevic/logview/internal/domain"
)

// Styles holds all lipgloss styles for text output
var Styles = struct {
	// Line styles
	Pos lipgloss.Style

	// Signal styles
	Boundary lipgloss.Style
	Length   lipgloss.Style
	Done     lipgloss.Style
	Info     lipgloss.Style

	// Summary styles
	Header  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Danger  lipgloss.Style
}{
	Pos: lipgloss.NewStyle().Foreground(lipgloss.Color("244")), // Gray

	Boundary: lipgloss.NewStyle().Foreground(lipgloss.Color("142")), // Yellow-green
	Length:   lipgloss.NewStyle().Foreground(lipgloss.Color("33")),  // Blue
	Done:     lipgloss.NewStyle().Foreground(lipgloss.Color("243")), // Gray
	Info:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")),  // Cyan

	// Summary
	Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("239")),
	Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	Value:   lipgloss.NewStyle().Bold(true),
	Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),  // Green
	Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true), // Orange
	Danger:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true), // Red
}

// SignalStyle returns the appropriate style for a signal kind
func SignalStyle(kind domain.SignalKind) lipgloss.Style {
	switch kind {
	case domain.SignalBOF, domain.SignalEOF:
		return Styles.Boundary
	case domain.SignalFileLength:
		return Styles.Length
	case domain.SignalEOR, domain.SignalStopped:
		return Styles.Done
	default:
		return Styles.Info
	}
}

// UsePlainStyles drops colors and emphasis, for output that is not a terminal
func UsePlainStyles() {
	plain := lipgloss.NewStyle()
	Styles.Pos = plain
	Styles.Boundary = plain
	Styles.Length = plain
	Styles.Done = plain
	Styles.Info = plain
	Styles.Header = plain
	Styles.Label = plain
	Styles.Value = plain
	Styles.Success = plain
	Styles.Warning = plain
	Styles.Danger = plain
}
