package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/vburojevic/logview/internal/domain"
)

// MessageWriter renders scan messages for a terminal or a pipe.
type MessageWriter interface {
	Write(msg domain.Message) error
	WriteError(code, message string, hint ...string) error
	WriteWarning(message string) error
	WriteInfo(message string) error
	WriteSummary(s *Summary) error
}

// NDJSONWriter writes scan messages as NDJSON
type NDJSONWriter struct {
	w       io.Writer
	encoder *json.Encoder
}

// NewNDJSONWriter creates a new NDJSON writer
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false) // keep logs unescaped and avoid extra allocations
	return &NDJSONWriter{
		w:       w,
		encoder: enc,
	}
}

// OutputLine is the NDJSON form of a line
type OutputLine struct {
	Type          string `json:"type"` // Always "line"
	SchemaVersion int    `json:"schemaVersion"`
	Pos           int64  `json:"pos"`
	Len           int64  `json:"len"`
	Str           string `json:"str"`
}

// OutputSignal is the NDJSON form of a signal
type OutputSignal struct {
	Type          string            `json:"type"` // Always "signal"
	SchemaVersion int               `json:"schemaVersion"`
	Signal        domain.SignalKind `json:"signal"`
	Value         *int64            `json:"value,omitempty"`
}

// ErrorOutput represents an error
type ErrorOutput struct {
	Type          string `json:"type"` // Always "error"
	SchemaVersion int    `json:"schemaVersion"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	Hint          string `json:"hint,omitempty"`
}

// InfoOutput represents an informational message
type InfoOutput struct {
	Type          string `json:"type"` // Always "info"
	SchemaVersion int    `json:"schemaVersion"`
	Message       string `json:"message"`
}

// WarningOutput represents a warning message
type WarningOutput struct {
	Type          string `json:"type"` // Always "warning"
	SchemaVersion int    `json:"schemaVersion"`
	Message       string `json:"message"`
}

// ReconnectNotice signals a client reconnect attempt
type ReconnectNotice struct {
	Type          string `json:"type"` // Always "reconnect_notice"
	SchemaVersion int    `json:"schemaVersion"`
	Message       string `json:"message"`
	Attempt       int    `json:"attempt"`
	DelayMillis   int64  `json:"delay_ms"`
}

// TmuxOutput announces the tmux session that receives line output
type TmuxOutput struct {
	Type          string `json:"type"` // Always "tmux"
	SchemaVersion int    `json:"schemaVersion"`
	Session       string `json:"session"`
	Attach        string `json:"attach"`
}

// SummaryOutput is the NDJSON form of a Summary
type SummaryOutput struct {
	Type          string `json:"type"` // Always "summary"
	SchemaVersion int    `json:"schemaVersion"`
	*Summary
}

// Write outputs a single message as NDJSON
func (w *NDJSONWriter) Write(msg domain.Message) error {
	switch m := msg.(type) {
	case domain.Line:
		return w.encoder.Encode(&OutputLine{
			Type:          "line",
			SchemaVersion: SchemaVersion,
			Pos:           m.Pos,
			Len:           m.Len,
			Str:           m.Str,
		})
	case domain.Signal:
		return w.encoder.Encode(&OutputSignal{
			Type:          "signal",
			SchemaVersion: SchemaVersion,
			Signal:        m.Signal,
			Value:         m.Value,
		})
	default:
		return fmt.Errorf("unsupported message %T", msg)
	}
}

// WriteError outputs an error
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	out := &ErrorOutput{
		Type:          "error",
		SchemaVersion: SchemaVersion,
		Code:          code,
		Message:       message,
	}
	if len(hint) > 0 {
		out.Hint = hint[0]
	}
	return w.encoder.Encode(out)
}

// WriteInfo outputs an informational message
func (w *NDJSONWriter) WriteInfo(message string) error {
	return w.encoder.Encode(&InfoOutput{
		Type:          "info",
		SchemaVersion: SchemaVersion,
		Message:       message,
	})
}

// WriteWarning outputs a warning message
func (w *NDJSONWriter) WriteWarning(message string) error {
	return w.encoder.Encode(&WarningOutput{
		Type:          "warning",
		SchemaVersion: SchemaVersion,
		Message:       message,
	})
}

// WriteReconnect outputs a reconnect notice
func (w *NDJSONWriter) WriteReconnect(message string, attempt int, delayMillis int64) error {
	return w.encoder.Encode(&ReconnectNotice{
		Type:          "reconnect_notice",
		SchemaVersion: SchemaVersion,
		Message:       message,
		Attempt:       attempt,
		DelayMillis:   delayMillis,
	})
}

// WriteTmux outputs tmux session info
func (w *NDJSONWriter) WriteTmux(session, attach string) error {
	return w.encoder.Encode(&TmuxOutput{
		Type:          "tmux",
		SchemaVersion: SchemaVersion,
		Session:       session,
		Attach:        attach,
	})
}

// WriteSummary outputs a scan summary
func (w *NDJSONWriter) WriteSummary(s *Summary) error {
	return w.encoder.Encode(&SummaryOutput{Type: "summary", SchemaVersion: SchemaVersion, Summary: s})
}

// WriteRaw outputs raw JSON data
func (w *NDJSONWriter) WriteRaw(v interface{}) error {
	return w.encoder.Encode(v)
}

// TextWriter writes scan messages as formatted text
type TextWriter struct {
	w         io.Writer
	positions bool
}

// NewTextWriter creates a new text writer. With positions set, every line is
// prefixed with its byte offset.
func NewTextWriter(w io.Writer, positions bool) *TextWriter {
	return &TextWriter{w: w, positions: positions}
}

// Write outputs a single message as styled text
func (w *TextWriter) Write(msg domain.Message) error {
	var line string
	switch m := msg.(type) {
	case domain.Line:
		if w.positions {
			line = Styles.Pos.Render(fmt.Sprintf("%10d", m.Pos)) + " "
		}
		line += m.Str + "\n"
	case domain.Signal:
		line = SignalText(m) + "\n"
	default:
		return fmt.Errorf("unsupported message %T", msg)
	}
	_, err := io.WriteString(w.w, line)
	return err
}

// WriteError outputs a styled error
func (w *TextWriter) WriteError(code, message string, hint ...string) error {
	errorLabel := Styles.Danger.Render("Error")
	codeStr := Styles.Warning.Render("[" + code + "]")
	line := errorLabel + " " + codeStr + ": " + message + "\n"
	if len(hint) > 0 && hint[0] != "" {
		line += Styles.Label.Render("Hint: ") + hint[0] + "\n"
	}
	_, err := io.WriteString(w.w, line)
	return err
}

// WriteWarning outputs a styled warning
func (w *TextWriter) WriteWarning(message string) error {
	_, err := io.WriteString(w.w, Styles.Warning.Render("Warning:")+" "+message+"\n")
	return err
}

// WriteInfo outputs a styled informational message
func (w *TextWriter) WriteInfo(message string) error {
	_, err := io.WriteString(w.w, Styles.Info.Render(message)+"\n")
	return err
}

// WriteSummary outputs a styled summary
func (w *TextWriter) WriteSummary(s *Summary) error {
	header := Styles.Header.Render("Summary")
	line := "\n" + header + "\n"
	line += Styles.Label.Render("Lines: ") + Styles.Value.Render(humanize.Comma(s.Lines)) + " | "
	line += Styles.Label.Render("Bytes: ") + Styles.Value.Render(humanize.IBytes(uint64(s.Bytes))) + " | "
	line += Styles.Label.Render("Frames: ") + Styles.Value.Render(humanize.Comma(s.Frames))
	if s.FileLength != nil {
		line += " | " + Styles.Label.Render("File: ") + Styles.Value.Render(humanize.IBytes(uint64(*s.FileLength)))
	}
	line += "\n"
	if s.Complete() {
		line += Styles.Success.Render("complete") + "\n"
	}
	_, err := io.WriteString(w.w, line)
	return err
}

// SignalText renders a signal as a styled marker
func SignalText(s domain.Signal) string {
	text := "-- " + string(s.Signal)
	if s.Value != nil {
		if s.Signal == domain.SignalFileLength {
			text += " " + humanize.IBytes(uint64(*s.Value))
		} else {
			text += fmt.Sprintf(" %d", *s.Value)
		}
	}
	return SignalStyle(s.Signal).Render(text + " --")
}
