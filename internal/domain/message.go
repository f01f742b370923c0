package domain

// Message is one element of an outbound frame: either a Line or a Signal.
type Message interface {
	isMessage()
}

// Line is a single decoded line of a log file.
// Len counts the terminator bytes, so Pos+Len is the start of the next line.
type Line struct {
	Pos int64  `json:"pos"`
	Len int64  `json:"len"`
	Str string `json:"str"`
}

// End returns the position just past this line's terminator
func (l Line) End() int64 { return l.Pos + l.Len }

func (Line) isMessage() {}

// SignalKind names a non-line protocol message
type SignalKind string

const (
	SignalFileLength SignalKind = "file_length"
	SignalBOF        SignalKind = "bof"
	SignalEOF        SignalKind = "eof"
	SignalEOR        SignalKind = "eor"
	SignalStopped    SignalKind = "stopped"
)

// Signal conveys scan metadata or a boundary/completion state.
type Signal struct {
	Signal SignalKind `json:"signal"`
	Value  *int64     `json:"value,omitempty"`
}

func (Signal) isMessage() {}

var (
	// BOF marks that the stream reached the start of the file
	BOF = Signal{Signal: SignalBOF}
	// EOF marks that the stream reached the end of the file
	EOF = Signal{Signal: SignalEOF}
	// EOR marks that the requested lines have all been sent
	EOR = Signal{Signal: SignalEOR}
	// Stopped confirms that the connection's task has fully stopped
	Stopped = Signal{Signal: SignalStopped}
)

// FileLength reports the file length observed when a scan starts
func FileLength(n int64) Signal {
	return Signal{Signal: SignalFileLength, Value: &n}
}
