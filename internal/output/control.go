package output

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/vburojevic/logview/internal/domain"
)

// ControlStatus is the kind of an inbound control frame
type ControlStatus string

const (
	StatusStart ControlStatus = "start"
	StatusStop  ControlStatus = "stop"
)

// ProtocolError is a client mistake: a malformed frame, an unknown enum
// value or a path that does not resolve. The connection is closed with
// Reason.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return e.Reason }

func protocolErrorf(format string, args ...any) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// StartFrame is the wire form of a start request. Pointer fields distinguish
// absent values from zero.
type StartFrame struct {
	Status      ControlStatus `json:"status"`
	Path        string        `json:"path"`
	Procedure   string        `json:"procedure"`
	Direction   string        `json:"direction"`
	Lines       *int          `json:"lines,omitempty"`
	OffsetStart string        `json:"offsetStart,omitempty"`
	OffsetBytes int64         `json:"offsetBytes,omitempty"`
	SkipLines   int           `json:"skipLines,omitempty"`
	Follow      bool          `json:"follow,omitempty"`
	Search      []string      `json:"search,omitempty"`
}

// Control is a parsed inbound control frame. Start is set for start frames.
type Control struct {
	Status ControlStatus
	Start  *StartFrame
}

// ParseControl decodes an inbound control frame. The status member is probed
// first so stop frames need no further decoding.
func ParseControl(data []byte) (Control, error) {
	if !gjson.ValidBytes(data) {
		return Control{}, protocolErrorf("control frame is not valid JSON")
	}
	status := gjson.GetBytes(data, "status")
	if !status.Exists() {
		return Control{}, protocolErrorf("control frame has no status")
	}
	switch ControlStatus(status.String()) {
	case StatusStop:
		return Control{Status: StatusStop}, nil
	case StatusStart:
		var sf StartFrame
		if err := json.Unmarshal(data, &sf); err != nil {
			return Control{}, protocolErrorf("invalid start frame: %v", err)
		}
		return Control{Status: StatusStart, Start: &sf}, nil
	default:
		return Control{}, protocolErrorf("unknown status %q", status.String())
	}
}

// Request validates the frame and converts it to a scan request. resolve maps
// the logical path to a physical one; its errors become protocol errors.
func (sf *StartFrame) Request(resolve func(string) (string, error)) (domain.ScanRequest, error) {
	if sf.Path == "" {
		return domain.ScanRequest{}, protocolErrorf("path is required")
	}
	proc, err := domain.ParseProcedure(sf.Procedure)
	if err != nil {
		return domain.ScanRequest{}, protocolErrorf("%v", err)
	}
	dir, err := domain.ParseDirection(sf.Direction)
	if err != nil {
		return domain.ScanRequest{}, protocolErrorf("%v", err)
	}
	anchor, err := domain.ParseAnchor(sf.OffsetStart)
	if err != nil {
		return domain.ScanRequest{}, protocolErrorf("%v", err)
	}
	lines := domain.Unlimited()
	if sf.Lines != nil && *sf.Lines >= 0 {
		lines = domain.LimitOf(*sf.Lines)
	}
	if sf.OffsetBytes < 0 {
		return domain.ScanRequest{}, protocolErrorf("offsetBytes must not be negative")
	}
	path := sf.Path
	if resolve != nil {
		path, err = resolve(sf.Path)
		if err != nil {
			return domain.ScanRequest{}, protocolErrorf("%v", err)
		}
	}
	return domain.ScanRequest{
		Path:        path,
		Procedure:   proc,
		Direction:   dir,
		Lines:       lines,
		OffsetBytes: sf.OffsetBytes,
		OffsetStart: anchor,
		SkipLines:   sf.SkipLines,
		Follow:      sf.Follow,
		Search:      domain.SearchTerms(sf.Search),
	}, nil
}

// NewStartFrame builds the wire form of req for logical path.
func NewStartFrame(logical string, req domain.ScanRequest) StartFrame {
	sf := StartFrame{
		Status:      StatusStart,
		Path:        logical,
		Procedure:   string(req.Procedure),
		Direction:   string(req.Direction),
		OffsetStart: string(req.OffsetStart),
		OffsetBytes: req.OffsetBytes,
		SkipLines:   req.SkipLines,
		Follow:      req.Follow,
		Search:      req.Search,
	}
	if n, ok := req.Lines.Value(); ok {
		sf.Lines = &n
	}
	return sf
}

// EncodeStop returns a stop control frame
func EncodeStop() []byte {
	return []byte(`{"status":"stop"}`)
}
