package output

import "github.com/vburojevic/logview/internal/domain"

// Summary accumulates what a scan delivered
type Summary struct {
	Frames     int64  `json:"frames"`
	Lines      int64  `json:"lines"`
	Bytes      int64  `json:"bytes"`
	FirstPos   *int64 `json:"first_pos,omitempty"`
	LastPos    *int64 `json:"last_pos,omitempty"`
	FileLength *int64 `json:"file_length,omitempty"`
	EOR        bool   `json:"eor"`
	BOF        bool   `json:"bof"`
	EOF        bool   `json:"eof"`
}

// NewSummary creates an empty summary
func NewSummary() *Summary {
	return &Summary{}
}

// AddFrame records one outbound frame
func (s *Summary) AddFrame(msgs []domain.Message) {
	s.Frames++
	for _, msg := range msgs {
		s.Add(msg)
	}
}

// Add records a single message
func (s *Summary) Add(msg domain.Message) {
	switch m := msg.(type) {
	case domain.Line:
		s.Lines++
		s.Bytes += m.Len
		pos := m.Pos
		if s.FirstPos == nil {
			s.FirstPos = &pos
		}
		s.LastPos = &pos
	case domain.Signal:
		switch m.Signal {
		case domain.SignalFileLength:
			if m.Value != nil {
				v := *m.Value
				s.FileLength = &v
			}
		case domain.SignalEOR:
			s.EOR = true
		case domain.SignalBOF:
			s.BOF = true
		case domain.SignalEOF:
			s.EOF = true
		}
	}
}

// Complete reports whether the scan delivered everything it was asked for
func (s *Summary) Complete() bool {
	return s.EOR
}
