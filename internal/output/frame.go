package output

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/vburojevic/logview/internal/domain"
)

// EncodeFrame serializes an outbound frame: a JSON array of lines and signals.
func EncodeFrame(msgs []domain.Message) ([]byte, error) {
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return json.Marshal(msgs)
}

// DecodeFrame parses an outbound frame received by a client. Elements with a
// "signal" member are signals, everything else is a line.
func DecodeFrame(data []byte) ([]domain.Message, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("frame is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, errors.New("frame is not a JSON array")
	}
	var (
		msgs []domain.Message
		err  error
	)
	root.ForEach(func(_, el gjson.Result) bool {
		if !el.IsObject() {
			err = fmt.Errorf("unexpected frame element %s", el.Raw)
			return false
		}
		if sig := el.Get("signal"); sig.Exists() {
			s := domain.Signal{Signal: domain.SignalKind(sig.String())}
			if v := el.Get("value"); v.Exists() {
				n := v.Int()
				s.Value = &n
			}
			msgs = append(msgs, s)
			return true
		}
		msgs = append(msgs, domain.Line{
			Pos: el.Get("pos").Int(),
			Len: el.Get("len").Int(),
			Str: el.Get("str").String(),
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
