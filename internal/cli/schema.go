package cli

import (
	"encoding/json"
	"strings"

	"github.com/vburojevic/logview/internal/domain"
	"github.com/vburojevic/logview/internal/output"
)

// schemaTypes lists every schema the command can print, in output order
var schemaTypes = []string{"line", "signal", "summary", "error", "info", "warning", "reconnect_notice", "tmux", "start", "stop", "frame"}

// SchemaCmd outputs JSON Schema for logview output and wire types
type SchemaCmd struct {
	Type []string `short:"t" help:"Types to include (line,signal,summary,error,info,warning,reconnect_notice,tmux,start,stop,frame). Default: all"`
}

// Run executes the schema command
func (c *SchemaCmd) Run(globals *Globals) error {
	schemas := map[string]interface{}{
		"line":             lineSchema(),
		"signal":           signalSchema(),
		"summary":          summarySchema(),
		"error":            errorSchema(),
		"info":             messageSchema("info", "Informational message"),
		"warning":          messageSchema("warning", "Non-fatal problem"),
		"reconnect_notice": reconnectSchema(),
		"tmux":             tmuxSchema(),
		"start":            startFrameSchema(),
		"stop":             stopFrameSchema(),
		"frame":            wireFrameSchema(),
	}

	typesToOutput := c.Type
	if len(typesToOutput) == 0 {
		typesToOutput = schemaTypes
	}

	schemaOutput := map[string]interface{}{
		"$schema":       "http://json-schema.org/draft-07/schema#",
		"title":         "logview Schemas",
		"description":   "JSON Schema definitions for logview NDJSON output and websocket frames",
		"schemaVersion": output.SchemaVersion,
		"definitions":   map[string]interface{}{},
	}

	defs := schemaOutput["definitions"].(map[string]interface{})
	for _, t := range typesToOutput {
		t = strings.ToLower(strings.TrimSpace(t))
		if schema, ok := schemas[t]; ok {
			defs[t] = schema
		}
	}

	encoder := json.NewEncoder(globals.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(schemaOutput)
}

// schemaVersionProperty returns the schemaVersion property definition
func schemaVersionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"const":       output.SchemaVersion,
		"description": "Schema version for compatibility detection",
	}
}

func typeProperty(name string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "const": name}
}

func signalKinds() []string {
	return []string{
		string(domain.SignalFileLength),
		string(domain.SignalBOF),
		string(domain.SignalEOF),
		string(domain.SignalEOR),
		string(domain.SignalStopped),
	}
}

func lineSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Line",
		"description": "One decoded line of the file",
		"properties": map[string]interface{}{
			"type":          typeProperty("line"),
			"schemaVersion": schemaVersionProperty(),
			"pos":           map[string]interface{}{"type": "integer", "description": "Byte position of the line start"},
			"len":           map[string]interface{}{"type": "integer", "description": "Byte length including the terminator; pos+len starts the next line"},
			"str":           map[string]interface{}{"type": "string", "description": "Line text without the terminator"},
		},
		"required": []string{"type", "schemaVersion", "pos", "len", "str"},
	}
}

func signalSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Signal",
		"description": "Scan metadata or a boundary/completion state",
		"properties": map[string]interface{}{
			"type":          typeProperty("signal"),
			"schemaVersion": schemaVersionProperty(),
			"signal":        map[string]interface{}{"type": "string", "enum": signalKinds()},
			"value":         map[string]interface{}{"type": "integer", "description": "File length in bytes (file_length only)"},
		},
		"required": []string{"type", "schemaVersion", "signal"},
	}
}

func summarySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Summary",
		"description": "What a scan or tail delivered",
		"properties": map[string]interface{}{
			"type":          typeProperty("summary"),
			"schemaVersion": schemaVersionProperty(),
			"frames":        map[string]interface{}{"type": "integer"},
			"lines":         map[string]interface{}{"type": "integer"},
			"bytes":         map[string]interface{}{"type": "integer", "description": "Sum of line lengths"},
			"first_pos":     map[string]interface{}{"type": "integer"},
			"last_pos":      map[string]interface{}{"type": "integer"},
			"file_length":   map[string]interface{}{"type": "integer"},
			"eor":           map[string]interface{}{"type": "boolean", "description": "The request was satisfied"},
			"bof":           map[string]interface{}{"type": "boolean"},
			"eof":           map[string]interface{}{"type": "boolean"},
		},
		"required": []string{"type", "schemaVersion", "frames", "lines", "bytes", "eor"},
	}
}

func errorSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Error",
		"description": "A failure; the command exits non-zero",
		"properties": map[string]interface{}{
			"type":          typeProperty("error"),
			"schemaVersion": schemaVersionProperty(),
			"code":          map[string]interface{}{"type": "string", "description": "Stable error code, e.g. STREAM_REJECTED"},
			"message":       map[string]interface{}{"type": "string"},
			"hint":          map[string]interface{}{"type": "string"},
		},
		"required": []string{"type", "schemaVersion", "code", "message"},
	}
}

func messageSchema(name, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       strings.ToUpper(name[:1]) + name[1:],
		"description": description,
		"properties": map[string]interface{}{
			"type":          typeProperty(name),
			"schemaVersion": schemaVersionProperty(),
			"message":       map[string]interface{}{"type": "string"},
		},
		"required": []string{"type", "schemaVersion", "message"},
	}
}

func reconnectSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Reconnect Notice",
		"description": "tail lost its connection and will resume after delay_ms",
		"properties": map[string]interface{}{
			"type":          typeProperty("reconnect_notice"),
			"schemaVersion": schemaVersionProperty(),
			"message":       map[string]interface{}{"type": "string"},
			"attempt":       map[string]interface{}{"type": "integer", "minimum": 1},
			"delay_ms":      map[string]interface{}{"type": "integer"},
		},
		"required": []string{"type", "schemaVersion", "message", "attempt", "delay_ms"},
	}
}

func tmuxSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Tmux Session",
		"description": "tail --tmux streams lines into this session",
		"properties": map[string]interface{}{
			"type":          typeProperty("tmux"),
			"schemaVersion": schemaVersionProperty(),
			"session":       map[string]interface{}{"type": "string"},
			"attach":        map[string]interface{}{"type": "string", "description": "Command that attaches to the session"},
		},
		"required": []string{"type", "schemaVersion", "session", "attach"},
	}
}

func startFrameSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Start Frame",
		"description": "Client control frame that replaces the connection's scan",
		"properties": map[string]interface{}{
			"status":      map[string]interface{}{"type": "string", "const": string(output.StatusStart)},
			"path":        map[string]interface{}{"type": "string", "description": "Logical path: mount name followed by a relative file path"},
			"procedure":   map[string]interface{}{"type": "string", "enum": []string{string(domain.ProcedureRead), string(domain.ProcedureSearch), string(domain.ProcedureSearchSmart)}},
			"direction":   map[string]interface{}{"type": "string", "enum": []string{string(domain.Forward), string(domain.Backward)}},
			"lines":       map[string]interface{}{"type": "integer", "description": "Lines before eor; absent or negative means unlimited"},
			"offsetStart": map[string]interface{}{"type": "string", "enum": []string{string(domain.Head), string(domain.Tail)}},
			"offsetBytes": map[string]interface{}{"type": "integer", "minimum": 0},
			"skipLines":   map[string]interface{}{"type": "integer", "description": "Lines to skip from the offset; negative skips toward the start"},
			"follow":      map[string]interface{}{"type": "boolean", "description": "Keep streaming appended lines (forward only)"},
			"search":      map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		},
		"required": []string{"status", "path", "procedure", "direction"},
	}
}

func stopFrameSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Stop Frame",
		"description": "Client control frame that cancels the running scan; answered with a stopped signal",
		"properties": map[string]interface{}{
			"status": map[string]interface{}{"type": "string", "const": string(output.StatusStop)},
		},
		"required": []string{"status"},
	}
}

func wireFrameSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"title":       "Server Frame",
		"description": "Server to client websocket frame: lines and signals in order",
		"items": map[string]interface{}{
			"oneOf": []interface{}{
				map[string]interface{}{
					"type":     "object",
					"required": []string{"pos", "len", "str"},
					"properties": map[string]interface{}{
						"pos": map[string]interface{}{"type": "integer"},
						"len": map[string]interface{}{"type": "integer"},
						"str": map[string]interface{}{"type": "string"},
					},
				},
				map[string]interface{}{
					"type":     "object",
					"required": []string{"signal"},
					"properties": map[string]interface{}{
						"signal": map[string]interface{}{"type": "string", "enum": signalKinds()},
						"value":  map[string]interface{}{"type": "integer"},
					},
				},
			},
		},
	}
}
