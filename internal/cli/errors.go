package cli

import (
	"errors"
	"fmt"

	"github.com/vburojevic/logview/internal/output"
)

// CLIError is a failure that has already been reported to the user. Code is
// the stable identifier scripts match on.
type CLIError struct {
	Code    string
	Message string
	Hint    string
}

func (e *CLIError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Is matches another *CLIError with the same code, so callers can test
// errors.Is(err, &CLIError{Code: "STREAM_REJECTED"}).
func (e *CLIError) Is(target error) bool {
	t, ok := target.(*CLIError)
	return ok && e != nil && t.Code == e.Code
}

// outputErrorCommon normalizes error emission across commands, respecting
// ndjson vs text formats so scripted clients always get machine-readable
// failures.
func outputErrorCommon(globals *Globals, code, message string, hint ...string) error {
	if globals != nil && globals.Format == "ndjson" {
		output.NewNDJSONWriter(globals.Stdout).WriteError(code, message, hint...)
	} else if globals != nil {
		fmt.Fprintf(globals.Stderr, "Error [%s]: %s\n", code, message)
		if len(hint) > 0 && hint[0] != "" {
			fmt.Fprintf(globals.Stderr, "Hint: %s\n", hint[0])
		}
	}
	return &CLIError{Code: code, Message: message, Hint: firstHint(hint)}
}

// outputCLIError emits err, using its code when it is a *CLIError
func outputCLIError(globals *Globals, err error, fallbackCode string) error {
	var ce *CLIError
	if errors.As(err, &ce) {
		return outputErrorCommon(globals, ce.Code, ce.Message, ce.Hint)
	}
	return outputErrorCommon(globals, fallbackCode, err.Error())
}

func firstHint(hint []string) string {
	if len(hint) > 0 {
		return hint[0]
	}
	return ""
}
