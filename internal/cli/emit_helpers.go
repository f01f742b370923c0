package cli

import (
	"fmt"

	"github.com/vburojevic/logview/internal/output"
)

// emitWarning respects format/quiet.
func emitWarning(globals *Globals, emitter *output.Emitter, msg string) {
	if globals.Quiet {
		return
	}
	if globals.Format == "ndjson" && emitter != nil {
		emitter.WriteWarning(msg)
		return
	}
	fmt.Fprintf(globals.Stderr, "Warning: %s\n", msg)
}

// emitInfo respects format/quiet.
func emitInfo(globals *Globals, emitter *output.Emitter, msg string) {
	if globals.Quiet {
		return
	}
	if globals.Format == "ndjson" && emitter != nil {
		emitter.WriteInfo(msg)
		return
	}
	fmt.Fprintln(globals.Stderr, output.Styles.Info.Render(msg))
}

// emitError respects format/quiet but always returns an error.
func emitError(globals *Globals, emitter *output.Emitter, code, msg string, hint ...string) error {
	if globals.Format == "ndjson" && emitter != nil {
		emitter.Error(code, msg, hint...)
		return &CLIError{Code: code, Message: msg, Hint: firstHint(hint)}
	}
	return outputErrorCommon(globals, code, msg, hint...)
}
