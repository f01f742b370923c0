package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/vburojevic/logview/internal/output"
	"github.com/vburojevic/logview/internal/scan"
)

// ScanCmd runs a scan over a local file without a server
type ScanCmd struct {
	ScanFlags
	FilterFlags

	Path      string `arg:"" type:"existingfile" help:"Log file to scan"`
	Positions bool   `help:"Prefix text lines with their byte position"`
	Summary   bool   `help:"Print a summary after the scan"`
}

// Run executes the scan command
func (c *ScanCmd) Run(globals *Globals) error {
	sf := c.startFrame(c.Path)
	req, err := sf.Request(nil)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_REQUEST", err.Error())
	}

	opts, err := scanOptions(globalConfig(globals).Scan)
	if err != nil {
		return outputCLIError(globals, err, "INVALID_CONFIG")
	}
	f, err := c.buildFilters()
	if err != nil {
		return outputErrorCommon(globals, "INVALID_FILTER", err.Error(), hintForFilter(err))
	}
	if f != nil {
		opts.Filter = f
	}

	emitter := output.NewEmitterFor(newMessageWriter(globals, c.Positions))
	if req.Follow && !req.Following() {
		emitWarning(globals, emitter, "--follow only applies to forward scans; ignoring it")
	}
	globals.Debug("scan %s procedure=%s direction=%s lines=%s follow=%v", req.Path, req.Procedure, req.Direction, req.Lines, req.Follow)

	task, err := scan.New(req, emitter, opts)
	if err != nil {
		return emitError(globals, emitter, "INVALID_REQUEST", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = task.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		var ioErr *scan.IOError
		if errors.As(err, &ioErr) {
			return emitError(globals, emitter, "READ_FAILED", ioErr.Error(), hintForRead(ioErr))
		}
		return emitError(globals, emitter, "SCAN_FAILED", err.Error())
	}

	if c.Summary && !globals.Quiet {
		emitter.WriteSummary()
	}
	return nil
}
