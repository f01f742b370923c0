package cli

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/vburojevic/logview/internal/config"
	"github.com/vburojevic/logview/internal/logroot"
	"github.com/vburojevic/logview/internal/output"
	"github.com/vburojevic/logview/internal/scan"
	"github.com/vburojevic/logview/internal/server"
	"github.com/vburojevic/logview/internal/textfile"
)

// scanOptions maps the scan config section onto task options
func scanOptions(cfg config.ScanConfig) (scan.Options, error) {
	opts := scan.Options{
		Reader: textfile.LineReaderOptions{
			BufferSize: cfg.BufferSize,
			Prefetch:   cfg.PrefetchLines,
		},
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		PollInterval:  cfg.PollInterval,
		GroupIdle:     cfg.GroupIdle,
		MaxGroupLines: cfg.MaxGroupLines,
	}
	if cfg.FallbackCharset != "" {
		cs, err := textfile.LookupCharset(cfg.FallbackCharset)
		if err != nil {
			return scan.Options{}, &CLIError{
				Code:    "INVALID_CONFIG",
				Message: err.Error(),
				Hint:    "scan.fallback_charset takes a WHATWG encoding label such as shift_jis or windows-1250",
			}
		}
		opts.Reader.Detect.Fallback = &cs
	}
	return opts, nil
}

// serverOptions maps the server and scan config sections onto server options
func serverOptions(cfg *config.Config) (server.Options, error) {
	so, err := scanOptions(cfg.Scan)
	if err != nil {
		return server.Options{}, err
	}
	return server.Options{
		Path:            cfg.Server.Path,
		ReadLimit:       cfg.Server.ReadLimit,
		PingInterval:    cfg.Server.PingInterval,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ControlRate:     cfg.Server.ControlRate,
		ControlBurst:    cfg.Server.ControlBurst,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Workers:         cfg.Scan.Workers,
		Scan:            so,
	}, nil
}

// newResolver builds the logical path resolver from the roots section
func newResolver(cfg config.RootsConfig) *logroot.Resolver {
	return &logroot.Resolver{Root: cfg.Root, Dirs: cfg.Dirs}
}

// newMessageWriter picks the line renderer for the global format. Styles are
// dropped when stdout is not a terminal.
func newMessageWriter(globals *Globals, positions bool) output.MessageWriter {
	if globals.Format == "ndjson" {
		return output.NewNDJSONWriter(globals.Stdout)
	}
	maybeNoStyle(globals)
	return output.NewTextWriter(globals.Stdout, positions)
}

func maybeNoStyle(globals *Globals) {
	if globals == nil || globals.Stdout == nil {
		return
	}
	f, ok := globals.Stdout.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		output.UsePlainStyles()
	}
}

// globalConfig returns the loaded config, or the defaults when none was loaded
func globalConfig(globals *Globals) *config.Config {
	if globals == nil || globals.Config == nil {
		return config.Default()
	}
	return globals.Config
}
