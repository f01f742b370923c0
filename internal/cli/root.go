package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/vburojevic/logview/internal/config"
)

// CLI is the root command structure for logview
type CLI struct {
	// Global flags
	Format     string `short:"f" default:"${config_format}" enum:"ndjson,text" help:"Output format"`
	Quiet      bool   `short:"q" help:"Suppress non-line output (info, warnings, summaries)"`
	Verbose    bool   `short:"v" help:"Show debug output (requests, reconnections)"`
	ConfigFile string `name:"config" type:"path" help:"Config file (default: search standard locations)"`

	// Commands
	Serve      ServeCmd      `cmd:"" help:"Serve log files to websocket clients"`
	Tail       TailCmd       `cmd:"" help:"Stream a log file from a logview server"`
	Scan       ScanCmd       `cmd:"" help:"Scan a local log file"`
	Schema     SchemaCmd     `cmd:"" help:"Output JSON Schema for logview output and websocket frames"`
	Config     ConfigCmd     `cmd:"" help:"Show or manage configuration"`
	Doctor     DoctorCmd     `cmd:"" help:"Check configuration, mounts and the server"`
	Version    VersionCmd    `cmd:"" help:"Show version information"`
	Completion CompletionCmd `cmd:"" help:"Generate shell completions"`
}

// Globals holds shared state for all commands
type Globals struct {
	Format     string
	Quiet      bool
	Verbose    bool
	Stdout     io.Writer
	Stderr     io.Writer
	Config     *config.Config
	ConfigFile string
	FlagsSet   map[string]bool
}

// NewGlobals creates a new Globals instance from CLI flags
func NewGlobals(cli *CLI) *Globals {
	return NewGlobalsWithConfig(cli, config.Default(), nil)
}

// NewGlobalsWithConfig creates a new Globals instance with config fallbacks.
// flagsSet names the flags given explicitly on the command line.
func NewGlobalsWithConfig(cli *CLI, cfg *config.Config, flagsSet map[string]bool) *Globals {
	g := &Globals{
		Format:     cli.Format,
		Quiet:      cli.Quiet,
		Verbose:    cli.Verbose,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Config:     cfg,
		ConfigFile: cli.ConfigFile,
		FlagsSet:   flagsSet,
	}

	// Apply config values if CLI flags weren't explicitly set
	if cfg != nil {
		if !g.FlagProvided("format") && cfg.Format != "" {
			g.Format = cfg.Format
		}
		// If quiet wasn't set via CLI, use config value
		if !cli.Quiet && cfg.Quiet {
			g.Quiet = cfg.Quiet
		}
		// If verbose wasn't set via CLI, use config value
		if !cli.Verbose && cfg.Verbose {
			g.Verbose = cfg.Verbose
		}
	}

	return g
}

// FlagProvided reports whether a flag was given on the command line
func (g *Globals) FlagProvided(name string) bool {
	return g.FlagsSet[name]
}

// Debug prints a debug message if verbose mode is enabled
func (g *Globals) Debug(format string, args ...interface{}) {
	if g.Verbose {
		fmt.Fprintf(g.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// LoadConfig loads the config file named by path, or searches the standard
// locations when path is empty.
func LoadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// VersionCmd shows version information
type VersionCmd struct{}

// Run executes the version command
func (v *VersionCmd) Run(globals *Globals) error {
	if globals.Format == "ndjson" {
		io.WriteString(globals.Stdout, `{"type":"version","version":"`+Version+`","commit":"`+Commit+`"}`+"\n")
	} else {
		io.WriteString(globals.Stdout, "logview version "+Version+" ("+Commit+")\n")
	}
	return nil
}

// Version information (set at build time)
var (
	Version = "dev"
	Commit  = "none"
)
