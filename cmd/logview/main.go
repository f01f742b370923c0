package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/vburojevic/logview/internal/cli"
	"github.com/vburojevic/logview/internal/config"
)

const quickStart = `logview - stream log files over websockets

START HERE:
  logview serve --dir app=/srv/app/logs      Serve a directory as mount "app"
  logview tail app/server.log -F             Follow a file from the server

Other useful commands:
  logview tail app/server.log -t --skip=-50          Last 50 lines
  logview tail app/server.log -P searchSmart -s timeout
  logview scan ./local.log -P search -s ERROR       Scan a local file
  logview config generate > ~/.logview.yaml
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	// Load configuration from files/environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	// Apply config defaults before parsing
	// These will be overridden by CLI flags if specified
	vars := kong.Vars{
		"config_format": cfg.Format,
	}

	ctx := kong.Parse(&c,
		kong.Name("logview"),
		kong.Description("Stream, search and follow log files over websockets"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		vars,
	)

	// Record which flags were explicitly provided so commands can distinguish
	// CLI overrides from config defaults.
	flagsSet := map[string]bool{}
	for _, p := range ctx.Path {
		if p.Flag != nil {
			flagsSet[p.Flag.Name] = true
		}
	}

	if c.ConfigFile != "" {
		loaded, err := cli.LoadConfig(c.ConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error [INVALID_CONFIG]: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	globals := cli.NewGlobalsWithConfig(&c, cfg, flagsSet)
	err = ctx.Run(globals)
	if err != nil {
		os.Exit(1)
	}
}
