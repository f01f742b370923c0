package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/vburojevic/logview/internal/config"
	"github.com/vburojevic/logview/internal/output"
)

// ConfigCmd shows or manages configuration
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" default:"withargs" help:"Show current configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Show configuration file path"`
	Generate ConfigGenerateCmd `cmd:"" help:"Generate sample configuration file"`
}

// ConfigShowCmd shows current configuration
type ConfigShowCmd struct{}

// configOutput is the NDJSON form of the effective configuration
type configOutput struct {
	Type          string            `json:"type"` // Always "config"
	SchemaVersion int               `json:"schemaVersion"`
	Settings      map[string]string `json:"settings"`
	File          string            `json:"file,omitempty"`
}

// Run executes the config show command
func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := globalConfig(globals)
	path := globals.ConfigFile
	if path == "" {
		path = config.ConfigFile()
	}

	if globals.Format == "ndjson" {
		settings := make(map[string]string)
		for _, row := range configRows(cfg) {
			settings[row[0]] = row[1]
		}
		enc := json.NewEncoder(globals.Stdout)
		enc.SetEscapeHTML(false)
		return enc.Encode(&configOutput{
			Type:          "config",
			SchemaVersion: output.SchemaVersion,
			Settings:      settings,
			File:          path,
		})
	}

	maybeNoStyle(globals)
	fmt.Fprintln(globals.Stdout, output.Styles.Header.Render("Current Configuration"))
	table := tablewriter.NewWriter(globals.Stdout)
	table.Header("Key", "Value")
	for _, row := range configRows(cfg) {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintf(globals.Stdout, "\nLoaded from: %s\n", path)
	}
	return nil
}

// configRows flattens cfg into key/value rows in file order
func configRows(cfg *config.Config) [][]string {
	rows := [][]string{
		{"format", cfg.Format},
		{"quiet", strconv.FormatBool(cfg.Quiet)},
		{"verbose", strconv.FormatBool(cfg.Verbose)},
		{"server.addr", cfg.Server.Addr},
		{"server.path", cfg.Server.Path},
		{"server.read_limit", strconv.FormatInt(cfg.Server.ReadLimit, 10)},
		{"server.ping_interval", cfg.Server.PingInterval.String()},
		{"server.write_timeout", cfg.Server.WriteTimeout.String()},
		{"server.control_rate", strconv.FormatFloat(cfg.Server.ControlRate, 'g', -1, 64)},
		{"server.control_burst", strconv.Itoa(cfg.Server.ControlBurst)},
		{"server.shutdown_timeout", cfg.Server.ShutdownTimeout.String()},
		{"roots.root", cfg.Roots.Root},
	}
	names := make([]string, 0, len(cfg.Roots.Dirs))
	for name := range cfg.Roots.Dirs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rows = append(rows, []string{"roots.dirs." + name, cfg.Roots.Dirs[name]})
	}
	rows = append(rows,
		[]string{"scan.buffer_size", strconv.Itoa(cfg.Scan.BufferSize)},
		[]string{"scan.prefetch_lines", strconv.Itoa(cfg.Scan.PrefetchLines)},
		[]string{"scan.batch_size", strconv.Itoa(cfg.Scan.BatchSize)},
		[]string{"scan.flush_interval", cfg.Scan.FlushInterval.String()},
		[]string{"scan.poll_interval", cfg.Scan.PollInterval.String()},
		[]string{"scan.group_idle", cfg.Scan.GroupIdle.String()},
		[]string{"scan.max_group_lines", strconv.Itoa(cfg.Scan.MaxGroupLines)},
		[]string{"scan.workers", strconv.FormatInt(cfg.Scan.Workers, 10)},
		[]string{"scan.fallback_charset", cfg.Scan.FallbackCharset},
		[]string{"log.level", cfg.Log.Level},
		[]string{"log.format", cfg.Log.Format},
		[]string{"log.file", cfg.Log.File},
		[]string{"log.max_size_mb", strconv.Itoa(cfg.Log.MaxSizeMB)},
		[]string{"log.max_backups", strconv.Itoa(cfg.Log.MaxBackups)},
		[]string{"log.max_age_days", strconv.Itoa(cfg.Log.MaxAgeDays)},
	)
	return rows
}

// ConfigPathCmd shows config file path
type ConfigPathCmd struct{}

// Run executes the config path command
func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := globals.ConfigFile
	if path == "" {
		path = config.ConfigFile()
	}

	if globals.Format == "ndjson" {
		output := map[string]interface{}{
			"type": "config_path",
			"path": path,
		}
		encoder := json.NewEncoder(globals.Stdout)
		return encoder.Encode(output)
	}

	if path == "" {
		fmt.Fprintln(globals.Stdout, "No configuration file found")
		fmt.Fprintln(globals.Stdout, "")
		fmt.Fprintln(globals.Stdout, "Create one at:")
		fmt.Fprintln(globals.Stdout, "  ./.logview.yaml")
		fmt.Fprintln(globals.Stdout, "  ~/.logview.yaml")
		fmt.Fprintln(globals.Stdout, "  ~/.config/logview/config.yaml")
		fmt.Fprintln(globals.Stdout, "  /etc/logview/config.yaml")
	} else {
		fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
	}

	return nil
}

// ConfigGenerateCmd generates a sample configuration file
type ConfigGenerateCmd struct{}

// Run executes the config generate command
func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	fmt.Fprint(globals.Stdout, sampleConfig)
	return nil
}

const sampleConfig = `# logview configuration file
# Place this file at ./.logview.yaml, ~/.logview.yaml,
# ~/.config/logview/config.yaml or /etc/logview/config.yaml.
# Every key can be overridden with LOGVIEW_<SECTION>_<KEY>, e.g. LOGVIEW_SCAN_WORKERS.

# Output format for CLI commands: "ndjson" (default) or "text"
format: ndjson

# Suppress non-line output (info messages, warnings, summaries)
quiet: false

# Enable verbose/debug output
verbose: false

server:
  # Listen address (LOGVIEW_ADDR also works)
  addr: 127.0.0.1:8080

  # Websocket endpoint path
  path: /ws

  # Largest accepted control frame in bytes
  read_limit: 65536

  # Keepalive ping period; a peer silent for twice this long is dropped
  ping_interval: 30s

  # Deadline for writing one frame
  write_timeout: 10s

  # Control frames per second per connection, and the burst allowed above it
  control_rate: 10
  control_burst: 20

  # Grace period for closing connections on shutdown
  shutdown_timeout: 10s

roots:
  # Each child directory of root is exposed as a mount (LOGVIEW_ROOT also works)
  root: /var/log

  # Explicit mounts; they take precedence over children of root
  # dirs:
  #   app: /srv/app/logs
  #   nginx: /var/log/nginx

scan:
  # Byte window read from disk at once
  buffer_size: 4096

  # Lines decoded per refill
  prefetch_lines: 100

  # Lines per outbound frame
  batch_size: 100

  # Search results older than this are flushed without waiting for a full frame
  flush_interval: 100ms

  # Follow mode sleep when no new data arrived
  poll_interval: 200ms

  # Follow mode age after which an open entry is evaluated
  group_idle: 600ms

  # Lines kept per entry for searchSmart
  max_group_lines: 10000

  # Maximum concurrently running scans
  workers: 64

  # Charset used when detection is not confident (WHATWG label)
  # fallback_charset: windows-1252

log:
  # debug, info, warn or error
  level: info

  # console or json
  format: console

  # Rotating log file; empty logs to stderr only
  # file: /var/log/logview/server.log
  max_size_mb: 100
  max_backups: 3
  max_age_days: 28
`
