package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vburojevic/logview/internal/config"
	"github.com/vburojevic/logview/internal/output"
)

// DoctorCmd checks configuration, mounts and the server
type DoctorCmd struct {
	Timeout time.Duration `default:"2s" help:"Timeout for network checks"`
}

// checkResult represents a single diagnostic check
type checkResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// doctorReport is the complete diagnostic report
type doctorReport struct {
	Type          string        `json:"type"`
	SchemaVersion int           `json:"schemaVersion"`
	Timestamp     string        `json:"timestamp"`
	Checks        []checkResult `json:"checks"`
	AllPassed     bool          `json:"all_passed"`
	ErrorCount    int           `json:"error_count"`
	WarnCount     int           `json:"warn_count"`
}

// Run executes the doctor command
func (c *DoctorCmd) Run(globals *Globals) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*timeout)
	defer cancel()

	cfg := globalConfig(globals)
	checks := []checkResult{
		c.checkConfig(globals, cfg),
		c.checkMounts(cfg),
		c.checkCharset(cfg),
		c.checkLogFile(cfg),
		c.checkServer(ctx, cfg, timeout),
	}

	errorCount := 0
	warnCount := 0
	for _, check := range checks {
		if check.Status == "error" {
			errorCount++
		} else if check.Status == "warning" {
			warnCount++
		}
	}

	report := doctorReport{
		Type:          "doctor",
		SchemaVersion: output.SchemaVersion,
		Timestamp:     time.Now().Format(time.RFC3339),
		Checks:        checks,
		AllPassed:     errorCount == 0,
		ErrorCount:    errorCount,
		WarnCount:     warnCount,
	}

	if globals.Format == "ndjson" {
		encoder := json.NewEncoder(globals.Stdout)
		return encoder.Encode(report)
	}

	maybeNoStyle(globals)
	fmt.Fprintln(globals.Stdout, output.Styles.Header.Render("logview Doctor"))
	fmt.Fprintln(globals.Stdout)

	for _, check := range checks {
		var icon string
		switch check.Status {
		case "ok":
			icon = output.Styles.Success.Render("✓")
		case "warning":
			icon = output.Styles.Warning.Render("⚠")
		case "error":
			icon = output.Styles.Danger.Render("✗")
		}

		fmt.Fprintf(globals.Stdout, "%s %s\n", icon, check.Name)
		if check.Message != "" {
			fmt.Fprintf(globals.Stdout, "  %s\n", check.Message)
		}
		if check.Details != "" {
			fmt.Fprintf(globals.Stdout, "  %s\n", check.Details)
		}
	}

	fmt.Fprintln(globals.Stdout)
	if errorCount == 0 && warnCount == 0 {
		fmt.Fprintln(globals.Stdout, "All checks passed!")
	} else {
		fmt.Fprintf(globals.Stdout, "Errors: %d, Warnings: %d\n", errorCount, warnCount)
	}

	return nil
}

func (c *DoctorCmd) checkConfig(globals *Globals, cfg *config.Config) checkResult {
	configPath := globals.ConfigFile
	if configPath == "" {
		configPath = config.ConfigFile()
	}
	if err := cfg.Validate(); err != nil {
		return checkResult{
			Name:    "Config",
			Status:  "error",
			Message: "Config has errors",
			Details: err.Error(),
		}
	}
	if configPath == "" {
		return checkResult{
			Name:    "Config",
			Status:  "ok",
			Message: "Using defaults (no config file)",
			Details: "Create with: logview config generate > ~/.logview.yaml",
		}
	}

	absPath, _ := filepath.Abs(configPath)
	return checkResult{
		Name:    "Config",
		Status:  "ok",
		Message: fmt.Sprintf("Loaded from: %s", absPath),
		Details: fmt.Sprintf("Format: %s, Addr: %s", cfg.Format, cfg.Server.Addr),
	}
}

func (c *DoctorCmd) checkMounts(cfg *config.Config) checkResult {
	mounts, err := newResolver(cfg.Roots).Mounts()
	if err != nil {
		return checkResult{
			Name:    "Mounts",
			Status:  "error",
			Message: "Cannot list mounts",
			Details: err.Error(),
		}
	}
	if len(mounts) == 0 {
		return checkResult{
			Name:    "Mounts",
			Status:  "warning",
			Message: "No mounts; clients cannot open any file",
			Details: "Set roots.root to a directory with subdirectories, or add roots.dirs entries",
		}
	}

	names := make([]string, 0, len(mounts))
	var unreadable []string
	for name, dir := range mounts {
		names = append(names, name)
		if f, err := os.Open(dir); err != nil {
			unreadable = append(unreadable, name)
		} else {
			f.Close()
		}
	}
	sort.Strings(names)
	sort.Strings(unreadable)

	if len(unreadable) > 0 {
		return checkResult{
			Name:    "Mounts",
			Status:  "warning",
			Message: fmt.Sprintf("%d of %d mounts are not readable", len(unreadable), len(names)),
			Details: strings.Join(unreadable, ", "),
		}
	}
	return checkResult{
		Name:    "Mounts",
		Status:  "ok",
		Message: fmt.Sprintf("%d mount(s)", len(names)),
		Details: strings.Join(names, ", "),
	}
}

func (c *DoctorCmd) checkCharset(cfg *config.Config) checkResult {
	if cfg.Scan.FallbackCharset == "" {
		return checkResult{Name: "Charset", Status: "ok", Message: "Detection only (no fallback)"}
	}
	if _, err := scanOptions(cfg.Scan); err != nil {
		return checkResult{
			Name:    "Charset",
			Status:  "error",
			Message: "Unknown fallback charset",
			Details: cfg.Scan.FallbackCharset,
		}
	}
	return checkResult{Name: "Charset", Status: "ok", Message: "Fallback: " + cfg.Scan.FallbackCharset}
}

func (c *DoctorCmd) checkLogFile(cfg *config.Config) checkResult {
	if cfg.Log.File == "" {
		return checkResult{Name: "Server log", Status: "ok", Message: "Logging to stderr"}
	}
	dir := filepath.Dir(cfg.Log.File)
	if !c.checkWritePermission(dir) {
		return checkResult{
			Name:    "Server log",
			Status:  "error",
			Message: "Log directory is not writable",
			Details: dir,
		}
	}
	return checkResult{Name: "Server log", Status: "ok", Message: "Rotating file: " + cfg.Log.File}
}

// checkServer reports whether a server answers on the configured address,
// or whether the address is free for one.
func (c *DoctorCmd) checkServer(ctx context.Context, cfg *config.Config, timeout time.Duration) checkResult {
	addr := cfg.Server.Addr
	client := &http.Client{Timeout: timeout}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/healthz", nil)
	if err == nil {
		if resp, err := client.Do(req); err == nil {
			defer resp.Body.Close()
			var health struct {
				Connections int `json:"connections"`
				Running     int `json:"running"`
			}
			if resp.StatusCode == http.StatusOK && json.NewDecoder(resp.Body).Decode(&health) == nil {
				return checkResult{
					Name:    "Server",
					Status:  "ok",
					Message: "Running at " + addr,
					Details: fmt.Sprintf("Connections: %d, Running scans: %d", health.Connections, health.Running),
				}
			}
			return checkResult{
				Name:    "Server",
				Status:  "warning",
				Message: fmt.Sprintf("%s answers but is not a logview server (HTTP %d)", addr, resp.StatusCode),
			}
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return checkResult{
			Name:    "Server",
			Status:  "error",
			Message: "Cannot listen on " + addr,
			Details: hintForListen(err),
		}
	}
	ln.Close()
	return checkResult{
		Name:    "Server",
		Status:  "ok",
		Message: "Not running; " + addr + " is free",
		Details: "Start with: logview serve",
	}
}

// checkWritePermission checks if we can write to a directory
func (c *DoctorCmd) checkWritePermission(path string) bool {
	testFile := filepath.Join(path, ".logview_test_"+fmt.Sprint(os.Getpid()))
	f, err := os.Create(testFile)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(testFile)
	return true
}
