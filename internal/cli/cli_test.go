package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vburojevic/logview/internal/config"
	"github.com/vburojevic/logview/internal/domain"
	"github.com/vburojevic/logview/internal/logroot"
	"github.com/vburojevic/logview/internal/output"
	"github.com/vburojevic/logview/internal/server"
)

// testGlobals creates a Globals struct with captured stdout/stderr
func testGlobals(format string) (*Globals, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &Globals{
		Format:  format,
		Quiet:   false,
		Verbose: false,
		Stdout:  stdout,
		Stderr:  stderr,
		Config:  config.Default(),
	}, stdout, stderr
}

// records decodes every NDJSON record written to buf
func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), sc.Text())
		out = append(out, m)
	}
	return out
}

func ofType(recs []map[string]any, typ string) []map[string]any {
	var out []map[string]any
	for _, r := range recs {
		if r["type"] == typ {
			out = append(out, r)
		}
	}
	return out
}

func signalNames(recs []map[string]any) []string {
	var out []string
	for _, r := range ofType(recs, "signal") {
		out = append(out, r["signal"].(string))
	}
	return out
}

func digitLines(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(strings.Repeat(string(byte('0'+i%10)), 10))
		b.WriteByte('\n')
	}
	return b.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// --- Config Command Tests ---

func TestConfigShowCmd_Run(t *testing.T) {
	t.Run("outputs config in text format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("text")
		cmd := &ConfigShowCmd{}

		err := cmd.Run(globals)
		require.NoError(t, err)

		output := stdout.String()
		assert.Contains(t, output, "Current Configuration")
		assert.Contains(t, output, "server.addr")
		assert.Contains(t, output, "127.0.0.1:8080")
		assert.Contains(t, output, "scan.workers")
	})

	t.Run("outputs config in NDJSON format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		globals.Config.Roots.Dirs = map[string]string{"app": "/srv/app"}
		cmd := &ConfigShowCmd{}

		err := cmd.Run(globals)
		require.NoError(t, err)

		var result map[string]interface{}
		err = json.Unmarshal(stdout.Bytes(), &result)
		require.NoError(t, err)

		assert.Equal(t, "config", result["type"])
		settings, ok := result["settings"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "/ws", settings["server.path"])
		assert.Equal(t, "200ms", settings["scan.poll_interval"])
		assert.Equal(t, "/srv/app", settings["roots.dirs.app"])
	})
}

func TestConfigPathCmd_Run(t *testing.T) {
	t.Run("outputs path info in text format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("text")
		cmd := &ConfigPathCmd{}

		err := cmd.Run(globals)
		require.NoError(t, err)

		output := stdout.String()
		// Either shows the path or says no config found
		assert.True(t, strings.Contains(output, "Config file:") || strings.Contains(output, "No configuration file found"))
	})

	t.Run("explicit config file wins", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		globals.ConfigFile = "/tmp/custom.yaml"

		require.NoError(t, (&ConfigPathCmd{}).Run(globals))

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, "config_path", result["type"])
		assert.Equal(t, "/tmp/custom.yaml", result["path"])
	})
}

func TestConfigGenerateCmd_Run(t *testing.T) {
	globals, stdout, _ := testGlobals("text")
	require.NoError(t, (&ConfigGenerateCmd{}).Run(globals))
	assert.Contains(t, stdout.String(), "# logview configuration file")

	// the sample must load back to the defaults
	path := writeFile(t, t.TempDir(), "logview.yaml", stdout.String())
	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Server, cfg.Server)
	assert.Equal(t, config.Default().Scan, cfg.Scan)
	assert.Equal(t, config.Default().Log, cfg.Log)
}

func TestVersionCmd_Run(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		globals, stdout, _ := testGlobals("text")
		require.NoError(t, (&VersionCmd{}).Run(globals))
		assert.Contains(t, stdout.String(), "logview version")
	})

	t.Run("ndjson", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		require.NoError(t, (&VersionCmd{}).Run(globals))
		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, "version", result["type"])
		assert.Equal(t, Version, result["version"])
	})
}

func TestNewGlobalsWithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Format = "text"
	cfg.Quiet = true

	g := NewGlobalsWithConfig(&CLI{Format: "ndjson"}, cfg, nil)
	assert.Equal(t, "text", g.Format)
	assert.True(t, g.Quiet)

	g = NewGlobalsWithConfig(&CLI{Format: "ndjson"}, cfg, map[string]bool{"format": true})
	assert.Equal(t, "ndjson", g.Format)

	g = NewGlobals(&CLI{Format: "text"})
	assert.Equal(t, config.Default().Server.Addr, g.Config.Server.Addr)
}

// --- Error Output Tests ---

func TestOutputErrorCommon(t *testing.T) {
	t.Run("ndjson", func(t *testing.T) {
		globals, stdout, stderr := testGlobals("ndjson")
		err := outputErrorCommon(globals, "SOME_CODE", "went wrong", "try again")

		var ce *CLIError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "SOME_CODE", ce.Code)
		assert.Empty(t, stderr.String())

		recs := records(t, stdout)
		require.Len(t, recs, 1)
		assert.Equal(t, "error", recs[0]["type"])
		assert.Equal(t, "SOME_CODE", recs[0]["code"])
		assert.Equal(t, "try again", recs[0]["hint"])
	})

	t.Run("text", func(t *testing.T) {
		globals, stdout, stderr := testGlobals("text")
		err := outputCLIError(globals, &CLIError{Code: "X", Message: "boom", Hint: "h"}, "FALLBACK")
		require.Error(t, err)
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "Error [X]: boom")
		assert.Contains(t, stderr.String(), "Hint: h")
	})
}

// --- Flag Tests ---

func TestScanFlagsStartFrame(t *testing.T) {
	f := ScanFlags{
		Procedure: "searchSmart",
		Direction: "backward",
		Lines:     25,
		FromTail:  true,
		Offset:    10,
		Skip:      -2,
		Search:    []string{"timeout"},
	}
	sf := f.startFrame("/app/server.log")
	req, err := sf.Request(nil)
	require.NoError(t, err)

	assert.Equal(t, "/app/server.log", req.Path)
	assert.Equal(t, domain.ProcedureSearchSmart, req.Procedure)
	assert.Equal(t, domain.Backward, req.Direction)
	assert.Equal(t, domain.Tail, req.OffsetStart)
	assert.Equal(t, int64(10), req.OffsetBytes)
	assert.Equal(t, -2, req.SkipLines)
	n, ok := req.Lines.Value()
	assert.True(t, ok)
	assert.Equal(t, 25, n)

	unlimited := ScanFlags{Procedure: "read", Direction: "forward", Lines: -1}.startFrame("x")
	req, err = unlimited.Request(nil)
	require.NoError(t, err)
	assert.True(t, req.Lines.IsUnlimited())
	assert.Equal(t, domain.Head, req.OffsetStart)
}

func TestFilterFlags(t *testing.T) {
	f, err := FilterFlags{}.buildFilters()
	require.NoError(t, err)
	assert.Nil(t, f)

	f, err = FilterFlags{Pattern: []string{"ERR"}, Exclude: []string{"ignored"}}.buildFilters()
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.True(t, f.Match([]domain.Line{{Str: "ERR disk"}}))
	assert.False(t, f.Match([]domain.Line{{Str: "ERR ignored"}}))

	_, err = FilterFlags{Pattern: []string{"("}}.buildFilters()
	assert.Error(t, err)
	_, err = FilterFlags{Where: []string{"nope=1"}}.buildFilters()
	assert.Error(t, err)
}

func TestScanOptionsFallbackCharset(t *testing.T) {
	cfg := config.Default().Scan
	opts, err := scanOptions(cfg)
	require.NoError(t, err)
	assert.Nil(t, opts.Reader.Detect.Fallback)
	assert.Equal(t, cfg.BatchSize, opts.BatchSize)

	cfg.FallbackCharset = "shift_jis"
	opts, err = scanOptions(cfg)
	require.NoError(t, err)
	require.NotNil(t, opts.Reader.Detect.Fallback)
	assert.Equal(t, "shift_jis", opts.Reader.Detect.Fallback.Name())

	cfg.FallbackCharset = "klingon"
	_, err = scanOptions(cfg)
	var ce *CLIError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "INVALID_CONFIG", ce.Code)
}

func TestServeEffectiveConfig(t *testing.T) {
	globals, _, _ := testGlobals("ndjson")
	globals.Config.Roots.Dirs = map[string]string{"a": "/srv/a"}

	cmd := &ServeCmd{Addr: ":9999", Dir: map[string]string{"b": "/srv/b"}, Workers: 3}
	cfg := cmd.effectiveConfig(globals)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, map[string]string{"a": "/srv/a", "b": "/srv/b"}, cfg.Roots.Dirs)
	assert.Equal(t, int64(3), cfg.Scan.Workers)
	// the loaded config is not modified
	assert.Equal(t, "127.0.0.1:8080", globals.Config.Server.Addr)
	assert.Len(t, globals.Config.Roots.Dirs, 1)

	globals.Verbose = true
	assert.Equal(t, "debug", (&ServeCmd{}).effectiveConfig(globals).Log.Level)
}

// --- Scan Command Tests ---

func TestScanCmd_Run(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads forward with a limit", func(t *testing.T) {
		path := writeFile(t, dir, "digits.log", digitLines(20))
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &ScanCmd{
			ScanFlags: ScanFlags{Procedure: "read", Direction: "forward", Lines: 5},
			Path:      path,
			Summary:   true,
		}

		require.NoError(t, cmd.Run(globals))
		recs := records(t, stdout)
		lines := ofType(recs, "line")
		require.Len(t, lines, 5)
		assert.Equal(t, float64(0), lines[0]["pos"])
		assert.Equal(t, "0000000000", lines[0]["str"])
		assert.Equal(t, float64(44), lines[4]["pos"])
		assert.Equal(t, []string{"file_length", "bof", "eor"}, signalNames(recs))

		summaries := ofType(recs, "summary")
		require.Len(t, summaries, 1)
		assert.Equal(t, float64(5), summaries[0]["lines"])
	})

	t.Run("last lines backward", func(t *testing.T) {
		path := writeFile(t, dir, "tail.log", digitLines(20))
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &ScanCmd{
			ScanFlags: ScanFlags{Procedure: "read", Direction: "backward", Lines: 3, FromTail: true},
			Path:      path,
		}

		require.NoError(t, cmd.Run(globals))
		lines := ofType(records(t, stdout), "line")
		require.Len(t, lines, 3)
		assert.Equal(t, float64(19*11), lines[0]["pos"])
		assert.Equal(t, float64(17*11), lines[2]["pos"])
	})

	t.Run("read applies pattern filter", func(t *testing.T) {
		path := writeFile(t, dir, "mixed.log", "ERR one\nok two\nERR three\n")
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &ScanCmd{
			ScanFlags:   ScanFlags{Procedure: "read", Direction: "forward", Lines: -1},
			FilterFlags: FilterFlags{Pattern: []string{"^ERR"}},
			Path:        path,
		}

		require.NoError(t, cmd.Run(globals))
		lines := ofType(records(t, stdout), "line")
		require.Len(t, lines, 2)
		assert.Equal(t, "ERR one", lines[0]["str"])
		assert.Equal(t, "ERR three", lines[1]["str"])
	})

	t.Run("search with exclude filter", func(t *testing.T) {
		path := writeFile(t, dir, "app.log", "ERROR disk full\nINFO ok\nERROR retry later\nERROR disk slow\n")
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &ScanCmd{
			ScanFlags:   ScanFlags{Procedure: "search", Direction: "forward", Lines: -1, Search: []string{"ERROR"}},
			FilterFlags: FilterFlags{Exclude: []string{"retry"}},
			Path:        path,
		}

		require.NoError(t, cmd.Run(globals))
		recs := records(t, stdout)
		var strs []string
		for _, l := range ofType(recs, "line") {
			strs = append(strs, l["str"].(string))
		}
		assert.Equal(t, []string{"ERROR disk full", "ERROR disk slow"}, strs)
		assert.Contains(t, signalNames(recs), "eor")
	})

	t.Run("text output with positions", func(t *testing.T) {
		path := writeFile(t, dir, "text.log", "alpha\nbeta\n")
		globals, stdout, _ := testGlobals("text")
		cmd := &ScanCmd{
			ScanFlags: ScanFlags{Procedure: "read", Direction: "forward", Lines: -1},
			Path:      path,
			Positions: true,
		}

		require.NoError(t, cmd.Run(globals))
		out := stdout.String()
		assert.Contains(t, out, "alpha")
		assert.Contains(t, out, "6 beta")
		assert.NotContains(t, out, "\x1b[")
	})

	t.Run("invalid filter", func(t *testing.T) {
		path := writeFile(t, dir, "f.log", "x\n")
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &ScanCmd{
			ScanFlags:   ScanFlags{Procedure: "search", Direction: "forward", Lines: -1},
			FilterFlags: FilterFlags{Where: []string{"lines>=many"}},
			Path:        path,
		}

		err := cmd.Run(globals)
		var ce *CLIError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "INVALID_FILTER", ce.Code)
		assert.Equal(t, "error", records(t, stdout)[0]["type"])
	})

	t.Run("missing file", func(t *testing.T) {
		globals, _, _ := testGlobals("ndjson")
		cmd := &ScanCmd{
			ScanFlags: ScanFlags{Procedure: "read", Direction: "forward", Lines: -1},
			Path:      filepath.Join(dir, "absent.log"),
		}

		err := cmd.Run(globals)
		var ce *CLIError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "READ_FAILED", ce.Code)
	})
}

// --- Tail Command Tests ---

type tailFixture struct {
	url string
	dir string
}

func newTailFixture(t *testing.T) *tailFixture {
	t.Helper()
	dir := t.TempDir()
	srv := server.New(zap.NewNop(), &logroot.Resolver{Dirs: map[string]string{"logs": dir}}, server.Options{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, srv.Shutdown(ctx))
		ts.Close()
	})
	return &tailFixture{url: "ws" + strings.TrimPrefix(ts.URL, "http") + server.DefaultPath, dir: dir}
}

func TestTailCmd_Run(t *testing.T) {
	f := newTailFixture(t)
	writeFile(t, f.dir, "app.log", digitLines(250))

	t.Run("streams the whole file and stops after eor", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &TailCmd{
			ScanFlags:   ScanFlags{Procedure: "read", Direction: "forward", Lines: -1},
			Path:        "/logs/app.log",
			Server:      f.url,
			Summary:     true,
			StopTimeout: 2 * time.Second,
		}

		require.NoError(t, cmd.Run(globals))
		recs := records(t, stdout)
		lines := ofType(recs, "line")
		require.Len(t, lines, 250)
		assert.Equal(t, float64(249*11), lines[249]["pos"])

		signals := signalNames(recs)
		assert.Equal(t, []string{"file_length", "bof"}, signals[:2])
		assert.Contains(t, signals, "eor")
		assert.NotContains(t, signals, "stopped")

		summaries := ofType(recs, "summary")
		require.Len(t, summaries, 1)
		assert.Equal(t, true, summaries[0]["eor"])
	})

	t.Run("http url is accepted", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &TailCmd{
			ScanFlags:   ScanFlags{Procedure: "read", Direction: "backward", Lines: 2, FromTail: true},
			Path:        "/logs/app.log",
			Server:      "http" + strings.TrimPrefix(f.url, "ws"),
			StopTimeout: 2 * time.Second,
		}

		require.NoError(t, cmd.Run(globals))
		lines := ofType(records(t, stdout), "line")
		require.Len(t, lines, 2)
		assert.Equal(t, float64(249*11), lines[0]["pos"])
	})

	t.Run("unknown path is rejected without retrying", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &TailCmd{
			ScanFlags:   ScanFlags{Procedure: "read", Direction: "forward", Lines: -1},
			Path:        "/logs/missing.log",
			Server:      f.url,
			MaxRetries:  5,
			StopTimeout: time.Second,
		}

		err := cmd.Run(globals)
		var ce *CLIError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "STREAM_REJECTED", ce.Code)
		assert.ErrorIs(t, err, &CLIError{Code: "STREAM_REJECTED"})
		assert.NotErrorIs(t, err, &CLIError{Code: "STREAM_FAILED"})
		recs := records(t, stdout)
		assert.Empty(t, ofType(recs, "reconnect_notice"))
		assert.Len(t, ofType(recs, "error"), 1)
	})

	t.Run("tmux falls back to stdout when tmux is missing", func(t *testing.T) {
		t.Setenv("PATH", t.TempDir())
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &TailCmd{
			ScanFlags:   ScanFlags{Procedure: "read", Direction: "forward", Lines: 3},
			Path:        "/logs/app.log",
			Server:      f.url,
			StopTimeout: 2 * time.Second,
			Tmux:        true,
		}

		require.NoError(t, cmd.Run(globals))
		recs := records(t, stdout)
		assert.Len(t, ofType(recs, "line"), 3)
		warnings := ofType(recs, "warning")
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0]["message"], "tmux is not installed")
		assert.Empty(t, ofType(recs, "tmux"))
	})

	t.Run("invalid request is caught locally", func(t *testing.T) {
		globals, _, _ := testGlobals("ndjson")
		cmd := &TailCmd{
			ScanFlags: ScanFlags{Procedure: "grep", Direction: "forward", Lines: -1},
			Path:      "/logs/app.log",
			Server:    f.url,
		}
		err := cmd.Run(globals)
		var ce *CLIError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "INVALID_REQUEST", ce.Code)
	})
}

func TestTailCmd_UnreachableServer(t *testing.T) {
	globals, stdout, _ := testGlobals("ndjson")
	cmd := &TailCmd{
		ScanFlags:  ScanFlags{Procedure: "read", Direction: "forward", Lines: -1},
		Path:       "/logs/app.log",
		Server:     "ws://127.0.0.1:1/ws",
		MaxRetries: 1,
	}

	err := cmd.Run(globals)
	var ce *CLIError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "STREAM_FAILED", ce.Code)
	recs := records(t, stdout)
	assert.Len(t, ofType(recs, "reconnect_notice"), 1)
}

func TestTailEndpoint(t *testing.T) {
	globals, _, _ := testGlobals("ndjson")

	url, err := (&TailCmd{}).endpoint(globals)
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:8080/ws", url)

	url, err = (&TailCmd{Server: "https://logs.example.com/stream"}).endpoint(globals)
	require.NoError(t, err)
	assert.Equal(t, "wss://logs.example.com/stream", url)

	_, err = (&TailCmd{Server: "ftp://host/ws"}).endpoint(globals)
	assert.Error(t, err)
}

func TestTailStreamResume(t *testing.T) {
	limit := 10
	ts := &tailStream{
		frame: output.StartFrame{
			Status:      output.StatusStart,
			Path:        "/logs/app.log",
			Procedure:   "read",
			Direction:   "forward",
			Lines:       &limit,
			OffsetStart: "tail",
			SkipLines:   -10,
		},
		forward: true,
		limit:   domain.LimitOf(limit),
	}

	// nothing received yet: the first request is sent again
	assert.False(t, ts.resume())
	assert.Equal(t, "tail", ts.frame.OffsetStart)

	stopped := ts.track([]domain.Message{
		domain.FileLength(110),
		domain.Line{Pos: 0, Len: 11, Str: "a"},
		domain.Line{Pos: 11, Len: 11, Str: "b"},
		domain.Line{Pos: 22, Len: 11, Str: "c"},
	})
	assert.False(t, stopped)
	assert.Equal(t, 3, ts.received)
	assert.Equal(t, int64(33), ts.lastEnd)
	assert.False(t, ts.done)

	assert.True(t, ts.resume())
	assert.Equal(t, "", ts.frame.OffsetStart)
	assert.Equal(t, int64(33), ts.frame.OffsetBytes)
	assert.Equal(t, 0, ts.frame.SkipLines)
	require.NotNil(t, ts.frame.Lines)
	assert.Equal(t, 7, *ts.frame.Lines)

	assert.False(t, ts.track([]domain.Message{domain.EOR}))
	assert.True(t, ts.done)
	assert.True(t, ts.track([]domain.Message{domain.Stopped}))
}

func TestTailStreamResumable(t *testing.T) {
	assert.True(t, (&tailStream{forward: true, received: 5}).resumable())
	assert.True(t, (&tailStream{forward: false}).resumable())
	assert.False(t, (&tailStream{forward: false, received: 1}).resumable())

	following := &tailStream{follow: true, forward: true}
	following.track([]domain.Message{domain.EOR})
	assert.False(t, following.done)
}

func TestWithoutStopped(t *testing.T) {
	msgs := []domain.Message{domain.EOF, domain.Stopped}
	assert.Equal(t, []domain.Message{domain.EOF}, withoutStopped(msgs))
	assert.Empty(t, withoutStopped([]domain.Message{domain.Stopped}))
	assert.Len(t, msgs, 2)
}

// --- Schema / Completion / Hint Tests ---

func TestSchemaCmd_Run(t *testing.T) {
	t.Run("all types", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		require.NoError(t, (&SchemaCmd{}).Run(globals))

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		defs := result["definitions"].(map[string]interface{})
		for _, typ := range schemaTypes {
			assert.Contains(t, defs, typ)
		}
	})

	t.Run("selected types", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		require.NoError(t, (&SchemaCmd{Type: []string{"Signal", " start "}}).Run(globals))

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		defs := result["definitions"].(map[string]interface{})
		assert.Len(t, defs, 2)

		signal := defs["signal"].(map[string]interface{})
		kind := signal["properties"].(map[string]interface{})["signal"].(map[string]interface{})
		assert.Contains(t, kind["enum"], "eor")
	})
}

func TestCompletionCmd_Run(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish"} {
		t.Run(shell, func(t *testing.T) {
			globals, stdout, _ := testGlobals("text")
			require.NoError(t, (&CompletionCmd{Shell: shell}).Run(globals))
			out := stdout.String()
			assert.Contains(t, out, "logview")
			assert.Contains(t, out, "serve")
			assert.NotContains(t, out, "xcrun")
		})
	}
}

func TestErrorHints(t *testing.T) {
	assert.Empty(t, hintForDial(nil))
	assert.Contains(t, hintForDial(&net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}), "logview serve")
	assert.Contains(t, hintForDial(websocket.ErrBadHandshake), "server.path")

	assert.Contains(t, hintForRejected(errors.New(`server closed the stream (1003): the specified resource does not exist: "/x"`)), "/mount/relative/file.log")
	assert.Contains(t, hintForRejected(errors.New("server closed the stream (1003): forbidden")), "inside a mount")
	assert.Contains(t, hintForRejected(errors.New("server closed the stream (1008): too many control frames")), "control frames")

	assert.Contains(t, hintForListen(&net.OpError{Op: "listen", Err: os.NewSyscallError("bind", syscall.EADDRINUSE)}), "--addr")
	assert.Contains(t, hintForRead(&os.PathError{Op: "open", Path: "x", Err: os.ErrNotExist}), "path")
	assert.Empty(t, hintForRead(errors.New("other")))
}

// --- Doctor Tests ---

func doctorReportFor(t *testing.T, globals *Globals, stdout *bytes.Buffer) doctorReport {
	t.Helper()
	require.NoError(t, (&DoctorCmd{Timeout: time.Second}).Run(globals))
	var report doctorReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	return report
}

func checkNamed(report doctorReport, name string) checkResult {
	for _, c := range report.Checks {
		if c.Name == name {
			return c
		}
	}
	return checkResult{}
}

func TestDoctorCmd_Run(t *testing.T) {
	t.Run("healthy setup without a server", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, "app"), 0755))
		globals, stdout, _ := testGlobals("ndjson")
		globals.ConfigFile = "/nonexistent/explicit.yaml"
		globals.Config.Roots.Root = root
		globals.Config.Server.Addr = "127.0.0.1:0"

		report := doctorReportFor(t, globals, stdout)
		assert.Equal(t, "doctor", report.Type)
		assert.Len(t, report.Checks, 5)
		assert.True(t, report.AllPassed)

		mounts := checkNamed(report, "Mounts")
		assert.Equal(t, "ok", mounts.Status)
		assert.Equal(t, "app", mounts.Details)
		assert.Contains(t, checkNamed(report, "Server").Message, "Not running")
	})

	t.Run("problems are reported", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		globals.ConfigFile = "/nonexistent/explicit.yaml"
		globals.Config.Roots.Root = filepath.Join(t.TempDir(), "missing")
		globals.Config.Scan.FallbackCharset = "klingon"
		globals.Config.Server.Addr = "127.0.0.1:0"

		report := doctorReportFor(t, globals, stdout)
		assert.False(t, report.AllPassed)
		assert.Equal(t, "error", checkNamed(report, "Charset").Status)
		assert.NotEqual(t, "ok", checkNamed(report, "Mounts").Status)
	})

	t.Run("running server", func(t *testing.T) {
		f := newTailFixture(t)
		globals, stdout, _ := testGlobals("ndjson")
		globals.ConfigFile = "/nonexistent/explicit.yaml"
		globals.Config.Roots.Dirs = map[string]string{"logs": f.dir}
		globals.Config.Server.Addr = strings.TrimSuffix(strings.TrimPrefix(f.url, "ws://"), server.DefaultPath)

		report := doctorReportFor(t, globals, stdout)
		srv := checkNamed(report, "Server")
		assert.Equal(t, "ok", srv.Status)
		assert.Contains(t, srv.Message, "Running at")
	})

	t.Run("text output", func(t *testing.T) {
		globals, stdout, _ := testGlobals("text")
		globals.ConfigFile = "/nonexistent/explicit.yaml"
		globals.Config.Roots.Root = t.TempDir()
		globals.Config.Server.Addr = "127.0.0.1:0"

		require.NoError(t, (&DoctorCmd{Timeout: time.Second}).Run(globals))
		out := stdout.String()
		assert.Contains(t, out, "logview Doctor")
		assert.Contains(t, out, "Mounts")
		assert.Contains(t, out, "Warnings: 1")
	})
}
