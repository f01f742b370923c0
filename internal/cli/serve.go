package cli

import (
	"context"
	"os/signal"
	"sort"
	"syscall"

	"go.uber.org/zap"

	"github.com/vburojevic/logview/internal/config"
	"github.com/vburojevic/logview/internal/logging"
	"github.com/vburojevic/logview/internal/server"
)

// ServeCmd runs the websocket log server
type ServeCmd struct {
	Addr     string            `short:"l" help:"Listen address (default from config: 127.0.0.1:8080)"`
	Root     string            `help:"Directory whose children are exposed as mounts"`
	Dir      map[string]string `short:"D" help:"Explicit mount (name=directory, can be repeated)"`
	Workers  int64             `help:"Maximum concurrently running scan tasks"`
	LogLevel string            `help:"Server log level (debug, info, warn, error)"`
	LogFile  string            `type:"path" help:"Write the server log to a rotating file"`
}

// Run executes the serve command
func (c *ServeCmd) Run(globals *Globals) error {
	cfg := c.effectiveConfig(globals)
	if err := cfg.Validate(); err != nil {
		return outputErrorCommon(globals, "INVALID_CONFIG", err.Error())
	}

	log, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_CONFIG", err.Error(), "log.level takes debug, info, warn or error")
	}
	defer closeLog()

	opts, err := serverOptions(cfg)
	if err != nil {
		return outputCLIError(globals, err, "INVALID_CONFIG")
	}

	resolver := newResolver(cfg.Roots)
	if mounts, err := resolver.Mounts(); err != nil {
		log.Warn("cannot list mounts", zap.Error(err))
	} else {
		names := make([]string, 0, len(mounts))
		for name := range mounts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			log.Info("mount", zap.String("name", name), zap.String("dir", mounts[name]))
		}
		if len(names) == 0 {
			log.Warn("no mounts configured", zap.String("root", cfg.Roots.Root))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(log.Named("server"), resolver, opts)
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		log.Error("server failed", zap.Error(err))
		return outputErrorCommon(globals, "SERVE_FAILED", err.Error(), hintForListen(err))
	}
	return nil
}

// effectiveConfig layers the command flags over the loaded config
func (c *ServeCmd) effectiveConfig(globals *Globals) *config.Config {
	copied := *globalConfig(globals)
	cfg := &copied
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}
	if c.Root != "" {
		cfg.Roots.Root = c.Root
	}
	if len(c.Dir) > 0 {
		dirs := make(map[string]string, len(cfg.Roots.Dirs)+len(c.Dir))
		for k, v := range cfg.Roots.Dirs {
			dirs[k] = v
		}
		for k, v := range c.Dir {
			dirs[k] = v
		}
		cfg.Roots.Dirs = dirs
	}
	if c.Workers > 0 {
		cfg.Scan.Workers = c.Workers
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFile != "" {
		cfg.Log.File = c.LogFile
	}
	if globals.Verbose && !globals.FlagProvided("log-level") {
		cfg.Log.Level = "debug"
	}
	return cfg
}
