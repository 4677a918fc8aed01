// grup serves a styled preview of a single local markdown file over a
// loopback HTTP endpoint and re-renders it when the file changes on disk.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/grup/internal/config"
	"git.home.luguber.info/inful/grup/internal/document"
	gruperrors "git.home.luguber.info/inful/grup/internal/errors"
	"git.home.luguber.info/inful/grup/internal/logfields"
	"git.home.luguber.info/inful/grup/internal/metrics"
	"git.home.luguber.info/inful/grup/internal/render"
	"git.home.luguber.info/inful/grup/internal/server/httpserver"
	"git.home.luguber.info/inful/grup/internal/watcher"
)

var CLI struct {
	File string `arg:"" type:"existingfile" help:"The markdown file to be served"`

	Host      string `help:"The IP to use for the server (overrides config file)"`
	Port      int    `help:"The port to use for the server (overrides config file)"`
	Config    string `short:"c" help:"Optional configuration file path"`
	ForcePoll bool   `help:"Disable fsnotify and poll the file's mtime instead"`
	Metrics   bool   `help:"Expose Prometheus metrics at /metrics"`
	Verbose   bool   `short:"v" help:"Enable verbose logging"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("grup"),
		kong.Description("An offline github markdown previewer."))

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("grup failed", logfields.Error(err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recorder, registry := buildRecorder()

	state := document.NewState(CLI.File, render.New(pageTitle(cfg)))
	w := watcher.New(CLI.File, state, cfg.Watch, recorder)

	// Populate the document before accepting traffic; the watcher's Run
	// re-commits on every observed change from here on.
	w.CommitOnce()

	srv := httpserver.New(cfg, state, recorder, registry)
	if err := srv.Start(ctx); err != nil {
		if gruperrors.IsCategory(err, gruperrors.CategoryBind) {
			return fmt.Errorf("cannot bind %s, is another grup running? %w", cfg.ListenAddr(), err)
		}
		return err
	}

	fmt.Printf("Server running at http://%s\n", srv.Addr())
	fmt.Println("Press Ctrl-C to exit")

	watcherDone := make(chan error, 1)
	go func() { watcherDone <- w.Run(ctx) }()

	select {
	case <-ctx.Done():
	case err := <-watcherDone:
		if err != nil {
			slog.Error("watcher stopped", logfields.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownGraceSeconds)*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if CLI.Config != "" {
		loaded, err := config.Load(CLI.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}

	// CLI flags win over the config file.
	if CLI.Host != "" {
		cfg.Server.Host = CLI.Host
	}
	if CLI.Port != 0 {
		cfg.Server.Port = CLI.Port
	}
	if CLI.ForcePoll {
		cfg.Watch.ForcePoll = true
	}
	return cfg, cfg.Validate()
}

func buildRecorder() (metrics.Recorder, *prom.Registry) {
	if !CLI.Metrics {
		return metrics.NoopRecorder{}, nil
	}
	registry := prom.NewRegistry()
	return metrics.NewPrometheusRecorder(registry), registry
}

func pageTitle(cfg *config.Config) string {
	if cfg.Page.Title != "" {
		return cfg.Page.Title
	}
	return CLI.File
}
