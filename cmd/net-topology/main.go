package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ritzau/net-topology/pkg/analysis"
	"github.com/ritzau/net-topology/pkg/config"
	"github.com/ritzau/net-topology/pkg/lens"
	"github.com/ritzau/net-topology/pkg/logging"
	"github.com/ritzau/net-topology/pkg/output"
	"github.com/ritzau/net-topology/pkg/render"
	"github.com/ritzau/net-topology/pkg/watcher"
	"github.com/ritzau/net-topology/pkg/web"
	"github.com/spf13/pflag"
)

const (
	quietPeriod = 500 * time.Millisecond
	maxWait     = 5 * time.Second
)

func main() {
	f := pflag.NewFlagSet("net-topology", pflag.ExitOnError)
	f.StringP("input", "i", ".", "Snapshot file or directory of snapshot files")
	f.StringP("output", "o", "topology.html", "Output file (CLI mode)")
	f.StringP("format", "f", "", "Output format: html, json, dot or svg (default: from output extension)")
	f.String("ext", ".json", "Snapshot file extension searched for in input directories")
	f.BoolP("aggregate", "a", false, "Group VPCs into one node per account and region")
	f.IntP("min-component-size", "m", 6, "Hide connected components with fewer nodes (0 or 1 shows everything)")
	f.Bool("web", false, "Start web server instead of writing an output file")
	f.Int("port", 8080, "Port for web server (only used with --web)")
	f.BoolP("watch", "w", false, "Re-ingest when snapshot files change")
	f.Bool("open", true, "Open the browser when the web server starts")
	f.String("verbosity", "", "Log level: trace, debug, info, warn or error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.Bool("json-logs", false, "Log as JSON")
	_ = f.Parse(os.Args[1:])

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logging.Configure(os.Stderr, logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt), cfg.JSONLogs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	view := lens.ViewRaw
	if cfg.Aggregate {
		view = lens.ViewAggregated
	}
	lensCfg := lens.LensConfig{View: view, MinComponentSize: cfg.MinComponentSize}
	runner := analysis.NewRunner(cfg.Input, cfg.Ext)

	if cfg.WebMode {
		err = serve(ctx, cfg, runner, lensCfg)
	} else {
		err = generate(ctx, cfg, runner, lensCfg)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error("failed", "error", err)
		os.Exit(1)
	}
}

// generate runs once, writes the output file and prints the summary.
// With --watch it repeats on every snapshot change until interrupted.
func generate(ctx context.Context, cfg *config.Config, runner *analysis.Runner, lensCfg lens.LensConfig) error {
	format := render.FormatFromPath(cfg.Output, render.FormatHTML)
	if cfg.Format != "" {
		var err error
		if format, err = render.ParseFormat(cfg.Format); err != nil {
			return err
		}
	}
	opts := render.HTMLOptions{Title: "Network Topology"}

	once := func() error {
		result, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		view := result.View(lensCfg)
		if err := render.WriteFile(view, cfg.Output, format, opts); err != nil {
			return err
		}
		output.PrintSummary(os.Stdout, cfg.Input, result, view)
		return nil
	}

	if err := once(); err != nil {
		return err
	}
	if !cfg.Watch {
		return nil
	}

	return watch(ctx, cfg, func(reason string) {
		logging.Info("regenerating", "reason", reason)
		if err := once(); err != nil {
			logging.Error("regeneration failed", "error", err)
		}
	})
}

// serve starts the web server, runs the first ingestion in the background
// and, with --watch, re-runs on every snapshot change
func serve(ctx context.Context, cfg *config.Config, runner *analysis.Runner, lensCfg lens.LensConfig) error {
	server := web.NewServer(lensCfg, "Network Topology")
	runner.SetObserver(server)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx, cfg.Port)
	}()

	go func() {
		if _, err := runner.Run(ctx); err != nil {
			logging.Error("initial ingestion failed", "error", err)
		}
	}()

	if cfg.OpenBrowser {
		// Give the listener a moment before the browser connects
		time.Sleep(500 * time.Millisecond)
		openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))
	}

	if cfg.Watch {
		go func() {
			err := watch(ctx, cfg, func(reason string) {
				logging.Info("re-ingesting", "reason", reason)
				if _, err := runner.Run(ctx); err != nil {
					logging.Error("re-ingestion failed", "error", err)
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logging.Error("watcher stopped", "error", err)
			}
		}()
	}

	return <-errCh
}

// watch calls rerun for every debounced batch of snapshot changes until ctx ends
func watch(ctx context.Context, cfg *config.Config, rerun func(reason string)) error {
	fw, err := watcher.NewFileWatcher(cfg.Input, cfg.Ext)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)
	logging.Info("watching for snapshot changes", "input", cfg.Input, "ext", cfg.Ext)

	for event := range debouncer.Output() {
		var changes watcher.ChangeAnalysis
		changes.AnalyzeChanges(event)
		if !changes.NeedRerun {
			continue
		}
		rerun(changes.Reason())
	}
	return ctx.Err()
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser on platform", "os", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
