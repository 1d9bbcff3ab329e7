package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ritzau/fm-ecosystem/pkg/config"
	"github.com/ritzau/fm-ecosystem/pkg/elements"
	"github.com/ritzau/fm-ecosystem/pkg/graph"
	"github.com/ritzau/fm-ecosystem/pkg/logging"
	"github.com/ritzau/fm-ecosystem/pkg/output"
	"github.com/ritzau/fm-ecosystem/pkg/pubsub"
	"github.com/ritzau/fm-ecosystem/pkg/query"
	"github.com/ritzau/fm-ecosystem/pkg/tables"
	"github.com/ritzau/fm-ecosystem/pkg/watcher"
	"github.com/ritzau/fm-ecosystem/pkg/web"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("fm-ecosystem", pflag.ExitOnError)
	config.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	logging.Setup(os.Stderr, level, cfg.JSONLogs)

	g, err := loadGraph(cfg.Nodes, cfg.Edges)
	if err != nil {
		var loadErr *tables.LoadError
		if errors.As(err, &loadErr) {
			logging.Fatal("input table is missing a required column", "table", loadErr.Table, "column", loadErr.Column, "error", err)
		}
		logging.Fatal("failed to load graph", "error", err)
	}

	if !cfg.WebMode {
		if err := runCLI(cfg, g); err != nil {
			logging.Fatal("failed to write output", "error", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runWeb(ctx, cfg, g)
}

// loadGraph reads both tables and builds a snapshot
func loadGraph(nodesPath, edgesPath string) (*graph.Graph, error) {
	start := time.Now()

	ds, err := tables.Load(nodesPath, edgesPath)
	if err != nil {
		return nil, err
	}
	g := graph.Build(ds.Edges, ds.Nodes)

	logging.Info("graph loaded",
		"nodes", g.Len(),
		"edges", g.EdgeCount(),
		"pruned", g.Stats().Pruned,
		"durationMs", time.Since(start).Milliseconds(),
	)
	return g, nil
}

// runCLI prints the summary and, when a selection is given, its element list as JSON
func runCLI(cfg *config.Config, g *graph.Graph) error {
	sel := query.Selection{Names: cfg.Names, Organizations: cfg.Organizations}
	if sel.Empty() {
		output.PrintGraphSummary(os.Stdout, cfg.Nodes, cfg.Edges, g)
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(elements.Encode(query.Expand(g, sel)))
}

func runWeb(ctx context.Context, cfg *config.Config, g *graph.Graph) {
	store := graph.NewStore(g)
	server := web.NewServer(store)
	if err := server.PublishGraphStatus(pubsub.EventLoaded, ""); err != nil {
		logging.Warn("failed to publish graph status", "error", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Port)
	}()

	if cfg.Watch {
		if err := watchTables(ctx, cfg, store, server); err != nil {
			logging.Warn("file watching disabled", "error", err)
		}
	}

	if cfg.OpenBrowser {
		// Give the listener a moment before the browser connects
		time.Sleep(300 * time.Millisecond)
		openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))
	}

	select {
	case err := <-errCh:
		if err != nil {
			logging.Fatal("web server failed", "error", err)
		}
	case <-ctx.Done():
		logging.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Warn("shutdown incomplete", "error", err)
		}
	}
}

// watchTables rebuilds the snapshot whenever the input tables change.
// A failed rebuild keeps the previous snapshot live.
func watchTables(ctx context.Context, cfg *config.Config, store *graph.Store, server *web.Server) error {
	fw, err := watcher.NewFileWatcher(cfg.Nodes, cfg.Edges)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), 500*time.Millisecond, 5*time.Second)
	debouncer.Start(ctx)

	go func() {
		for event := range debouncer.Output() {
			logging.Info("tables changed, reloading", "paths", len(event.Paths))

			err := store.Reload(func() (*graph.Graph, error) {
				return loadGraph(cfg.Nodes, cfg.Edges)
			})
			if err != nil {
				logging.Warn("reload failed, keeping previous graph", "error", err)
				_ = server.PublishGraphStatus(pubsub.EventReloadFailed, err.Error())
				continue
			}
			_ = server.PublishGraphStatus(pubsub.EventReloaded, "")
		}
	}()

	return nil
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
		logging.Warn("cannot open browser on this platform", "os", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
