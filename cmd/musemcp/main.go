// Command musemcp runs the narrative-to-music MCP server.
//
// It communicates over stdio using JSON-RPC 2.0 (MCP protocol) by default,
// or as a standalone HTTP server with -transport http. The only environment
// input is the config file path (MUSEMCP_CONFIG or -config); everything else
// lives in the JSON config document.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/versebound/musemcp/internal/config"
	"github.com/versebound/musemcp/internal/content"
	"github.com/versebound/musemcp/internal/mcp"
	"github.com/versebound/musemcp/internal/scheduler"
	"github.com/versebound/musemcp/internal/tools/genres"
	"github.com/versebound/musemcp/internal/tools/knowledge"
	"github.com/versebound/musemcp/internal/tools/narrative"
	"github.com/versebound/musemcp/internal/tools/settings"
	"github.com/versebound/musemcp/internal/wiki"
	"github.com/versebound/musemcp/internal/workflow"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "info" {
		runInfo(os.Args[2:])
		return
	}

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "musemcp: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("musemcp", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the JSON config file (default: $MUSEMCP_CONFIG, then ./musemcp.json if present)")
	transport := fs.String("transport", "stdio", `transport mode: "stdio" or "http"`)
	host := fs.String("host", "0.0.0.0", "HTTP listen address (http transport only)")
	port := fs.String("port", "21470", "HTTP listen port (http transport only)")
	cors := fs.String("cors-origins", "*", "comma-separated allowed CORS origins (http transport only)")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Structured logging goes to stderr; stdout belongs to the MCP protocol.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(*logLevel),
	}))

	cfgManager, err := config.Load(resolveConfigPath(*configPath))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cfgManager.Current()

	logger.Info("starting musemcp",
		"version", Version,
		"transport", *transport,
		"storage_path", cfg.StoragePath,
		"wiki_enabled", cfg.Enabled,
	)

	// Set up signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Wiki knowledge subsystem
	store, err := wiki.NewStore(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("opening wiki cache store: %w", err)
	}
	knowledgeMgr := wiki.NewManager(store, func() wiki.Settings {
		c := cfgManager.Current()
		return c.WikiSettings()
	}, logger)
	if err := knowledgeMgr.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing wiki knowledge: %w", err)
	}

	// Hot-reload the config file and re-check freshness on config changes.
	go func() {
		if err := cfgManager.Watch(ctx, logger); err != nil {
			logger.Warn("config watcher stopped", "error", err)
		}
	}()
	go func() {
		changes := cfgManager.Subscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-changes:
				if pagesChanged(ev) && ev.Current.Enabled {
					logger.Info("config changed; triggering wiki refresh")
					if _, err := knowledgeMgr.Refresh(ctx, false); err != nil {
						logger.Warn("config-triggered refresh failed", "error", err)
					}
				}
			}
		}
	}()

	// Scheduled background refresh
	if cfg.Enabled {
		sched := scheduler.NewScheduler(logger)
		sched.AddJob(&wiki.ScheduledRefresh{Manager: knowledgeMgr},
			time.Duration(cfg.RefreshIntervalHours)*time.Hour, false)
		sched.Start(ctx)
		defer sched.Stop()
	}

	orch := workflow.New(knowledgeMgr, workflow.Options{}, logger)

	// Create tool registry and register tools
	registry := mcp.NewRegistry()

	// Pipeline tools
	registry.Register(narrative.NewAnalyze(orch))
	registry.Register(narrative.NewPersonas(orch))
	registry.Register(narrative.NewCommands(orch))
	registry.Register(narrative.NewComplete(orch))
	registry.Register(narrative.NewPsychology(orch))

	// Genre mapping tools
	registry.Register(genres.NewMapTraits(knowledgeMgr))
	registry.Register(genres.NewFindSimilar(knowledgeMgr))
	registry.Register(genres.NewHierarchy(knowledgeMgr))

	// Knowledge tools
	registry.Register(knowledge.NewBestPractices(knowledgeMgr))
	registry.Register(knowledge.NewRefresh(knowledgeMgr))
	registry.Register(knowledge.NewStatus(knowledgeMgr))

	// Configuration tools
	registry.Register(settings.NewUpdate(cfgManager))
	registry.Register(settings.NewAddURLs(cfgManager))
	registry.Register(settings.NewRemoveURLs(cfgManager))

	// Prompts and resources
	registry.RegisterPrompt(&content.WorkflowPrompt{})
	registry.RegisterResource(&content.ToolReferenceResource{})
	registry.RegisterResource(&content.EmotionVocabularyResource{})
	registry.RegisterResource(&content.SemanticGroupsResource{})

	server := mcp.NewServer(registry, mcp.ServerInfo{
		Name:    "musemcp",
		Version: Version,
	}, logger)

	switch *transport {
	case "stdio":
		return server.Run(ctx)
	case "http":
		httpServer := mcp.NewHTTPServer(server, *cors, logger)
		addr := *host + ":" + *port
		logger.Info("listening", "addr", addr)
		srv := &http.Server{Addr: addr, Handler: httpServer.Handler()}
		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	default:
		return fmt.Errorf("invalid transport %q (must be \"stdio\" or \"http\")", *transport)
	}
}

// pagesChanged reports whether a config change touched anything the wiki
// snapshot depends on.
func pagesChanged(ev config.ChangeEvent) bool {
	return !equalStrings(ev.Previous.GenrePages, ev.Current.GenrePages) ||
		!equalStrings(ev.Previous.MetatagPages, ev.Current.MetatagPages) ||
		!equalStrings(ev.Previous.TipPages, ev.Current.TipPages) ||
		ev.Previous.Enabled != ev.Current.Enabled
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// resolveConfigPath determines which config file to use. Returns empty
// string when no config file exists (the server then runs on defaults).
func resolveConfigPath(explicit string) string {
	// 1. Explicit path from -config flag
	if explicit != "" {
		return explicit // caller wants this file; Load reports if unreadable
	}

	// 2. MUSEMCP_CONFIG env var
	if p := os.Getenv("MUSEMCP_CONFIG"); p != "" {
		return p
	}

	// 3. ./musemcp.json in current directory
	if _, err := os.Stat("musemcp.json"); err == nil {
		return "musemcp.json"
	}

	return ""
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
