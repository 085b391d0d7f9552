package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/productdesk/internal/backend"
	"github.com/jask/productdesk/internal/config"
	"github.com/jask/productdesk/internal/journal"
	"github.com/jask/productdesk/internal/metrics"
	"github.com/jask/productdesk/internal/service"
	"github.com/jask/productdesk/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Log.Path), 0o755); err != nil {
		log.Fatalf("mkdir log dir: %v", err)
	}
	logFile, err := tea.LogToFile(cfg.Log.Path, "productdesk")
	if err != nil {
		log.Fatalf("log file: %v", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: logLevel(cfg.Log.Level)}))

	if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0o755); err != nil {
		log.Fatalf("mkdir journal dir: %v", err)
	}
	db, err := journal.OpenMigrated(cfg.Journal.Path)
	if err != nil {
		log.Fatalf("journal: %v", err)
	}
	defer db.Close()
	history := journal.New(db)

	rec := metrics.New()
	client := backend.New(cfg.Backend.URL,
		backend.WithOrigin(cfg.Backend.Origin),
		backend.WithHTTPClient(&http.Client{
			Transport: rec.InstrumentTransport(nil),
			Timeout:   cfg.Backend.Timeout,
		}),
	)
	products := &service.Products{Backend: client, Journal: history, Metrics: rec, Logger: logger}

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := rec.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logger.Error("metrics server", "addr", cfg.Metrics.Addr, "err", err)
			}
		}()
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("using local timezone", "err", err)
	}

	saveConfig := config.Save
	if *configPath != "" {
		saveConfig = func(c config.Config) error { return config.SaveAs(c, *configPath) }
	}

	logger.Info("starting", "backend", cfg.Backend.URL, "journal", cfg.Journal.Path)
	p := tea.NewProgram(tui.New(ctx, cfg, tui.Deps{
		Products:   products,
		History:    history,
		Endpoint:   client,
		SaveConfig: saveConfig,
		Logger:     logger,
	}, loc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func logLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
