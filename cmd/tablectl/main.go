package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/tableview/internal/application"
	"github.com/JonMunkholm/tableview/internal/client"
	"github.com/JonMunkholm/tableview/internal/config"
	"github.com/JonMunkholm/tableview/internal/grid"
	"github.com/JonMunkholm/tableview/internal/logging"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists; the environment wins over the file here.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := logging.SetupFile(cfg.Client.LogFile, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open log file:", err)
		os.Exit(1)
	}
	defer logFile.Close()

	src, err := client.New(cfg.Client.BaseURL, client.WithTimeout(cfg.Client.Timeout))
	if err != nil {
		slog.Error("invalid client configuration", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	saver, err := client.NewDirSaver(cfg.Client.ExportDir)
	if err != nil {
		slog.Error("invalid export directory", "dir", cfg.Client.ExportDir, "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	model := application.New(ctx, src, application.Options{
		Defaults: grid.Defaults{
			PageSize:    cfg.Grid.DefaultPageSize,
			MaxPageSize: cfg.Grid.MaxPageSize,
		},
		DebounceWait:         cfg.Grid.DebounceWait,
		SuppressCancellation: cfg.Grid.SuppressCancel,
		Development:          cfg.Grid.Development,
		Saver:                saver,
		Logger:               slog.Default(),
		Cache:                grid.NewCache(cfg.Grid.CacheMaxSize, cfg.Grid.CacheTTL),
	})
	defer model.Close()

	slog.Info("tablectl starting", "server", cfg.Client.BaseURL, "export_dir", cfg.Client.ExportDir)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		slog.Error("tablectl stopped", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
