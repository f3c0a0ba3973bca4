package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"simply/internal/config"
	"simply/internal/engine"
	"simply/internal/logging"
	"simply/internal/notify"
	"simply/internal/storage"
	"simply/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath, err := config.ResolveConfigPath()
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logPath := config.ResolvePath(configPath, cfg.LogFile)
	logger, logFile, err := logging.OpenFile(logPath, logging.FromConfig(cfg.LogLevel, cfg.LogFormat))
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer logFile.Close()

	dbPath := config.ResolvePath(configPath, cfg.DBPath)
	store, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	b, err := store.LoadBook()
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to load tasks: %w", err)
	}
	raw, err := config.Encode(cfg)
	if err != nil {
		store.Close()
		return err
	}

	persister := storage.NewPersister(store, configPath, logger)
	defer persister.Close()
	notifier := notify.New(cfg.Notify, logger)
	events := make(chan engine.Event, 64)

	eng := engine.New(b, raw,
		engine.WithLogger(logger),
		engine.WithListener(persister.Handle),
		engine.WithListener(notifier.Handle),
		engine.WithListener(ui.Forward(events)),
	)
	logger.Info("started", "config", configPath, "db", dbPath, "tasks", b.Count())

	interval, err := cfg.ScanInterval()
	if err != nil {
		logger.Warn("using default scan interval", "err", err)
		interval = engine.DefaultScanInterval
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	scanner := engine.NewScanner(eng, interval)
	scanner.Start(ctx)
	defer scanner.Stop()

	if err := ui.Run(eng, cfg.Keys, events); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
