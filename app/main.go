package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/topic-comb/app/api"
	"github.com/lysyi3m/topic-comb/app/cfg"
	"github.com/lysyi3m/topic-comb/app/database"
	"github.com/lysyi3m/topic-comb/app/export"
	"github.com/lysyi3m/topic-comb/app/feed"
	"github.com/lysyi3m/topic-comb/app/report"
	"github.com/lysyi3m/topic-comb/app/tasks"
)

func main() {
	appCfg, err := cfg.Load(os.Args[1:])
	if errors.Is(err, cfg.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	setupLogging(appCfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, appCfg); err != nil {
		slog.Error("Run failed", "mode", appCfg.Mode, "error", err)
		stop()
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(ctx context.Context, appCfg *cfg.Cfg) error {
	open := database.Open
	if appCfg.Mode != cfg.ModeHunt {
		open = database.OpenReadOnly
	}

	slog.Debug("Opening database", "path", appCfg.DBPath, "mode", appCfg.Mode)
	db, err := open(appCfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := database.NewRepository(db)

	switch appCfg.Mode {
	case cfg.ModeQuery:
		return runQuery(ctx, appCfg.Query, repo)
	case cfg.ModeServe:
		return runServe(ctx, appCfg, repo)
	default:
		return runHunt(ctx, appCfg, repo)
	}
}

func runHunt(ctx context.Context, appCfg *cfg.Cfg, repo *database.Repository) error {
	rules, err := feed.LoadRules(appCfg.RulesFile)
	if err != nil {
		return err
	}

	huntCfg := appCfg.Hunt

	fetcher := feed.NewFetcher(&http.Client{Timeout: huntCfg.Timeout}, feed.FetcherConfig{
		BaseURL:           huntCfg.BaseURL,
		Window:            huntCfg.Window,
		Identities:        rules.Identities,
		RequestsPerSecond: huntCfg.RequestsPerSecond,
	})
	scheduler := tasks.NewScheduler(fetcher, huntCfg.Concurrency)
	enricher := feed.NewEnricher(rules.Sentiment, feed.NewChainSignalStub(rules.SignalTopics, nil))
	sink := export.NewCSVSink(appCfg.ExportPath)

	options := tasks.HuntOptions{
		Topics:        huntCfg.Topics,
		Limit:         huntCfg.Depth,
		Politeness:    huntCfg.Politeness,
		EnableScoring: huntCfg.EnableScoring,
		EnableSignal:  huntCfg.EnableSignal,
		PreviewRows:   huntCfg.PreviewRows,
	}

	hunt := func(ctx context.Context) error {
		return tasks.NewHuntTask(options, scheduler, enricher, repo, sink).Execute(ctx)
	}

	slog.Info("Starting hunt",
		"version", appCfg.Version,
		"topics", huntCfg.Topics,
		"depth", huntCfg.Depth,
		"scoring", huntCfg.EnableScoring,
		"signal", huntCfg.EnableSignal,
		"db", appCfg.DBPath,
		"export", sink.Path())

	if huntCfg.Schedule == "" {
		if err := hunt(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				slog.Warn("Hunt interrupted, committed rows are kept")
				return nil
			}
			return err
		}
		return nil
	}

	runner, err := tasks.NewCronRunner(ctx, huntCfg.Schedule, hunt)
	if err != nil {
		return err
	}

	slog.Info("Scheduled hunts enabled", "schedule", huntCfg.Schedule)
	runner.Start()

	<-ctx.Done()

	slog.Info("Stopping scheduled hunts...")
	runner.Stop()
	slog.Info("Scheduled hunts stopped")

	return nil
}

func runQuery(ctx context.Context, queryCfg cfg.QueryCfg, runner database.QueryRunner) error {
	result, err := runner.RunQuery(ctx, queryCfg.SQL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		return nil
	}

	return report.Render(os.Stdout, result, queryCfg.Format)
}

func runServe(ctx context.Context, appCfg *cfg.Cfg, reader database.PostReader) error {
	handler := api.NewHandler(reader, appCfg.Version)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Serve.Port,
		Handler:      api.NewServer(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Serve.Port, "version", appCfg.Version)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErrChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	slog.Info("HTTP server stopped")
	return nil
}
