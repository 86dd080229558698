// Package main is the frontdesk API server entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tinkerloft/frontdesk/internal/agent"
	"github.com/tinkerloft/frontdesk/internal/bus"
	"github.com/tinkerloft/frontdesk/internal/calls"
	"github.com/tinkerloft/frontdesk/internal/config"
	"github.com/tinkerloft/frontdesk/internal/metrics"
	"github.com/tinkerloft/frontdesk/internal/notify"
	"github.com/tinkerloft/frontdesk/internal/seed"
	"github.com/tinkerloft/frontdesk/internal/server"
	"github.com/tinkerloft/frontdesk/internal/store"
	"github.com/tinkerloft/frontdesk/internal/sweeper"
)

func main() {
	configPath := flag.String("config", os.Getenv("FRONTDESK_CONFIG"), "path to YAML config file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(*configPath); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	requests := store.NewRequestStore(db)
	knowledge := store.NewKnowledgeStore(db)

	seeder, err := seed.New(knowledge)
	if err != nil {
		return err
	}
	if _, err := seeder.Run(ctx, cfg.SeedDir); err != nil {
		return err
	}

	b := bus.New()
	registry := calls.NewRegistry()

	var matcher agent.Matcher
	if cfg.MatcherEnabled {
		matcher = agent.NewClaudeMatcher(cfg.BusinessProfile)
	}
	resolver := agent.NewResolver(requests, knowledge, b, matcher)

	promReg := prometheus.NewRegistry()
	m, err := metrics.Register(promReg)
	if err != nil {
		return err
	}

	srv := server.New(server.Deps{
		Resolver:    resolver,
		Requests:    requests,
		Knowledge:   knowledge,
		Calls:       registry,
		Bus:         b,
		Metrics:     m,
		CORSOrigins: cfg.CORSOrigins,
	}, promReg)

	wsSub := b.Subscribe()
	defer wsSub.Close()
	go srv.Hub().Run(ctx, wsSub)

	if cfg.Slack.Token != "" {
		slackSub := b.Subscribe()
		defer slackSub.Close()
		notifier := notify.NewSlackNotifier(cfg.Slack.Token, cfg.Slack.Channel)
		go notifier.Run(ctx, slackSub)
		slog.Info("slack notifications enabled", "channel", cfg.Slack.Channel)
	}

	sw := sweeper.New(requests, m,
		time.Duration(cfg.Sweeper.TimeoutDays)*24*time.Hour,
		time.Duration(cfg.Sweeper.IntervalHours)*time.Hour)
	go sw.Run(ctx)

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("frontdesk server listening", "addr", cfg.ListenAddr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
