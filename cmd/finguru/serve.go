package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/Sirimanoj/finguru/internal/application"
	"github.com/Sirimanoj/finguru/internal/cache"
	"github.com/Sirimanoj/finguru/internal/config"
	"github.com/Sirimanoj/finguru/internal/domain/mentor"
	httpapi "github.com/Sirimanoj/finguru/internal/interfaces/http"
	"github.com/Sirimanoj/finguru/internal/metrics"
	"github.com/Sirimanoj/finguru/internal/notify"
	"github.com/Sirimanoj/finguru/internal/persistence"
	"github.com/Sirimanoj/finguru/internal/persistence/memory"
	"github.com/Sirimanoj/finguru/internal/persistence/postgres"
	"github.com/Sirimanoj/finguru/internal/providers/gemini"
	"github.com/Sirimanoj/finguru/internal/storage"
)

func runServe(ctx context.Context, cfg config.Config, dev bool) error {
	setLogLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)

	repo, cleanup, err := openRepository(ctx, cfg, dev)
	if err != nil {
		return err
	}
	defer cleanup()

	store := cache.New(cfg.Redis.Addr)

	model, err := openModel(ctx, cfg, m, dev)
	if err != nil {
		return err
	}

	hub := notify.NewHub()
	gam := application.NewGamificationService(repo, store, m)
	accounts := application.NewAccountsService(repo)
	if cfg.Media.Dir != "" {
		accounts.WithMedia(storage.NewDisk(cfg.Media.Dir, "/media"))
	}
	deps := httpapi.Deps{
		Accounts:     accounts,
		Budgets:      application.NewBudgetService(repo, store, m, gam),
		Gamification: gam,
		Chat:         application.NewChatService(repo, model, m),
		Hub:          hub,
		Metrics:      m,
		Version:      version,
		MediaDir:     cfg.Media.Dir,
	}

	scheduler := notify.NewScheduler(repo, hub, m, cfg.Notifications.Interval(), cfg.Notifications.DigestHour)
	go scheduler.Run(ctx)

	server := httpapi.NewServer(cfg.Server, deps)
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openRepository(ctx context.Context, cfg config.Config, dev bool) (*persistence.Repository, func(), error) {
	if dev {
		log.Info().Msg("dev mode: in-memory storage")
		return memory.NewRepository(), func() {}, nil
	}
	if cfg.Database.DSN == "" {
		return nil, nil, fmt.Errorf("database dsn is required (set DATABASE_URL or run with --dev)")
	}
	db, err := postgres.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return postgres.NewRepository(db), func() { db.Close() }, nil
}

// devModel is the canned mentor used in --dev runs so the chat surface
// works without a vendor key.
type devModel struct{}

func (devModel) Complete(_ context.Context, _ string, _ []mentor.Turn, message string) (string, error) {
	return "Offline mentor: I can't reach the model right now, but a good habit is to write down the decision you're weighing. You asked: " + message, nil
}

func (devModel) Transcribe(context.Context, []byte, string) (string, error) {
	return "", fmt.Errorf("transcription is unavailable in dev mode")
}

func openModel(ctx context.Context, cfg config.Config, m *metrics.Registry, dev bool) (application.Completer, error) {
	if cfg.Gemini.APIKey == "" {
		if !dev {
			return nil, fmt.Errorf("gemini api key is required (set GEMINI_API_KEY or run with --dev)")
		}
		log.Info().Msg("dev mode: canned mentor, no model key")
		return devModel{}, nil
	}

	onState := func(state gobreaker.State) {
		var v float64
		switch state {
		case gobreaker.StateHalfOpen:
			v = 1
		case gobreaker.StateOpen:
			v = 2
		}
		m.BreakerState.Set(v)
	}

	opts := []gemini.Option{}
	if cfg.Gemini.Model != "" {
		opts = append(opts, gemini.WithModel(cfg.Gemini.Model))
	}
	client, err := gemini.New(ctx, cfg.Gemini.APIKey, onState, opts...)
	if err != nil {
		return nil, fmt.Errorf("init model client: %w", err)
	}
	return client, nil
}
