package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/sevenofnine/virtual-calendar/internal/api"
	"github.com/sevenofnine/virtual-calendar/internal/calendar"
	"github.com/sevenofnine/virtual-calendar/internal/config"
	"github.com/sevenofnine/virtual-calendar/internal/security"
)

// Application wires one calendar store to its HTTP surface and runs the
// listeners until the context is canceled.
type Application struct {
	cfg    config.Config
	store  *calendar.Store
	logger *slog.Logger
}

func New(cfg config.Config, store *calendar.Store, logger *slog.Logger) *Application {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = calendar.NewStore()
	}
	return &Application{cfg: cfg, store: store, logger: logger}
}

// Store returns the application's calendar store.
func (a *Application) Store() *calendar.Store {
	return a.store
}

func (a *Application) Run(ctx context.Context) error {
	server := api.New(api.Options{
		Store: a.store,
		Auth: security.BearerAuth{
			Enabled:   a.cfg.RequireToken,
			Token:     a.cfg.Token,
			TokenHash: a.cfg.TokenHash,
		},
		Logger:       a.logger,
		CalendarName: a.cfg.CalendarName,
		Timezone:     a.cfg.Timezone,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	wg := sync.WaitGroup{}

	if a.cfg.BindAddress != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.ServeTCP(ctx, a.cfg.BindAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("tcp server: %w", err)
			}
		}()
	}
	if a.cfg.UnixSocketPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.ServeUnix(ctx, a.cfg.UnixSocketPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("unix server: %w", err)
			}
		}()
	}

	a.logger.Info("calendar daemon started",
		"calendar", a.cfg.CalendarName,
		"bind", a.cfg.BindAddress,
		"socket", a.cfg.UnixSocketPath)

	select {
	case err := <-errCh:
		cancel()
		wg.Wait()
		return err
	case <-ctx.Done():
		wg.Wait()
		return nil
	}
}
