package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sevenofnine/virtual-calendar/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDefaults(t *testing.T) {
	a := New(config.Config{}, nil, nil)
	if a.Store() == nil {
		t.Fatal("nil store must be replaced with a fresh one")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	a := New(config.Config{
		CalendarName: "Team",
		BindAddress:  "127.0.0.1:0",
	}, nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v after cancel, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after context cancel")
	}
}

func TestRunReportsListenerError(t *testing.T) {
	a := New(config.Config{
		CalendarName: "Team",
		BindAddress:  "127.0.0.1:99999", // out-of-range port
	}, nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.Run(ctx); err == nil {
		t.Fatal("expected listen error")
	}
}
