package cli

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"splitter/internal/config"
	"splitter/internal/log"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("NOTIFY_BACKEND", "memory")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("port = %q", cfg.Port)
	}

	t.Setenv("PORT", "not-a-port")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger(&config.Config{LogLevel: "loud"}, log.ComponentApp); err == nil {
		t.Fatal("expected error for unknown level")
	}
	logger, err := NewLogger(&config.Config{LogLevel: "debug", LogFormat: log.FormatJSON}, log.ComponentWorker)
	if err != nil {
		t.Fatal(err)
	}
	if logger.Component() != log.ComponentWorker {
		t.Fatalf("component = %q", logger.Component())
	}
}

func TestShutdownRunsCleanup(t *testing.T) {
	sig := make(chan os.Signal, 1)
	cleaned := make(chan struct{})
	ctx, done := shutdownOn(sig, log.Discard(), time.Second, func(ctx context.Context) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("cleanup context has no deadline")
		}
		close(cleaned)
	})

	select {
	case <-ctx.Done():
		t.Fatal("context cancelled before a signal")
	default:
	}

	sig <- syscall.SIGTERM
	WaitForShutdown(ctx, done)
	select {
	case <-cleaned:
	default:
		t.Fatal("cleanup did not run")
	}
}

func TestShutdownTimeout(t *testing.T) {
	sig := make(chan os.Signal, 1)
	release := make(chan struct{})
	defer close(release)

	ctx, done := shutdownOn(sig, log.Discard(), 20*time.Millisecond, func(ctx context.Context) {
		<-release
	})
	sig <- syscall.SIGINT

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not give up after the timeout")
	}
	if ctx.Err() == nil {
		t.Fatal("context not cancelled")
	}
}
