package main

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/sevenofnine/virtual-calendar/internal/security"
)

func TestLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := level(in); got != want {
			t.Errorf("level(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestHashTokenCommand(t *testing.T) {
	var out strings.Builder
	hashTokenCmd.SetOut(&out)
	if err := hashTokenCmd.RunE(hashTokenCmd, []string{"s3cret"}); err != nil {
		t.Fatalf("hash-token: %v", err)
	}
	encoded := strings.TrimSpace(out.String())
	if !strings.HasPrefix(encoded, "argon2id$") {
		t.Fatalf("unexpected output %q", encoded)
	}
	if !security.VerifyToken(encoded, "s3cret") {
		t.Fatal("printed hash does not verify the token")
	}
}

func TestHashTokenCommandRejectsEmpty(t *testing.T) {
	if err := hashTokenCmd.RunE(hashTokenCmd, []string{""}); err == nil {
		t.Fatal("expected error for empty token")
	}
}
