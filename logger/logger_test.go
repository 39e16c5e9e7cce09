package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(zap.NewNop()) })

	ctx := With(context.Background(), "chat_id", int64(42))
	Infof(ctx, "Bot: handled %s", "/start")
	Warnf(context.Background(), "plain")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "Bot: handled /start" {
		t.Fatalf("unexpected message %q", entries[0].Message)
	}
	if got := entries[0].ContextMap()["chat_id"]; got != int64(42) {
		t.Fatalf("expected chat_id field, got %v", got)
	}
	if len(entries[1].Context) != 0 {
		t.Fatalf("expected no fields without With, got %v", entries[1].Context)
	}
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	if err := Init("loud", false); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}
