package types

import (
	"context"
	"testing"
)

type namedLogger struct{ name string }

func (l *namedLogger) Info(string, ...any)  {}
func (l *namedLogger) Error(string, ...any) {}
func (l *namedLogger) Warn(string, ...any)  {}
func (l *namedLogger) With(...any) Logger   { return l }

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "msg-123")

	if got := GetRequestID(ctx); got != "msg-123" {
		t.Errorf("GetRequestID() = %q, want %q", got, "msg-123")
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() on empty context = %q, want empty", got)
	}
}

func TestLoggerFromContext(t *testing.T) {
	fallback := &namedLogger{name: "fallback"}
	stored := &namedLogger{name: "stored"}

	if got := LoggerFromContext(context.Background(), fallback); got != fallback {
		t.Errorf("expected fallback logger on empty context, got %v", got)
	}

	ctx := WithLogger(context.Background(), stored)
	if got := LoggerFromContext(ctx, fallback); got != stored {
		t.Errorf("expected stored logger, got %v", got)
	}
}
