package notifications

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type stubNotifier struct {
	calls atomic.Int32
	err   error
}

func (s *stubNotifier) SendPasswordReset(ctx context.Context, _ PasswordResetInput) error {
	s.calls.Add(1)
	return s.err
}

func TestLogNotifier_WritesResetURL(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := n.SendPasswordReset(context.Background(), PasswordResetInput{
		Email:    "ada@example.com",
		ResetURL: "http://localhost:8080/Account/ResetPassword?token=abc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "notification.password_reset") || !strings.Contains(out, "token=abc") {
		t.Fatalf("log line missing fields: %s", out)
	}
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &stubNotifier{err: errors.New("smtp down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Minute})

	for i := 0; i < 2; i++ {
		if err := n.SendPasswordReset(context.Background(), PasswordResetInput{}); err == nil {
			t.Fatalf("expected provider error on call %d", i)
		}
	}

	if err := n.SendPasswordReset(context.Background(), PasswordResetInput{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if got := inner.calls.Load(); got != 2 {
		t.Fatalf("inner called %d times, want 2", got)
	}
}

func TestProtectedNotifier_HalfOpenRecovers(t *testing.T) {
	inner := &stubNotifier{err: errors.New("smtp down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Minute})

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	_ = n.SendPasswordReset(context.Background(), PasswordResetInput{})
	if err := n.SendPasswordReset(context.Background(), PasswordResetInput{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}

	now = now.Add(2 * time.Minute)
	inner.err = nil

	if err := n.SendPasswordReset(context.Background(), PasswordResetInput{}); err != nil {
		t.Fatalf("half-open trial should pass through: %v", err)
	}
	if err := n.SendPasswordReset(context.Background(), PasswordResetInput{}); err != nil {
		t.Fatalf("circuit should be closed again: %v", err)
	}
}
