package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestSetup_Levels(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		wantDebug bool
	}{
		{"debug", true, true},
		{"info", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := Setup(io.Discard, tt.debug)
			if !logger.Enabled(context.Background(), slog.LevelInfo) {
				t.Error("logger should be enabled at Info level")
			}
			if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("Enabled(Debug) = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestSetup_WritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, false).Info("session ready", "account_id", "acc1")

	out := buf.String()
	if !strings.Contains(out, "session ready") || !strings.Contains(out, "account_id=acc1") {
		t.Errorf("output = %q, want message and attribute", out)
	}
}

func TestSetup_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, true)

	logger.Debug("request", "token", "fmu1-secret", "Authorization", "Bearer fmu1-secret", "op", "search")

	out := buf.String()
	if strings.Contains(out, "fmu1-secret") {
		t.Errorf("output leaked a credential: %q", out)
	}
	if !strings.Contains(out, "op=search") {
		t.Errorf("output = %q, want non-sensitive attributes kept", out)
	}
	if strings.Count(out, redacted) != 2 {
		t.Errorf("output = %q, want two redacted attributes", out)
	}
}

func TestWithLogger_FromContext_RoundTrip(t *testing.T) {
	logger := Setup(io.Discard, true)
	ctx := WithLogger(context.Background(), logger)

	if FromContext(ctx) != logger {
		t.Error("FromContext did not return the same logger that was stored with WithLogger")
	}
}

func TestFromContext_ReturnsDefault_WhenNotInContext(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("FromContext should return slog.Default() when logger not in context")
	}
}
