package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoggerWritesJSONWithAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).
		WithService("navigation").
		WithTenantID("tenant-1").
		WithError(errors.New("boom"))

	logger.Info("geocode resolved", "property_id", "p-1")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	for key, want := range map[string]string{
		"msg":         "geocode resolved",
		"service":     "navigation",
		"tenant_id":   "tenant-1",
		"error":       "boom",
		"property_id": "p-1",
	} {
		if record[key] != want {
			t.Errorf("record[%q] = %v, want %q", key, record[key], want)
		}
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info record written at warn level: %s", buf.String())
	}

	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Error("warn record missing")
	}
}

func TestLoggerContext(t *testing.T) {
	logger := NewLogger("debug")
	ctx := logger.WithContext(context.Background())

	if got := FromContext(ctx); got != logger {
		t.Error("FromContext should return the stored logger")
	}
	if got := FromContext(context.Background()); got.Level() != slog.LevelInfo {
		t.Errorf("default logger level = %v, want info", got.Level())
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	l := NewLogger("info")
	if OrDiscard(l) != l {
		t.Error("OrDiscard should return the given logger")
	}
}

func TestAuditLogger_LogGeocodeFailure(t *testing.T) {
	var buf bytes.Buffer
	audit := NewAuditLogger(AuditLoggerConfig{
		ServiceName: "navigation",
		Environment: "test",
		Logger:      NewLoggerWithWriter("info", &buf),
	})

	audit.LogGeocode(context.Background(), "tenant-1", "p-1", AuditOutcomeFailure,
		map[string]string{"code": "ADDRESS_NOT_FOUND"})

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["event_type"] != string(AuditEventPropertyGeocodeFailed) {
		t.Errorf("event_type = %v", record["event_type"])
	}
	if record["audit"] != true {
		t.Errorf("audit flag = %v", record["audit"])
	}
	details, _ := record["details"].(map[string]any)
	if details["code"] != "ADDRESS_NOT_FOUND" {
		t.Errorf("details = %v", record["details"])
	}
}

func TestAuditLogger_NilLogAccessDeniedIsNoop(t *testing.T) {
	var audit *AuditLogger
	audit.LogAccessDenied(context.Background(), "t", "u", "property", "p")
}
