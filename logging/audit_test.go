package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func decodeAudit(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("audit output is not JSON: %v (%s)", err, buf.String())
	}
	return entry
}

func TestAuditLogger_LogGeocode(t *testing.T) {
	tests := []struct {
		name      string
		outcome   AuditOutcome
		wantEvent string
	}{
		{"success", AuditOutcomeSuccess, string(AuditEventPropertyGeocoded)},
		{"failure", AuditOutcomeFailure, string(AuditEventPropertyGeocodeFailed)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			audit := NewAuditLogger(AuditLoggerConfig{
				ServiceName: "navigation",
				Environment: "test",
				Logger:      NewLoggerWithWriter("info", &buf),
			})

			audit.LogGeocode(context.Background(), "tenant-1", "prop-1", tt.outcome, map[string]string{"plus_code": "9C3XGV4C+XV"})

			entry := decodeAudit(t, &buf)
			if entry["event_type"] != tt.wantEvent {
				t.Errorf("event_type = %v, want %s", entry["event_type"], tt.wantEvent)
			}
			if entry["audit"] != true {
				t.Error("expected audit=true")
			}
			if entry["resource_id"] != "prop-1" || entry["tenant_id"] != "tenant-1" {
				t.Errorf("unexpected scope: %v", entry)
			}
			details, ok := entry["details"].(map[string]any)
			if !ok || details["plus_code"] != "9C3XGV4C+XV" {
				t.Errorf("details = %v", entry["details"])
			}
		})
	}
}

func TestAuditLogger_LogAccessDenied(t *testing.T) {
	var buf bytes.Buffer
	audit := NewAuditLogger(AuditLoggerConfig{Logger: NewLoggerWithWriter("info", &buf)})

	audit.LogAccessDenied(context.Background(), "tenant-1", "worker-2", "worker", "worker-1")

	entry := decodeAudit(t, &buf)
	if entry["event_type"] != string(AuditEventAccessDenied) {
		t.Errorf("event_type = %v", entry["event_type"])
	}
	if entry["outcome"] != string(AuditOutcomeDenied) {
		t.Errorf("outcome = %v", entry["outcome"])
	}
	if entry["actor_id"] != "worker-2" {
		t.Errorf("actor_id = %v", entry["actor_id"])
	}
}

func TestAuditLogger_NilIsNoop(t *testing.T) {
	var audit *AuditLogger
	audit.LogGeocode(context.Background(), "t", "p", AuditOutcomeSuccess, nil)
	audit.LogAccessDenied(context.Background(), "t", "a", "worker", "w")
}

func TestTraceIDFromContext(t *testing.T) {
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Errorf("TraceIDFromContext() = %q, want empty", got)
	}

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	if got := TraceIDFromContext(ctx); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("TraceIDFromContext() = %q", got)
	}
}
