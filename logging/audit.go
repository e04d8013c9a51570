package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// AuditEventType names an audited action.
type AuditEventType string

const (
	AuditEventPropertyGeocoded      AuditEventType = "property.geocoded"
	AuditEventPropertyGeocodeFailed AuditEventType = "property.geocode_failed"
	AuditEventAccessDenied          AuditEventType = "security.access_denied"
)

// AuditOutcome is the result of an audited action.
type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeFailure AuditOutcome = "failure"
	AuditOutcomeDenied  AuditOutcome = "denied"
)

// AuditEvent is one audit record.
type AuditEvent struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Type        AuditEventType    `json:"type"`
	TenantID    string            `json:"tenant_id,omitempty"`
	ActorID     string            `json:"actor_id,omitempty"`
	Resource    string            `json:"resource,omitempty"`
	ResourceID  string            `json:"resource_id,omitempty"`
	Outcome     AuditOutcome      `json:"outcome"`
	Details     map[string]string `json:"details,omitempty"`
	TraceID     string            `json:"trace_id,omitempty"`
	Service     string            `json:"service"`
	Environment string            `json:"environment"`
}

// AuditLogger writes audit events as structured log records tagged
// audit=true so they can be routed separately.
type AuditLogger struct {
	logger      *slog.Logger
	service     string
	environment string
}

// AuditLoggerConfig holds configuration for the audit logger.
type AuditLoggerConfig struct {
	ServiceName string
	Environment string
	Logger      *Logger
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(config AuditLoggerConfig) *AuditLogger {
	base := slog.Default()
	if config.Logger != nil {
		base = config.Logger.Logger
	}

	return &AuditLogger{
		logger:      base.With("audit", true),
		service:     config.ServiceName,
		environment: config.Environment,
	}
}

// Log records an audit event. A nil AuditLogger is a no-op.
func (l *AuditLogger) Log(ctx context.Context, event AuditEvent) {
	if l == nil {
		return
	}

	event.Service = l.service
	event.Environment = l.environment
	event.Timestamp = time.Now().UTC()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.TraceID == "" {
		event.TraceID = TraceIDFromContext(ctx)
	}

	attrs := []slog.Attr{
		slog.String("event_id", event.ID),
		slog.String("event_type", string(event.Type)),
		slog.String("outcome", string(event.Outcome)),
		slog.String("tenant_id", event.TenantID),
		slog.String("resource", event.Resource),
		slog.String("resource_id", event.ResourceID),
	}
	if event.ActorID != "" {
		attrs = append(attrs, slog.String("actor_id", event.ActorID))
	}
	if event.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", event.TraceID))
	}
	if len(event.Details) > 0 {
		details := make([]any, 0, len(event.Details))
		for k, v := range event.Details {
			details = append(details, slog.String(k, v))
		}
		attrs = append(attrs, slog.Group("details", details...))
	}

	l.logger.LogAttrs(ctx, slog.LevelInfo, "audit_event", attrs...)
}

// LogGeocode records the outcome of a property geocode.
func (l *AuditLogger) LogGeocode(ctx context.Context, tenantID, propertyID string, outcome AuditOutcome, details map[string]string) {
	eventType := AuditEventPropertyGeocoded
	if outcome != AuditOutcomeSuccess {
		eventType = AuditEventPropertyGeocodeFailed
	}

	l.Log(ctx, AuditEvent{
		Type:       eventType,
		TenantID:   tenantID,
		Resource:   "property",
		ResourceID: propertyID,
		Outcome:    outcome,
		Details:    details,
	})
}

// LogAccessDenied records a tenant-scope violation.
func (l *AuditLogger) LogAccessDenied(ctx context.Context, tenantID, actorID, resource, resourceID string) {
	l.Log(ctx, AuditEvent{
		Type:       AuditEventAccessDenied,
		TenantID:   tenantID,
		ActorID:    actorID,
		Resource:   resource,
		ResourceID: resourceID,
		Outcome:    AuditOutcomeDenied,
	})
}

// TraceIDFromContext returns the active trace ID, if any.
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}
