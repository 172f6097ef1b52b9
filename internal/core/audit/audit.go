package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Upstream provider names recorded in the audit trail.
const (
	ProviderIBGE   = "ibge"
	ProviderViaCEP = "viacep"
)

// ProviderAuditLog is an audit record for one call to an upstream lookup
// service (IBGE catalog or ViaCEP).
type ProviderAuditLog struct {
	ID              int64
	CorrelationID   string
	Provider        string
	Operation       string
	RequestMethod   string
	RequestURL      string
	RequestHeaders  map[string]string
	ResponseStatus  *int
	ResponseHeaders map[string]string
	ResponseBody    json.RawMessage
	DurationMs      int64
	ErrorMessage    string
	CreatedAt       time.Time
}

// Repository defines the contract for persisting and retrieving audit logs.
type Repository interface {
	// Save persists an audit log entry to storage.
	Save(ctx context.Context, log ProviderAuditLog) error

	// FindByCorrelationID retrieves all audit logs associated with a correlation ID.
	FindByCorrelationID(ctx context.Context, correlationID string) ([]ProviderAuditLog, error)
}
