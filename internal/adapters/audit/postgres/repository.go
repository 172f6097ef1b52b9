package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"3tcapital/ms_consulta_ibge/internal/core/audit"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool is the subset of *pgxpool.Pool used by the repository.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const insertAuditLog = `
	INSERT INTO provider_audit_log (
		correlation_id, provider, operation, request_method, request_url,
		request_headers, response_status, response_headers, response_body,
		duration_ms, error_message
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

const selectAuditLogsByCorrelationID = `
	SELECT id, correlation_id, provider, operation, request_method, request_url,
	       request_headers, response_status, response_headers, response_body,
	       duration_ms, COALESCE(error_message, ''), created_at
	FROM provider_audit_log
	WHERE correlation_id = $1
	ORDER BY created_at DESC`

// Repository implements the audit.Repository interface using PostgreSQL.
type Repository struct {
	pool Pool
	log  *slog.Logger
}

// NewRepository creates a new PostgreSQL audit repository.
func NewRepository(pool Pool, log *slog.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

// Save persists an audit log entry to the database.
func (r *Repository) Save(ctx context.Context, entry audit.ProviderAuditLog) error {
	requestHeadersJSON, err := json.Marshal(entry.RequestHeaders)
	if err != nil {
		return fmt.Errorf("marshal request headers: %w", err)
	}
	responseHeadersJSON, err := json.Marshal(entry.ResponseHeaders)
	if err != nil {
		return fmt.Errorf("marshal response headers: %w", err)
	}

	var responseBody any
	if len(entry.ResponseBody) > 0 {
		responseBody = []byte(entry.ResponseBody)
	}

	_, err = r.pool.Exec(ctx, insertAuditLog,
		entry.CorrelationID,
		entry.Provider,
		entry.Operation,
		entry.RequestMethod,
		entry.RequestURL,
		requestHeadersJSON,
		entry.ResponseStatus,
		responseHeadersJSON,
		responseBody,
		entry.DurationMs,
		entry.ErrorMessage,
	)
	if err != nil {
		if r.log != nil {
			r.log.Error("Failed to insert audit log into database",
				"correlation_id", entry.CorrelationID,
				"provider", entry.Provider,
				"operation", entry.Operation,
				"error", err,
			)
		}
		return fmt.Errorf("insert audit log: %w", err)
	}

	if r.log != nil {
		r.log.Debug("Audit log saved",
			"correlation_id", entry.CorrelationID,
			"provider", entry.Provider,
			"operation", entry.Operation,
			"duration_ms", entry.DurationMs,
		)
	}
	return nil
}

// FindByCorrelationID retrieves all audit logs with the given correlation ID, newest first.
func (r *Repository) FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.ProviderAuditLog, error) {
	rows, err := r.pool.Query(ctx, selectAuditLogsByCorrelationID, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []audit.ProviderAuditLog
	for rows.Next() {
		var entry audit.ProviderAuditLog
		var requestHeadersJSON, responseHeadersJSON, responseBody []byte

		if err := rows.Scan(
			&entry.ID,
			&entry.CorrelationID,
			&entry.Provider,
			&entry.Operation,
			&entry.RequestMethod,
			&entry.RequestURL,
			&requestHeadersJSON,
			&entry.ResponseStatus,
			&responseHeadersJSON,
			&responseBody,
			&entry.DurationMs,
			&entry.ErrorMessage,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}

		if len(requestHeadersJSON) > 0 {
			if err := json.Unmarshal(requestHeadersJSON, &entry.RequestHeaders); err != nil {
				return nil, fmt.Errorf("unmarshal request headers: %w", err)
			}
		}
		if len(responseHeadersJSON) > 0 {
			if err := json.Unmarshal(responseHeadersJSON, &entry.ResponseHeaders); err != nil {
				return nil, fmt.Errorf("unmarshal response headers: %w", err)
			}
		}
		entry.ResponseBody = responseBody

		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return logs, nil
}

var _ audit.Repository = (*Repository)(nil)
