package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"3tcapital/ms_consulta_ibge/internal/core/audit"
	ctxutil "3tcapital/ms_consulta_ibge/internal/infrastructure/context"
	"3tcapital/ms_consulta_ibge/internal/infrastructure/security"
	"3tcapital/ms_consulta_ibge/internal/infrastructure/tracing"
)

// Doer is the minimal HTTP client contract used by upstream adapters.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TracedClient wraps an HTTP client to log, trace and audit every upstream call.
type TracedClient struct {
	client       *http.Client
	log          *slog.Logger
	auditRepo    audit.Repository
	provider     string
	auditEnabled bool
	logRespBody  bool
	maxBodySize  int
}

// TracedClientConfig holds configuration for the traced HTTP client.
type TracedClientConfig struct {
	Timeout         time.Duration
	AuditEnabled    bool
	LogResponseBody bool
	MaxBodySize     int
	MaxConnsPerHost int // 0 = default of 16
}

// NewTracedClient creates a traced client for the given upstream provider.
// auditRepo may be nil, in which case nothing is persisted.
func NewTracedClient(cfg *TracedClientConfig, log *slog.Logger, auditRepo audit.Repository, provider string) *TracedClient {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 102400
	}
	if log == nil {
		log = slog.Default()
	}
	maxConnsPerHost := cfg.MaxConnsPerHost
	if maxConnsPerHost == 0 {
		maxConnsPerHost = 16
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &TracedClient{
		client: NewClient(&ClientConfig{
			Timeout:   cfg.Timeout,
			Transport: transport,
		}),
		log:          log,
		auditRepo:    auditRepo,
		provider:     provider,
		auditEnabled: cfg.AuditEnabled,
		logRespBody:  cfg.LogResponseBody,
		maxBodySize:  cfg.MaxBodySize,
	}
}

// Do executes an HTTP request inside a span, logging the exchange and
// persisting an audit record asynchronously when auditing is enabled.
func (c *TracedClient) Do(req *http.Request) (*http.Response, error) {
	operation := ctxutil.GetOperation(req.Context())
	if operation == "" {
		operation = c.extractOperation(req)
	}

	ctx, span := tracing.Tracer().Start(req.Context(), c.provider+"."+operation)
	defer span.End()
	req = req.WithContext(ctx)

	correlationID := ctxutil.GetCorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	req.Header.Set(ctxutil.CorrelationIDHeader, correlationID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	url := security.SanitizeURL(req.URL.String())
	span.SetAttributes(
		attribute.String("provider", c.provider),
		attribute.String("operation", operation),
		attribute.String("http.method", req.Method),
		attribute.String("http.url", url),
		attribute.String("correlation_id", correlationID),
	)

	c.log.DebugContext(ctx, "provider_request",
		"correlation_id", correlationID,
		"provider", c.provider,
		"operation", operation,
		"method", req.Method,
		"url", url,
	)

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)

	var responseBody []byte
	if resp != nil && resp.Body != nil {
		var readErr error
		responseBody, readErr = io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil && err == nil {
			err = fmt.Errorf("read response body: %w", readErr)
		}
		resp.Body = io.NopCloser(bytes.NewReader(responseBody))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		if resp.StatusCode >= 500 {
			span.SetStatus(codes.Error, resp.Status)
		}
	}

	c.logResponse(ctx, correlationID, operation, req, resp, err, duration, responseBody)

	if c.auditEnabled && c.auditRepo != nil {
		entry := c.buildAuditLog(correlationID, operation, req, resp, err, duration, responseBody)
		go c.persistAuditLog(entry)
	}

	return resp, err
}

// logResponse logs the HTTP response received.
func (c *TracedClient) logResponse(ctx context.Context, correlationID, operation string, req *http.Request, resp *http.Response, err error, duration time.Duration, body []byte) {
	attrs := []any{
		"correlation_id", correlationID,
		"provider", c.provider,
		"operation", operation,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		attrs = append(attrs, "error", err.Error())
		c.log.WarnContext(ctx, "provider_request_failed", attrs...)
		return
	}

	attrs = append(attrs, "status", resp.StatusCode, "response_size_bytes", len(body))
	if c.logRespBody && len(body) > 0 {
		attrs = append(attrs, "response_body", string(security.SanitizeBody(body, c.maxBodySize)))
	}

	switch {
	case resp.StatusCode >= 500:
		c.log.ErrorContext(ctx, "provider_response", attrs...)
	case resp.StatusCode >= 400:
		c.log.WarnContext(ctx, "provider_response", attrs...)
	default:
		c.log.DebugContext(ctx, "provider_response", attrs...)
	}
}

func (c *TracedClient) buildAuditLog(correlationID, operation string, req *http.Request, resp *http.Response, err error, duration time.Duration, body []byte) audit.ProviderAuditLog {
	entry := audit.ProviderAuditLog{
		CorrelationID:  correlationID,
		Provider:       c.provider,
		Operation:      operation,
		RequestMethod:  req.Method,
		RequestURL:     security.SanitizeURL(req.URL.String()),
		RequestHeaders: security.SanitizeHeaders(req.Header),
		DurationMs:     duration.Milliseconds(),
	}
	if resp != nil {
		status := resp.StatusCode
		entry.ResponseStatus = &status
		entry.ResponseHeaders = security.SanitizeHeaders(resp.Header)
		entry.ResponseBody = security.SanitizeBody(body, c.maxBodySize)
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}
	return entry
}

// persistAuditLog saves the audit record independently of the request lifecycle.
func (c *TracedClient) persistAuditLog(entry audit.ProviderAuditLog) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Panic in audit log persistence",
				"panic", r,
				"correlation_id", entry.CorrelationID,
				"provider", c.provider,
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.auditRepo.Save(ctx, entry); err != nil {
		c.log.Error("Failed to persist audit log",
			"error", err,
			"correlation_id", entry.CorrelationID,
			"provider", c.provider,
			"operation", entry.Operation,
		)
	}
}

// extractOperation derives an operation name from the last meaningful path
// segment. It is the fallback when the caller did not name the operation.
func (c *TracedClient) extractOperation(req *http.Request) string {
	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	if last := parts[len(parts)-1]; last != "" {
		return strings.ToUpper(last[:1]) + last[1:]
	}
	return fmt.Sprintf("%s_%s", req.Method, c.provider)
}

// Client returns the underlying HTTP client.
func (c *TracedClient) Client() *http.Client {
	return c.client
}
