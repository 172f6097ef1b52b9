package audit

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"3tcapital/ms_consulta_ibge/internal/core/audit"
	httpinfra "3tcapital/ms_consulta_ibge/internal/infrastructure/http"
)

// Finder reads the upstream audit trail.
type Finder interface {
	FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.ProviderAuditLog, error)
}

// Handler exposes the upstream calls made on behalf of a request.
type Handler struct {
	finder Finder
	log    *slog.Logger
}

func NewHandler(finder Finder, log *slog.Logger) *Handler {
	return &Handler{finder: finder, log: log}
}

// Routes mounts the handler endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/auditoria/{correlationID}", h.ByCorrelationID)
}

type entryResponse struct {
	Provider       string    `json:"provider"`
	Operation      string    `json:"operation"`
	Method         string    `json:"method"`
	URL            string    `json:"url"`
	ResponseStatus *int      `json:"responseStatus,omitempty"`
	DurationMs     int64     `json:"durationMs"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type trailResponse struct {
	CorrelationID string          `json:"correlationId"`
	Calls         []entryResponse `json:"calls"`
}

// ByCorrelationID handles GET /api/v1/auditoria/{correlationID}.
func (h *Handler) ByCorrelationID(w http.ResponseWriter, r *http.Request) {
	correlationID := strings.TrimSpace(chi.URLParam(r, "correlationID"))
	if correlationID == "" {
		httpinfra.WriteError(w, http.StatusBadRequest, "Erro de validação", []string{"correlationID é obrigatório"}, h.log)
		return
	}

	logs, err := h.finder.FindByCorrelationID(r.Context(), correlationID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "Failed to read audit trail", "error", err, "correlation_id", correlationID)
		httpinfra.WriteError(w, http.StatusInternalServerError, "Erro interno do servidor", []string{"Ocorreu um erro interno"}, h.log)
		return
	}
	if len(logs) == 0 {
		httpinfra.WriteError(w, http.StatusNotFound, "Nenhuma chamada registrada", []string{}, h.log)
		return
	}

	resp := trailResponse{CorrelationID: correlationID, Calls: make([]entryResponse, 0, len(logs))}
	for _, l := range logs {
		resp.Calls = append(resp.Calls, entryResponse{
			Provider:       l.Provider,
			Operation:      l.Operation,
			Method:         l.RequestMethod,
			URL:            l.RequestURL,
			ResponseStatus: l.ResponseStatus,
			DurationMs:     l.DurationMs,
			Error:          l.ErrorMessage,
			CreatedAt:      l.CreatedAt,
		})
	}
	httpinfra.WriteJSON(w, http.StatusOK, resp, h.log)
}
