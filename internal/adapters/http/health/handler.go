package health

import (
	"log/slog"
	"net/http"

	apphealth "3tcapital/ms_consulta_ibge/internal/application/health"
	httpinfra "3tcapital/ms_consulta_ibge/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the health application service.
type Handler struct {
	service *apphealth.Service
	log     *slog.Logger
}

func NewHandler(service *apphealth.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Status always answers 200; a DEGRADED body still means the process serves requests.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	httpinfra.WriteJSON(w, http.StatusOK, h.service.Status(r.Context()), h.log)
}
