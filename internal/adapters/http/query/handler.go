package query

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"3tcapital/ms_consulta_ibge/internal/core/municipality"
	"3tcapital/ms_consulta_ibge/internal/core/postal"
	"3tcapital/ms_consulta_ibge/internal/core/query"
	"3tcapital/ms_consulta_ibge/internal/core/text"
	httpinfra "3tcapital/ms_consulta_ibge/internal/infrastructure/http"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// Executor runs a multi-line query.
type Executor interface {
	Execute(ctx context.Context, req query.Request) (query.Response, error)
}

// PostalResolver resolves a single raw CEP.
type PostalResolver interface {
	Resolve(ctx context.Context, rawPostalCode string) (postal.Address, error)
}

// Matcher resolves a city name with an optional UF.
type Matcher interface {
	Resolve(ctx context.Context, cityName, stateCode string) municipality.Match
}

// Handler bridges HTTP traffic with the query, postal and matcher services.
type Handler struct {
	queries      Executor
	postal       PostalResolver
	matcher      Matcher
	maxBodyBytes int64
	log          *slog.Logger
}

// NewHandler creates a new query HTTP handler. A non-positive maxBodyBytes
// uses DefaultMaxBodyBytes.
func NewHandler(queries Executor, postalResolver PostalResolver, matcher Matcher, maxBodyBytes int64, log *slog.Logger) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		queries:      queries,
		postal:       postalResolver,
		matcher:      matcher,
		maxBodyBytes: maxBodyBytes,
		log:          log,
	}
}

// Routes mounts the handler endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/consultas", h.Query)
	r.Get("/cep/{cep}", h.PostalCode)
	r.Get("/municipios", h.Municipalities)
}

// Query handles POST /api/v1/consultas with a JSON or form body.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	req, status, err := h.decodeQuery(w, r)
	if err != nil {
		h.log.WarnContext(r.Context(), "Invalid query request", "error", err, "status", status)
		httpinfra.WriteError(w, status, "Requisição inválida", []string{err.Error()}, h.log)
		return
	}

	resp, err := h.queries.Execute(r.Context(), req)
	if err != nil {
		if errors.Is(err, query.ErrNoInput) {
			httpinfra.WriteError(w, http.StatusBadRequest, query.MessageNoInput, []string{}, h.log)
			return
		}
		h.log.ErrorContext(r.Context(), "Query failed", "error", err)
		httpinfra.WriteError(w, http.StatusInternalServerError, "Erro interno do servidor", []string{"Ocorreu um erro interno"}, h.log)
		return
	}

	httpinfra.WriteJSON(w, http.StatusOK, resp, h.log)
}

// queryBody is the JSON form of a query. Each list accepts either one
// multi-line string or an array of lines.
type queryBody struct {
	PostalCodes lines  `json:"cep"`
	Cities      lines  `json:"cidades"`
	State       string `json:"estado"`
}

type lines string

func (l *lines) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = lines(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("expected a string or an array of strings")
	}
	*l = lines(strings.Join(many, "\n"))
	return nil
}

func (h *Handler) decodeQuery(w http.ResponseWriter, r *http.Request) (query.Request, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var body queryBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return query.Request{}, statusForBodyError(err), err
		}
		return query.Request{
			PostalCodes: string(body.PostalCodes),
			Cities:      string(body.Cities),
			State:       body.State,
		}, 0, nil

	case "application/x-www-form-urlencoded", "multipart/form-data":
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(h.maxBodyBytes)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			return query.Request{}, statusForBodyError(err), err
		}
		return query.Request{
			PostalCodes: r.PostFormValue("cep"),
			Cities:      r.PostFormValue("cidade"),
			State:       r.PostFormValue("estado"),
		}, 0, nil

	default:
		return query.Request{}, http.StatusUnsupportedMediaType, errors.New("unsupported content type " + mediaType)
	}
}

func statusForBodyError(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

type postalCodeResponse struct {
	CEP       string `json:"cep"`
	City      string `json:"cidade"`
	StateCode string `json:"uf"`
	Code      int    `json:"codigo,omitempty"`
}

// PostalCode handles GET /api/v1/cep/{cep}.
func (h *Handler) PostalCode(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "cep")

	addr, err := h.postal.Resolve(r.Context(), raw)
	switch {
	case errors.Is(err, postal.ErrInvalidPostalCode):
		httpinfra.WriteError(w, http.StatusUnprocessableEntity, "CEP inválido", []string{"O CEP deve conter 8 dígitos"}, h.log)
		return
	case err != nil:
		httpinfra.WriteError(w, http.StatusNotFound, "CEP não encontrado", []string{query.ReasonPostalCodeNotFound}, h.log)
		return
	}

	resp := postalCodeResponse{CEP: addr.PostalCode, City: addr.City, StateCode: strings.ToUpper(addr.StateCode)}
	if match := h.matcher.Resolve(r.Context(), addr.City, addr.StateCode); match.Kind == municipality.MatchResolved {
		resp.Code = match.Code
	}

	httpinfra.WriteJSON(w, http.StatusOK, resp, h.log)
}

type municipalityResponse struct {
	Status     string                   `json:"status"`
	Code       int                      `json:"codigo,omitempty"`
	Candidates []municipality.Candidate `json:"multiplos,omitempty"`
}

// Municipalities handles GET /api/v1/municipios?nome=&uf=.
// Without uf, a trailing UF in nome is honoured as in city queries.
func (h *Handler) Municipalities(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("nome"))
	state := strings.TrimSpace(r.URL.Query().Get("uf"))
	if name == "" {
		httpinfra.WriteError(w, http.StatusBadRequest, "Erro de validação", []string{"O parâmetro nome é obrigatório"}, h.log)
		return
	}
	if state == "" {
		if n, uf, ok := text.SplitNameAndState(name); ok {
			name, state = n, uf
		}
	}

	match := h.matcher.Resolve(r.Context(), name, state)
	if match.Kind == municipality.MatchNotFound {
		httpinfra.WriteError(w, http.StatusNotFound, query.ReasonCityNotFound, []string{}, h.log)
		return
	}

	httpinfra.WriteJSON(w, http.StatusOK, municipalityResponse{
		Status:     match.Kind.String(),
		Code:       match.Code,
		Candidates: match.Candidates,
	}, h.log)
}
