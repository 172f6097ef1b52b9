package query

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"3tcapital/ms_consulta_ibge/internal/core/municipality"
	"3tcapital/ms_consulta_ibge/internal/core/postal"
	"3tcapital/ms_consulta_ibge/internal/core/query"
	"3tcapital/ms_consulta_ibge/internal/testutil"
)

type stubExecutor struct {
	got  query.Request
	resp query.Response
	err  error
}

func (s *stubExecutor) Execute(_ context.Context, req query.Request) (query.Response, error) {
	s.got = req
	return s.resp, s.err
}

type stubPostal struct {
	addr postal.Address
	err  error
	got  string
}

func (s *stubPostal) Resolve(_ context.Context, raw string) (postal.Address, error) {
	s.got = raw
	return s.addr, s.err
}

type stubMatcher struct {
	match    municipality.Match
	gotCity  string
	gotState string
}

func (s *stubMatcher) Resolve(_ context.Context, city, state string) municipality.Match {
	s.gotCity, s.gotState = city, state
	return s.match
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1", h.Routes)
	return r
}

func TestHandler_Query_JSON(t *testing.T) {
	exec := &stubExecutor{resp: query.Response{
		Mode:    query.ModePostalCode,
		Results: []query.Result{query.Resolved("São Paulo", "SP", 3550308)},
	}}
	h := NewHandler(exec, &stubPostal{}, &stubMatcher{}, 0, testutil.NewNullLogger())

	req := testutil.CreateRequest(http.MethodPost, "/api/v1/consultas", map[string]any{
		"cep":     []string{"01310-930", "79290000"},
		"cidades": "Bonito",
		"estado":  "ms",
	}, nil)
	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, req)

	var resp query.Response
	testutil.ReadJSONResponse(t, w, &resp)

	assert.Equal(t, query.Request{PostalCodes: "01310-930\n79290000", Cities: "Bonito", State: "ms"}, exec.got)
	assert.Equal(t, query.ModePostalCode, resp.Mode)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 3550308, resp.Results[0].Code)
}

func TestHandler_Query_ResponseShape(t *testing.T) {
	exec := &stubExecutor{resp: query.Response{
		Mode: query.ModeCity,
		Results: []query.Result{
			query.Ambiguous("Bonito", []municipality.Candidate{{Code: 5002209, Name: "Bonito", StateCode: "MS"}}),
			query.Failed("Atlântida", query.ReasonCityNotFound),
		},
	}}
	h := NewHandler(exec, &stubPostal{}, &stubMatcher{}, 0, testutil.NewNullLogger())

	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, testutil.CreateRequest(http.MethodPost, "/api/v1/consultas", map[string]any{"cidades": "Bonito\nAtlântida"}, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"modo": "cidade",
		"resultados": [
			{"input": "Bonito", "status": "ambiguous", "multiplos": [{"codigo": 5002209, "nome": "Bonito", "uf": "MS"}]},
			{"input": "Atlântida", "status": "failed", "erro": "Cidade não encontrada"}
		]
	}`, w.Body.String())
}

func TestHandler_Query_Form(t *testing.T) {
	exec := &stubExecutor{resp: query.Response{Mode: query.ModeCity}}
	h := NewHandler(exec, &stubPostal{}, &stubMatcher{}, 0, testutil.NewNullLogger())

	form := url.Values{}
	form.Set("cep", "")
	form.Set("cidade", "Florianópolis SC\nBonito")
	form.Set("estado", "MS")

	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, testutil.CreateFormRequest(http.MethodPost, "/api/v1/consultas", form))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, query.Request{Cities: "Florianópolis SC\nBonito", State: "MS"}, exec.got)
}

func TestHandler_Query_NoInput(t *testing.T) {
	exec := &stubExecutor{err: query.ErrNoInput}
	h := NewHandler(exec, &stubPostal{}, &stubMatcher{}, 0, testutil.NewNullLogger())

	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, testutil.CreateRequest(http.MethodPost, "/api/v1/consultas", map[string]any{}, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := testutil.ReadErrorResponse(t, w)
	assert.Equal(t, query.MessageNoInput, body["message"])
	assert.NotContains(t, body, "resultados")
}

func TestHandler_Query_RequestErrors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		maxBytes    int64
		expected    int
	}{
		{"malformed json", "application/json", `{"cep": `, 0, http.StatusBadRequest},
		{"wrong json type", "application/json", `{"cep": 123}`, 0, http.StatusBadRequest},
		{"unsupported content type", "text/plain", `01310930`, 0, http.StatusUnsupportedMediaType},
		{"body too large", "application/json", `{"cidades": "` + strings.Repeat("a", 64) + `"}`, 16, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &stubExecutor{}
			h := NewHandler(exec, &stubPostal{}, &stubMatcher{}, tt.maxBytes, testutil.NewNullLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/consultas", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			newRouter(h).ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestHandler_Query_UnexpectedError(t *testing.T) {
	exec := &stubExecutor{err: errors.New("boom")}
	h := NewHandler(exec, &stubPostal{}, &stubMatcher{}, 0, testutil.NewNullLogger())

	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, testutil.CreateRequest(http.MethodPost, "/api/v1/consultas", map[string]any{"cep": "01310930"}, nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandler_PostalCode(t *testing.T) {
	tests := []struct {
		name         string
		postal       *stubPostal
		match        municipality.Match
		expectedCode int
		expectedBody string
	}{
		{
			name:         "resolved with ibge code",
			postal:       &stubPostal{addr: postal.Address{PostalCode: "01310930", City: "São Paulo", StateCode: "SP"}},
			match:        municipality.Match{Kind: municipality.MatchResolved, Code: 3550308},
			expectedCode: http.StatusOK,
			expectedBody: `{"cep":"01310930","cidade":"São Paulo","uf":"SP","codigo":3550308}`,
		},
		{
			name:         "resolved without ibge code",
			postal:       &stubPostal{addr: postal.Address{PostalCode: "70000000", City: "Cidade Nova", StateCode: "DF"}},
			match:        municipality.Match{Kind: municipality.MatchNotFound},
			expectedCode: http.StatusOK,
			expectedBody: `{"cep":"70000000","cidade":"Cidade Nova","uf":"DF"}`,
		},
		{
			name:         "invalid postal code",
			postal:       &stubPostal{err: postal.ErrInvalidPostalCode},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name:         "not found",
			postal:       &stubPostal{err: postal.ErrNotFound},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&stubExecutor{}, tt.postal, &stubMatcher{match: tt.match}, 0, testutil.NewNullLogger())

			w := httptest.NewRecorder()
			newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cep/01310-930", nil))

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, "01310-930", tt.postal.got)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestHandler_Municipalities(t *testing.T) {
	t.Run("ambiguous", func(t *testing.T) {
		matcher := &stubMatcher{match: municipality.Match{Kind: municipality.MatchAmbiguous, Candidates: []municipality.Candidate{
			{Code: 5002209, Name: "Bonito", StateCode: "MS"},
			{Code: 1501709, Name: "Bonito", StateCode: "PA"},
		}}}
		h := NewHandler(&stubExecutor{}, &stubPostal{}, matcher, 0, testutil.NewNullLogger())

		w := httptest.NewRecorder()
		newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/municipios?nome=Bonito", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ambiguous","multiplos":[{"codigo":5002209,"nome":"Bonito","uf":"MS"},{"codigo":1501709,"nome":"Bonito","uf":"PA"}]}`, w.Body.String())
		assert.Equal(t, "", matcher.gotState)
	})

	t.Run("suffix used when uf is absent", func(t *testing.T) {
		matcher := &stubMatcher{match: municipality.Match{Kind: municipality.MatchResolved, Code: 4205407}}
		h := NewHandler(&stubExecutor{}, &stubPostal{}, matcher, 0, testutil.NewNullLogger())

		w := httptest.NewRecorder()
		newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/municipios?nome="+url.QueryEscape("Florianópolis/sc"), nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"resolved","codigo":4205407}`, w.Body.String())
		assert.Equal(t, "Florianópolis", matcher.gotCity)
		assert.Equal(t, "SC", matcher.gotState)
	})

	t.Run("explicit uf", func(t *testing.T) {
		matcher := &stubMatcher{match: municipality.Match{Kind: municipality.MatchResolved, Code: 1501709}}
		h := NewHandler(&stubExecutor{}, &stubPostal{}, matcher, 0, testutil.NewNullLogger())

		w := httptest.NewRecorder()
		newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/municipios?nome=Bonito&uf=pa", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Bonito", matcher.gotCity)
		assert.Equal(t, "pa", matcher.gotState)
	})

	t.Run("not found", func(t *testing.T) {
		h := NewHandler(&stubExecutor{}, &stubPostal{}, &stubMatcher{}, 0, testutil.NewNullLogger())

		w := httptest.NewRecorder()
		newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/municipios?nome=Atlantida", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing name", func(t *testing.T) {
		h := NewHandler(&stubExecutor{}, &stubPostal{}, &stubMatcher{}, 0, testutil.NewNullLogger())

		w := httptest.NewRecorder()
		newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/municipios?nome=%20", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
