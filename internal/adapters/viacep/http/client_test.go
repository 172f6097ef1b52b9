package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"3tcapital/ms_consulta_ibge/internal/core/postal"
	ctxutil "3tcapital/ms_consulta_ibge/internal/infrastructure/context"
	httpinfra "3tcapital/ms_consulta_ibge/internal/infrastructure/http"
	"3tcapital/ms_consulta_ibge/internal/testutil"
)

func TestClient_LookupPostalCode(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cep":"01310-930","logradouro":"Avenida Paulista","localidade":"São Paulo","uf":"SP","ibge":"3550308"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/ws/", server.Client(), testutil.NewNullLogger())

	addr, err := client.LookupPostalCode(context.Background(), "01310930")
	require.NoError(t, err)
	assert.Equal(t, "/ws/01310930/json/", gotPath)
	assert.Equal(t, &postal.Address{PostalCode: "01310930", City: "São Paulo", StateCode: "SP"}, addr)
}

func TestClient_LookupPostalCode_NotFound(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"erro boolean marker", http.StatusOK, `{"erro": true}`},
		{"erro string marker", http.StatusOK, `{"erro": "true"}`},
		{"missing uf", http.StatusOK, `{"cep":"01310-930","localidade":"São Paulo"}`},
		{"missing localidade", http.StatusOK, `{"cep":"01310-930","uf":"SP"}`},
		{"bad request", http.StatusBadRequest, `<html>Bad Request</html>`},
		{"server error", http.StatusServiceUnavailable, ``},
		{"malformed json", http.StatusOK, `{"localidade":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, server.Client(), testutil.NewNullLogger())

			addr, err := client.LookupPostalCode(context.Background(), "99999999")
			assert.ErrorIs(t, err, postal.ErrNotFound)
			assert.Nil(t, addr)
		})
	}
}

func TestClient_LookupPostalCode_ErroKeyPresenceIsNotFound(t *testing.T) {
	bodies := map[string]string{
		"bool true":    `{"erro":true}`,
		"string true":  `{"erro":"true"}`,
		"bool false":   `{"localidade":"Bonito","uf":"MS","erro":false}`,
		"null":         `{"localidade":"Bonito","uf":"MS","erro":null}`,
		"empty string": `{"localidade":"Bonito","uf":"MS","erro":""}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer server.Close()

			client := NewClient(server.URL, server.Client(), testutil.NewNullLogger())

			addr, err := client.LookupPostalCode(context.Background(), "79290000")
			assert.ErrorIs(t, err, postal.ErrNotFound)
			assert.Nil(t, addr)
		})
	}
}

// operationRecorder captures the operation named on outgoing requests.
type operationRecorder struct {
	operation string
	next      *http.Client
}

func (o *operationRecorder) Do(req *http.Request) (*http.Response, error) {
	o.operation = ctxutil.GetOperation(req.Context())
	return o.next.Do(req)
}

func TestClient_LookupPostalCode_NamesOperation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"cep":"01310-930","localidade":"São Paulo","uf":"SP"}`))
	}))
	defer server.Close()

	recorder := &operationRecorder{next: server.Client()}
	client := NewClient(server.URL, recorder, testutil.NewNullLogger())

	_, err := client.LookupPostalCode(context.Background(), "01310930")
	require.NoError(t, err)
	assert.Equal(t, "LookupPostalCode", recorder.operation)
}

func TestClient_LookupPostalCode_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	httpClient := httpinfra.NewClient(&httpinfra.ClientConfig{Timeout: 50 * time.Millisecond})
	client := NewClient(server.URL, httpClient, testutil.NewNullLogger())

	_, err := client.LookupPostalCode(context.Background(), "01310930")
	assert.ErrorIs(t, err, postal.ErrNotFound)
}

func TestClient_LookupPostalCode_InvalidLengthSkipsUpstream(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), testutil.NewNullLogger())

	_, err := client.LookupPostalCode(context.Background(), "123")
	assert.ErrorIs(t, err, postal.ErrInvalidPostalCode)
	assert.Zero(t, calls.Load())
}
