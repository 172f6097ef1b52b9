package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"3tcapital/ms_consulta_ibge/internal/core/postal"
	ctxutil "3tcapital/ms_consulta_ibge/internal/infrastructure/context"
	httpinfra "3tcapital/ms_consulta_ibge/internal/infrastructure/http"
)

// ViaCEPBaseURL is the public ViaCEP web service root.
const ViaCEPBaseURL = "https://viacep.com.br/ws"

// Client implements postal.Service against ViaCEP.
type Client struct {
	baseURL string
	client  httpinfra.Doer
	log     *slog.Logger
}

// NewClient creates a new ViaCEP HTTP client.
// If baseURL is empty, uses the public ViaCEP endpoint.
func NewClient(baseURL string, httpClient httpinfra.Doer, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = ViaCEPBaseURL
	}
	if httpClient == nil {
		httpClient = httpinfra.NewClient(nil)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		log:     log,
	}
}

// viaCEPResponse holds the fields we read.
type viaCEPResponse struct {
	CEP        string `json:"cep"`
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`
}

// erroKey marks an unknown CEP. Its presence is what counts: ViaCEP has sent
// it as true, as "true" and with other values over time.
const erroKey = "erro"

// LookupPostalCode queries ViaCEP for a normalized 8-digit CEP.
// Any failure (transport, status, decoding or the erro marker) is reported
// as postal.ErrNotFound wrapping the cause.
func (c *Client) LookupPostalCode(ctx context.Context, postalCode string) (*postal.Address, error) {
	if len(postalCode) != postal.PostalCodeLength {
		return nil, postal.ErrInvalidPostalCode
	}

	ctx = ctxutil.WithOperation(ctx, "LookupPostalCode")
	apiURL := fmt.Sprintf("%s/%s/json/", c.baseURL, postalCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", postal.ErrNotFound, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("Error consulting ViaCEP", "error", err, "cep", postalCode)
		return nil, fmt.Errorf("%w: request failed: %v", postal.ErrNotFound, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.log.Debug("ViaCEP returned non-success status", "status", resp.StatusCode, "cep", postalCode)
		return nil, fmt.Errorf("%w: status %d", postal.ErrNotFound, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", postal.ErrNotFound, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		c.log.Debug("Failed to parse ViaCEP response", "error", err, "cep", postalCode)
		return nil, fmt.Errorf("%w: decode response: %v", postal.ErrNotFound, err)
	}
	if _, ok := fields[erroKey]; ok {
		return nil, postal.ErrNotFound
	}

	var payload viaCEPResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		c.log.Debug("Failed to parse ViaCEP response", "error", err, "cep", postalCode)
		return nil, fmt.Errorf("%w: decode response: %v", postal.ErrNotFound, err)
	}
	if payload.Localidade == "" || payload.UF == "" {
		return nil, fmt.Errorf("%w: incomplete address", postal.ErrNotFound)
	}

	return &postal.Address{
		PostalCode: postalCode,
		City:       payload.Localidade,
		StateCode:  payload.UF,
	}, nil
}

var _ postal.Service = (*Client)(nil)
