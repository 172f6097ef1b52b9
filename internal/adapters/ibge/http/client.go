package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"3tcapital/ms_consulta_ibge/internal/core/municipality"
	ctxutil "3tcapital/ms_consulta_ibge/internal/infrastructure/context"
	httpinfra "3tcapital/ms_consulta_ibge/internal/infrastructure/http"
)

// IBGEBaseURL lists every Brazilian municipality in a single response.
const IBGEBaseURL = "https://servicodados.ibge.gov.br/api/v1/localidades/municipios"

// Client implements municipality.Source against the IBGE localidades API.
type Client struct {
	baseURL string
	client  httpinfra.Doer
	log     *slog.Logger
}

// NewClient creates a new IBGE HTTP client.
// If baseURL is empty, uses the public IBGE endpoint. A nil httpClient gets
// a plain client with the infrastructure default timeout.
func NewClient(baseURL string, httpClient httpinfra.Doer, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = IBGEBaseURL
	}
	if httpClient == nil {
		httpClient = httpinfra.NewClient(nil)
	}

	return &Client{
		baseURL: baseURL,
		client:  httpClient,
		log:     log,
	}
}

// ibgeMunicipio mirrors the fields we read from the IBGE payload. The region
// chain is made of pointers because IBGE returns null for some levels.
type ibgeMunicipio struct {
	ID           int    `json:"id"`
	Nome         string `json:"nome"`
	Microrregiao *struct {
		Mesorregiao *struct {
			UF *struct {
				Sigla string `json:"sigla"`
			} `json:"UF"`
		} `json:"mesorregiao"`
	} `json:"microrregiao"`
}

func (m ibgeMunicipio) stateCode() string {
	if m.Microrregiao == nil || m.Microrregiao.Mesorregiao == nil || m.Microrregiao.Mesorregiao.UF == nil {
		return ""
	}
	return m.Microrregiao.Mesorregiao.UF.Sigla
}

// FetchMunicipalities downloads the full catalog in upstream order.
// Every failure wraps municipality.ErrCatalogUnavailable.
func (c *Client) FetchMunicipalities(ctx context.Context) ([]municipality.Municipality, error) {
	ctx = ctxutil.WithOperation(ctx, "FetchMunicipalities")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", municipality.ErrCatalogUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug("Fetching IBGE municipality catalog", "url", c.baseURL)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("Error consulting IBGE API", "error", err)
		return nil, fmt.Errorf("%w: request failed: %v", municipality.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.log.Warn("IBGE API returned non-success status", "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", municipality.ErrCatalogUnavailable, resp.StatusCode)
	}

	var payload []ibgeMunicipio
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Warn("Failed to parse IBGE API response", "error", err)
		return nil, fmt.Errorf("%w: decode response: %v", municipality.ErrCatalogUnavailable, err)
	}

	municipalities := make([]municipality.Municipality, 0, len(payload))
	missingState := 0
	for _, item := range payload {
		uf := item.stateCode()
		if uf == "" {
			missingState++
		}
		municipalities = append(municipalities, municipality.Municipality{
			ID:        item.ID,
			Name:      item.Nome,
			StateCode: uf,
		})
	}

	c.log.Debug("Retrieved IBGE municipality catalog",
		"municipios", len(municipalities),
		"sem_uf", missingState)

	return municipalities, nil
}

var _ municipality.Source = (*Client)(nil)
