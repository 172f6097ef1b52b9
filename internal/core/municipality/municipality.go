package municipality

import (
	"context"
	"errors"
)

// ErrCatalogUnavailable is returned by a Source when the upstream catalog
// cannot be fetched or decoded.
var ErrCatalogUnavailable = errors.New("municipality catalog unavailable")

// Municipality is an entry of the IBGE municipality catalog.
// StateCode is the two-letter UF and may be empty when the upstream record
// does not carry it.
type Municipality struct {
	ID        int    // Código IBGE (7 dígitos, e.g., 3550308)
	Name      string // Nome oficial (e.g., "São Paulo")
	StateCode string // Sigla da UF (e.g., "SP")
}

// Source defines the contract for fetching the full municipality list.
type Source interface {
	// FetchMunicipalities returns every municipality in upstream order.
	FetchMunicipalities(ctx context.Context) ([]Municipality, error)
}

// Candidate is one option of an ambiguous match.
type Candidate struct {
	Code      int    `json:"codigo"`
	Name      string `json:"nome"`
	StateCode string `json:"uf"`
}

// MatchKind tells which branch of the disambiguation rules produced a Match.
type MatchKind int

const (
	MatchNotFound MatchKind = iota
	MatchResolved
	MatchAmbiguous
)

func (k MatchKind) String() string {
	switch k {
	case MatchResolved:
		return "resolved"
	case MatchAmbiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// Match is the outcome of resolving a city name against the catalog.
// Code is set for MatchResolved, Candidates for MatchAmbiguous.
type Match struct {
	Kind       MatchKind
	Code       int
	Candidates []Candidate
}
