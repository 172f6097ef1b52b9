package matcher

import (
	"context"
	"strings"

	"3tcapital/ms_consulta_ibge/internal/core/municipality"
	"3tcapital/ms_consulta_ibge/internal/core/text"
)

// Catalog is the read side of the municipality catalog.
type Catalog interface {
	Lookup(ctx context.Context, normalizedName string) []municipality.Municipality
}

// Service resolves city names to IBGE codes.
type Service struct {
	catalog Catalog
}

func NewService(catalog Catalog) *Service {
	return &Service{catalog: catalog}
}

// Resolve matches cityName against the catalog.
//
// With a state code, the first candidate in catalog order whose UF matches
// (case-insensitively) wins; no match is MatchNotFound. Without one, every
// candidate is returned as MatchAmbiguous, even when there is only one.
func (s *Service) Resolve(ctx context.Context, cityName, stateCode string) municipality.Match {
	candidates := s.catalog.Lookup(ctx, text.Normalize(strings.TrimSpace(cityName)))

	stateCode = strings.TrimSpace(stateCode)
	if stateCode != "" {
		for _, c := range candidates {
			if strings.EqualFold(c.StateCode, stateCode) {
				return municipality.Match{Kind: municipality.MatchResolved, Code: c.ID}
			}
		}
		return municipality.Match{Kind: municipality.MatchNotFound}
	}

	if len(candidates) == 0 {
		return municipality.Match{Kind: municipality.MatchNotFound}
	}

	options := make([]municipality.Candidate, 0, len(candidates))
	for _, c := range candidates {
		options = append(options, municipality.Candidate{
			Code:      c.ID,
			Name:      c.Name,
			StateCode: strings.ToUpper(c.StateCode),
		})
	}
	return municipality.Match{Kind: municipality.MatchAmbiguous, Candidates: options}
}
