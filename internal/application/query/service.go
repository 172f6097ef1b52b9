package query

import (
	"context"
	"log/slog"
	"strings"

	"3tcapital/ms_consulta_ibge/internal/core/municipality"
	"3tcapital/ms_consulta_ibge/internal/core/postal"
	"3tcapital/ms_consulta_ibge/internal/core/query"
	"3tcapital/ms_consulta_ibge/internal/core/text"
)

// BatchResolver resolves many CEPs, preserving input order.
type BatchResolver interface {
	ResolveAll(ctx context.Context, postalCodes []string) []postal.BatchEntry
}

// Matcher resolves a city name with an optional UF.
type Matcher interface {
	Resolve(ctx context.Context, cityName, stateCode string) municipality.Match
}

// Service answers multi-line CEP and city queries.
type Service struct {
	batch   BatchResolver
	matcher Matcher
	log     *slog.Logger
}

func NewService(batch BatchResolver, matcher Matcher, log *slog.Logger) *Service {
	return &Service{batch: batch, matcher: matcher, log: log}
}

// Execute resolves every usable line of req.
//
// CEP lines take priority: when at least one yields digits, city lines are
// ignored. The only error is query.ErrNoInput, returned when neither list
// has a usable line; per-line failures are reported in the results.
func (s *Service) Execute(ctx context.Context, req query.Request) (query.Response, error) {
	if postalCodes := PostalCodeLines(req.PostalCodes); len(postalCodes) > 0 {
		results := s.byPostalCode(ctx, postalCodes)
		s.log.InfoContext(ctx, "Query resolved", "modo", query.ModePostalCode, "linhas", len(results))
		return query.Response{Mode: query.ModePostalCode, Results: results}, nil
	}

	if cities := CityLines(req.Cities); len(cities) > 0 {
		state := strings.ToUpper(strings.TrimSpace(req.State))
		results := s.byCity(ctx, cities, state)
		s.log.InfoContext(ctx, "Query resolved", "modo", query.ModeCity, "linhas", len(results))
		return query.Response{Mode: query.ModeCity, Results: results}, nil
	}

	return query.Response{}, query.ErrNoInput
}

func (s *Service) byPostalCode(ctx context.Context, postalCodes []string) []query.Result {
	entries := s.batch.ResolveAll(ctx, postalCodes)

	results := make([]query.Result, 0, len(entries))
	for _, entry := range entries {
		if !entry.Found() {
			results = append(results, query.Failed("CEP "+entry.PostalCode, query.ReasonPostalCodeNotFound))
			continue
		}

		label := entry.City + " " + entry.StateCode
		match := s.matcher.Resolve(ctx, entry.City, entry.StateCode)
		switch match.Kind {
		case municipality.MatchResolved:
			results = append(results, query.Resolved(entry.City, strings.ToUpper(entry.StateCode), match.Code))
		case municipality.MatchAmbiguous:
			results = append(results, query.Ambiguous(label, match.Candidates))
		default:
			results = append(results, query.Failed(label, query.ReasonCityForPostalCode))
		}
	}
	return results
}

func (s *Service) byCity(ctx context.Context, cities []string, globalState string) []query.Result {
	results := make([]query.Result, 0, len(cities))
	for _, line := range cities {
		name, state, ok := text.SplitNameAndState(line)
		if !ok {
			state = globalState
		}

		match := s.matcher.Resolve(ctx, name, state)
		switch match.Kind {
		case municipality.MatchResolved:
			results = append(results, query.Resolved(name, strings.ToUpper(state), match.Code))
		case municipality.MatchAmbiguous:
			results = append(results, query.Ambiguous(line, match.Candidates))
		default:
			results = append(results, query.Failed(line, query.ReasonCityNotFound))
		}
	}
	return results
}

// PostalCodeLines splits raw input into lines, keeps only their digits and
// drops lines left empty. Length is not checked here.
func PostalCodeLines(raw string) []string {
	var codes []string
	for _, line := range splitLines(raw) {
		if digits := postal.DigitsOnly(line); digits != "" {
			codes = append(codes, digits)
		}
	}
	return codes
}

// CityLines splits raw input into trimmed, non-empty lines.
func CityLines(raw string) []string {
	var cities []string
	for _, line := range splitLines(raw) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			cities = append(cities, trimmed)
		}
	}
	return cities
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	return strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == '\r' })
}
