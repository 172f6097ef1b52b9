package query

import (
	"errors"

	"3tcapital/ms_consulta_ibge/internal/core/municipality"
)

// ErrNoInput is returned when neither postal codes nor city names yield a
// usable line.
var ErrNoInput = errors.New("no postal code or city supplied")

// MessageNoInput is the user-facing text for ErrNoInput.
const MessageNoInput = "Por favor, informe ao menos um CEP ou uma cidade para consultar."

// Failure reasons rendered for per-line results.
const (
	ReasonPostalCodeNotFound = "CEP não encontrado ou inválido."
	ReasonCityForPostalCode  = "Cidade ou IBGE não encontrado para esse CEP."
	ReasonCityNotFound       = "Cidade não encontrada"
)

// Status discriminates the three result variants.
type Status string

const (
	StatusResolved  Status = "resolved"
	StatusAmbiguous Status = "ambiguous"
	StatusFailed    Status = "failed"
)

// Mode tells which input list a query was answered from.
type Mode string

const (
	ModePostalCode Mode = "cep"
	ModeCity       Mode = "cidade"
)

// Request carries the raw multi-line inputs of a query.
type Request struct {
	PostalCodes string // one CEP per line
	Cities      string // one city per line, optionally suffixed with a UF
	State       string // UF applied to city lines without their own suffix
}

// Result is the outcome for one input line.
//
// Resolved carries StateCode and Code, Ambiguous carries Candidates and
// Failed carries Reason.
type Result struct {
	Input      string                   `json:"input"`
	Status     Status                   `json:"status"`
	StateCode  string                   `json:"uf,omitempty"`
	Code       int                      `json:"codigo,omitempty"`
	Candidates []municipality.Candidate `json:"multiplos,omitempty"`
	Reason     string                   `json:"erro,omitempty"`
}

// Response groups the per-line results of a query.
type Response struct {
	Mode    Mode     `json:"modo"`
	Results []Result `json:"resultados"`
}

// Resolved builds a resolved result.
func Resolved(input, stateCode string, code int) Result {
	return Result{Input: input, Status: StatusResolved, StateCode: stateCode, Code: code}
}

// Ambiguous builds a result listing every candidate.
func Ambiguous(input string, candidates []municipality.Candidate) Result {
	return Result{Input: input, Status: StatusAmbiguous, Candidates: candidates}
}

// Failed builds a failed result.
func Failed(input, reason string) Result {
	return Result{Input: input, Status: StatusFailed, Reason: reason}
}
