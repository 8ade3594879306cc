package http

import (
	"encoding/json"
	"net/http"

	"github.com/vncsmyrnk/electionledger/internal/core/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details string `json:"details,omitempty"`
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidInput, domain.KindInvalidCandidate:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAlreadyExists, domain.KindAlreadyVoted:
		return http.StatusConflict
	case domain.KindInvalidState, domain.KindVotingClosed:
		return http.StatusUnprocessableEntity
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeLedgerError reports a failed invocation. summary is the caller-facing
// headline, e.g. "Failed to submit vote".
func writeLedgerError(w http.ResponseWriter, summary string, err error) {
	kind := domain.KindOf(err)
	status := statusForKind(kind)
	if status == http.StatusServiceUnavailable {
		summary = "Service temporarily unavailable"
	}
	writeJSON(w, status, errorResponse{
		Error:   summary,
		Kind:    string(kind),
		Details: err.Error(),
	})
}

// writeBadRequest rejects a request the gateway cannot turn into an
// invocation, in the same body shape as ledger failures.
func writeBadRequest(w http.ResponseWriter, summary string, details string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:   summary,
		Kind:    string(domain.KindInvalidInput),
		Details: details,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func writeRaw(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}
