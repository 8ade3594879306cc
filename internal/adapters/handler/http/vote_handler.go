package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/electionledger/internal/core/ports"
	"github.com/vncsmyrnk/electionledger/internal/core/services"
)

type VoteHandler struct {
	invoker ports.Invoker
	auth    *Auth
	now     func() time.Time
}

// NewVoteHandler stamps ballots with now, the gateway's clock; the ledger
// itself never reads one. A nil now means time.Now.
func NewVoteHandler(invoker ports.Invoker, auth *Auth, now func() time.Time) *VoteHandler {
	if now == nil {
		now = time.Now
	}
	return &VoteHandler{
		invoker: invoker,
		auth:    auth,
		now:     now,
	}
}

// ElectionID is only read when the route does not name the election.
type voteRequest struct {
	ElectionID  string `json:"electionId"`
	VoterID     string `json:"voterId"`
	CandidateID string `json:"candidateId"`
}

type voteResponse struct {
	Success bool            `json:"success"`
	Vote    json.RawMessage `json:"vote"`
}

// CastVote godoc
// @Summary      Casts a ballot
// @Description  With authentication enabled the voter is the token subject.
// @Tags         votes
// @Accept       json
// @Success      201
// @Failure      400,404,409,422
// @Router       /api/elections/{id}/votes [post]
// @Router       /api/vote [post]
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body", err.Error())
		return
	}

	electionID := chi.URLParam(r, "id")
	if electionID == "" {
		electionID = req.ElectionID
	}

	voterID, ok := h.resolveVoter(w, r, req.VoterID)
	if !ok {
		return
	}
	if electionID == "" || voterID == "" || req.CandidateID == "" {
		writeBadRequest(w, "Missing required fields", "electionId, voterId and candidateId are required")
		return
	}

	timestamp := strconv.FormatInt(h.now().UnixMilli(), 10)
	payload, err := h.invoker.Submit(r.Context(), services.FnCastVote, electionID, voterID, req.CandidateID, timestamp)
	if err != nil {
		writeLedgerError(w, "Failed to submit vote", err)
		return
	}

	writeJSON(w, http.StatusCreated, voteResponse{Success: true, Vote: payload})
}

func (h *VoteHandler) GetVote(w http.ResponseWriter, r *http.Request) {
	voterID, ok := h.resolveVoter(w, r, chi.URLParam(r, "voterId"))
	if !ok {
		return
	}

	payload, err := h.invoker.Evaluate(r.Context(), services.FnGetVote, chi.URLParam(r, "id"), voterID)
	if err != nil {
		writeLedgerError(w, "Failed to retrieve vote", err)
		return
	}
	writeRaw(w, http.StatusOK, payload)
}

// resolveVoter returns the voter the request acts for. With authentication
// enabled that is the token subject, and naming anyone else is forbidden.
func (h *VoteHandler) resolveVoter(w http.ResponseWriter, r *http.Request, requested string) (string, bool) {
	if !h.auth.Enabled() {
		return requested, true
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return "", false
	}
	if requested != "" && requested != claims.Subject && claims.Role != ports.RoleAdmin {
		http.Error(w, "Forbidden: voter does not match access token", http.StatusForbidden)
		return "", false
	}
	if requested == "" {
		return claims.Subject, true
	}
	return requested, true
}
