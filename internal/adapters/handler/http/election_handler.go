package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/electionledger/internal/core/ports"
	"github.com/vncsmyrnk/electionledger/internal/core/services"
)

type ElectionHandler struct {
	invoker ports.Invoker
}

func NewElectionHandler(invoker ports.Invoker) *ElectionHandler {
	return &ElectionHandler{
		invoker: invoker,
	}
}

// Times are epoch milliseconds, sent either as JSON numbers or as decimal
// strings.
type createElectionRequest struct {
	ElectionID string      `json:"electionId"`
	StartTime  json.Number `json:"startTime"`
	EndTime    json.Number `json:"endTime"`
	Candidates []string    `json:"candidates"`
}

type updateStatusRequest struct {
	NewStatus string `json:"newStatus"`
}

type electionResponse struct {
	Success  bool            `json:"success"`
	Election json.RawMessage `json:"election"`
}

// CreateElection godoc
// @Summary      Creates an election
// @Tags         elections
// @Accept       json
// @Success      201
// @Failure      400,409
// @Router       /api/elections [post]
// @Router       /api/election [post]
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req createElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body", err.Error())
		return
	}

	candidates, err := json.Marshal(req.Candidates)
	if err != nil {
		writeBadRequest(w, "invalid candidates", err.Error())
		return
	}

	payload, err := h.invoker.Submit(r.Context(), services.FnCreateElection,
		req.ElectionID,
		req.StartTime.String(),
		req.EndTime.String(),
		string(candidates),
	)
	if err != nil {
		writeLedgerError(w, "Failed to create election", err)
		return
	}

	writeJSON(w, http.StatusCreated, electionResponse{Success: true, Election: payload})
}

func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	payload, err := h.invoker.Evaluate(r.Context(), services.FnListElections)
	if err != nil {
		writeLedgerError(w, "Failed to list elections", err)
		return
	}
	writeRaw(w, http.StatusOK, payload)
}

func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	payload, err := h.invoker.Evaluate(r.Context(), services.FnGetElection, chi.URLParam(r, "id"))
	if err != nil {
		writeLedgerError(w, "Failed to retrieve election", err)
		return
	}
	writeRaw(w, http.StatusOK, payload)
}

// UpdateStatus godoc
// @Summary      Moves an election to a new status
// @Description  Any status may move to any other status.
// @Tags         elections
// @Accept       json
// @Success      200
// @Failure      400,404
// @Router       /api/elections/{id}/status [put]
// @Router       /api/election/{id}/status [put]
func (h *ElectionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body", err.Error())
		return
	}

	payload, err := h.invoker.Submit(r.Context(), services.FnUpdateElectionStatus, chi.URLParam(r, "id"), req.NewStatus)
	if err != nil {
		writeLedgerError(w, "Failed to update election status", err)
		return
	}

	writeJSON(w, http.StatusOK, electionResponse{Success: true, Election: payload})
}

func (h *ElectionHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	payload, err := h.invoker.Evaluate(r.Context(), services.FnGetElectionResults, chi.URLParam(r, "id"))
	if err != nil {
		writeLedgerError(w, "Failed to retrieve election results", err)
		return
	}
	writeRaw(w, http.StatusOK, payload)
}

func (h *ElectionHandler) Audit(w http.ResponseWriter, r *http.Request) {
	payload, err := h.invoker.Evaluate(r.Context(), services.FnAuditElection, chi.URLParam(r, "id"))
	if err != nil {
		writeLedgerError(w, "Failed to audit election", err)
		return
	}
	writeRaw(w, http.StatusOK, payload)
}
