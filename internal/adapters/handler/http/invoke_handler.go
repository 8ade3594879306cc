package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/electionledger/internal/core/ports"
)

// InvokeHandler exposes the raw invocation contract: a function name and its
// ordered string arguments.
type InvokeHandler struct {
	invoker ports.Invoker
}

func NewInvokeHandler(invoker ports.Invoker) *InvokeHandler {
	return &InvokeHandler{
		invoker: invoker,
	}
}

type invokeRequest struct {
	Args []string `json:"args"`
}

type invokeFunc func(ctx context.Context, fn string, args ...string) ([]byte, error)

func (h *InvokeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.invoker.Submit)
}

func (h *InvokeHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.invoker.Evaluate)
}

func (h *InvokeHandler) handle(w http.ResponseWriter, r *http.Request, call invokeFunc) {
	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid request body", err.Error())
		return
	}
	if req.Args == nil {
		req.Args = []string{}
	}

	fn := chi.URLParam(r, "fn")
	payload, err := call(r.Context(), fn, req.Args...)
	if err != nil {
		writeLedgerError(w, "Failed to invoke "+fn, err)
		return
	}
	writeRaw(w, http.StatusOK, payload)
}
