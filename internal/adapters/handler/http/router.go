package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vncsmyrnk/electionledger/internal/core/ports"
)

func NewHandler(world ports.WorldState, electionHandler *ElectionHandler, voteHandler *VoteHandler, invokeHandler *InvokeHandler, auth *Auth) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := world.Ping(r.Context()); err != nil {
			writeLedgerError(w, "State backend unreachable", err)
			return
		}
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Get("/me", GetMe)

		r.Route("/elections", func(r chi.Router) {
			r.Get("/", electionHandler.ListElections)
			r.With(auth.RequireRole(ports.RoleAdmin)).Post("/", electionHandler.CreateElection)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", electionHandler.GetElection)
				r.Get("/results", electionHandler.GetResults)
				r.With(auth.RequireRole(ports.RoleAdmin)).Put("/status", electionHandler.UpdateStatus)
				r.With(auth.RequireRole(ports.RoleAdmin)).Get("/audit", electionHandler.Audit)

				r.Post("/votes", voteHandler.CastVote)
				r.Get("/votes/{voterId}", voteHandler.GetVote)
			})
		})

		// Paths served by the earlier gateway, kept for existing clients.
		r.With(auth.RequireRole(ports.RoleAdmin)).Post("/election", electionHandler.CreateElection)
		r.With(auth.RequireRole(ports.RoleAdmin)).Put("/election/{id}/status", electionHandler.UpdateStatus)
		r.Post("/vote", voteHandler.CastVote)
		r.Get("/results/{id}", electionHandler.GetResults)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(ports.RoleAdmin))
			r.Post("/invoke/{fn}", invokeHandler.Submit)
			r.Post("/query/{fn}", invokeHandler.Evaluate)
		})
	})

	return r
}
