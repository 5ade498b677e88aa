// internal/app/features/proofs/routes.go
package proofs

import (
	"github.com/go-chi/chi/v5"

	"github.com/goalpeer/goalpeer/internal/app/system/auth"
)

// Routes returns the proof router mounted at /proofs.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Post("/", h.HandleSubmit)
	r.Get("/", h.HandleListByGoal)
	r.Get("/{proofID}/image", h.HandleImage)
	r.Post("/{proofID}/like", h.HandleToggleLike)
	return r
}
