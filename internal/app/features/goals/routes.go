// internal/app/features/goals/routes.go
package goals

import (
	"github.com/go-chi/chi/v5"

	"github.com/goalpeer/goalpeer/internal/app/system/auth"
)

// Mount registers the activity-scoped goal view on the shared
// /activities subtree.
func Mount(r chi.Router, h *Handler) {
	r.Get("/{activityID}/goals", h.HandleListByActivity)
}

// Routes serves the top-level /goals subtree for the progress toggle.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/{goalID}/progress", h.HandleGetProgress)
	r.Post("/{goalID}/progress", h.HandleSetProgress)
	return r
}
