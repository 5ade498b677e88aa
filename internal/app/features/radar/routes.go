// internal/app/features/radar/routes.go
package radar

import (
	"github.com/go-chi/chi/v5"

	"github.com/goalpeer/goalpeer/internal/app/system/auth"
)

// Routes returns the radar router mounted at /radar.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.HandlePeople)
	r.Get("/activities", h.HandleActivities)
	return r
}
