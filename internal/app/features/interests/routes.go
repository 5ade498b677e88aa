// internal/app/features/interests/routes.go
package interests

import (
	"github.com/go-chi/chi/v5"

	"github.com/goalpeer/goalpeer/internal/app/system/auth"
)

// Routes returns the catalog router mounted at /interests.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.HandleCatalog)
	return r
}

// UserRoutes returns the selection router mounted at /users.
func UserRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Put("/interests", h.HandleSetUserInterests)
	return r
}
