// internal/app/features/accounts/routes.go
package accounts

import (
	"github.com/go-chi/chi/v5"

	"github.com/goalpeer/goalpeer/internal/app/system/auth"
)

// Mount registers the account endpoints on the shared /auth subtree.
// The Google OAuth flow mounts its own subrouter under the same prefix,
// so this feature registers paths instead of owning the whole router.
func Mount(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/logout", h.HandleLogout)
		pr.Get("/me", h.HandleMe)
	})
}
