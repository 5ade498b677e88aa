// internal/app/features/invitations/routes.go
package invitations

import (
	"github.com/go-chi/chi/v5"

	"github.com/goalpeer/goalpeer/internal/app/system/auth"
)

// MountActivity registers the invite endpoints that nest under the
// /activities subtree.
func MountActivity(r chi.Router, h *Handler) {
	r.Post("/{activityID}/invite", h.HandleInvite)
	r.Get("/{activityID}/invitations", h.HandleListByActivity)
}

// Routes returns the receiver-side router mounted at /invitations.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.HandleListMine)
	r.Post("/{invitationID}/respond", h.HandleRespond)
	r.Delete("/{invitationID}", h.HandleCancel)
	return r
}
