// internal/app/features/members/routes.go
package members

import "github.com/go-chi/chi/v5"

// Mount registers the roster endpoints on the /activities subtree.
func Mount(r chi.Router, h *Handler) {
	r.Get("/{activityID}/members", h.HandleList)
	r.Delete("/{activityID}/leave", h.HandleLeave)
	r.Delete("/{activityID}/members/{userID}", h.HandleKick)
	r.Post("/{activityID}/members/{userID}/role", h.HandleSetRole)
}
