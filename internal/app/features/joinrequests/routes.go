// internal/app/features/joinrequests/routes.go
package joinrequests

import "github.com/go-chi/chi/v5"

// Mount registers the join workflow endpoints on the /activities subtree.
func Mount(r chi.Router, h *Handler) {
	r.Post("/{activityID}/join", h.HandleJoin)
	r.Delete("/{activityID}/join", h.HandleCancel)
	r.Get("/{activityID}/join/status", h.HandleStatus)
	r.Get("/{activityID}/requests", h.HandleListPending)
	// Older clients post to /requests instead of /join; same operation.
	r.Post("/{activityID}/requests", h.HandleJoin)
	r.Post("/{activityID}/requests/{requestID}/respond", h.HandleRespond)
}
