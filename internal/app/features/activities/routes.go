// internal/app/features/activities/routes.go
package activities

import "github.com/go-chi/chi/v5"

// Mount registers the activity CRUD endpoints. Membership, join-request
// and invitation endpoints nest under the same /activities path, so
// their features register onto the same router; bootstrap composes the
// subtree.
func Mount(r chi.Router, h *Handler) {
	r.Post("/", h.HandleCreate)
	r.Get("/", h.HandleListMine)
	r.Get("/{activityID}", h.HandleGet)
	r.Put("/{activityID}", h.HandleUpdate)
	r.Delete("/{activityID}", h.HandleDelete)
}
