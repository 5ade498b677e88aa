// Package authz bridges the session layer and the stores: it extracts the
// signed-in user's ObjectID from the request context so handlers can pass
// it to per-activity role checks.
package authz

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/goalpeer/goalpeer/internal/app/system/auth"
)

// UserCtx returns the signed-in user's display name and ObjectID.
// If no user is present in context or the user ID is malformed, ok is
// false and callers must fail closed.
func UserCtx(r *http.Request) (name string, userID primitive.ObjectID, ok bool) {
	u, found := auth.CurrentUser(r)
	if !found || u == nil {
		return "", primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return "", primitive.NilObjectID, false
	}
	return u.Name, id, true
}
