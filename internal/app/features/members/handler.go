// internal/app/features/members/handler.go
package members

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/goalpeer/goalpeer/internal/app/features/errors/apierrors"
	"github.com/goalpeer/goalpeer/internal/app/policy/activitypolicy"
	activitystore "github.com/goalpeer/goalpeer/internal/app/store/activities"
	membershipstore "github.com/goalpeer/goalpeer/internal/app/store/memberships"
	userstore "github.com/goalpeer/goalpeer/internal/app/store/users"
	"github.com/goalpeer/goalpeer/internal/app/system/authz"
	"github.com/goalpeer/goalpeer/internal/app/system/webutil"
	"github.com/goalpeer/goalpeer/internal/domain/models"
)

// Handler manages the membership roster of an activity: listing,
// leaving, kicking and role assignment.
type Handler struct {
	Activities  *activitystore.Store
	Memberships *membershipstore.Store
	Users       *userstore.Store
	Policy      *activitypolicy.Policy
	Log         *zap.Logger
}

func NewHandler(activities *activitystore.Store, memberships *membershipstore.Store, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Activities:  activities,
		Memberships: memberships,
		Users:       users,
		Policy:      activitypolicy.New(memberships),
		Log:         logger,
	}
}

type memberResponse struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Image    string    `json:"image,omitempty"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type roleRequest struct {
	Role string `json:"role"`
}

// HandleList returns the activity's roster, OWNER first.
// GET /activities/{activityID}/members
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	activityID, ok := webutil.PathID(r, "activityID")
	if !ok {
		apierrors.NotFound(w, "activity not found")
		return
	}
	if !h.activityExists(w, r, activityID) {
		return
	}

	isMember, err := h.Policy.IsParticipant(r.Context(), userID, activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "role lookup failed", err)
		return
	}
	if !isMember {
		apierrors.Forbidden(w, "participants only")
		return
	}

	memberships, err := h.Memberships.ListByActivity(r.Context(), activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "membership list failed", err)
		return
	}
	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.UserID)
	}
	users, err := h.Users.GetByIDs(r.Context(), ids)
	if err != nil {
		apierrors.Internal(w, h.Log, "user load failed", err)
		return
	}

	out := make([]memberResponse, 0, len(memberships))
	for _, m := range memberships {
		u := users[m.UserID]
		out = append(out, memberResponse{
			UserID:   m.UserID.Hex(),
			Name:     u.Name,
			Image:    u.Image,
			Role:     string(m.Role),
			JoinedAt: m.JoinedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := models.Role(out[i].Role), models.Role(out[j].Role)
		if ri != rj {
			return ri.AtLeast(rj)
		}
		return out[i].Name < out[j].Name
	})
	webutil.RespondJSON(w, http.StatusOK, out)
}

// HandleLeave removes the caller's own membership. The OWNER cannot
// leave; their only exit is deleting the activity.
// DELETE /activities/{activityID}/leave
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	activityID, ok := webutil.PathID(r, "activityID")
	if !ok {
		apierrors.NotFound(w, "activity not found")
		return
	}

	role, isMember, err := h.Policy.RoleOf(r.Context(), userID, activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "role lookup failed", err)
		return
	}
	if !isMember {
		apierrors.NotFound(w, "membership not found")
		return
	}
	if !activitypolicy.CanLeave(role) {
		apierrors.Forbidden(w, "the owner cannot leave; delete the activity instead")
		return
	}

	if err := h.Memberships.Remove(r.Context(), userID, activityID); err != nil {
		if errors.Is(err, membershipstore.ErrNotFound) {
			apierrors.NotFound(w, "membership not found")
			return
		}
		apierrors.Internal(w, h.Log, "membership remove failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleKick removes another participant. The OWNER can remove anyone
// but themselves; an ADMIN only plain MEMBERs.
// DELETE /activities/{activityID}/members/{userID}
func (h *Handler) HandleKick(w http.ResponseWriter, r *http.Request) {
	_, actorID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	activityID, ok := webutil.PathID(r, "activityID")
	if !ok {
		apierrors.NotFound(w, "activity not found")
		return
	}
	targetID, ok := webutil.PathID(r, "userID")
	if !ok {
		apierrors.NotFound(w, "membership not found")
		return
	}
	if targetID == actorID {
		apierrors.BadRequest(w, "use the leave endpoint to remove yourself")
		return
	}

	actorRole, isMember, err := h.Policy.RoleOf(r.Context(), actorID, activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "role lookup failed", err)
		return
	}
	if !isMember || !actorRole.AtLeast(models.RoleAdmin) {
		apierrors.Forbidden(w, "admins only")
		return
	}

	target, err := h.Memberships.Get(r.Context(), targetID, activityID)
	if err != nil {
		if errors.Is(err, membershipstore.ErrNotFound) {
			apierrors.NotFound(w, "membership not found")
			return
		}
		apierrors.Internal(w, h.Log, "membership load failed", err)
		return
	}
	if !activitypolicy.CanKick(actorRole, target.Role) {
		apierrors.Forbidden(w, "insufficient role to remove this member")
		return
	}

	if err := h.Memberships.Remove(r.Context(), targetID, activityID); err != nil {
		if errors.Is(err, membershipstore.ErrNotFound) {
			apierrors.NotFound(w, "membership not found")
			return
		}
		apierrors.Internal(w, h.Log, "membership remove failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetRole assigns ADMIN or MEMBER to another participant.
// OWNER-only; the OWNER role itself is never assignable.
// POST /activities/{activityID}/members/{userID}/role
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	_, actorID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	activityID, ok := webutil.PathID(r, "activityID")
	if !ok {
		apierrors.NotFound(w, "activity not found")
		return
	}
	targetID, ok := webutil.PathID(r, "userID")
	if !ok {
		apierrors.NotFound(w, "membership not found")
		return
	}

	var req roleRequest
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	newRole, valid := models.ParseRole(req.Role)
	if !valid {
		apierrors.BadRequest(w, "role must be ADMIN or MEMBER")
		return
	}

	actorRole, isMember, err := h.Policy.RoleOf(r.Context(), actorID, activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "role lookup failed", err)
		return
	}
	if !isMember || !activitypolicy.CanAssignRole(actorRole, newRole) {
		apierrors.Forbidden(w, "only the owner assigns roles")
		return
	}
	if targetID == actorID {
		apierrors.BadRequest(w, "the owner role cannot be reassigned")
		return
	}

	if err := h.Memberships.SetRole(r.Context(), targetID, activityID, newRole); err != nil {
		if errors.Is(err, membershipstore.ErrNotFound) {
			apierrors.NotFound(w, "membership not found")
			return
		}
		apierrors.Internal(w, h.Log, "role update failed", err)
		return
	}
	webutil.RespondJSON(w, http.StatusOK, map[string]string{
		"user_id": targetID.Hex(),
		"role":    string(newRole),
	})
}

func (h *Handler) activityExists(w http.ResponseWriter, r *http.Request, activityID primitive.ObjectID) bool {
	if _, err := h.Activities.GetByID(r.Context(), activityID); err != nil {
		if errors.Is(err, activitystore.ErrNotFound) {
			apierrors.NotFound(w, "activity not found")
			return false
		}
		apierrors.Internal(w, h.Log, "activity load failed", err)
		return false
	}
	return true
}
