// internal/app/features/joinrequests/handler.go
package joinrequests

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/goalpeer/goalpeer/internal/app/features/errors/apierrors"
	"github.com/goalpeer/goalpeer/internal/app/policy/activitypolicy"
	activitystore "github.com/goalpeer/goalpeer/internal/app/store/activities"
	joinrequeststore "github.com/goalpeer/goalpeer/internal/app/store/joinrequests"
	membershipstore "github.com/goalpeer/goalpeer/internal/app/store/memberships"
	userstore "github.com/goalpeer/goalpeer/internal/app/store/users"
	"github.com/goalpeer/goalpeer/internal/app/system/authz"
	"github.com/goalpeer/goalpeer/internal/app/system/txn"
	"github.com/goalpeer/goalpeer/internal/app/system/webutil"
	"github.com/goalpeer/goalpeer/internal/domain/models"
)

// Handler runs the user-initiated side of onboarding: request, cancel,
// status, and the admin review queue.
type Handler struct {
	Client      *mongo.Client
	Activities  *activitystore.Store
	Requests    *joinrequeststore.Store
	Memberships *membershipstore.Store
	Users       *userstore.Store
	Policy      *activitypolicy.Policy
	Log         *zap.Logger
}

func NewHandler(client *mongo.Client, db *mongo.Database, logger *zap.Logger) *Handler {
	memberships := membershipstore.New(db)
	return &Handler{
		Client:      client,
		Activities:  activitystore.New(db),
		Requests:    joinrequeststore.New(db),
		Memberships: memberships,
		Users:       userstore.New(db),
		Policy:      activitypolicy.New(memberships),
		Log:         logger,
	}
}

type requestResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type respondRequest struct {
	Decision string `json:"decision"` // APPROVE | REJECT
}

// HandleJoin creates a PENDING join request for the caller.
// POST /activities/{activityID}/join
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
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
	if isMember {
		apierrors.Conflict(w, "already a participant of this activity")
		return
	}

	req, err := h.Requests.CreatePending(r.Context(), userID, activityID)
	if err != nil {
		if errors.Is(err, joinrequeststore.ErrDuplicatePending) {
			apierrors.Conflict(w, err.Error())
			return
		}
		apierrors.Internal(w, h.Log, "join request create failed", err)
		return
	}
	webutil.RespondJSON(w, http.StatusCreated, map[string]string{
		"id":     req.ID.Hex(),
		"status": req.Status,
	})
}

// HandleCancel withdraws the caller's own PENDING request.
// DELETE /activities/{activityID}/join
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
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

	if err := h.Requests.CancelPending(r.Context(), userID, activityID); err != nil {
		if errors.Is(err, joinrequeststore.ErrNotFound) {
			apierrors.NotFound(w, "no pending join request")
			return
		}
		apierrors.Internal(w, h.Log, "join request cancel failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStatus reports the caller's relationship to the activity:
// MEMBER, PENDING or NONE. Membership wins over a stale request.
// GET /activities/{activityID}/join/status
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
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
	status := "NONE"
	if isMember {
		status = "MEMBER"
	} else {
		_, err := h.Requests.FindPending(r.Context(), userID, activityID)
		switch {
		case err == nil:
			status = models.StatusPending
		case errors.Is(err, joinrequeststore.ErrNotFound):
		default:
			apierrors.Internal(w, h.Log, "join request lookup failed", err)
			return
		}
	}
	webutil.RespondJSON(w, http.StatusOK, map[string]string{"status": status})
}

// HandleListPending returns the review queue for admins.
// GET /activities/{activityID}/requests
func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
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
	if !h.requireManager(w, r, userID, activityID) {
		return
	}

	requests, err := h.Requests.ListPendingByActivity(r.Context(), activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "join request list failed", err)
		return
	}
	ids := make([]primitive.ObjectID, 0, len(requests))
	for _, req := range requests {
		ids = append(ids, req.UserID)
	}
	users, err := h.Users.GetByIDs(r.Context(), ids)
	if err != nil {
		apierrors.Internal(w, h.Log, "user load failed", err)
		return
	}

	out := make([]requestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, requestResponse{
			ID:        req.ID.Hex(),
			UserID:    req.UserID.Hex(),
			UserName:  users[req.UserID].Name,
			Status:    req.Status,
			CreatedAt: req.CreatedAt,
		})
	}
	webutil.RespondJSON(w, http.StatusOK, out)
}

// HandleRespond approves or rejects a PENDING request. Approval and the
// resulting membership commit together.
// POST /activities/{activityID}/requests/{requestID}/respond
func (h *Handler) HandleRespond(w http.ResponseWriter, r *http.Request) {
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
	requestID, ok := webutil.PathID(r, "requestID")
	if !ok {
		apierrors.NotFound(w, "join request not found")
		return
	}
	if !h.requireManager(w, r, userID, activityID) {
		return
	}

	var body respondRequest
	if err := webutil.DecodeJSON(w, r, &body); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	var status string
	switch body.Decision {
	case "APPROVE":
		status = models.StatusApproved
	case "REJECT":
		status = models.StatusRejected
	default:
		apierrors.BadRequest(w, "decision must be APPROVE or REJECT")
		return
	}

	req, err := h.Requests.GetByID(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, joinrequeststore.ErrNotFound) {
			apierrors.NotFound(w, "join request not found")
			return
		}
		apierrors.Internal(w, h.Log, "join request load failed", err)
		return
	}
	if req.ActivityID != activityID {
		apierrors.NotFound(w, "join request not found")
		return
	}

	err = txn.WithTxn(r.Context(), h.Client, func(ctx context.Context) error {
		if err := h.Requests.Resolve(ctx, requestID, status); err != nil {
			return err
		}
		if status != models.StatusApproved {
			return nil
		}
		return h.Memberships.Add(ctx, req.UserID, activityID, models.RoleMember)
	})
	switch {
	case errors.Is(err, joinrequeststore.ErrNotPending):
		apierrors.Conflict(w, err.Error())
		return
	case errors.Is(err, joinrequeststore.ErrNotFound):
		apierrors.NotFound(w, "join request not found")
		return
	case errors.Is(err, membershipstore.ErrDuplicateMembership):
		apierrors.Conflict(w, err.Error())
		return
	case err != nil:
		apierrors.Internal(w, h.Log, "join request respond failed", err)
		return
	}

	webutil.RespondJSON(w, http.StatusOK, map[string]string{
		"id":     requestID.Hex(),
		"status": status,
	})
}

func (h *Handler) requireManager(w http.ResponseWriter, r *http.Request, userID, activityID primitive.ObjectID) bool {
	canManage, err := h.Policy.CanManage(r.Context(), userID, activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "role lookup failed", err)
		return false
	}
	if !canManage {
		apierrors.Forbidden(w, "admins only")
		return false
	}
	return true
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
