// internal/app/features/invitations/handler.go
package invitations

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/goalpeer/goalpeer/internal/app/features/errors/apierrors"
	"github.com/goalpeer/goalpeer/internal/app/policy/activitypolicy"
	activitystore "github.com/goalpeer/goalpeer/internal/app/store/activities"
	invitationstore "github.com/goalpeer/goalpeer/internal/app/store/invitations"
	membershipstore "github.com/goalpeer/goalpeer/internal/app/store/memberships"
	userstore "github.com/goalpeer/goalpeer/internal/app/store/users"
	"github.com/goalpeer/goalpeer/internal/app/system/authz"
	"github.com/goalpeer/goalpeer/internal/app/system/txn"
	"github.com/goalpeer/goalpeer/internal/app/system/webutil"
	"github.com/goalpeer/goalpeer/internal/domain/models"
)

// Handler runs the admin-initiated side of onboarding: sending,
// listing, answering and withdrawing invitations.
type Handler struct {
	Client      *mongo.Client
	Activities  *activitystore.Store
	Invitations *invitationstore.Store
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
		Invitations: invitationstore.New(db),
		Memberships: memberships,
		Users:       userstore.New(db),
		Policy:      activitypolicy.New(memberships),
		Log:         logger,
	}
}

type inviteRequest struct {
	Email string `json:"email"`
}

type respondRequest struct {
	Decision string `json:"decision"` // ACCEPT | REJECT
}

type invitationResponse struct {
	ID           string    `json:"id"`
	ActivityID   string    `json:"activity_id"`
	ActivityName string    `json:"activity_name,omitempty"`
	SenderName   string    `json:"sender_name,omitempty"`
	ReceiverName string    `json:"receiver_name,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// HandleInvite sends an invitation to an existing user by email. Any
// participant of the activity may invite.
// POST /activities/{activityID}/invite
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	_, senderID, ok := authz.UserCtx(r)
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

	isMember, err := h.Policy.IsParticipant(r.Context(), senderID, activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "role lookup failed", err)
		return
	}
	if !isMember {
		apierrors.Forbidden(w, "participants only")
		return
	}

	var body inviteRequest
	if err := webutil.DecodeJSON(w, r, &body); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		apierrors.BadRequest(w, "a valid email is required")
		return
	}

	receiver, err := h.Users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			apierrors.NotFound(w, "no user with this email")
			return
		}
		apierrors.Internal(w, h.Log, "user lookup failed", err)
		return
	}
	if receiver.ID == senderID {
		apierrors.BadRequest(w, "you cannot invite yourself")
		return
	}

	alreadyIn, err := h.Policy.IsParticipant(r.Context(), receiver.ID, activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "role lookup failed", err)
		return
	}
	if alreadyIn {
		apierrors.Conflict(w, "user is already a participant of this activity")
		return
	}

	inv, err := h.Invitations.CreatePending(r.Context(), senderID, receiver.ID, activityID)
	if err != nil {
		if errors.Is(err, invitationstore.ErrDuplicatePending) {
			apierrors.Conflict(w, err.Error())
			return
		}
		apierrors.Internal(w, h.Log, "invitation create failed", err)
		return
	}
	webutil.RespondJSON(w, http.StatusCreated, map[string]string{
		"id":     inv.ID.Hex(),
		"status": inv.Status,
	})
}

// HandleListByActivity returns the activity's open invitations for its
// managers.
// GET /activities/{activityID}/invitations
func (h *Handler) HandleListByActivity(w http.ResponseWriter, r *http.Request) {
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
	canManage, err := h.Policy.CanManage(r.Context(), userID, activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "role lookup failed", err)
		return
	}
	if !canManage {
		apierrors.Forbidden(w, "admins only")
		return
	}

	invitations, err := h.Invitations.ListPendingByActivity(r.Context(), activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "invitation list failed", err)
		return
	}
	webutil.RespondJSON(w, http.StatusOK, h.describe(r.Context(), invitations))
}

// HandleListMine returns the caller's open invitations.
// GET /invitations
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	invitations, err := h.Invitations.ListPendingByReceiver(r.Context(), userID)
	if err != nil {
		apierrors.Internal(w, h.Log, "invitation list failed", err)
		return
	}
	webutil.RespondJSON(w, http.StatusOK, h.describe(r.Context(), invitations))
}

// HandleRespond accepts or rejects an invitation. Only the receiver may
// answer; acceptance ensures a MEMBER membership in the same unit of
// work and tolerates one that already exists.
// POST /invitations/{invitationID}/respond
func (h *Handler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	invitationID, ok := webutil.PathID(r, "invitationID")
	if !ok {
		apierrors.NotFound(w, "invitation not found")
		return
	}

	var body respondRequest
	if err := webutil.DecodeJSON(w, r, &body); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	var status string
	switch body.Decision {
	case "ACCEPT":
		status = models.StatusAccepted
	case "REJECT":
		status = models.StatusRejected
	default:
		apierrors.BadRequest(w, "decision must be ACCEPT or REJECT")
		return
	}

	inv, err := h.Invitations.GetByID(r.Context(), invitationID)
	if err != nil {
		if errors.Is(err, invitationstore.ErrNotFound) {
			apierrors.NotFound(w, "invitation not found")
			return
		}
		apierrors.Internal(w, h.Log, "invitation load failed", err)
		return
	}
	if inv.ReceiverID != userID {
		apierrors.Forbidden(w, "only the receiver may respond")
		return
	}

	err = txn.WithTxn(r.Context(), h.Client, func(ctx context.Context) error {
		if err := h.Invitations.Resolve(ctx, invitationID, status); err != nil {
			return err
		}
		if status != models.StatusAccepted {
			return nil
		}
		err := h.Memberships.Add(ctx, userID, inv.ActivityID, models.RoleMember)
		if errors.Is(err, membershipstore.ErrDuplicateMembership) {
			// Joined through another path in the meantime; acceptance
			// stays idempotent.
			return nil
		}
		return err
	})
	switch {
	case errors.Is(err, invitationstore.ErrNotPending):
		apierrors.Conflict(w, err.Error())
		return
	case errors.Is(err, invitationstore.ErrNotFound):
		apierrors.NotFound(w, "invitation not found")
		return
	case err != nil:
		apierrors.Internal(w, h.Log, "invitation respond failed", err)
		return
	}

	webutil.RespondJSON(w, http.StatusOK, map[string]string{
		"id":     invitationID.Hex(),
		"status": status,
	})
}

// HandleCancel withdraws a PENDING invitation. Permitted for the
// original sender and for the activity's managers.
// DELETE /invitations/{invitationID}
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	invitationID, ok := webutil.PathID(r, "invitationID")
	if !ok {
		apierrors.NotFound(w, "invitation not found")
		return
	}

	inv, err := h.Invitations.GetByID(r.Context(), invitationID)
	if err != nil {
		if errors.Is(err, invitationstore.ErrNotFound) {
			apierrors.NotFound(w, "invitation not found")
			return
		}
		apierrors.Internal(w, h.Log, "invitation load failed", err)
		return
	}

	if inv.SenderID != userID {
		canManage, err := h.Policy.CanManage(r.Context(), userID, inv.ActivityID)
		if err != nil {
			apierrors.Internal(w, h.Log, "role lookup failed", err)
			return
		}
		if !canManage {
			apierrors.Forbidden(w, "only the sender or an admin may cancel")
			return
		}
	}

	if err := h.Invitations.CancelPending(r.Context(), invitationID); err != nil {
		if errors.Is(err, invitationstore.ErrNotFound) {
			apierrors.Conflict(w, "invitation is already resolved")
			return
		}
		apierrors.Internal(w, h.Log, "invitation cancel failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// describe joins user and activity names onto raw invitation rows.
// Lookup failures degrade to bare IDs rather than failing the list.
func (h *Handler) describe(ctx context.Context, invitations []models.Invitation) []invitationResponse {
	userIDs := make([]primitive.ObjectID, 0, len(invitations)*2)
	activityIDs := make([]primitive.ObjectID, 0, len(invitations))
	for _, inv := range invitations {
		userIDs = append(userIDs, inv.SenderID, inv.ReceiverID)
		activityIDs = append(activityIDs, inv.ActivityID)
	}
	users, err := h.Users.GetByIDs(ctx, userIDs)
	if err != nil {
		h.Log.Warn("invitation user lookup failed", zap.Error(err))
	}
	activities, err := h.Activities.GetByIDs(ctx, activityIDs)
	if err != nil {
		h.Log.Warn("invitation activity lookup failed", zap.Error(err))
	}

	out := make([]invitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		out = append(out, invitationResponse{
			ID:           inv.ID.Hex(),
			ActivityID:   inv.ActivityID.Hex(),
			ActivityName: activities[inv.ActivityID].Name,
			SenderName:   users[inv.SenderID].Name,
			ReceiverName: users[inv.ReceiverID].Name,
			Status:       inv.Status,
			CreatedAt:    inv.CreatedAt,
		})
	}
	return out
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
