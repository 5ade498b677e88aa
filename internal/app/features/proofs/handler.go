// internal/app/features/proofs/handler.go
package proofs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/goalpeer/goalpeer/internal/app/features/errors/apierrors"
	"github.com/goalpeer/goalpeer/internal/app/policy/activitypolicy"
	goalstore "github.com/goalpeer/goalpeer/internal/app/store/goals"
	membershipstore "github.com/goalpeer/goalpeer/internal/app/store/memberships"
	proofstore "github.com/goalpeer/goalpeer/internal/app/store/proofs"
	userstore "github.com/goalpeer/goalpeer/internal/app/store/users"
	"github.com/goalpeer/goalpeer/internal/app/system/authz"
	"github.com/goalpeer/goalpeer/internal/app/system/limits"
	"github.com/goalpeer/goalpeer/internal/app/system/metrics"
	"github.com/goalpeer/goalpeer/internal/app/system/verification"
	"github.com/goalpeer/goalpeer/internal/app/system/webutil"
	"github.com/goalpeer/goalpeer/internal/domain/models"
)

// Handler accepts proof submissions, serves the stored images, and runs
// the like toggle that drives peer verification.
type Handler struct {
	Proofs      *proofstore.Store
	Goals       *goalstore.Store
	Memberships *membershipstore.Store
	Users       *userstore.Store
	Policy      *activitypolicy.Policy
	Storage     storage.Store
	Metrics     *metrics.Metrics
	Log         *zap.Logger
}

func NewHandler(proofs *proofstore.Store, goals *goalstore.Store, memberships *membershipstore.Store, users *userstore.Store, store storage.Store, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Proofs:      proofs,
		Goals:       goals,
		Memberships: memberships,
		Users:       users,
		Policy:      activitypolicy.New(memberships),
		Storage:     store,
		Metrics:     m,
		Log:         logger,
	}
}

type proofResponse struct {
	ID            string    `json:"id"`
	GoalID        string    `json:"goal_id"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name,omitempty"`
	Likes         int       `json:"likes"`
	RequiredLikes int       `json:"required_likes"`
	Verified      bool      `json:"verified"`
	LikedByMe     bool      `json:"liked_by_me"`
	ImageURL      string    `json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// HandleSubmit stores one proof image for (caller, goal). Multipart
// form: "goal_id" field plus an "image" file part capped at 10 MB.
// POST /proofs
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxProofImageSize)
	if err := r.ParseMultipartForm(limits.MaxProofImageSize); err != nil {
		apierrors.BadRequest(w, "multipart form required, image up to 10 MB")
		return
	}

	goalID, err := primitive.ObjectIDFromHex(r.FormValue("goal_id"))
	if err != nil {
		apierrors.BadRequest(w, "goal_id is required")
		return
	}
	goal, err := h.Goals.GetByID(r.Context(), goalID)
	if err != nil {
		if errors.Is(err, goalstore.ErrNotFound) {
			apierrors.NotFound(w, "goal not found")
			return
		}
		apierrors.Internal(w, h.Log, "goal load failed", err)
		return
	}

	isMember, err := h.Policy.IsParticipant(r.Context(), userID, goal.ActivityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "role lookup failed", err)
		return
	}
	if !isMember {
		apierrors.Forbidden(w, "participants only")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		apierrors.BadRequest(w, "an image file part named 'image' is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		apierrors.BadRequest(w, "only image uploads are accepted")
		return
	}

	// One image per (user, goal); refuse before touching storage.
	if _, err := h.Proofs.GetByUserGoal(r.Context(), userID, goalID); err == nil {
		apierrors.Conflict(w, "a proof for this goal already exists")
		return
	} else if !errors.Is(err, proofstore.ErrNotFound) {
		apierrors.Internal(w, h.Log, "proof lookup failed", err)
		return
	}

	now := time.Now().UTC()
	path := fmt.Sprintf("proofs/%04d/%02d/%s%s", now.Year(), now.Month(), uuid.New().String(), imageExt(contentType))
	if err := h.Storage.Put(r.Context(), path, file, &storage.PutOptions{ContentType: contentType}); err != nil {
		h.Log.Error("proof image store failed", zap.Error(err), zap.String("path", path))
		apierrors.Render(w, http.StatusInternalServerError, "internal server error")
		return
	}

	proof := models.Proof{
		GoalID:      goalID,
		UserID:      userID,
		ImagePath:   path,
		ContentType: contentType,
	}
	if err := h.Proofs.Create(r.Context(), &proof); err != nil {
		if errors.Is(err, proofstore.ErrDuplicateProof) {
			// Lost a concurrent race after the storage write; the extra
			// object stays orphaned rather than risking the winner's image.
			apierrors.Conflict(w, "a proof for this goal already exists")
			return
		}
		apierrors.Internal(w, h.Log, "proof create failed", err)
		return
	}
	h.Metrics.ProofsSubmitted.Inc()

	webutil.RespondJSON(w, http.StatusCreated, proofResponse{
		ID:        proof.ID.Hex(),
		GoalID:    goalID.Hex(),
		UserID:    userID.Hex(),
		ImageURL:  "/proofs/" + proof.ID.Hex() + "/image",
		CreatedAt: proof.CreatedAt,
	})
}

// HandleImage streams the stored proof image. Proofs never change, so
// the response is cacheable forever.
// GET /proofs/{proofID}/image
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	proofID, ok := webutil.PathID(r, "proofID")
	if !ok {
		apierrors.NotFound(w, "proof not found")
		return
	}

	proof, err := h.Proofs.GetByID(r.Context(), proofID)
	if err != nil {
		if errors.Is(err, proofstore.ErrNotFound) {
			apierrors.NotFound(w, "proof not found")
			return
		}
		apierrors.Internal(w, h.Log, "proof load failed", err)
		return
	}
	if !h.viewerMayAccess(w, r, userID, proof.GoalID) {
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")

	if local, isLocal := h.Storage.(*storage.Local); isLocal {
		fullPath, err := local.GetFullPath(proof.ImagePath)
		if err != nil {
			h.Log.Error("proof image path failed", zap.Error(err), zap.String("path", proof.ImagePath))
			apierrors.Render(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if proof.ContentType != "" {
			w.Header().Set("Content-Type", proof.ContentType)
		}
		http.ServeFile(w, r, fullPath)
		return
	}

	signedURL, err := h.Storage.PresignedURL(r.Context(), proof.ImagePath, &storage.PresignOptions{
		Expires: 15 * time.Minute,
	})
	if err != nil {
		h.Log.Error("proof image presign failed", zap.Error(err), zap.String("path", proof.ImagePath))
		apierrors.Render(w, http.StatusInternalServerError, "internal server error")
		return
	}
	http.Redirect(w, r, signedURL, http.StatusSeeOther)
}

// HandleToggleLike flips the caller's endorsement of a proof. Liking
// your own proof is refused; everything else is a pure toggle.
// POST /proofs/{proofID}/like
func (h *Handler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	proofID, ok := webutil.PathID(r, "proofID")
	if !ok {
		apierrors.NotFound(w, "proof not found")
		return
	}

	proof, err := h.Proofs.GetByID(r.Context(), proofID)
	if err != nil {
		if errors.Is(err, proofstore.ErrNotFound) {
			apierrors.NotFound(w, "proof not found")
			return
		}
		apierrors.Internal(w, h.Log, "proof load failed", err)
		return
	}
	if proof.UserID == userID {
		apierrors.BadRequest(w, "you cannot like your own proof")
		return
	}

	goal, err := h.Goals.GetByID(r.Context(), proof.GoalID)
	if err != nil {
		apierrors.Internal(w, h.Log, "goal load failed", err)
		return
	}
	isMember, err := h.Policy.IsParticipant(r.Context(), userID, goal.ActivityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "role lookup failed", err)
		return
	}
	if !isMember {
		apierrors.Forbidden(w, "participants only")
		return
	}

	liked, err := h.Proofs.ToggleLike(r.Context(), userID, proofID)
	if err != nil {
		apierrors.Internal(w, h.Log, "like toggle failed", err)
		return
	}
	if liked {
		h.Metrics.ProofLikes.Inc()
	}

	likes, err := h.Proofs.CountLikes(r.Context(), proofID)
	if err != nil {
		apierrors.Internal(w, h.Log, "like count failed", err)
		return
	}
	participants, err := h.Memberships.CountByActivity(r.Context(), goal.ActivityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "participant count failed", err)
		return
	}

	webutil.RespondJSON(w, http.StatusOK, map[string]any{
		"liked":          liked,
		"likes":          likes,
		"required_likes": verification.RequiredLikes(participants),
		"verified":       verification.IsVerified(likes, participants),
	})
}

// HandleListByGoal returns every proof on one goal with live
// verification state.
// GET /proofs?goal_id=...
func (h *Handler) HandleListByGoal(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	goalID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("goal_id"))
	if err != nil {
		apierrors.BadRequest(w, "goal_id query parameter is required")
		return
	}
	goal, err := h.Goals.GetByID(r.Context(), goalID)
	if err != nil {
		if errors.Is(err, goalstore.ErrNotFound) {
			apierrors.NotFound(w, "goal not found")
			return
		}
		apierrors.Internal(w, h.Log, "goal load failed", err)
		return
	}
	if !h.viewerIsParticipant(w, r, userID, goal.ActivityID) {
		return
	}

	proofs, err := h.Proofs.ListByGoal(r.Context(), goalID)
	if err != nil {
		apierrors.Internal(w, h.Log, "proof list failed", err)
		return
	}
	proofIDs := make([]primitive.ObjectID, 0, len(proofs))
	ownerIDs := make([]primitive.ObjectID, 0, len(proofs))
	for _, p := range proofs {
		proofIDs = append(proofIDs, p.ID)
		ownerIDs = append(ownerIDs, p.UserID)
	}
	likeCounts, err := h.Proofs.CountLikesByProofs(r.Context(), proofIDs)
	if err != nil {
		apierrors.Internal(w, h.Log, "like count failed", err)
		return
	}
	owners, err := h.Users.GetByIDs(r.Context(), ownerIDs)
	if err != nil {
		apierrors.Internal(w, h.Log, "user load failed", err)
		return
	}
	participants, err := h.Memberships.CountByActivity(r.Context(), goal.ActivityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "participant count failed", err)
		return
	}
	required := verification.RequiredLikes(participants)

	out := make([]proofResponse, 0, len(proofs))
	for _, p := range proofs {
		likedByMe, err := h.Proofs.HasLiked(r.Context(), userID, p.ID)
		if err != nil {
			apierrors.Internal(w, h.Log, "like lookup failed", err)
			return
		}
		likes := likeCounts[p.ID]
		out = append(out, proofResponse{
			ID:            p.ID.Hex(),
			GoalID:        p.GoalID.Hex(),
			UserID:        p.UserID.Hex(),
			UserName:      owners[p.UserID].Name,
			Likes:         likes,
			RequiredLikes: required,
			Verified:      verification.IsVerified(likes, participants),
			LikedByMe:     likedByMe,
			ImageURL:      "/proofs/" + p.ID.Hex() + "/image",
			CreatedAt:     p.CreatedAt,
		})
	}
	webutil.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) viewerMayAccess(w http.ResponseWriter, r *http.Request, userID, goalID primitive.ObjectID) bool {
	goal, err := h.Goals.GetByID(r.Context(), goalID)
	if err != nil {
		if errors.Is(err, goalstore.ErrNotFound) {
			apierrors.NotFound(w, "goal not found")
			return false
		}
		apierrors.Internal(w, h.Log, "goal load failed", err)
		return false
	}
	return h.viewerIsParticipant(w, r, userID, goal.ActivityID)
}

func (h *Handler) viewerIsParticipant(w http.ResponseWriter, r *http.Request, userID, activityID primitive.ObjectID) bool {
	isMember, err := h.Policy.IsParticipant(r.Context(), userID, activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "role lookup failed", err)
		return false
	}
	if !isMember {
		apierrors.Forbidden(w, "participants only")
		return false
	}
	return true
}

// imageExt picks a file extension from the declared content type so the
// object store path stays recognizable.
func imageExt(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
