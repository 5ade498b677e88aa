// internal/app/features/goals/handler.go
//
// Read views over an activity's goals, partitioned by date window with
// the viewer's own completion status attached, plus the manual progress
// toggle that participants use independently of peer verification.
package goals

import (
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/goalpeer/goalpeer/internal/app/features/errors/apierrors"
	activitystore "github.com/goalpeer/goalpeer/internal/app/store/activities"
	goalstore "github.com/goalpeer/goalpeer/internal/app/store/goals"
	membershipstore "github.com/goalpeer/goalpeer/internal/app/store/memberships"
	progressstore "github.com/goalpeer/goalpeer/internal/app/store/progress"
	proofstore "github.com/goalpeer/goalpeer/internal/app/store/proofs"
	"github.com/goalpeer/goalpeer/internal/app/system/authz"
	"github.com/goalpeer/goalpeer/internal/app/system/verification"
	"github.com/goalpeer/goalpeer/internal/app/system/webutil"
	"github.com/goalpeer/goalpeer/internal/domain/models"
)

type Handler struct {
	Activities  *activitystore.Store
	Goals       *goalstore.Store
	Memberships *membershipstore.Store
	Proofs      *proofstore.Store
	Progress    *progressstore.Store
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Activities:  activitystore.New(db),
		Goals:       goalstore.New(db),
		Memberships: membershipstore.New(db),
		Proofs:      proofstore.New(db),
		Progress:    progressstore.New(db),
		Log:         logger,
	}
}

type goalEntry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Completion  string    `json:"completion"`
	Completed   bool      `json:"completed"`
}

type goalsView struct {
	Active []goalEntry `json:"active"`
	Past   []goalEntry `json:"past"`
	Future []goalEntry `json:"future"`
}

// HandleListByActivity serves GET /activities/{activityID}/goals. Goals
// are bucketed by where their date window sits relative to now, and each
// entry carries the viewer's completion status, so the threshold math
// reflects the activity's current participant count.
func (h *Handler) HandleListByActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
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
	if _, err := h.Activities.GetByID(ctx, activityID); err != nil {
		if errors.Is(err, activitystore.ErrNotFound) {
			apierrors.NotFound(w, "activity not found")
			return
		}
		apierrors.Internal(w, h.Log, "load activity", err)
		return
	}
	if _, err := h.Memberships.Get(ctx, userID, activityID); err != nil {
		if errors.Is(err, membershipstore.ErrNotFound) {
			apierrors.Forbidden(w, "participants only")
			return
		}
		apierrors.Internal(w, h.Log, "load membership", err)
		return
	}

	goals, err := h.Goals.ListByActivity(ctx, activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "list goals", err)
		return
	}
	participants, err := h.Memberships.CountByActivity(ctx, activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "count participants", err)
		return
	}

	goalIDs := make([]primitive.ObjectID, 0, len(goals))
	for _, g := range goals {
		goalIDs = append(goalIDs, g.ID)
	}
	progressByGoal, err := h.Progress.GetByUserGoals(ctx, userID, goalIDs)
	if err != nil {
		apierrors.Internal(w, h.Log, "load progress", err)
		return
	}

	now := time.Now().UTC()
	view := goalsView{
		Active: []goalEntry{},
		Past:   []goalEntry{},
		Future: []goalEntry{},
	}
	for _, g := range goals {
		entry := goalEntry{
			ID:          g.ID.Hex(),
			Title:       g.Title,
			Description: g.Description,
			StartDate:   g.StartDate,
			EndDate:     g.EndDate,
			Completed:   progressByGoal[g.ID].IsCompleted,
		}
		status, err := h.completionFor(r, userID, g, participants, now)
		if err != nil {
			apierrors.Internal(w, h.Log, "derive completion", err)
			return
		}
		entry.Completion = string(status)

		switch verification.Window(g.StartDate, g.EndDate, now) {
		case verification.WindowPast:
			view.Past = append(view.Past, entry)
		case verification.WindowFuture:
			view.Future = append(view.Future, entry)
		default:
			view.Active = append(view.Active, entry)
		}
	}
	webutil.RespondJSON(w, http.StatusOK, view)
}

func (h *Handler) completionFor(r *http.Request, userID primitive.ObjectID, g models.Goal, participants int, now time.Time) (verification.CompletionStatus, error) {
	ctx := r.Context()
	proof, err := h.Proofs.GetByUserGoal(ctx, userID, g.ID)
	if errors.Is(err, proofstore.ErrNotFound) {
		return verification.Completion(false, 0, participants, g.Ended(now)), nil
	}
	if err != nil {
		return "", err
	}
	likes, err := h.Proofs.CountLikes(ctx, proof.ID)
	if err != nil {
		return "", err
	}
	return verification.Completion(true, likes, participants, g.Ended(now)), nil
}

type progressRequest struct {
	Completed bool `json:"completed"`
}

type progressResponse struct {
	GoalID    string `json:"goal_id"`
	Completed bool   `json:"completed"`
}

// HandleGetProgress serves GET /goals/{goalID}/progress.
func (h *Handler) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	goal, ok := h.requireParticipantGoal(w, r, userID)
	if !ok {
		return
	}
	p, err := h.Progress.Get(ctx, userID, goal.ID)
	if err != nil && !errors.Is(err, progressstore.ErrNotFound) {
		apierrors.Internal(w, h.Log, "load progress", err)
		return
	}
	webutil.RespondJSON(w, http.StatusOK, progressResponse{
		GoalID:    goal.ID.Hex(),
		Completed: p.IsCompleted,
	})
}

// HandleSetProgress serves POST /goals/{goalID}/progress. The flag is the
// participant's own bookkeeping and has no bearing on peer verification.
func (h *Handler) HandleSetProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	var req progressRequest
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	goal, ok := h.requireParticipantGoal(w, r, userID)
	if !ok {
		return
	}
	p, err := h.Progress.SetCompleted(ctx, userID, goal.ID, req.Completed)
	if err != nil {
		apierrors.Internal(w, h.Log, "set progress", err)
		return
	}
	webutil.RespondJSON(w, http.StatusOK, progressResponse{
		GoalID:    goal.ID.Hex(),
		Completed: p.IsCompleted,
	})
}

// requireParticipantGoal resolves {goalID} and checks the caller belongs
// to the goal's activity. Handlers bail out when ok is false.
func (h *Handler) requireParticipantGoal(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) (models.Goal, bool) {
	ctx := r.Context()
	goalID, ok := webutil.PathID(r, "goalID")
	if !ok {
		apierrors.NotFound(w, "goal not found")
		return models.Goal{}, false
	}
	goal, err := h.Goals.GetByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, goalstore.ErrNotFound) {
			apierrors.NotFound(w, "goal not found")
			return models.Goal{}, false
		}
		apierrors.Internal(w, h.Log, "load goal", err)
		return models.Goal{}, false
	}
	if _, err := h.Memberships.Get(ctx, userID, goal.ActivityID); err != nil {
		if errors.Is(err, membershipstore.ErrNotFound) {
			apierrors.Forbidden(w, "participants only")
			return models.Goal{}, false
		}
		apierrors.Internal(w, h.Log, "load membership", err)
		return models.Goal{}, false
	}
	return goal, true
}
