// internal/app/features/activities/handler.go
package activities

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/goalpeer/goalpeer/internal/app/features/errors/apierrors"
	"github.com/goalpeer/goalpeer/internal/app/policy/activitypolicy"
	activitystore "github.com/goalpeer/goalpeer/internal/app/store/activities"
	goalstore "github.com/goalpeer/goalpeer/internal/app/store/goals"
	intereststore "github.com/goalpeer/goalpeer/internal/app/store/interests"
	invitationstore "github.com/goalpeer/goalpeer/internal/app/store/invitations"
	joinrequeststore "github.com/goalpeer/goalpeer/internal/app/store/joinrequests"
	membershipstore "github.com/goalpeer/goalpeer/internal/app/store/memberships"
	progressstore "github.com/goalpeer/goalpeer/internal/app/store/progress"
	proofstore "github.com/goalpeer/goalpeer/internal/app/store/proofs"
	"github.com/goalpeer/goalpeer/internal/app/system/authz"
	"github.com/goalpeer/goalpeer/internal/app/system/contentgen"
	"github.com/goalpeer/goalpeer/internal/app/system/htmlsanitize"
	"github.com/goalpeer/goalpeer/internal/app/system/txn"
	"github.com/goalpeer/goalpeer/internal/app/system/webutil"
	"github.com/goalpeer/goalpeer/internal/domain/models"
)

// Handler owns the activity lifecycle: create, read, update with goal
// diffing, and cascading delete.
type Handler struct {
	Client       *mongo.Client
	Activities   *activitystore.Store
	Goals        *goalstore.Store
	Memberships  *membershipstore.Store
	JoinRequests *joinrequeststore.Store
	Invitations  *invitationstore.Store
	Proofs       *proofstore.Store
	Progress     *progressstore.Store
	Interests    *intereststore.Store
	Policy       *activitypolicy.Policy
	Gen          *contentgen.Generator
	Log          *zap.Logger
}

func NewHandler(client *mongo.Client, db *mongo.Database, gen *contentgen.Generator, logger *zap.Logger) *Handler {
	memberships := membershipstore.New(db)
	return &Handler{
		Client:       client,
		Activities:   activitystore.New(db),
		Goals:        goalstore.New(db),
		Memberships:  memberships,
		JoinRequests: joinrequeststore.New(db),
		Invitations:  invitationstore.New(db),
		Proofs:       proofstore.New(db),
		Progress:     progressstore.New(db),
		Interests:    intereststore.New(db),
		Policy:       activitypolicy.New(memberships),
		Gen:          gen,
		Log:          logger,
	}
}

var (
	errEndedGoalDelete = errors.New("cannot delete a goal that has already ended")
	errUnknownGoal     = errors.New("goal does not belong to this activity")
)

type goalInput struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

type activityRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	InterestIDs []string    `json:"interest_ids,omitempty"`
	Goals       []goalInput `json:"goals,omitempty"`
}

type interestResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type goalResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

type activitySummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Role         string `json:"role"`
	Participants int    `json:"participants"`
}

type activityDetail struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Interests    []interestResponse `json:"interests"`
	Goals        []goalResponse     `json:"goals"`
	Participants int                `json:"participants"`
	Role         string             `json:"role,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// validated carries an activityRequest after sanitizing and parsing.
type validated struct {
	name        string
	description string
	interestIDs []primitive.ObjectID
	goals       []goalInput
}

func (h *Handler) validate(r *http.Request, req activityRequest) (validated, string) {
	var v validated

	v.name = strings.TrimSpace(htmlsanitize.Sanitize(req.Name))
	if v.name == "" {
		return v, "name is required"
	}
	v.description = strings.TrimSpace(htmlsanitize.Sanitize(req.Description))

	for _, raw := range req.InterestIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return v, "invalid interest id"
		}
		v.interestIDs = append(v.interestIDs, id)
	}
	if len(v.interestIDs) > 0 {
		if err := h.Interests.ValidateIDs(r.Context(), v.interestIDs); err != nil {
			if errors.Is(err, intereststore.ErrUnknownInterest) {
				return v, "unknown interest id"
			}
			h.Log.Error("interest validation failed", zap.Error(err))
			return v, "unknown interest id"
		}
	}

	for _, g := range req.Goals {
		g.Title = strings.TrimSpace(htmlsanitize.Sanitize(g.Title))
		g.Description = strings.TrimSpace(htmlsanitize.Sanitize(g.Description))
		if g.Title == "" {
			return v, "every goal needs a title"
		}
		if g.StartDate.IsZero() || g.EndDate.IsZero() {
			return v, "every goal needs a start and end date"
		}
		if g.EndDate.Before(g.StartDate) {
			return v, "goal end date cannot precede its start date"
		}
		v.goals = append(v.goals, g)
	}
	return v, ""
}

// HandleCreate creates the activity, its initial goals and the founding
// OWNER membership in one unit of work. When the caller supplies no
// description or tags, the content generator fills them in on a
// best-effort basis before the writes begin.
// POST /activities
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}

	var req activityRequest
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	v, msg := h.validate(r, req)
	if msg != "" {
		apierrors.BadRequest(w, msg)
		return
	}

	// Generation runs outside the transaction; its own timeout bounds it
	// and any failure leaves the fields empty.
	if v.description == "" {
		v.description = h.Gen.DraftDescription(r.Context(), v.name)
	}
	if len(v.interestIDs) == 0 {
		v.interestIDs = h.suggestInterests(r.Context(), v.name, v.description)
	}

	activity := models.Activity{
		Name:        v.name,
		Description: v.description,
		InterestIDs: v.interestIDs,
	}
	var created []models.Goal

	err := txn.WithTxn(r.Context(), h.Client, func(ctx context.Context) error {
		if err := h.Activities.Create(ctx, &activity); err != nil {
			return err
		}
		if err := h.Memberships.Add(ctx, userID, activity.ID, models.RoleOwner); err != nil {
			return err
		}
		created = created[:0]
		for _, g := range v.goals {
			goal := models.Goal{
				ActivityID:  activity.ID,
				Title:       g.Title,
				Description: g.Description,
				StartDate:   g.StartDate.UTC(),
				EndDate:     g.EndDate.UTC(),
			}
			if err := h.Goals.Create(ctx, &goal); err != nil {
				return err
			}
			created = append(created, goal)
		}
		return nil
	})
	if err != nil {
		apierrors.Internal(w, h.Log, "activity create failed", err)
		return
	}

	detail, err := h.buildDetail(r.Context(), activity, created, string(models.RoleOwner))
	if err != nil {
		apierrors.Internal(w, h.Log, "activity detail build failed", err)
		return
	}
	webutil.RespondJSON(w, http.StatusCreated, detail)
}

// suggestInterests asks the generator to pick catalog tags for a new
// activity. Empty result on any failure.
func (h *Handler) suggestInterests(ctx context.Context, name, description string) []primitive.ObjectID {
	catalog, err := h.Interests.List(ctx)
	if err != nil {
		h.Log.Warn("interest catalog load failed", zap.Error(err))
		return nil
	}
	names := make([]string, 0, len(catalog))
	for _, i := range catalog {
		names = append(names, i.Name)
	}

	picked := h.Gen.SuggestInterests(ctx, name, description, names)
	if len(picked) == 0 {
		return nil
	}
	ids, err := h.Interests.IDsByNames(ctx, picked)
	if err != nil {
		h.Log.Warn("suggested interest lookup failed", zap.Error(err))
		return nil
	}
	return ids
}

// HandleGet returns one activity with its goals, tags, participant count
// and the viewer's role when they are a participant.
// GET /activities/{activityID}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
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

	activity, err := h.Activities.GetByID(r.Context(), activityID)
	if err != nil {
		if errors.Is(err, activitystore.ErrNotFound) {
			apierrors.NotFound(w, "activity not found")
			return
		}
		apierrors.Internal(w, h.Log, "activity load failed", err)
		return
	}

	goals, err := h.Goals.ListByActivity(r.Context(), activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "goal list failed", err)
		return
	}

	role, isMember, err := h.Policy.RoleOf(r.Context(), userID, activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "role lookup failed", err)
		return
	}
	roleStr := ""
	if isMember {
		roleStr = string(role)
	}

	detail, err := h.buildDetail(r.Context(), activity, goals, roleStr)
	if err != nil {
		apierrors.Internal(w, h.Log, "activity detail build failed", err)
		return
	}
	webutil.RespondJSON(w, http.StatusOK, detail)
}

// HandleListMine returns the activities the caller participates in.
// GET /activities
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}

	memberships, err := h.Memberships.ListByUser(r.Context(), userID)
	if err != nil {
		apierrors.Internal(w, h.Log, "membership list failed", err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(memberships))
	roleByActivity := make(map[primitive.ObjectID]models.Role, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.ActivityID)
		roleByActivity[m.ActivityID] = m.Role
	}

	activities, err := h.Activities.GetByIDs(r.Context(), ids)
	if err != nil {
		apierrors.Internal(w, h.Log, "activity load failed", err)
		return
	}

	out := make([]activitySummary, 0, len(activities))
	for id, a := range activities {
		n, err := h.Memberships.CountByActivity(r.Context(), id)
		if err != nil {
			apierrors.Internal(w, h.Log, "participant count failed", err)
			return
		}
		out = append(out, activitySummary{
			ID:           id.Hex(),
			Name:         a.Name,
			Description:  a.Description,
			Role:         string(roleByActivity[id]),
			Participants: n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	webutil.RespondJSON(w, http.StatusOK, out)
}

// HandleUpdate rewrites name, description, tags and the goal set. Goal
// diffing is by id: incoming goals with an id update in place, goals
// without one are created, and existing goals missing from the payload
// are deleted. If any goal marked for deletion has already ended the
// whole update aborts and nothing changes.
// PUT /activities/{activityID}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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
	if !h.requireOwner(w, r, userID, activityID) {
		return
	}

	var req activityRequest
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	v, msg := h.validate(r, req)
	if msg != "" {
		apierrors.BadRequest(w, msg)
		return
	}

	now := time.Now().UTC()
	err := txn.WithTxn(r.Context(), h.Client, func(ctx context.Context) error {
		existing, err := h.Goals.ListByActivity(ctx, activityID)
		if err != nil {
			return err
		}
		byID := make(map[primitive.ObjectID]models.Goal, len(existing))
		for _, g := range existing {
			byID[g.ID] = g
		}

		keep := make(map[primitive.ObjectID]bool, len(v.goals))
		var updates []models.Goal
		var creates []goalInput
		for _, in := range v.goals {
			if in.ID == "" {
				creates = append(creates, in)
				continue
			}
			id, err := primitive.ObjectIDFromHex(in.ID)
			if err != nil {
				return errUnknownGoal
			}
			g, found := byID[id]
			if !found {
				return errUnknownGoal
			}
			keep[id] = true
			g.Title = in.Title
			g.Description = in.Description
			g.StartDate = in.StartDate.UTC()
			g.EndDate = in.EndDate.UTC()
			updates = append(updates, g)
		}

		// The delete guard runs before any write so a violation leaves
		// the goal set untouched even without server transactions.
		var deletes []primitive.ObjectID
		for _, g := range existing {
			if keep[g.ID] {
				continue
			}
			if g.Ended(now) {
				return errEndedGoalDelete
			}
			deletes = append(deletes, g.ID)
		}

		if err := h.Activities.Update(ctx, activityID, v.name, v.description, v.interestIDs); err != nil {
			return err
		}
		for _, g := range updates {
			if err := h.Goals.Update(ctx, g); err != nil {
				return err
			}
		}
		for _, in := range creates {
			goal := models.Goal{
				ActivityID:  activityID,
				Title:       in.Title,
				Description: in.Description,
				StartDate:   in.StartDate.UTC(),
				EndDate:     in.EndDate.UTC(),
			}
			if err := h.Goals.Create(ctx, &goal); err != nil {
				return err
			}
		}
		if len(deletes) > 0 {
			if err := h.Proofs.DeleteByGoals(ctx, deletes); err != nil {
				return err
			}
			if err := h.Progress.DeleteByGoals(ctx, deletes); err != nil {
				return err
			}
			for _, id := range deletes {
				if err := h.Goals.Delete(ctx, id); err != nil {
					return err
				}
			}
		}
		return nil
	})
	switch {
	case errors.Is(err, errEndedGoalDelete):
		apierrors.Conflict(w, errEndedGoalDelete.Error())
		return
	case errors.Is(err, errUnknownGoal):
		apierrors.BadRequest(w, errUnknownGoal.Error())
		return
	case errors.Is(err, activitystore.ErrNotFound):
		apierrors.NotFound(w, "activity not found")
		return
	case err != nil:
		apierrors.Internal(w, h.Log, "activity update failed", err)
		return
	}

	h.HandleGet(w, r)
}

// HandleDelete removes the activity and everything hanging off it:
// goals, proofs and their likes, progress, memberships, join requests
// and invitations.
// DELETE /activities/{activityID}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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
	if !h.requireOwner(w, r, userID, activityID) {
		return
	}

	err := txn.WithTxn(r.Context(), h.Client, func(ctx context.Context) error {
		goalIDs, err := h.Goals.IDsByActivity(ctx, activityID)
		if err != nil {
			return err
		}
		if len(goalIDs) > 0 {
			if err := h.Proofs.DeleteByGoals(ctx, goalIDs); err != nil {
				return err
			}
			if err := h.Progress.DeleteByGoals(ctx, goalIDs); err != nil {
				return err
			}
		}
		if err := h.Goals.DeleteByActivity(ctx, activityID); err != nil {
			return err
		}
		if err := h.Memberships.DeleteByActivity(ctx, activityID); err != nil {
			return err
		}
		if err := h.JoinRequests.DeleteByActivity(ctx, activityID); err != nil {
			return err
		}
		if err := h.Invitations.DeleteByActivity(ctx, activityID); err != nil {
			return err
		}
		return h.Activities.Delete(ctx, activityID)
	})
	if err != nil {
		if errors.Is(err, activitystore.ErrNotFound) {
			apierrors.NotFound(w, "activity not found")
			return
		}
		apierrors.Internal(w, h.Log, "activity delete failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireOwner writes the error response itself and reports whether the
// caller may proceed. A missing activity is 404; a non-owner is 403.
func (h *Handler) requireOwner(w http.ResponseWriter, r *http.Request, userID, activityID primitive.ObjectID) bool {
	if _, err := h.Activities.GetByID(r.Context(), activityID); err != nil {
		if errors.Is(err, activitystore.ErrNotFound) {
			apierrors.NotFound(w, "activity not found")
			return false
		}
		apierrors.Internal(w, h.Log, "activity load failed", err)
		return false
	}
	isOwner, err := h.Policy.IsOwner(r.Context(), userID, activityID)
	if err != nil {
		apierrors.Internal(w, h.Log, "role lookup failed", err)
		return false
	}
	if !isOwner {
		apierrors.Forbidden(w, "only the owner may do this")
		return false
	}
	return true
}

func (h *Handler) buildDetail(ctx context.Context, a models.Activity, goals []models.Goal, role string) (activityDetail, error) {
	interests, err := h.Interests.GetByIDs(ctx, a.InterestIDs)
	if err != nil {
		return activityDetail{}, err
	}
	participants, err := h.Memberships.CountByActivity(ctx, a.ID)
	if err != nil {
		return activityDetail{}, err
	}

	d := activityDetail{
		ID:           a.ID.Hex(),
		Name:         a.Name,
		Description:  a.Description,
		Interests:    make([]interestResponse, 0, len(a.InterestIDs)),
		Goals:        make([]goalResponse, 0, len(goals)),
		Participants: participants,
		Role:         role,
		CreatedAt:    a.CreatedAt,
	}
	for _, id := range a.InterestIDs {
		if i, found := interests[id]; found {
			d.Interests = append(d.Interests, interestResponse{ID: i.ID.Hex(), Name: i.Name, Icon: i.Icon})
		}
	}
	for _, g := range goals {
		d.Goals = append(d.Goals, goalResponse{
			ID:          g.ID.Hex(),
			Title:       g.Title,
			Description: g.Description,
			StartDate:   g.StartDate,
			EndDate:     g.EndDate,
		})
	}
	return d, nil
}
