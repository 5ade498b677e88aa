// internal/app/features/radar/handler.go
//
// The radar surfaces people and activities that share interests with the
// caller. People are ranked by how many interests overlap, with an
// online flag derived from live session records.
package radar

import (
	"net/http"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/goalpeer/goalpeer/internal/app/features/errors/apierrors"
	activitystore "github.com/goalpeer/goalpeer/internal/app/store/activities"
	intereststore "github.com/goalpeer/goalpeer/internal/app/store/interests"
	membershipstore "github.com/goalpeer/goalpeer/internal/app/store/memberships"
	sessionstore "github.com/goalpeer/goalpeer/internal/app/store/sessions"
	userstore "github.com/goalpeer/goalpeer/internal/app/store/users"
	"github.com/goalpeer/goalpeer/internal/app/system/authz"
	"github.com/goalpeer/goalpeer/internal/app/system/webutil"
)

type Handler struct {
	Users       *userstore.Store
	Activities  *activitystore.Store
	Memberships *membershipstore.Store
	Interests   *intereststore.Store
	Presence    *sessionstore.Store
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Users:       userstore.New(db),
		Activities:  activitystore.New(db),
		Memberships: membershipstore.New(db),
		Interests:   intereststore.New(db),
		Presence:    sessionstore.New(db),
		Log:         logger,
	}
}

type personResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Image           string   `json:"image,omitempty"`
	SharedInterests []string `json:"shared_interests"`
	Online          bool     `json:"online"`
}

// HandlePeople serves GET /radar. Candidates share at least one interest
// with the caller and are sorted by overlap size, then name.
func (h *Handler) HandlePeople(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	me, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		apierrors.Internal(w, h.Log, "load caller", err)
		return
	}
	if len(me.InterestIDs) == 0 {
		webutil.RespondJSON(w, http.StatusOK, []personResponse{})
		return
	}

	candidates, err := h.Users.FindByInterests(ctx, me.InterestIDs, userID)
	if err != nil {
		apierrors.Internal(w, h.Log, "find candidates", err)
		return
	}

	candidateIDs := make([]primitive.ObjectID, 0, len(candidates))
	for _, c := range candidates {
		candidateIDs = append(candidateIDs, c.ID)
	}
	online, err := h.Presence.OnlineSet(ctx, candidateIDs)
	if err != nil {
		apierrors.Internal(w, h.Log, "load presence", err)
		return
	}
	interestNames, err := h.Interests.GetByIDs(ctx, me.InterestIDs)
	if err != nil {
		apierrors.Internal(w, h.Log, "resolve interests", err)
		return
	}

	mine := make(map[primitive.ObjectID]struct{}, len(me.InterestIDs))
	for _, id := range me.InterestIDs {
		mine[id] = struct{}{}
	}

	out := make([]personResponse, 0, len(candidates))
	for _, c := range candidates {
		shared := make([]string, 0, len(c.InterestIDs))
		for _, id := range c.InterestIDs {
			if _, both := mine[id]; both {
				shared = append(shared, interestNames[id].Name)
			}
		}
		sort.Strings(shared)
		out = append(out, personResponse{
			ID:              c.ID.Hex(),
			Name:            c.Name,
			Image:           c.Image,
			SharedInterests: shared,
			Online:          online[c.ID],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].SharedInterests) != len(out[j].SharedInterests) {
			return len(out[i].SharedInterests) > len(out[j].SharedInterests)
		}
		return out[i].Name < out[j].Name
	})
	webutil.RespondJSON(w, http.StatusOK, out)
}

type activityResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	SharedInterests []string `json:"shared_interests"`
	Participants    int      `json:"participants"`
}

// HandleActivities serves GET /radar/activities: activities tagged with
// an interest the caller shares, excluding those they already belong to.
func (h *Handler) HandleActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	me, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		apierrors.Internal(w, h.Log, "load caller", err)
		return
	}
	if len(me.InterestIDs) == 0 {
		webutil.RespondJSON(w, http.StatusOK, []activityResponse{})
		return
	}

	memberships, err := h.Memberships.ListByUser(ctx, userID)
	if err != nil {
		apierrors.Internal(w, h.Log, "list memberships", err)
		return
	}
	exclude := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		exclude = append(exclude, m.ActivityID)
	}

	activities, err := h.Activities.FindByInterests(ctx, me.InterestIDs, exclude)
	if err != nil {
		apierrors.Internal(w, h.Log, "find activities", err)
		return
	}
	interestNames, err := h.Interests.GetByIDs(ctx, me.InterestIDs)
	if err != nil {
		apierrors.Internal(w, h.Log, "resolve interests", err)
		return
	}
	mine := make(map[primitive.ObjectID]struct{}, len(me.InterestIDs))
	for _, id := range me.InterestIDs {
		mine[id] = struct{}{}
	}

	out := make([]activityResponse, 0, len(activities))
	for _, a := range activities {
		shared := make([]string, 0, len(a.InterestIDs))
		for _, id := range a.InterestIDs {
			if _, both := mine[id]; both {
				shared = append(shared, interestNames[id].Name)
			}
		}
		sort.Strings(shared)
		count, err := h.Memberships.CountByActivity(ctx, a.ID)
		if err != nil {
			apierrors.Internal(w, h.Log, "count participants", err)
			return
		}
		out = append(out, activityResponse{
			ID:              a.ID.Hex(),
			Name:            a.Name,
			Description:     a.Description,
			SharedInterests: shared,
			Participants:    count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].SharedInterests) != len(out[j].SharedInterests) {
			return len(out[i].SharedInterests) > len(out[j].SharedInterests)
		}
		return out[i].Name < out[j].Name
	})
	webutil.RespondJSON(w, http.StatusOK, out)
}
