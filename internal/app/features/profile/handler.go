// internal/app/features/profile/handler.go
//
// The caller's own profile: account fields, selected interests, and
// progress statistics including the consecutive-day streak.
package profile

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/goalpeer/goalpeer/internal/app/features/errors/apierrors"
	intereststore "github.com/goalpeer/goalpeer/internal/app/store/interests"
	progressstore "github.com/goalpeer/goalpeer/internal/app/store/progress"
	userstore "github.com/goalpeer/goalpeer/internal/app/store/users"
	"github.com/goalpeer/goalpeer/internal/app/system/authz"
	"github.com/goalpeer/goalpeer/internal/app/system/webutil"
)

type Handler struct {
	Users     *userstore.Store
	Interests *intereststore.Store
	Progress  *progressstore.Store
	Log       *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Users:     userstore.New(db),
		Interests: intereststore.New(db),
		Progress:  progressstore.New(db),
		Log:       logger,
	}
}

type interestResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type profileResponse struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Image          string             `json:"image,omitempty"`
	Interests      []interestResponse `json:"interests"`
	CompletedGoals int                `json:"completed_goals"`
	StreakDays     int                `json:"streak_days"`
	CreatedAt      time.Time          `json:"created_at"`
}

// HandleGet serves GET /profile.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		apierrors.Internal(w, h.Log, "load user", err)
		return
	}

	byID, err := h.Interests.GetByIDs(ctx, user.InterestIDs)
	if err != nil {
		apierrors.Internal(w, h.Log, "resolve interests", err)
		return
	}
	interests := make([]interestResponse, 0, len(user.InterestIDs))
	for _, id := range user.InterestIDs {
		it, found := byID[id]
		if !found {
			continue
		}
		interests = append(interests, interestResponse{ID: it.ID.Hex(), Name: it.Name, Icon: it.Icon})
	}

	completed, err := h.Progress.CountCompleted(ctx, userID)
	if err != nil {
		apierrors.Internal(w, h.Log, "count completed", err)
		return
	}
	dates, err := h.Progress.CompletionDates(ctx, userID)
	if err != nil {
		apierrors.Internal(w, h.Log, "load completion dates", err)
		return
	}

	webutil.RespondJSON(w, http.StatusOK, profileResponse{
		ID:             user.ID.Hex(),
		Name:           user.Name,
		Email:          user.Email,
		Image:          user.Image,
		Interests:      interests,
		CompletedGoals: completed,
		StreakDays:     Streak(dates, time.Now().UTC()),
		CreatedAt:      user.CreatedAt,
	})
}

// Streak counts consecutive days with at least one completion, walking
// back from today. A completion yesterday but none today still counts:
// the streak is only broken once a full day is missed.
func Streak(dates []time.Time, now time.Time) int {
	if len(dates) == 0 {
		return 0
	}
	days := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		days[d.UTC().Truncate(24*time.Hour)] = struct{}{}
	}

	day := now.Truncate(24 * time.Hour)
	if _, today := days[day]; !today {
		day = day.AddDate(0, 0, -1)
		if _, yesterday := days[day]; !yesterday {
			return 0
		}
	}

	streak := 0
	for {
		if _, hit := days[day]; !hit {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
