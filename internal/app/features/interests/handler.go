// internal/app/features/interests/handler.go
//
// The interest catalog read and the user's interest selection. The
// catalog is immutable after seeding, so reads go through the cache.
package interests

import (
	"net/http"
	"sort"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/goalpeer/goalpeer/internal/app/features/errors/apierrors"
	intereststore "github.com/goalpeer/goalpeer/internal/app/store/interests"
	userstore "github.com/goalpeer/goalpeer/internal/app/store/users"
	"github.com/goalpeer/goalpeer/internal/app/system/authz"
	"github.com/goalpeer/goalpeer/internal/app/system/cache"
	"github.com/goalpeer/goalpeer/internal/app/system/webutil"
	"github.com/goalpeer/goalpeer/internal/domain/models"
)

const (
	catalogCacheKey = "interests:catalog"
	catalogCacheTTL = time.Hour
)

// reservedNames are folded interest names that can never be selected.
// They label fixed scene slots in the mobile client and must not appear
// as personal interests.
var reservedNames = map[string]struct{}{
	"podloga": {},
	"sciana":  {},
	"polki":   {},
}

type Handler struct {
	Interests *intereststore.Store
	Users     *userstore.Store
	Cache     *cache.Cache
	Log       *zap.Logger
}

func NewHandler(db *mongo.Database, c *cache.Cache, logger *zap.Logger) *Handler {
	return &Handler{
		Interests: intereststore.New(db),
		Users:     userstore.New(db),
		Cache:     c,
		Log:       logger,
	}
}

type interestResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// HandleCatalog serves GET /interests.
func (h *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cached []interestResponse
	if err := h.Cache.GetJSON(ctx, catalogCacheKey, &cached); err == nil {
		webutil.RespondJSON(w, http.StatusOK, cached)
		return
	}

	list, err := h.Interests.List(ctx)
	if err != nil {
		apierrors.Internal(w, h.Log, "list interests", err)
		return
	}
	out := make([]interestResponse, 0, len(list))
	for _, it := range list {
		out = append(out, interestResponse{ID: it.ID.Hex(), Name: it.Name, Icon: it.Icon})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	h.Cache.SetJSON(ctx, catalogCacheKey, out, catalogCacheTTL)
	webutil.RespondJSON(w, http.StatusOK, out)
}

type setInterestsRequest struct {
	InterestIDs []string `json:"interest_ids"`
}

// HandleSetUserInterests serves PUT /users/interests. The request
// replaces the whole selection; sending an empty list clears it.
func (h *Handler) HandleSetUserInterests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	var req setInterestsRequest
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	if len(req.InterestIDs) > models.MaxUserInterests {
		apierrors.BadRequest(w, "at most 4 interests may be selected")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(req.InterestIDs))
	seen := make(map[primitive.ObjectID]struct{}, len(req.InterestIDs))
	for _, raw := range req.InterestIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			apierrors.BadRequest(w, "invalid interest id")
			return
		}
		if _, dup := seen[id]; dup {
			apierrors.BadRequest(w, "duplicate interest id")
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	byID, err := h.Interests.GetByIDs(ctx, ids)
	if err != nil {
		apierrors.Internal(w, h.Log, "resolve interests", err)
		return
	}
	selected := make([]interestResponse, 0, len(ids))
	for _, id := range ids {
		it, found := byID[id]
		if !found {
			apierrors.BadRequest(w, "interest is not in the catalog")
			return
		}
		if _, reserved := reservedNames[text.Fold(it.Name)]; reserved {
			apierrors.BadRequest(w, "interest name is reserved")
			return
		}
		selected = append(selected, interestResponse{ID: it.ID.Hex(), Name: it.Name, Icon: it.Icon})
	}

	if err := h.Users.SetInterests(ctx, userID, ids); err != nil {
		apierrors.Internal(w, h.Log, "save interests", err)
		return
	}
	webutil.RespondJSON(w, http.StatusOK, selected)
}
