// internal/app/features/accounts/handler.go
package accounts

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/goalpeer/goalpeer/internal/app/features/errors/apierrors"
	sessionstore "github.com/goalpeer/goalpeer/internal/app/store/sessions"
	userstore "github.com/goalpeer/goalpeer/internal/app/store/users"
	"github.com/goalpeer/goalpeer/internal/app/system/auth"
	"github.com/goalpeer/goalpeer/internal/app/system/authz"
	"github.com/goalpeer/goalpeer/internal/app/system/htmlsanitize"
	"github.com/goalpeer/goalpeer/internal/app/system/ratelimit"
	"github.com/goalpeer/goalpeer/internal/app/system/webutil"
	"github.com/goalpeer/goalpeer/internal/domain/models"
)

const minPasswordLength = 8

// Handler is the shared dependency container for account endpoints.
type Handler struct {
	Users    *userstore.Store
	Presence *sessionstore.Store
	Sessions *auth.SessionManager
	Limiter  *ratelimit.AuthLimiter
	Log      *zap.Logger
}

func NewHandler(users *userstore.Store, presence *sessionstore.Store, sm *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    users,
		Presence: presence,
		Sessions: sm,
		Limiter:  ratelimit.NewAuthLimiter(),
		Log:      logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Image: u.Image,
	}
}

// HandleRegister creates an account and signs the new user in.
// POST /auth/register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}

	name := strings.TrimSpace(htmlsanitize.Sanitize(req.Name))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if allowed, reason := h.Limiter.Check(r, email); !allowed {
		apierrors.Render(w, http.StatusTooManyRequests, reason)
		return
	}
	if name == "" {
		apierrors.BadRequest(w, "name is required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		apierrors.BadRequest(w, "a valid email is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		apierrors.BadRequest(w, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		apierrors.Internal(w, h.Log, "bcrypt hash failed", err)
		return
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		AuthMethod:   "password",
	}
	if err := h.Users.Create(r.Context(), &user); err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			apierrors.Conflict(w, "email is already registered")
			return
		}
		apierrors.Internal(w, h.Log, "user create failed", err)
		return
	}

	if err := h.signIn(w, r, user); err != nil {
		apierrors.Internal(w, h.Log, "session save failed", err)
		return
	}
	webutil.RespondJSON(w, http.StatusCreated, toUserResponse(user))
}

// HandleLogin verifies credentials and starts a session.
// POST /auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if allowed, reason := h.Limiter.Check(r, email); !allowed {
		apierrors.Render(w, http.StatusTooManyRequests, reason)
		return
	}
	user, err := h.Users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			// Same answer as a wrong password; do not reveal which.
			apierrors.Render(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		apierrors.Internal(w, h.Log, "user lookup failed", err)
		return
	}

	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		apierrors.Render(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.Limiter.ResetEmail(email)
	if err := h.signIn(w, r, user); err != nil {
		apierrors.Internal(w, h.Log, "session save failed", err)
		return
	}
	webutil.RespondJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleLogout ends the session and clears the presence record.
// POST /auth/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if _, userID, ok := authz.UserCtx(r); ok {
		if err := h.Presence.Remove(r.Context(), userID); err != nil {
			h.Log.Warn("presence remove failed", zap.Error(err))
		}
	}
	if err := h.Sessions.SignOut(w, r); err != nil {
		apierrors.Internal(w, h.Log, "session clear failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the signed-in user.
// GET /auth/me
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	user, err := h.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			apierrors.Unauthorized(w)
			return
		}
		apierrors.Internal(w, h.Log, "user lookup failed", err)
		return
	}
	webutil.RespondJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, user models.User) error {
	if err := h.Sessions.SignIn(w, r, &auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.Name,
		Email: user.Email,
	}); err != nil {
		return err
	}
	// Presence feeds the radar's online flag; advisory only.
	if err := h.Presence.Touch(r.Context(), user.ID); err != nil {
		h.Log.Warn("presence touch failed", zap.Error(err))
	}
	return nil
}
