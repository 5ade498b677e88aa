// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	accountsfeature "github.com/goalpeer/goalpeer/internal/app/features/accounts"
	activitiesfeature "github.com/goalpeer/goalpeer/internal/app/features/activities"
	authgooglefeature "github.com/goalpeer/goalpeer/internal/app/features/authgoogle"
	goalsfeature "github.com/goalpeer/goalpeer/internal/app/features/goals"
	healthfeature "github.com/goalpeer/goalpeer/internal/app/features/health"
	interestsfeature "github.com/goalpeer/goalpeer/internal/app/features/interests"
	invitationsfeature "github.com/goalpeer/goalpeer/internal/app/features/invitations"
	joinrequestsfeature "github.com/goalpeer/goalpeer/internal/app/features/joinrequests"
	membersfeature "github.com/goalpeer/goalpeer/internal/app/features/members"
	profilefeature "github.com/goalpeer/goalpeer/internal/app/features/profile"
	proofsfeature "github.com/goalpeer/goalpeer/internal/app/features/proofs"
	radarfeature "github.com/goalpeer/goalpeer/internal/app/features/radar"
	activitystore "github.com/goalpeer/goalpeer/internal/app/store/activities"
	goalstore "github.com/goalpeer/goalpeer/internal/app/store/goals"
	membershipstore "github.com/goalpeer/goalpeer/internal/app/store/memberships"
	"github.com/goalpeer/goalpeer/internal/app/store/oauthstate"
	proofstore "github.com/goalpeer/goalpeer/internal/app/store/proofs"
	sessionstore "github.com/goalpeer/goalpeer/internal/app/store/sessions"
	userstore "github.com/goalpeer/goalpeer/internal/app/store/users"
	"github.com/goalpeer/goalpeer/internal/app/system/auth"
	"github.com/goalpeer/goalpeer/internal/app/system/metrics"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE
// app. WAFFLE calls it after configuration, DB connections, schema setup,
// and the Startup hook have completed.
//
// The /activities subtree is shared by several features: activity CRUD,
// the member roster, join requests, activity-scoped invitations, and the
// goal view all register their routes on one router so their paths can
// nest under the same prefix.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	users := userstore.New(db)
	activities := activitystore.New(db)
	memberships := membershipstore.New(db)
	goals := goalstore.New(db)
	proofs := proofstore.New(db)
	presence := sessionstore.New(db)

	m := metrics.New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Use(sessionMgr.LoadSessionUser)

	// Ops endpoints
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", m.Handler())

	// Authentication: password accounts and the Google OAuth flow
	accountsHandler := accountsfeature.NewHandler(users, presence, sessionMgr, logger)
	googleHandler := authgooglefeature.NewHandler(
		users, presence, oauthstate.New(db), sessionMgr,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL,
		logger,
	)
	r.Route("/auth", func(ar chi.Router) {
		accountsfeature.Mount(ar, accountsHandler, sessionMgr)
		ar.Mount("/google", authgooglefeature.Routes(googleHandler))
	})

	// The shared /activities subtree
	activitiesHandler := activitiesfeature.NewHandler(deps.MongoClient, db, deps.Gen, logger)
	membersHandler := membersfeature.NewHandler(activities, memberships, users, logger)
	joinrequestsHandler := joinrequestsfeature.NewHandler(deps.MongoClient, db, logger)
	invitationsHandler := invitationsfeature.NewHandler(deps.MongoClient, db, logger)
	goalsHandler := goalsfeature.NewHandler(db, logger)

	r.Route("/activities", func(ar chi.Router) {
		ar.Use(sessionMgr.RequireSignedIn)
		activitiesfeature.Mount(ar, activitiesHandler)
		membersfeature.Mount(ar, membersHandler)
		joinrequestsfeature.Mount(ar, joinrequestsHandler)
		invitationsfeature.MountActivity(ar, invitationsHandler)
		goalsfeature.Mount(ar, goalsHandler)
	})

	// Standalone feature subtrees
	r.Mount("/invitations", invitationsfeature.Routes(invitationsHandler, sessionMgr))
	r.Mount("/goals", goalsfeature.Routes(goalsHandler, sessionMgr))

	proofsHandler := proofsfeature.NewHandler(proofs, goals, memberships, users, deps.Storage, m, logger)
	r.Mount("/proofs", proofsfeature.Routes(proofsHandler, sessionMgr))

	interestsHandler := interestsfeature.NewHandler(db, deps.Cache, logger)
	r.Mount("/interests", interestsfeature.Routes(interestsHandler, sessionMgr))
	r.Mount("/users", interestsfeature.UserRoutes(interestsHandler, sessionMgr))

	radarHandler := radarfeature.NewHandler(db, logger)
	r.Mount("/radar", radarfeature.Routes(radarHandler, sessionMgr))

	profileHandler := profilefeature.NewHandler(db, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

	return r, nil
}
