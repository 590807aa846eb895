// file: internals/route/index.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"academy_backend/internals/helpers/dbtime"
	"academy_backend/internals/middlewares"
	routeDetails "academy_backend/internals/route/details"
)

var startTime time.Time

type Deps struct {
	Log           *zap.Logger
	Loc           *time.Location
	StoreDriver   string
	WebhookSecret string
	// Ping reports store reachability for /health; nil means always up.
	Ping        Pinger
	Controllers routeDetails.AcademyControllers
}

func SetupRoutes(app *fiber.App, deps Deps) {
	startTime = time.Now()
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	log.Info("setting up base routes")
	BaseRoutes(app, deps)

	// ===================== BRANCH (per tenant/branch) =====================
	log.Info("setting up branch group", zap.String("prefix", "/api/a/:tenant_id/:branch_id"))
	branch := app.Group("/api/a/:tenant_id/:branch_id",
		middlewares.GlobalRateLimiter(),
		middlewares.ScopeMiddleware(),
		dbtime.BranchLocationMiddleware(deps.Loc),
	)

	// ===================== HOOKS (trigger delivery) =====================
	log.Info("setting up hooks group", zap.Bool("secret_required", deps.WebhookSecret != ""))
	hooks := app.Group("/api/hooks",
		middlewares.WebhookRateLimiter(),
		middlewares.WebhookSecret(deps.WebhookSecret),
	)

	// ===================== MOUNT ROUTES =====================
	routeDetails.AcademyBranchRoutes(branch, deps.Controllers)
	routeDetails.AcademyHookRoutes(hooks, deps.Controllers)
}
