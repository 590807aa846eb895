package route

import (
	"github.com/gofiber/fiber/v2"

	"academy_backend/internals/features/academy/occupancy/controller"
	"academy_backend/internals/middlewares"
)

// OccupancyBranchRoutes mounts under /api/a/:tenant_id/:branch_id.
func OccupancyBranchRoutes(branch fiber.Router, ctl *controller.OccupancyController) {
	branch.Post("/sessions/:session_id/occupancy", ctl.BumpSession)
	branch.Post("/occupancy/reconcile", middlewares.HeavyRateLimiter(), ctl.Reconcile)
}

// OccupancyHookRoutes mounts under /api/hooks.
func OccupancyHookRoutes(hooks fiber.Router, ctl *controller.OccupancyController) {
	hooks.Post("/enrollments", ctl.EnrollmentWebhook)
}
