package route

import (
	"github.com/gofiber/fiber/v2"

	"academy_backend/internals/features/academy/schedules/controller"
	"academy_backend/internals/middlewares"
)

// ScheduleBranchRoutes mounts under /api/a/:tenant_id/:branch_id.
func ScheduleBranchRoutes(branch fiber.Router, ctl *controller.ScheduleController) {
	branch.Get("/grid", ctl.GetGrid)
	branch.Get("/grid.ics", ctl.GetGridICal)
	branch.Post("/sessions/ensure", middlewares.HeavyRateLimiter(), ctl.EnsureSessions)
}
