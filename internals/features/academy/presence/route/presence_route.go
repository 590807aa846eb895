package route

import (
	"github.com/gofiber/fiber/v2"

	"academy_backend/internals/features/academy/presence/controller"
	"academy_backend/internals/middlewares"
)

// PresenceBranchRoutes mounts under /api/a/:tenant_id/:branch_id.
func PresenceBranchRoutes(branch fiber.Router, ctl *controller.PresenceController) {
	branch.Get("/clients/:client_id/presence", ctl.ClientPresence)
	branch.Get("/attendance/export.xlsx", middlewares.HeavyRateLimiter(), ctl.ExportMonth)
}
