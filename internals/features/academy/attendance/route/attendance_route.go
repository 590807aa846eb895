package route

import (
	"github.com/gofiber/fiber/v2"

	"academy_backend/internals/features/academy/attendance/controller"
)

// AttendanceBranchRoutes mounts under /api/a/:tenant_id/:branch_id.
func AttendanceBranchRoutes(branch fiber.Router, ctl *controller.AttendanceController) {
	branch.Get("/clients", ctl.SearchClients)

	sess := branch.Group("/sessions/:session_id")
	sess.Get("/attendance", ctl.Load)
	sess.Put("/attendance", ctl.Save)
	sess.Post("/extras", ctl.AddExtra)
	sess.Delete("/extras/:client_id", ctl.RemoveExtra)
}
