// internals/route/details/academy_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"

	attendanceController "academy_backend/internals/features/academy/attendance/controller"
	attendanceRoutes "academy_backend/internals/features/academy/attendance/route"
	occupancyController "academy_backend/internals/features/academy/occupancy/controller"
	occupancyRoutes "academy_backend/internals/features/academy/occupancy/route"
	presenceController "academy_backend/internals/features/academy/presence/controller"
	presenceRoutes "academy_backend/internals/features/academy/presence/route"
	scheduleController "academy_backend/internals/features/academy/schedules/controller"
	scheduleRoutes "academy_backend/internals/features/academy/schedules/route"
)

type AcademyControllers struct {
	Schedules  *scheduleController.ScheduleController
	Occupancy  *occupancyController.OccupancyController
	Attendance *attendanceController.AttendanceController
	Presence   *presenceController.PresenceController
}

// AcademyBranchRoutes mounts every feature under a scoped branch group.
func AcademyBranchRoutes(branch fiber.Router, ctl AcademyControllers) {
	scheduleRoutes.ScheduleBranchRoutes(branch, ctl.Schedules)
	occupancyRoutes.OccupancyBranchRoutes(branch, ctl.Occupancy)
	attendanceRoutes.AttendanceBranchRoutes(branch, ctl.Attendance)
	presenceRoutes.PresenceBranchRoutes(branch, ctl.Presence)
}

// AcademyHookRoutes is the trigger-delivery surface (no branch scope in the path;
// the payload carries it).
func AcademyHookRoutes(hooks fiber.Router, ctl AcademyControllers) {
	occupancyRoutes.OccupancyHookRoutes(hooks, ctl.Occupancy)
}
