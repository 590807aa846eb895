// file: internals/helpers/dbtime/time_helper.go
package dbtime

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Locals keys filled by the branch-scope middleware.
const (
	LocBranchTimezone = "branch_timezone" // string, e.g. "America/Sao_Paulo"
	LocBranchLoc      = "branch_loc"      // *time.Location
)

// GetBranchLocation resolves the branch timezone:
// 1) c.Locals("branch_loc") set by middleware
// 2) c.Locals("branch_timezone") loaded and cached
// 3) fallback
func GetBranchLocation(c *fiber.Ctx, fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.UTC
	}
	if c == nil {
		return fallback
	}
	if v, ok := c.Locals(LocBranchLoc).(*time.Location); ok && v != nil {
		return v
	}
	if s, ok := c.Locals(LocBranchTimezone).(string); ok && strings.TrimSpace(s) != "" {
		if loc, err := time.LoadLocation(strings.TrimSpace(s)); err == nil {
			c.Locals(LocBranchLoc, loc)
			return loc
		}
	}
	return fallback
}

// BranchLocationMiddleware pins a timezone for downstream handlers,
// honoring an X-Branch-Timezone header when it names a valid zone.
func BranchLocationMiddleware(def *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loc := def
		if tz := strings.TrimSpace(c.Get("X-Branch-Timezone")); tz != "" {
			if l, err := time.LoadLocation(tz); err == nil {
				loc = l
			}
		}
		c.Locals(LocBranchLoc, loc)
		return c.Next()
	}
}
