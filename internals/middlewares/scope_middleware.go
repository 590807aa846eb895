package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"academy_backend/internals/features/academy/store"
	helper "academy_backend/internals/helpers"
)

const LocScope = "academy_scope"

// ScopeMiddleware resolves :tenant_id and :branch_id once per request;
// handlers read the result with ScopeFrom.
func ScopeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := uuid.Parse(strings.TrimSpace(c.Params("tenant_id")))
		if err != nil || tenantID == uuid.Nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "tenant_id must be a valid UUID")
		}
		branchID, err := uuid.Parse(strings.TrimSpace(c.Params("branch_id")))
		if err != nil || branchID == uuid.Nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "branch_id must be a valid UUID")
		}
		c.Locals(LocScope, store.Scope{TenantID: tenantID, BranchID: branchID})
		return c.Next()
	}
}

// ScopeFrom returns the scope ScopeMiddleware stored, or the zero Scope.
func ScopeFrom(c *fiber.Ctx) store.Scope {
	if s, ok := c.Locals(LocScope).(store.Scope); ok {
		return s
	}
	return store.Scope{}
}
