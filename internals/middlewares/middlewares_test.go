package middlewares

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"academy_backend/internals/features/academy/store"
)

func TestScopeMiddleware(t *testing.T) {
	app := fiber.New()
	var got store.Scope
	app.Get("/a/:tenant_id/:branch_id", ScopeMiddleware(), func(c *fiber.Ctx) error {
		got = ScopeFrom(c)
		return c.SendStatus(fiber.StatusNoContent)
	})

	tenant, branch := uuid.New(), uuid.New()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/a/"+tenant.String()+"/"+branch.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, store.Scope{TenantID: tenant, BranchID: branch}, got)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/a/"+tenant.String()+"/"+uuid.Nil.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestScopeFrom_Unset(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		assert.False(t, ScopeFrom(c).Valid())
		return nil
	})
	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
}

func TestWebhookSecret(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	open := fiber.New()
	open.Post("/", WebhookSecret(""), ok)
	resp, err := open.Test(httptest.NewRequest(fiber.MethodPost, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	guarded := fiber.New()
	guarded.Post("/", WebhookSecret("abc"), ok)

	req := httptest.NewRequest(fiber.MethodPost, "/", nil)
	resp, err = guarded.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodPost, "/", nil)
	req.Header.Set(WebhookSecretHeader, "abc")
	resp, err = guarded.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRecoveryMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(RecoveryMiddleware(zap.NewNop()))
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
