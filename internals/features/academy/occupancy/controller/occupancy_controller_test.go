package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"academy_backend/internals/features/academy/occupancy/controller"
	"academy_backend/internals/features/academy/occupancy/route"
	"academy_backend/internals/features/academy/occupancy/service"
	scheduleModel "academy_backend/internals/features/academy/schedules/model"
	"academy_backend/internals/features/academy/store"
	"academy_backend/internals/middlewares"
)

const testSecret = "s3cret"

var today = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

type env struct {
	app   *fiber.App
	mem   *store.MemoryStore
	scope store.Scope
	sid   uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mem := store.NewMemoryStore()
	engine := service.NewEngine(mem, zap.NewNop(), time.UTC)
	engine.Now = func() time.Time { return today.Add(10 * time.Hour) }
	rec := service.NewReconciler(mem, zap.NewNop(), time.UTC)
	rec.Now = engine.Now

	e := &env{mem: mem, scope: store.Scope{TenantID: uuid.New(), BranchID: uuid.New()}, sid: uuid.New()}
	mem.PutSession(scheduleModel.ClassSessionModel{
		ClassSessionID:            e.sid,
		ClassSessionTenantID:      e.scope.TenantID,
		ClassSessionBranchID:      e.scope.BranchID,
		ClassSessionDate:          today.AddDate(0, 0, 2),
		ClassSessionEnrolledCount: 1,
	})

	ctl := controller.New(engine, rec, zap.NewNop())
	e.app = fiber.New()
	route.OccupancyHookRoutes(e.app.Group("/api/hooks", middlewares.WebhookSecret(testSecret)), ctl)
	route.OccupancyBranchRoutes(e.app.Group("/api/a/:tenant_id/:branch_id", middlewares.ScopeMiddleware()), ctl)
	return e
}

func (e *env) post(t *testing.T, target string, body any, secret string) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(fiber.MethodPost, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(middlewares.WebhookSecretHeader, secret)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	b, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(b, &out)
	return resp.StatusCode, out
}

func (e *env) count(t *testing.T) int {
	t.Helper()
	s, err := e.mem.GetSession(context.Background(), store.SessionKey{Scope: e.scope, SessionID: e.sid})
	require.NoError(t, err)
	return s.ClassSessionEnrolledCount
}

func (e *env) experimental(status string) map[string]any {
	return map[string]any{
		"enrollment_id":           uuid.NewString(),
		"enrollment_tenant_id":    e.scope.TenantID.String(),
		"enrollment_branch_id":    e.scope.BranchID.String(),
		"enrollment_client_id":    uuid.NewString(),
		"enrollment_type":         "experimental",
		"enrollment_status":       status,
		"enrollment_session_id":   e.sid.String(),
		"enrollment_session_date": today.AddDate(0, 0, 2).Format("2006-01-02"),
	}
}

func TestWebhook_RejectsWrongSecret(t *testing.T) {
	e := newEnv(t)
	code, _ := e.post(t, "/api/hooks/enrollments", map[string]any{"kind": "create", "after": e.experimental("active")}, "nope")
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, 1, e.count(t))
}

func TestWebhook_CreateThenDelete(t *testing.T) {
	e := newEnv(t)
	payload := e.experimental("active")

	code, body := e.post(t, "/api/hooks/enrollments", map[string]any{"kind": "INSERT", "after": payload}, testSecret)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, service.ReasonApplied, body["message"])
	assert.Equal(t, 2, e.count(t))

	code, _ = e.post(t, "/api/hooks/enrollments", map[string]any{"kind": "delete", "before": payload}, testSecret)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, 1, e.count(t))
}

func TestWebhook_NoOpStillOK(t *testing.T) {
	e := newEnv(t)
	before := e.experimental("active")
	after := e.experimental("active")
	code, body := e.post(t, "/api/hooks/enrollments", map[string]any{"kind": "update", "before": before, "after": after}, testSecret)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, service.ReasonNoStatusChange, body["message"])
	assert.Equal(t, 1, e.count(t))
}

func TestWebhook_UnknownKind(t *testing.T) {
	e := newEnv(t)
	code, _ := e.post(t, "/api/hooks/enrollments", map[string]any{"kind": "truncate"}, testSecret)
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestBumpSession(t *testing.T) {
	e := newEnv(t)
	base := "/api/a/" + e.scope.TenantID.String() + "/" + e.scope.BranchID.String()

	code, _ := e.post(t, base+"/sessions/"+e.sid.String()+"/occupancy", map[string]any{"delta": -1}, "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, 0, e.count(t))

	// floor at zero
	code, _ = e.post(t, base+"/sessions/"+e.sid.String()+"/occupancy", map[string]any{"delta": -1}, "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, 0, e.count(t))

	code, _ = e.post(t, base+"/sessions/"+e.sid.String()+"/occupancy", map[string]any{"delta": 5}, "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)

	code, _ = e.post(t, base+"/sessions/"+uuid.NewString()+"/occupancy", map[string]any{"delta": 1}, "")
	assert.Equal(t, fiber.StatusNotFound, code)
}
