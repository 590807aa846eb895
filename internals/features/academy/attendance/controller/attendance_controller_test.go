package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"academy_backend/internals/features/academy/attendance/controller"
	"academy_backend/internals/features/academy/attendance/route"
	"academy_backend/internals/features/academy/attendance/service"
	directoryModel "academy_backend/internals/features/academy/directory/model"
	occupancyService "academy_backend/internals/features/academy/occupancy/service"
	scheduleModel "academy_backend/internals/features/academy/schedules/model"
	"academy_backend/internals/features/academy/store"
	"academy_backend/internals/middlewares"
)

type testEnv struct {
	app       *fiber.App
	mem       *store.MemoryStore
	scope     store.Scope
	sessionID uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	now := func() time.Time { return day.Add(9 * time.Hour) }

	mem := store.NewMemoryStore()
	engine := occupancyService.NewEngine(mem, zap.NewNop(), time.UTC)
	engine.Now = now
	mgr := service.NewManager(mem, mem, engine, zap.NewNop())
	mgr.Now = now

	env := &testEnv{
		mem:       mem,
		scope:     store.Scope{TenantID: uuid.New(), BranchID: uuid.New()},
		sessionID: uuid.New(),
	}
	classID := uuid.New()
	mem.PutSession(scheduleModel.ClassSessionModel{
		ClassSessionID:       env.sessionID,
		ClassSessionTenantID: env.scope.TenantID,
		ClassSessionBranchID: env.scope.BranchID,
		ClassSessionClassID:  &classID,
		ClassSessionDate:     day,
	})

	env.app = fiber.New()
	branch := env.app.Group("/api/a/:tenant_id/:branch_id", middlewares.ScopeMiddleware())
	route.AttendanceBranchRoutes(branch, controller.New(mgr, mem, zap.NewNop()))
	return env
}

func (e *testEnv) url(suffix string) string {
	return "/api/a/" + e.scope.TenantID.String() + "/" + e.scope.BranchID.String() + suffix
}

func (e *testEnv) do(t *testing.T, method, target string, body any) (int, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestScope_InvalidTenant(t *testing.T) {
	env := newTestEnv(t)
	code, body := env.do(t, http.MethodGet, "/api/a/not-a-uuid/"+env.scope.BranchID.String()+"/sessions/"+env.sessionID.String()+"/attendance", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
}

func TestLoad_UnknownSession(t *testing.T) {
	env := newTestEnv(t)
	code, body := env.do(t, http.MethodGet, env.url("/sessions/"+uuid.NewString()+"/attendance"), nil)
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, controller.CodeLoadFailed, body["error_code"])
}

func TestSave_EchoesRosterOnRejection(t *testing.T) {
	env := newTestEnv(t)
	payload := map[string]any{
		"roster": []map[string]any{
			{"client_id": uuid.NewString(), "name": "Ana", "status": "present"},
			{"client_id": uuid.NewString(), "name": "Bia", "status": "absent"},
		},
	}
	code, body := env.do(t, http.MethodPut, env.url("/sessions/"+env.sessionID.String()+"/attendance"), payload)
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, controller.CodeSaveFailed, body["error_code"])

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	roster, ok := data["roster"].([]any)
	require.True(t, ok)
	assert.Len(t, roster, 2)

	s, err := env.mem.GetSession(context.Background(), store.SessionKey{Scope: env.scope, SessionID: env.sessionID})
	require.NoError(t, err)
	assert.False(t, s.ClassSessionAttendanceRecorded)
}

func TestSave_Success(t *testing.T) {
	env := newTestEnv(t)
	payload := map[string]any{
		"roster": []map[string]any{
			{"client_id": uuid.NewString(), "name": "Ana", "status": "present"},
			{"client_id": uuid.NewString(), "name": "Bia", "status": "absent", "justification": "doctor"},
		},
	}
	code, body := env.do(t, http.MethodPut, env.url("/sessions/"+env.sessionID.String()+"/attendance"), payload)
	require.Equal(t, fiber.StatusOK, code)

	data := body["data"].(map[string]any)
	assert.EqualValues(t, 1, data["present_count"])
	assert.EqualValues(t, 1, data["absent_count"])
	assert.EqualValues(t, 2, data["records"])

	code, body = env.do(t, http.MethodGet, env.url("/sessions/"+env.sessionID.String()+"/attendance"), nil)
	require.Equal(t, fiber.StatusOK, code)
	sheet := body["data"].(map[string]any)
	assert.Equal(t, true, sheet["attendance_recorded"])
}

func TestAddExtra_BumpsOccupancy(t *testing.T) {
	env := newTestEnv(t)
	clientID := uuid.New()
	env.mem.PutClient(directoryModel.ClientModel{
		ClientID:       clientID,
		ClientTenantID: env.scope.TenantID,
		ClientBranchID: env.scope.BranchID,
		ClientName:     "Caio",
		ClientIsActive: true,
	})

	code, _ := env.do(t, http.MethodPost, env.url("/sessions/"+env.sessionID.String()+"/extras"), map[string]any{"client_id": clientID})
	require.Equal(t, fiber.StatusCreated, code)

	s, err := env.mem.GetSession(context.Background(), store.SessionKey{Scope: env.scope, SessionID: env.sessionID})
	require.NoError(t, err)
	assert.Equal(t, 1, s.ClassSessionEnrolledCount)

	code, _ = env.do(t, http.MethodPost, env.url("/sessions/"+env.sessionID.String()+"/extras"), map[string]any{"client_id": uuid.New()})
	assert.Equal(t, fiber.StatusNotFound, code)

	code, _ = env.do(t, http.MethodPost, env.url("/sessions/"+env.sessionID.String()+"/extras"), map[string]any{"client_id": clientID})
	assert.Equal(t, fiber.StatusConflict, code)

	code, _ = env.do(t, http.MethodDelete, env.url("/sessions/"+env.sessionID.String()+"/extras/"+uuid.NewString()), nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	code, _ = env.do(t, http.MethodDelete, env.url("/sessions/"+env.sessionID.String()+"/extras/"+clientID.String()), nil)
	require.Equal(t, fiber.StatusOK, code)
	s, err = env.mem.GetSession(context.Background(), store.SessionKey{Scope: env.scope, SessionID: env.sessionID})
	require.NoError(t, err)
	assert.Equal(t, 0, s.ClassSessionEnrolledCount)
}

func TestSearchClients_RequiresQuery(t *testing.T) {
	env := newTestEnv(t)
	code, _ := env.do(t, http.MethodGet, env.url("/clients"), nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
}
