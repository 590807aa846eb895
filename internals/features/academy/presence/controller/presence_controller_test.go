package controller_test

import (
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

	attendanceModel "academy_backend/internals/features/academy/attendance/model"
	directoryModel "academy_backend/internals/features/academy/directory/model"
	"academy_backend/internals/features/academy/presence/controller"
	"academy_backend/internals/features/academy/presence/route"
	"academy_backend/internals/features/academy/presence/service"
	"academy_backend/internals/features/academy/store"
	"academy_backend/internals/middlewares"
)

func setup(t *testing.T) (*fiber.App, string, uuid.UUID) {
	t.Helper()
	mem := store.NewMemoryStore()
	scope := store.Scope{TenantID: uuid.New(), BranchID: uuid.New()}
	clientID := uuid.New()
	mem.PutClient(directoryModel.ClientModel{
		ClientID:       clientID,
		ClientTenantID: scope.TenantID,
		ClientBranchID: scope.BranchID,
		ClientName:     "Ana",
		ClientIsActive: true,
	})
	mem.PutAttendanceRecord(attendanceModel.AttendanceRecordModel{
		AttendanceRecordID:          uuid.New(),
		AttendanceRecordTenantID:    scope.TenantID,
		AttendanceRecordBranchID:    scope.BranchID,
		AttendanceRecordSessionID:   uuid.New(),
		AttendanceRecordClientID:    clientID,
		AttendanceRecordSessionDate: time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
		AttendanceRecordStatus:      "present",
		AttendanceRecordRecordedAt:  time.Date(2024, 6, 4, 10, 0, 0, 0, time.UTC),
	})

	ctl := controller.New(service.NewCalculator(mem, mem, zap.NewNop()), time.UTC, zap.NewNop())
	ctl.Now = func() time.Time { return time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC) }

	app := fiber.New()
	route.PresenceBranchRoutes(app.Group("/api/a/:tenant_id/:branch_id", middlewares.ScopeMiddleware()), ctl)
	return app, "/api/a/" + scope.TenantID.String() + "/" + scope.BranchID.String(), clientID
}

func TestClientPresence_DefaultsToToday(t *testing.T) {
	app, base, clientID := setup(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, base+"/clients/"+clientID.String()+"/presence", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data service.ClientReport `json:"data"`
	}
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "2024-06-20", body.Data.Reference)
	assert.Equal(t, 1, body.Data.Presence.Current.Attended)
}

func TestClientPresence_BadInput(t *testing.T) {
	app, base, clientID := setup(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, base+"/clients/nope/presence", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, base+"/clients/"+clientID.String()+"/presence?date=20-06-2024", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestExportMonth(t *testing.T) {
	app, base, _ := setup(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, base+"/attendance/export.xlsx?month=2024-06", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attendance_2024-06.xlsx")

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, base+"/attendance/export.xlsx", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
