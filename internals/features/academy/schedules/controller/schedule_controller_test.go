package controller_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	directoryModel "academy_backend/internals/features/academy/directory/model"
	"academy_backend/internals/features/academy/schedules/controller"
	scheduleModel "academy_backend/internals/features/academy/schedules/model"
	"academy_backend/internals/features/academy/schedules/route"
	"academy_backend/internals/features/academy/schedules/service"
	"academy_backend/internals/features/academy/store"
	"academy_backend/internals/helpers/dbtime"
	"academy_backend/internals/middlewares"
)

func newApp(t *testing.T) (*fiber.App, string) {
	t.Helper()
	mem := store.NewMemoryStore()
	scope := store.Scope{TenantID: uuid.New(), BranchID: uuid.New()}
	activityID := uuid.New()
	mem.PutActivity(directoryModel.ActivityModel{
		ActivityID:       activityID,
		ActivityTenantID: scope.TenantID,
		ActivityBranchID: scope.BranchID,
		ActivityName:     "Judo",
	})
	mem.PutClass(scheduleModel.ClassModel{
		ClassID:              uuid.New(),
		ClassTenantID:        scope.TenantID,
		ClassBranchID:        scope.BranchID,
		ClassActivityID:      activityID,
		ClassName:            "Judo kids",
		ClassWeekday:         1,
		ClassStartTime:       dbtime.MustTod("09:00"),
		ClassDurationMinutes: 60,
		ClassCapacity:        12,
		ClassIsActive:        true,
	})

	ctl := controller.New(service.NewGridLoader(mem, mem), service.NewMaterializer(mem, zap.NewNop()), time.UTC, zap.NewNop())
	ctl.Now = func() time.Time { return time.Date(2024, 6, 10, 7, 0, 0, 0, time.UTC) }

	app := fiber.New()
	branch := app.Group("/api/a/:tenant_id/:branch_id", middlewares.ScopeMiddleware(), dbtime.BranchLocationMiddleware(time.UTC))
	route.ScheduleBranchRoutes(branch, ctl)
	return app, "/api/a/" + scope.TenantID.String() + "/" + scope.BranchID.String()
}

type result struct {
	Code   int
	Header http.Header
	Body   map[string]any
	Raw    string
}

func call(t *testing.T, app *fiber.App, method, target string) result {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return result{Code: resp.StatusCode, Header: resp.Header, Body: out, Raw: string(raw)}
}

func TestEnsureSessions_Idempotent(t *testing.T) {
	app, base := newApp(t)

	r := call(t, app, fiber.MethodPost, base+"/sessions/ensure?from=2024-06-10&to=2024-06-16")
	require.Equal(t, fiber.StatusCreated, r.Code)
	assert.EqualValues(t, 1, r.Body["data"].(map[string]any)["inserted"])

	r = call(t, app, fiber.MethodPost, base+"/sessions/ensure?from=2024-06-10&to=2024-06-16")
	require.Equal(t, fiber.StatusCreated, r.Code)
	assert.EqualValues(t, 0, r.Body["data"].(map[string]any)["inserted"])
}

func TestEnsureSessions_BadRange(t *testing.T) {
	app, base := newApp(t)

	r := call(t, app, fiber.MethodPost, base+"/sessions/ensure?from=2024-01-01&to=2026-01-01")
	assert.Equal(t, fiber.StatusBadRequest, r.Code)

	r = call(t, app, fiber.MethodPost, base+"/sessions/ensure?from=2024-01-01")
	assert.Equal(t, fiber.StatusUnprocessableEntity, r.Code)
}

func TestGetGrid_DayView(t *testing.T) {
	app, base := newApp(t)

	r := call(t, app, fiber.MethodGet, base+"/grid?view=day&turn=morning")
	require.Equal(t, fiber.StatusOK, r.Code)
	data := r.Body["data"].(map[string]any)
	assert.Equal(t, []any{"2024-06-10"}, data["days"])

	var kinds []string
	for _, cell := range data["cells"].([]any) {
		for _, it := range cell.(map[string]any)["items"].([]any) {
			kinds = append(kinds, it.(map[string]any)["kind"].(string))
		}
	}
	assert.Equal(t, []string{service.ItemClass}, kinds)

	// once materialized the stored session replaces the template
	call(t, app, fiber.MethodPost, base+"/sessions/ensure?from=2024-06-10&to=2024-06-10")
	r = call(t, app, fiber.MethodGet, base+"/grid?view=day&date=2024-06-10")
	kinds = kinds[:0]
	for _, cell := range r.Body["data"].(map[string]any)["cells"].([]any) {
		for _, it := range cell.(map[string]any)["items"].([]any) {
			kinds = append(kinds, it.(map[string]any)["kind"].(string))
		}
	}
	assert.Equal(t, []string{service.ItemSession}, kinds)
}

func TestGetGrid_BadQuery(t *testing.T) {
	app, base := newApp(t)
	r := call(t, app, fiber.MethodGet, base+"/grid?view=month")
	assert.Equal(t, fiber.StatusBadRequest, r.Code)
}

func TestGetGridICal(t *testing.T) {
	app, base := newApp(t)
	r := call(t, app, fiber.MethodGet, base+"/grid.ics?date=2024-06-10")
	require.Equal(t, fiber.StatusOK, r.Code)
	assert.True(t, strings.HasPrefix(r.Header.Get(fiber.HeaderContentType), "text/calendar"))
	assert.Contains(t, r.Raw, "BEGIN:VCALENDAR")
	assert.Contains(t, r.Raw, "Judo")
}
