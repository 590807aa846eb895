// file: internals/features/academy/schedules/controller/schedule_controller.go
package controller

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"academy_backend/internals/features/academy/calendar"
	"academy_backend/internals/features/academy/schedules/dto"
	"academy_backend/internals/features/academy/schedules/service"
	helper "academy_backend/internals/helpers"
	"academy_backend/internals/helpers/dbtime"
	"academy_backend/internals/middlewares"
)

type ScheduleController struct {
	Grid         *service.GridLoader
	Materializer *service.Materializer
	Validate     *validator.Validate
	Log          *zap.Logger
	Loc          *time.Location
	Now          func() time.Time
}

func New(grid *service.GridLoader, mat *service.Materializer, loc *time.Location, log *zap.Logger) *ScheduleController {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScheduleController{
		Grid:         grid,
		Materializer: mat,
		Validate:     validator.New(),
		Log:          log.Named("schedule_ctl"),
		Loc:          loc,
		Now:          time.Now,
	}
}

func (ctl *ScheduleController) loadGrid(c *fiber.Ctx) (*service.Grid, *time.Location, error) {
	var q dto.GridQuery
	if err := c.QueryParser(&q); err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}
	if err := ctl.Validate.Struct(&q); err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	loc := dbtime.GetBranchLocation(c, ctl.Loc)
	ref, view, turn, err := q.Resolve(calendar.Today(ctl.Now(), loc))
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	g, err := ctl.Grid.Load(c.UserContext(), middlewares.ScopeFrom(c), ref, view, turn)
	if err != nil {
		ctl.Log.Error("grid load failed", zap.Error(err))
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load grid")
	}
	return g, loc, nil
}

/* ===================== GRID ===================== */
// GET /api/a/:tenant_id/:branch_id/grid?date=&view=&turn=
func (ctl *ScheduleController) GetGrid(c *fiber.Ctx) error {
	g, _, err := ctl.loadGrid(c)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", g)
}

// GET /api/a/:tenant_id/:branch_id/grid.ics?date=
func (ctl *ScheduleController) GetGridICal(c *fiber.Ctx) error {
	g, loc, err := ctl.loadGrid(c)
	if err != nil {
		return err
	}
	body := service.ExportICal(g, "Class grid "+g.Days[0], loc, ctl.Now())
	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="grid-%s.ics"`, g.Days[0]))
	return c.SendString(body)
}

/* ===================== MATERIALIZE ===================== */
// POST /api/a/:tenant_id/:branch_id/sessions/ensure?from=&to=
func (ctl *ScheduleController) EnsureSessions(c *fiber.Ctx) error {
	var q dto.EnsureSessionsQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid query")
	}
	if err := ctl.Validate.Struct(&q); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrors(err))
	}
	from, to, err := q.Range()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	res, err := ctl.Materializer.EnsureSessions(c.UserContext(), middlewares.ScopeFrom(c), from, to)
	switch {
	case errors.Is(err, service.ErrRangeTooLarge):
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	case err != nil:
		ctl.Log.Error("ensure sessions failed", zap.Error(err))
		return helper.WritePGError(c, err)
	}
	return helper.JsonCreated(c, "sessions ensured", res)
}
