// file: internals/features/academy/presence/controller/presence_controller.go
package controller

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"academy_backend/internals/features/academy/calendar"
	"academy_backend/internals/features/academy/presence/dto"
	"academy_backend/internals/features/academy/presence/service"
	helper "academy_backend/internals/helpers"
	"academy_backend/internals/helpers/dbtime"
	"academy_backend/internals/middlewares"
)

type PresenceController struct {
	Calc     *service.Calculator
	Validate *validator.Validate
	Log      *zap.Logger
	Loc      *time.Location
	Now      func() time.Time
}

func New(calc *service.Calculator, loc *time.Location, log *zap.Logger) *PresenceController {
	if log == nil {
		log = zap.NewNop()
	}
	return &PresenceController{Calc: calc, Validate: validator.New(), Log: log.Named("presence_ctl"), Loc: loc, Now: time.Now}
}

// GET /api/a/:tenant_id/:branch_id/clients/:client_id/presence?date=
func (ctl *PresenceController) ClientPresence(c *fiber.Ctx) error {
	clientID, err := uuid.Parse(strings.TrimSpace(c.Params("client_id")))
	if err != nil || clientID == uuid.Nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "client_id must be a valid UUID")
	}
	var q dto.PresenceQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid query")
	}
	if err := ctl.Validate.Struct(&q); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrors(err))
	}
	ref, err := q.Reference(calendar.Today(ctl.Now(), dbtime.GetBranchLocation(c, ctl.Loc)))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	rep, err := ctl.Calc.ClientPresence(c.UserContext(), middlewares.ScopeFrom(c), clientID, ref)
	if err != nil {
		ctl.Log.Error("presence stats failed", zap.String("client_id", clientID.String()), zap.Error(err))
		return helper.WritePGError(c, err)
	}
	return helper.JsonOK(c, "ok", rep)
}

// GET /api/a/:tenant_id/:branch_id/attendance/export.xlsx?month=YYYY-MM
func (ctl *PresenceController) ExportMonth(c *fiber.Ctx) error {
	var q dto.ExportQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid query")
	}
	if err := ctl.Validate.Struct(&q); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrors(err))
	}
	month, err := q.MonthStart()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	buf, name, err := ctl.Calc.ExportMonthXLSX(c.UserContext(), middlewares.ScopeFrom(c), month)
	if err != nil {
		ctl.Log.Error("xlsx export failed", zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "export failed")
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(buf.Bytes())
}
