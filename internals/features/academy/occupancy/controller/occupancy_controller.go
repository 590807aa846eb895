// file: internals/features/academy/occupancy/controller/occupancy_controller.go
package controller

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"academy_backend/internals/features/academy/occupancy/dto"
	"academy_backend/internals/features/academy/occupancy/service"
	"academy_backend/internals/features/academy/store"
	helper "academy_backend/internals/helpers"
	"academy_backend/internals/middlewares"
)

type OccupancyController struct {
	Engine     *service.Engine
	Reconciler *service.Reconciler
	Validate   *validator.Validate
	Log        *zap.Logger
}

func New(engine *service.Engine, rec *service.Reconciler, log *zap.Logger) *OccupancyController {
	if log == nil {
		log = zap.NewNop()
	}
	return &OccupancyController{
		Engine:     engine,
		Reconciler: rec,
		Validate:   validator.New(),
		Log:        log.Named("occupancy_ctl"),
	}
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, name+" must be a valid UUID")
	}
	return id, nil
}

/* ===================== TRIGGER WEBHOOK ===================== */
// POST /api/hooks/enrollments
// Engine outcomes (no-ops included) answer 200 so the sender never retries
// a delivery that was already accounted for.
func (ctl *OccupancyController) EnrollmentWebhook(c *fiber.Ctx) error {
	var req dto.EnrollmentEventRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrors(err))
	}
	ev, err := req.ToEvent()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	res := ctl.Engine.Handle(c.UserContext(), ev)
	return helper.JsonOK(c, res.Reason, res)
}

/* ===================== MANUAL BUMP ===================== */
// POST /api/a/:tenant_id/:branch_id/sessions/:session_id/occupancy
func (ctl *OccupancyController) BumpSession(c *fiber.Ctx) error {
	scope := middlewares.ScopeFrom(c)
	sessionID, err := parseUUIDParam(c, "session_id")
	if err != nil {
		return err
	}
	var req dto.BumpRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrors(err))
	}

	res, err := ctl.Engine.BumpSession(c.UserContext(), store.SessionKey{Scope: scope, SessionID: sessionID}, req.Delta)
	if err != nil {
		ctl.Log.Error("manual bump failed", zap.String("session_id", sessionID.String()), zap.Error(err))
		return helper.WritePGError(c, err)
	}
	if res.Reason == service.ReasonSessionNotFound {
		return helper.JsonError(c, fiber.StatusNotFound, "session not found")
	}
	return helper.JsonUpdated(c, "enrolled count updated", res)
}

/* ===================== RECONCILE ===================== */
// POST /api/a/:tenant_id/:branch_id/occupancy/reconcile
func (ctl *OccupancyController) Reconcile(c *fiber.Ctx) error {
	rep, err := ctl.Reconciler.RunScope(c.UserContext(), middlewares.ScopeFrom(c))
	if err != nil {
		ctl.Log.Error("manual reconcile failed", zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "reconcile failed")
	}
	return helper.JsonOK(c, "reconcile finished", rep)
}
