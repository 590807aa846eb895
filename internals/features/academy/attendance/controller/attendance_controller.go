// file: internals/features/academy/attendance/controller/attendance_controller.go
package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"academy_backend/internals/features/academy/attendance/dto"
	"academy_backend/internals/features/academy/attendance/service"
	"academy_backend/internals/features/academy/store"
	helper "academy_backend/internals/helpers"
	"academy_backend/internals/middlewares"
)

const (
	CodeLoadFailed = "ATTENDANCE_LOAD_FAILED"
	CodeSaveFailed = "ATTENDANCE_SAVE_FAILED"
)

type AttendanceController struct {
	Manager   *service.Manager
	Directory store.Directory
	Validate  *validator.Validate
	Log       *zap.Logger
}

func New(mgr *service.Manager, dir store.Directory, log *zap.Logger) *AttendanceController {
	if log == nil {
		log = zap.NewNop()
	}
	return &AttendanceController{Manager: mgr, Directory: dir, Validate: validator.New(), Log: log.Named("attendance_ctl")}
}

func sessionKey(c *fiber.Ctx) (store.SessionKey, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("session_id")))
	if err != nil || id == uuid.Nil {
		return store.SessionKey{}, fiber.NewError(fiber.StatusBadRequest, "session_id must be a valid UUID")
	}
	return store.SessionKey{Scope: middlewares.ScopeFrom(c), SessionID: id}, nil
}

/* ===================== LOAD ===================== */
// GET /api/a/:tenant_id/:branch_id/sessions/:session_id/attendance
func (ctl *AttendanceController) Load(c *fiber.Ctx) error {
	key, err := sessionKey(c)
	if err != nil {
		return err
	}
	sheet, err := ctl.Manager.Load(c.UserContext(), key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return helper.JsonErrorCode(c, fiber.StatusNotFound, CodeLoadFailed, "session not found", nil)
	case err != nil:
		ctl.Log.Error("attendance load failed", zap.String("session_id", key.SessionID.String()), zap.Error(err))
		return helper.JsonErrorCode(c, fiber.StatusInternalServerError, CodeLoadFailed, "failed to load attendance", nil)
	}
	return helper.JsonOK(c, "ok", sheet)
}

/* ===================== SAVE ===================== */
// PUT /api/a/:tenant_id/:branch_id/sessions/:session_id/attendance
// Every failure echoes the submitted roster back so the screen keeps it.
func (ctl *AttendanceController) Save(c *fiber.Ctx) error {
	key, err := sessionKey(c)
	if err != nil {
		return err
	}
	var req dto.SaveAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonErrorCode(c, fiber.StatusBadRequest, CodeSaveFailed, "invalid payload", nil)
	}
	roster := req.ToRoster()
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.JsonErrorCode(c, fiber.StatusUnprocessableEntity, CodeSaveFailed, err.Error(), fiber.Map{"roster": roster})
	}

	res, err := ctl.Manager.Save(c.UserContext(), key, roster)
	switch {
	case err == nil:
		return helper.JsonUpdated(c, "attendance saved", res)
	case errors.Is(err, service.ErrJustificationRequired),
		errors.Is(err, service.ErrAlreadyInRoster),
		errors.Is(err, service.ErrUnknownStatus):
		return helper.JsonErrorCode(c, fiber.StatusUnprocessableEntity, CodeSaveFailed, err.Error(), fiber.Map{"roster": roster})
	case errors.Is(err, store.ErrNotFound):
		return helper.JsonErrorCode(c, fiber.StatusNotFound, CodeSaveFailed, "session not found", fiber.Map{"roster": roster})
	default:
		status, msg := helper.MapPGError(err)
		if status == fiber.StatusInternalServerError {
			msg = "failed to save attendance"
		}
		return helper.JsonErrorCode(c, status, CodeSaveFailed, msg, fiber.Map{"roster": roster})
	}
}

/* ===================== EXTRAS ===================== */
// POST /api/a/:tenant_id/:branch_id/sessions/:session_id/extras
func (ctl *AttendanceController) AddExtra(c *fiber.Ctx) error {
	key, err := sessionKey(c)
	if err != nil {
		return err
	}
	var req dto.AddExtraRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrors(err))
	}

	entry, res, err := ctl.Manager.AddExtraParticipant(c.UserContext(), key, req.ClientID)
	switch {
	case errors.Is(err, service.ErrClientNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "client not found")
	case errors.Is(err, service.ErrAlreadyInRoster):
		return helper.JsonError(c, fiber.StatusConflict, "client is already on this session")
	case errors.Is(err, store.ErrNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "session not found")
	case err != nil:
		ctl.Log.Error("add extra failed", zap.Error(err))
		return helper.WritePGError(c, err)
	}
	return helper.JsonCreated(c, "extra participant added", fiber.Map{"entry": entry, "occupancy": res})
}

// DELETE /api/a/:tenant_id/:branch_id/sessions/:session_id/extras/:client_id
func (ctl *AttendanceController) RemoveExtra(c *fiber.Ctx) error {
	key, err := sessionKey(c)
	if err != nil {
		return err
	}
	clientID, err := uuid.Parse(strings.TrimSpace(c.Params("client_id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "client_id must be a valid UUID")
	}
	res, err := ctl.Manager.RemoveExtraParticipant(c.UserContext(), key, clientID)
	switch {
	case errors.Is(err, service.ErrNotInRoster):
		return helper.JsonError(c, fiber.StatusNotFound, "client is not an extra of this session")
	case errors.Is(err, store.ErrNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "session not found")
	case err != nil:
		ctl.Log.Error("remove extra failed", zap.Error(err))
		return helper.WritePGError(c, err)
	}
	return helper.JsonOK(c, "extra participant removed", res)
}

/* ===================== CLIENT PICKER ===================== */
// GET /api/a/:tenant_id/:branch_id/clients?q=&limit=
func (ctl *AttendanceController) SearchClients(c *fiber.Ctx) error {
	var q dto.ClientSearchQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid query")
	}
	if err := ctl.Validate.Struct(&q); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrors(err))
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	list, err := ctl.Directory.SearchClients(c.UserContext(), middlewares.ScopeFrom(c), strings.TrimSpace(q.Q), q.Limit)
	if err != nil {
		ctl.Log.Error("client search failed", zap.Error(err))
		return helper.WritePGError(c, err)
	}
	entries := make([]any, 0, len(list))
	for _, cl := range list {
		entries = append(entries, service.EntryFromClient(cl))
	}
	return helper.JsonList(c, "ok", entries, nil)
}
