package helper

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapPGError turns a Postgres SQLSTATE into an HTTP status and message.
func MapPGError(err error) (int, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return http.StatusBadRequest, "referenced row not found (foreign key violation)"
		case "23505":
			return http.StatusConflict, "duplicate row (unique violation)"
		case "23514":
			return http.StatusBadRequest, "check constraint violated"
		case "57014":
			return http.StatusServiceUnavailable, "statement timeout"
		case "40001", "40P01":
			return http.StatusConflict, "concurrent update, retry"
		}
	}
	return http.StatusInternalServerError, err.Error()
}

func WritePGError(c *fiber.Ctx, err error) error {
	code, msg := MapPGError(err)
	return JsonError(c, code, msg)
}
