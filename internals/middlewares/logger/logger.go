package logger

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

// LoggerMiddleware writes one access line per request through zap.
func LoggerMiddleware(log *zap.Logger, timeZone string) fiber.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if timeZone == "" {
		timeZone = "UTC"
	}
	return logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   timeZone,
		Format:     "[${time}] ${locals:requestid} ${ip} - ${method} ${path} - ${status} - ${latency}",
		Output:     zap.NewStdLog(log.Named("http")).Writer(),
	})
}
