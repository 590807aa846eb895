package routes

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger checks the backing store.
type Pinger func(ctx context.Context) error

func BaseRoutes(app *fiber.App, deps Deps) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("academy backend up")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		storeStatus := "connected"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK

		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				storeStatus = "store connection error"
				serverStatus = "DOWN"
				httpStatus = fiber.StatusServiceUnavailable
			}
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"store":          deps.StoreDriver,
			"store_status":   storeStatus,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"environment":    os.Getenv("RAILWAY_ENVIRONMENT"),
		})
	})
}
