package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is anything that can report its liveness, such as a database connection.
type Pinger func(ctx context.Context) error

// HealthCheck reports service liveness and the state of each named dependency.
func HealthCheck(deps map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := make(map[string]string, len(deps))
		for name, ping := range deps {
			if err := ping(ctx); err != nil {
				checks[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "up"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "degraded"
		}
		return c.JSON(status, echo.Map{
			"status":  state,
			"service": "takopi-api",
			"checks":  checks,
		})
	}
}
