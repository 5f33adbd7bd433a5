package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness probe used by load balancers and monitoring.
// It answers before any database or broker work, so it only proves the
// process is serving.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
