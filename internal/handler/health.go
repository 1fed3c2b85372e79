package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.  It is on
// the public-path allowlist and returns plain text, not the JSON
// envelope.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
