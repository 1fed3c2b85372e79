// Package httpx defines the uniform JSON response envelope shared by
// both services.  Clients branch on the success flag rather than the
// HTTP status family alone, since validation and auth failures both
// come back as 400-class responses.
package httpx

import (
	"time"

	"github.com/labstack/echo/v4"
)

// Envelope is the wire shape of every JSON response.
type Envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Message   *string     `json:"message"`
	Errors    []string    `json:"errors"`
	Timestamp time.Time   `json:"timestamp"`
	Path      string      `json:"path"`
}

// OK writes a success envelope with the given payload and optional
// message.
func OK(c echo.Context, status int, data interface{}, message string) error {
	return c.JSON(status, Envelope{
		Success:   true,
		Data:      data,
		Message:   optional(message),
		Timestamp: time.Now().UTC(),
		Path:      c.Request().URL.Path,
	})
}

// Fail writes a failure envelope with a user-facing message and
// optional detail strings.
func Fail(c echo.Context, status int, message string, errs ...string) error {
	return c.JSON(status, Envelope{
		Success:   false,
		Message:   optional(message),
		Errors:    errs,
		Timestamp: time.Now().UTC(),
		Path:      c.Request().URL.Path,
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
