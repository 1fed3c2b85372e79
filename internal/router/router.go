// Package router wires HTTP routes for both services.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/roofline/roofline-backend/internal/handler"
	"github.com/roofline/roofline-backend/internal/middleware"
	"github.com/roofline/roofline-backend/internal/model"
	"github.com/roofline/roofline-backend/internal/payment"
)

// RegisterCore registers all core-service routes.  authn is the soft
// authenticator applied to every request; loginLimiter throttles the
// login endpoint only.  Everything under /v1/auth except /profile is
// on the public-path allowlist; the actual 401/403 decisions are made
// by RequireAuth / RequireRole on the protected routes.
func RegisterCore(e *echo.Echo, a *handler.AuthHandler, l *handler.LeaseHandler, authn, loginLimiter echo.MiddlewareFunc) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	e.Use(authn)

	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login, loginLimiter)
	g.POST("/refresh-token", a.Refresh)
	g.POST("/logout", a.Logout)
	g.POST("/logout-all-devices", a.LogoutAll)
	g.POST("/verify-email", a.VerifyEmail)
	g.POST("/verify-phone", a.VerifyPhone)
	// The one auth route that requires a valid access token.
	g.GET("/profile", a.Profile, middleware.RequireAuth())

	// The payable endpoint is what the payment service calls with the
	// forwarded bearer; every platform role may hold a lease view.
	leases := e.Group("/v1/leases",
		middleware.RequireRole(model.RoleTenant, model.RolePropertyManager, model.RoleBuildingOwner))
	leases.GET("/:id/payable", l.Payable)
}

// RegisterPayments registers the payment-service routes.
func RegisterPayments(e *echo.Echo, h *payment.Handler) {
	e.GET("/healthz", handler.Health)
	e.POST("/v1/payment-intents", h.CreateIntent)
}
