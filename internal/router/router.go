package router

import (
	"github.com/labstack/echo/v4"

	"github.com/thirdeyesoft/portal-backend/internal/handler"
	"github.com/thirdeyesoft/portal-backend/internal/middleware"
	"github.com/thirdeyesoft/portal-backend/internal/utils"
)

// RegisterRoutes registers routes that carry no authentication at all.
// Currently that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the credential endpoints.  The public group handles
// register/login/refresh/logout plus the two DOB-based password resets;
// limiter throttles it per client so credential guessing stays slow.
// Session-holding endpoints live under /v1/auth behind JWTAuth, and the
// user administration surface under /v1/admin additionally requires the
// admin audience and the admin role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	if limiter != nil {
		g.Use(limiter)
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.POST("/reset-matrimony-password", a.ResetMatrimonyPassword)
	g.POST("/reset-member-password", a.ResetMemberPassword)

	// Any valid session, regardless of which portal issued it.
	auth := e.Group("/v1/auth")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.PUT("/update", a.ChangePassword)

	admin := e.Group("/v1/admin")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireAudience(utils.AudienceAdmin))
	admin.Use(middleware.RequireAdmin())
	admin.GET("/users", a.ListUsers)
	admin.GET("/users/:id/password", a.RevealPassword)
}
