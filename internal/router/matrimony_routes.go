package router

import (
	"github.com/labstack/echo/v4"

	"github.com/thirdeyesoft/portal-backend/internal/handler"
	"github.com/thirdeyesoft/portal-backend/internal/middleware"
)

// RegisterMatrimony wires the matrimony profile routes.  Listing and reads
// are public with the active-only filter; an admin token widens them to all
// profiles.  Create and update require a session, delete requires admin.
func RegisterMatrimony(e *echo.Echo, m *handler.MatrimonyHandler, jwtSecret string) {
	pub := e.Group("/v1/matrimony")
	pub.Use(middleware.OptionalJWTAuth(jwtSecret))
	pub.GET("/profiles", m.List)
	pub.GET("/profiles/:id", m.Get)

	auth := e.Group("/v1/matrimony")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("/profiles", m.Create)
	auth.PUT("/profiles/:id", m.Update)

	admin := e.Group("/v1/matrimony")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireAdmin())
	admin.DELETE("/profiles/:id", m.Delete)
}
