package router

import (
	"github.com/labstack/echo/v4"

	"github.com/thirdeyesoft/portal-backend/internal/handler"
	"github.com/thirdeyesoft/portal-backend/internal/middleware"
)

// RegisterMembers wires the business directory.  The directory and its
// listings are public reads; writes need a session, and the handlers
// enforce that only the owning member or an admin may modify a record.
func RegisterMembers(e *echo.Echo, m *handler.MemberHandler, jwtSecret string) {
	pub := e.Group("/v1")
	pub.Use(middleware.OptionalJWTAuth(jwtSecret))
	pub.GET("/members", m.List)
	pub.GET("/members/:id/services", m.ListServices)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("/members", m.Create)
	auth.PUT("/members/:id", m.Update)
	auth.POST("/members/:id/services", m.CreateService)
	auth.PUT("/member-services/:id", m.UpdateService)
	auth.DELETE("/member-services/:id", m.DeleteService)
}
