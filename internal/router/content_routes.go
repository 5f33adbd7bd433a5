package router

import (
	"github.com/labstack/echo/v4"

	"github.com/thirdeyesoft/portal-backend/internal/handler"
	"github.com/thirdeyesoft/portal-backend/internal/middleware"
)

// RegisterContent wires the storefront and editorial tables plus the two
// public intake forms.  Reads are anonymous and sit behind the Redis
// response cache when one is configured; every write is admin-gated.
func RegisterContent(e *echo.Echo, cat *handler.CatalogHandler, med *handler.MediaHandler,
	in *handler.IntakeHandler, jwtSecret string, cache echo.MiddlewareFunc) {

	pub := e.Group("/v1")
	if cache != nil {
		pub.Use(cache)
	}
	pub.GET("/products", cat.ListProducts)
	pub.GET("/services", cat.ListServices)
	pub.GET("/gallery", med.ListGallery)
	pub.GET("/news", med.ListNews)
	pub.GET("/rasi-palan", med.ListRasiPalan)

	// Intake forms are public POSTs; they must never be cached.
	e.POST("/v1/registrations", in.CreateRegistration)
	e.POST("/v1/contact-messages", in.CreateContactMessage)

	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireAdmin())

	admin.POST("/products", cat.CreateProduct)
	admin.PUT("/products/:id", cat.UpdateProduct)
	admin.DELETE("/products/:id", cat.DeleteProduct)

	admin.POST("/services", cat.CreateService)
	admin.PUT("/services/:id", cat.UpdateService)
	admin.DELETE("/services/:id", cat.DeleteService)

	admin.POST("/gallery", med.CreateGalleryItem)
	admin.DELETE("/gallery/:id", med.DeleteGalleryItem)

	admin.POST("/news", med.CreateNews)
	admin.PUT("/news/:id", med.UpdateNews)
	admin.DELETE("/news/:id", med.DeleteNews)

	admin.POST("/rasi-palan", med.CreateRasiPalan)
	admin.DELETE("/rasi-palan/:id", med.DeleteRasiPalan)

	admin.GET("/registrations", in.ListRegistrations)
	admin.DELETE("/registrations/:id", in.DeleteRegistration)
	admin.GET("/contact-messages", in.ListContactMessages)
	admin.DELETE("/contact-messages/:id", in.DeleteContactMessage)
}
