package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/thirdeyesoft/portal-backend/internal/model"
)

// RequireAudience returns a middleware that enforces the token's aud claim.
// A session issued for one portal (admin, matrimony, member) cannot be used
// against another portal's routes.  It assumes JWTAuth ran earlier and
// stored the audience in context.
func RequireAudience(audiences ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(audiences))
    for _, a := range audiences {
        allowed[a] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            aud, ok := c.Get(CtxAudience).(string)
            if !ok || !allowed[aud] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "wrong portal"})
            }
            return next(c)
        }
    }
}

// RequireAdmin aborts with 403 unless the caller holds the admin role.
// Role tags are read from the verified token claims, not the database, so
// a role granted after issue takes effect on the next login.
func RequireAdmin() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !HasRole(c, model.RoleAdmin) {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
