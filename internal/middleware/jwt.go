package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/thirdeyesoft/portal-backend/internal/utils"
)

// Context keys populated by JWTAuth for downstream handlers.
const (
    CtxUserID   = "user_id"
    CtxRoles    = "roles"
    CtxAudience = "audience"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the verified claims into the request context.  Verification is
// purely cryptographic (HS256 signature + expiry); no database round trip
// happens per request.  Handlers read the caller's identity via
// c.Get(CtxUserID), c.Get(CtxRoles) and c.Get(CtxAudience).
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            c.Set(CtxUserID, claims.UserID)
            c.Set(CtxRoles, claims.Roles)
            c.Set(CtxAudience, claims.Audience)
            return next(c)
        }
    }
}

// OptionalJWTAuth populates the same context keys as JWTAuth when a valid
// Bearer token is present, but never rejects the request.  Public listings
// use it so an admin session widens the result set while guests still get
// the active-only view.
func OptionalJWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if strings.HasPrefix(auth, "Bearer ") {
                raw := strings.TrimPrefix(auth, "Bearer ")
                if claims, err := utils.ParseAccessToken(secret, raw); err == nil {
                    c.Set(CtxUserID, claims.UserID)
                    c.Set(CtxRoles, claims.Roles)
                    c.Set(CtxAudience, claims.Audience)
                }
            }
            return next(c)
        }
    }
}

// UserID returns the authenticated user's id from context, or "" when the
// route is not behind JWTAuth.
func UserID(c echo.Context) string {
    if v, ok := c.Get(CtxUserID).(string); ok {
        return v
    }
    return ""
}

// HasRole reports whether the authenticated caller holds the given role tag.
func HasRole(c echo.Context, role string) bool {
    roles, ok := c.Get(CtxRoles).([]string)
    if !ok {
        return false
    }
    for _, r := range roles {
        if r == role {
            return true
        }
    }
    return false
}
