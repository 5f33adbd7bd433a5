package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thirdeyesoft/portal-backend/internal/utils"
)

func invokeWithClaims(t *testing.T, mw echo.MiddlewareFunc, audience string, roles []string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if audience != "" {
		c.Set(CtxAudience, audience)
	}
	if roles != nil {
		c.Set(CtxRoles, roles)
	}

	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	return rec
}

func TestRequireAudience(t *testing.T) {
	mw := RequireAudience(utils.AudienceAdmin)

	rec := invokeWithClaims(t, mw, utils.AudienceAdmin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = invokeWithClaims(t, mw, utils.AudienceMember, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// No JWTAuth upstream means no audience in context.
	rec = invokeWithClaims(t, mw, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAudienceSeveral(t *testing.T) {
	mw := RequireAudience(utils.AudienceMatrimony, utils.AudienceMember)

	rec := invokeWithClaims(t, mw, utils.AudienceMember, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = invokeWithClaims(t, mw, utils.AudienceAdmin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	rec := invokeWithClaims(t, RequireAdmin(), utils.AudienceAdmin, []string{"user", "admin"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = invokeWithClaims(t, RequireAdmin(), utils.AudienceAdmin, []string{"user"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = invokeWithClaims(t, RequireAdmin(), utils.AudienceAdmin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
