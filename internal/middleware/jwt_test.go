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

const testSecret = "middleware-test-secret"

func invoke(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	return rec, c
}

func bearer(t *testing.T, userID, audience string, roles []string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, userID, audience, roles, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _ := invoke(t, JWTAuth(testSecret), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthBadToken(t *testing.T) {
	rec, _ := invoke(t, JWTAuth(testSecret), "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthPopulatesContext(t *testing.T) {
	rec, c := invoke(t, JWTAuth(testSecret), bearer(t, "u-1", utils.AudienceAdmin, []string{"user", "admin"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", UserID(c))
	assert.Equal(t, utils.AudienceAdmin, c.Get(CtxAudience))
	assert.True(t, HasRole(c, "admin"))
	assert.False(t, HasRole(c, "owner"))
}

func TestOptionalJWTAuthWithoutToken(t *testing.T) {
	rec, c := invoke(t, OptionalJWTAuth(testSecret), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", UserID(c))
	assert.False(t, HasRole(c, "admin"))
}

func TestOptionalJWTAuthWithBadToken(t *testing.T) {
	// A broken token is ignored rather than rejected.
	rec, c := invoke(t, OptionalJWTAuth(testSecret), "Bearer nonsense")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", UserID(c))
}

func TestOptionalJWTAuthWithValidToken(t *testing.T) {
	rec, c := invoke(t, OptionalJWTAuth(testSecret), bearer(t, "u-2", utils.AudienceMatrimony, []string{"user"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-2", UserID(c))
}
