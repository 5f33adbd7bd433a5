package handler

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thirdeyesoft/portal-backend/internal/middleware"
	"github.com/thirdeyesoft/portal-backend/internal/model"
)

func TestChangePasswordSelf(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("UpdateCredentials", mock.Anything, "uid-1", mock.Anything, mock.Anything).Return(nil)

	c, rec := request(t, http.MethodPut, "/v1/auth/update", `{"password":"newpw"}`)
	c.Set(middleware.CtxUserID, "uid-1")
	c.Set(middleware.CtxRoles, []string{model.RoleUser})
	require.NoError(t, f.h.ChangePassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	f.users.AssertExpectations(t)
}

func TestChangePasswordEmpty(t *testing.T) {
	f := newAuthFixture(t)
	c, rec := request(t, http.MethodPut, "/v1/auth/update", `{"password":""}`)
	c.Set(middleware.CtxUserID, "uid-1")
	require.NoError(t, f.h.ChangePassword(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePasswordOtherUserRequiresAdmin(t *testing.T) {
	f := newAuthFixture(t)
	c, rec := request(t, http.MethodPut, "/v1/auth/update", `{"password":"newpw","target_user_id":"uid-2"}`)
	c.Set(middleware.CtxUserID, "uid-1")
	c.Set(middleware.CtxRoles, []string{model.RoleUser})
	require.NoError(t, f.h.ChangePassword(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	f.users.AssertNotCalled(t, "UpdateCredentials", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePasswordAdminOnBehalf(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("UpdateCredentials", mock.Anything, "uid-2", mock.Anything, mock.Anything).Return(nil)

	c, rec := request(t, http.MethodPut, "/v1/auth/update", `{"password":"newpw","target_user_id":"uid-2"}`)
	c.Set(middleware.CtxUserID, "uid-1")
	c.Set(middleware.CtxRoles, []string{model.RoleUser, model.RoleAdmin})
	require.NoError(t, f.h.ChangePassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	f.users.AssertExpectations(t)
}

func TestChangePasswordUnknownTarget(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("UpdateCredentials", mock.Anything, "uid-9", mock.Anything, mock.Anything).Return(sql.ErrNoRows)

	c, rec := request(t, http.MethodPut, "/v1/auth/update", `{"password":"newpw","target_user_id":"uid-9"}`)
	c.Set(middleware.CtxUserID, "uid-1")
	c.Set(middleware.CtxRoles, []string{model.RoleAdmin})
	require.NoError(t, f.h.ChangePassword(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResetMatrimonyPasswordDOBMismatch(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("GetByPhone", mock.Anything, "9000000001").Return(model.User{ID: "uid-1"}, nil)
	f.matri.On("GetByUserID", mock.Anything, "uid-1").Return(model.MatrimonyProfile{
		UserID:  "uid-1",
		Details: model.MatrimonyDetails{DOB: "1990-01-01"},
	}, nil)

	body := `{"phone":"9000000001","dob":"1991-02-02","new_password":"np"}`
	c, rec := request(t, http.MethodPost, "/v1/auth/reset-matrimony-password", body)
	require.NoError(t, f.h.ResetMatrimonyPassword(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	f.users.AssertNotCalled(t, "UpdateCredentials", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResetMatrimonyPasswordUnknownPhone(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("GetByPhone", mock.Anything, "9000000009").Return(model.User{}, sql.ErrNoRows)

	body := `{"phone":"9000000009","dob":"1990-01-01","new_password":"np"}`
	c, rec := request(t, http.MethodPost, "/v1/auth/reset-matrimony-password", body)
	require.NoError(t, f.h.ResetMatrimonyPassword(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResetMatrimonyPasswordNoProfile(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("GetByPhone", mock.Anything, "9000000001").Return(model.User{ID: "uid-1"}, nil)
	f.matri.On("GetByUserID", mock.Anything, "uid-1").Return(model.MatrimonyProfile{}, sql.ErrNoRows)

	body := `{"phone":"9000000001","dob":"1990-01-01","new_password":"np"}`
	c, rec := request(t, http.MethodPost, "/v1/auth/reset-matrimony-password", body)
	require.NoError(t, f.h.ResetMatrimonyPassword(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResetMatrimonyPasswordSuccess(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("GetByPhone", mock.Anything, "9000000001").Return(model.User{ID: "uid-1"}, nil)
	f.matri.On("GetByUserID", mock.Anything, "uid-1").Return(model.MatrimonyProfile{
		UserID:  "uid-1",
		Details: model.MatrimonyDetails{DOB: "1990-01-01"},
	}, nil)
	f.users.On("UpdateCredentials", mock.Anything, "uid-1", mock.Anything, mock.Anything).Return(nil)

	body := `{"phone":"9000000001","dob":"1990-01-01","new_password":"np"}`
	c, rec := request(t, http.MethodPost, "/v1/auth/reset-matrimony-password", body)
	require.NoError(t, f.h.ResetMatrimonyPassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	f.users.AssertExpectations(t)
}

func TestResetMemberPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("GetByPhone", mock.Anything, "9000000001").Return(model.User{ID: "uid-1"}, nil)
	f.users.On("UpdateCredentials", mock.Anything, "uid-1", mock.Anything, mock.Anything).Return(nil)

	body := `{"phone":"9000000001","new_password":"np"}`
	c, rec := request(t, http.MethodPost, "/v1/auth/reset-member-password", body)
	require.NoError(t, f.h.ResetMemberPassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResetMemberPasswordUnknownPhone(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("GetByPhone", mock.Anything, "9000000009").Return(model.User{}, sql.ErrNoRows)

	body := `{"phone":"9000000009","new_password":"np"}`
	c, rec := request(t, http.MethodPost, "/v1/auth/reset-member-password", body)
	require.NoError(t, f.h.ResetMemberPassword(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRevealPassword(t *testing.T) {
	f := newAuthFixture(t)
	enc, err := f.vault.Encrypt("1990-01-01")
	require.NoError(t, err)
	f.users.On("GetByID", mock.Anything, "uid-1").Return(model.User{
		ID: "uid-1", Phone: "9000000001", PasswordEnc: enc,
	}, nil)

	c, rec := request(t, http.MethodGet, "/v1/admin/users/uid-1/password", "")
	c.SetParamNames("id")
	c.SetParamValues("uid-1")
	c.Set(middleware.CtxUserID, "admin-1")
	c.Set(middleware.CtxRoles, []string{model.RoleAdmin})
	require.NoError(t, f.h.RevealPassword(c))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "1990-01-01", data["password"])
	assert.Equal(t, "9000000001", data["phone"])
}

func TestRevealPasswordUnknownUser(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("GetByID", mock.Anything, "uid-9").Return(model.User{}, sql.ErrNoRows)

	c, rec := request(t, http.MethodGet, "/v1/admin/users/uid-9/password", "")
	c.SetParamNames("id")
	c.SetParamValues("uid-9")
	require.NoError(t, f.h.RevealPassword(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListUsersOmitsPasswordMaterial(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("List", mock.Anything).Return([]model.User{
		{ID: "uid-1", Phone: "9000000001", PasswordHash: "hash", PasswordEnc: "enc", IsActive: true},
	}, nil)
	f.users.On("RolesFor", mock.Anything, "uid-1").Return([]string{model.RoleUser}, nil)

	c, rec := request(t, http.MethodGet, "/v1/admin/users", "")
	require.NoError(t, f.h.ListUsers(c))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.NotContains(t, rec.Body.String(), "hash")
	assert.NotContains(t, rec.Body.String(), "enc")
	assert.Contains(t, rec.Body.String(), "9000000001")
}
