package handler

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thirdeyesoft/portal-backend/internal/middleware"
	"github.com/thirdeyesoft/portal-backend/internal/model"
	"github.com/thirdeyesoft/portal-backend/internal/repository"
	"github.com/thirdeyesoft/portal-backend/internal/utils"
)

func newMatrimonyFixture(t *testing.T) (*MatrimonyHandler, *MockMatrimonyStore) {
	t.Helper()
	vault, err := utils.NewVault(testVaultKey)
	require.NoError(t, err)
	store := new(MockMatrimonyStore)
	h := NewMatrimonyHandler(store, NewCredentialEncoder(4, vault), zap.NewNop())
	return h, store
}

func TestMatrimonyListActiveOnlyForGuests(t *testing.T) {
	h, store := newMatrimonyFixture(t)
	store.On("List", mock.Anything, true).Return([]model.MatrimonyProfile{}, nil)

	c, rec := request(t, http.MethodGet, "/v1/matrimony/profiles", "")
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertExpectations(t)
}

func TestMatrimonyListAllForAdmin(t *testing.T) {
	h, store := newMatrimonyFixture(t)
	store.On("List", mock.Anything, false).Return([]model.MatrimonyProfile{}, nil)

	c, rec := request(t, http.MethodGet, "/v1/matrimony/profiles", "")
	c.Set(middleware.CtxRoles, []string{model.RoleAdmin})
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertExpectations(t)
}

func TestMatrimonyGetNotFound(t *testing.T) {
	h, store := newMatrimonyFixture(t)
	store.On("GetByID", mock.Anything, "p-9").Return(model.MatrimonyProfile{}, sql.ErrNoRows)

	c, rec := request(t, http.MethodGet, "/v1/matrimony/profiles/p-9", "")
	c.SetParamNames("id")
	c.SetParamValues("p-9")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMatrimonyCreateRequiresDOB(t *testing.T) {
	h, store := newMatrimonyFixture(t)

	body := `{"full_name":"Priya","details":{}}`
	c, rec := request(t, http.MethodPost, "/v1/matrimony/profiles", body)
	c.Set(middleware.CtxUserID, "uid-1")
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMatrimonyCreateUsesAuthenticatedUser(t *testing.T) {
	h, store := newMatrimonyFixture(t)
	store.On("Create", mock.Anything, mock.MatchedBy(func(p *model.MatrimonyProfile) bool {
		return p.UserID == "uid-1" && p.Details.DOB == "1994-05-20" && p.IsActive
	})).Return(nil)

	body := `{"full_name":"Priya","details":{"dob":"1994-05-20"}}`
	c, rec := request(t, http.MethodPost, "/v1/matrimony/profiles", body)
	c.Set(middleware.CtxUserID, "uid-1")
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	store.AssertExpectations(t)
}

func TestMatrimonyUpdateForbiddenForOtherUser(t *testing.T) {
	h, store := newMatrimonyFixture(t)
	store.On("GetByID", mock.Anything, "p-1").Return(model.MatrimonyProfile{ID: "p-1", UserID: "uid-2"}, nil)

	c, rec := request(t, http.MethodPut, "/v1/matrimony/profiles/p-1", `{"location":"Chennai"}`)
	c.SetParamNames("id")
	c.SetParamValues("p-1")
	c.Set(middleware.CtxUserID, "uid-1")
	c.Set(middleware.CtxRoles, []string{model.RoleUser})
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	store.AssertNotCalled(t, "ApplyUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMatrimonyUpdateNotFound(t *testing.T) {
	h, store := newMatrimonyFixture(t)
	store.On("GetByID", mock.Anything, "p-9").Return(model.MatrimonyProfile{}, sql.ErrNoRows)

	c, rec := request(t, http.MethodPut, "/v1/matrimony/profiles/p-9", `{}`)
	c.SetParamNames("id")
	c.SetParamValues("p-9")
	c.Set(middleware.CtxUserID, "uid-1")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMatrimonyUpdateOwnProfile(t *testing.T) {
	h, store := newMatrimonyFixture(t)
	existing := model.MatrimonyProfile{ID: "p-1", UserID: "uid-1", Details: model.MatrimonyDetails{DOB: "1990-01-01"}}
	store.On("GetByID", mock.Anything, "p-1").Return(existing, nil).Once()
	store.On("ApplyUpdate", mock.Anything, "p-1", mock.MatchedBy(func(u repository.MatrimonyUpdate) bool {
		return u.Location != nil && *u.Location == "Chennai" && u.Details == nil && u.Password == ""
	}), mock.Anything).Return(repository.SyncResult{UserID: "uid-1"}, nil)
	store.On("GetByID", mock.Anything, "p-1").Return(existing, nil)

	c, rec := request(t, http.MethodPut, "/v1/matrimony/profiles/p-1", `{"location":"Chennai"}`)
	c.SetParamNames("id")
	c.SetParamValues("p-1")
	c.Set(middleware.CtxUserID, "uid-1")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertExpectations(t)
}

func TestMatrimonyUpdatePassesExplicitPassword(t *testing.T) {
	h, store := newMatrimonyFixture(t)
	existing := model.MatrimonyProfile{ID: "p-1", UserID: "uid-1", Details: model.MatrimonyDetails{DOB: "1990-01-01"}}
	store.On("GetByID", mock.Anything, "p-1").Return(existing, nil)
	store.On("ApplyUpdate", mock.Anything, "p-1", mock.MatchedBy(func(u repository.MatrimonyUpdate) bool {
		return u.Password == "override" && u.Details != nil && u.Details.DOB == "1992-02-02"
	}), mock.Anything).Return(repository.SyncResult{UserID: "uid-1", PasswordChanged: true}, nil)

	body := `{"password":"override","details":{"dob":"1992-02-02"}}`
	c, rec := request(t, http.MethodPut, "/v1/matrimony/profiles/p-1", body)
	c.SetParamNames("id")
	c.SetParamValues("p-1")
	c.Set(middleware.CtxUserID, "uid-1")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMatrimonyUpdatePhoneConflict(t *testing.T) {
	h, store := newMatrimonyFixture(t)
	existing := model.MatrimonyProfile{ID: "p-1", UserID: "uid-1"}
	store.On("GetByID", mock.Anything, "p-1").Return(existing, nil)
	store.On("ApplyUpdate", mock.Anything, "p-1", mock.Anything, mock.Anything).
		Return(repository.SyncResult{}, repository.ErrPhoneExists)

	c, rec := request(t, http.MethodPut, "/v1/matrimony/profiles/p-1", `{"contact_phone":"9000000002"}`)
	c.SetParamNames("id")
	c.SetParamValues("p-1")
	c.Set(middleware.CtxUserID, "uid-1")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMatrimonyDelete(t *testing.T) {
	h, store := newMatrimonyFixture(t)
	store.On("Delete", mock.Anything, "p-1").Return(nil)

	c, rec := request(t, http.MethodDelete, "/v1/matrimony/profiles/p-1", "")
	c.SetParamNames("id")
	c.SetParamValues("p-1")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
