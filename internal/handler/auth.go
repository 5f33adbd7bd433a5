package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/thirdeyesoft/portal-backend/internal/config"
	"github.com/thirdeyesoft/portal-backend/internal/middleware"
	"github.com/thirdeyesoft/portal-backend/internal/model"
	"github.com/thirdeyesoft/portal-backend/internal/repository"
	"github.com/thirdeyesoft/portal-backend/internal/utils"
)

// UserStore is the slice of the user repository the auth endpoints need.
type UserStore interface {
	CreateAccount(ctx context.Context, acc repository.NewAccount) (string, error)
	GetByPhone(ctx context.Context, phone string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	RolesFor(ctx context.Context, userID string) ([]string, error)
	UpdateCredentials(ctx context.Context, userID, hash, enc string) error
	ProfileFor(ctx context.Context, userID string) (model.Profile, error)
	List(ctx context.Context) ([]model.User, error)
}

// TokenStore persists refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// MatrimonyStore is the slice of the matrimony repository the credential
// flows need (DOB-verified reset, profile sync).
type MatrimonyStore interface {
	List(ctx context.Context, activeOnly bool) ([]model.MatrimonyProfile, error)
	GetByID(ctx context.Context, id string) (model.MatrimonyProfile, error)
	GetByUserID(ctx context.Context, userID string) (model.MatrimonyProfile, error)
	Create(ctx context.Context, p *model.MatrimonyProfile) error
	ApplyUpdate(ctx context.Context, id string, upd repository.MatrimonyUpdate, enc repository.CredentialEncoder) (repository.SyncResult, error)
	Delete(ctx context.Context, id string) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg       config.Config
	Users     UserStore
	Tokens    TokenStore
	Matrimony MatrimonyStore
	Vault     *utils.Vault
	Log       *zap.Logger
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore, m MatrimonyStore, v *utils.Vault, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Matrimony: m, Vault: v, Log: log}
}

// credentialEncoder derives both stored password forms.  It satisfies
// repository.CredentialEncoder.
type credentialEncoder struct {
	cost  int
	vault *utils.Vault
}

func (e credentialEncoder) Encode(plain string) (string, string, error) {
	hash, err := utils.HashPassword(plain, e.cost)
	if err != nil {
		return "", "", err
	}
	enc, err := e.vault.Encrypt(plain)
	if err != nil {
		return "", "", err
	}
	return hash, enc, nil
}

func (h *AuthHandler) encoder() credentialEncoder {
	return credentialEncoder{cost: h.Cfg.BcryptCost, vault: h.Vault}
}

// NewCredentialEncoder exposes the same derivation for wiring into other
// handlers that re-encode credentials, such as the matrimony sync.
func NewCredentialEncoder(cost int, vault *utils.Vault) repository.CredentialEncoder {
	return credentialEncoder{cost: cost, vault: vault}
}

// ----- DTOs -----

type registerData struct {
	FullName         string `json:"full_name"`
	RegistrationType string `json:"registration_type"`
	Email            string `json:"email"`
	Gender           string `json:"gender"`
	Occupation       string `json:"occupation"`
	Location         string `json:"location"`
	ImageURL         string `json:"image_url"`
	DOB              string `json:"dob"`
	FatherName       string `json:"father_name"`
	MotherName       string `json:"mother_name"`
	Caste            string `json:"caste"`
	Community        string `json:"community"`
	Salary           string `json:"salary"`
}

type registerReq struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Options  struct {
		Data registerData `json:"data"`
	} `json:"options"`
}

type loginReq struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Portal   string `json:"portal"` // admin | matrimony | member (default member)
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type appMetadata struct {
	Roles []string `json:"roles"`
}

type userPart struct {
	ID          string      `json:"id"`
	Phone       string      `json:"phone"`
	Role        string      `json:"role"`
	AppMetadata appMetadata `json:"app_metadata"`
}

type sessionPart struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	RefreshToken string    `json:"refresh_token"`
	Audience     string    `json:"audience"`
	User         userPart  `json:"user"`
}

type authData struct {
	User    userPart    `json:"user"`
	Session sessionPart `json:"session"`
}

// envelope is the success shape the storefront client expects.
type envelope struct {
	Data  interface{} `json:"data"`
	Error interface{} `json:"error"`
}

// primaryRole picks the role shown as the user's main one: admin wins,
// otherwise the first tag, otherwise "user".
func primaryRole(roles []string) string {
	for _, r := range roles {
		if r == model.RoleAdmin {
			return model.RoleAdmin
		}
	}
	if len(roles) > 0 {
		return roles[0]
	}
	return model.RoleUser
}

// issueSession creates the access/refresh pair and persists the refresh hash.
func (h *AuthHandler) issueSession(ctx context.Context, u userPart, audience string, roles []string) (sessionPart, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, audience, roles, h.Cfg.AccessTTLMin)
	if err != nil {
		return sessionPart{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return sessionPart{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return sessionPart{}, err
	}
	return sessionPart{
		AccessToken:  access.Token,
		TokenType:    "bearer",
		ExpiresAt:    access.Exp,
		RefreshToken: refresh.Raw, // raw back to client
		Audience:     audience,
		User:         u,
	}, nil
}

// Register: create the account and return a session immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Phone == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone/password required"})
	}
	data := req.Options.Data
	if data.RegistrationType == "matrimony" && data.DOB == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dob required for matrimony registration"})
	}

	hash, enc, err := h.encoder().Encode(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "encode credentials failed"})
	}

	acc := repository.NewAccount{
		Phone:        req.Phone,
		Email:        data.Email,
		FullName:     data.FullName,
		PasswordHash: hash,
		PasswordEnc:  enc,
	}
	audience := utils.AudienceMember
	if data.RegistrationType == "matrimony" {
		audience = utils.AudienceMatrimony
		acc.Matrimony = &repository.MatrimonyInput{
			Gender:     data.Gender,
			Occupation: data.Occupation,
			Location:   data.Location,
			ImageURL:   data.ImageURL,
			Details: model.MatrimonyDetails{
				DOB:        data.DOB,
				FatherName: data.FatherName,
				MotherName: data.MotherName,
				Caste:      data.Caste,
				Community:  data.Community,
				Salary:     data.Salary,
			},
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Users.CreateAccount(ctx, acc)
	if err != nil {
		if err == repository.ErrPhoneExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "phone already exists"})
		}
		h.Log.Error("register failed", zap.String("phone", req.Phone), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	roles := []string{model.RoleUser}
	u := userPart{ID: userID, Phone: req.Phone, Role: model.RoleUser, AppMetadata: appMetadata{Roles: roles}}
	session, err := h.issueSession(ctx, u, audience, roles)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}

	h.Log.Info("user registered",
		zap.String("user_id", userID),
		zap.String("phone", req.Phone),
		zap.String("registration_type", data.RegistrationType))

	return c.JSON(http.StatusCreated, envelope{Data: authData{User: u, Session: session}})
}

// Login: verify credentials against the bcrypt hash and return a session
// bound to the requested portal.  Every attempt is audit-logged.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Phone == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone/password required"})
	}
	portal := req.Portal
	if portal == "" {
		portal = utils.AudienceMember
	}
	switch portal {
	case utils.AudienceAdmin, utils.AudienceMatrimony, utils.AudienceMember:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown portal"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByPhone(ctx, req.Phone)
	if err != nil {
		if err == sql.ErrNoRows {
			h.Log.Info("login rejected", zap.String("phone", req.Phone), zap.String("reason", "unknown phone"))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		h.Log.Info("login rejected", zap.String("phone", req.Phone), zap.String("reason", "bad password"))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	roles, err := h.Users.RolesFor(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load roles failed"})
	}
	if portal == utils.AudienceAdmin && !contains(roles, model.RoleAdmin) {
		h.Log.Warn("admin portal rejected", zap.String("user_id", u.ID), zap.String("phone", req.Phone))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "admin role required"})
	}

	part := userPart{ID: u.ID, Phone: u.Phone, Role: primaryRole(roles), AppMetadata: appMetadata{Roles: roles}}
	session, err := h.issueSession(ctx, part, portal, roles)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}

	h.Log.Info("login ok", zap.String("user_id", u.ID), zap.String("portal", portal))
	return c.JSON(http.StatusOK, envelope{Data: authData{User: part, Session: session}})
}

// Refresh: validate by hash, revoke old, issue new pair.  The new access
// token carries the audience requested in the body, validated and defaulted
// the same way login does.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
		Portal       string `json:"portal"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	portal := req.Portal
	if portal == "" {
		portal = utils.AudienceMember
	}
	switch portal {
	case utils.AudienceAdmin, utils.AudienceMatrimony, utils.AudienceMember:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown portal"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	// The old token must be dead before a new one exists, or a failed revoke
	// leaves two valid tokens for the session.
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	roles, err := h.Users.RolesFor(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load roles failed"})
	}
	if portal == utils.AudienceAdmin && !contains(roles, model.RoleAdmin) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "admin role required"})
	}

	part := userPart{ID: u.ID, Phone: u.Phone, Role: primaryRole(roles), AppMetadata: appMetadata{Roles: roles}}
	session, err := h.issueSession(ctx, part, portal, roles)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	return c.JSON(http.StatusOK, envelope{Data: authData{User: part, Session: session}})
}

// Logout revokes refresh tokens server-side so a session ends before the
// access token's natural expiry.  With a valid bearer and no body token all
// of the user's sessions are revoked; with a refresh_token in the body just
// that session ends.
func (h *AuthHandler) Logout(c echo.Context) error {
	var uid string
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
			uid = claims.UserID
		}
	}

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if uid != "" && refreshToken == "" {
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		h.Log.Info("logout all sessions", zap.String("user_id", uid))
		return c.NoContent(http.StatusNoContent)
	}
	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me returns the authenticated user's identity, roles and profile name.
func (h *AuthHandler) Me(c echo.Context) error {
	uid := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	roles, err := h.Users.RolesFor(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load roles failed"})
	}
	fullName := ""
	if p, err := h.Users.ProfileFor(ctx, uid); err == nil {
		fullName = p.FullName
	}

	return c.JSON(http.StatusOK, envelope{Data: echo.Map{
		"id":            u.ID,
		"phone":         u.Phone,
		"app_metadata":  appMetadata{Roles: roles},
		"user_metadata": echo.Map{"full_name": fullName},
		"role":          primaryRole(roles),
	}})
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
