package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/thirdeyesoft/portal-backend/internal/middleware"
	"github.com/thirdeyesoft/portal-backend/internal/model"
	"github.com/thirdeyesoft/portal-backend/internal/queue"
	queue_publisher "github.com/thirdeyesoft/portal-backend/internal/service"
)

// Credential flows beyond login: self/admin password change, the two
// unauthenticated reset paths, and the admin password reveal.

type updateReq struct {
	Password     string `json:"password"`
	TargetUserID string `json:"target_user_id"`
}

// ChangePassword handles PUT /v1/auth/update.  A user may change their own
// password; changing someone else's requires the admin role.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req updateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password required"})
	}

	actor := middleware.UserID(c)
	target := req.TargetUserID
	if target == "" {
		target = actor
	}
	if target != actor && !middleware.HasRole(c, model.RoleAdmin) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "admin role required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.setPassword(ctx, target, req.Password); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	h.Log.Info("password changed", zap.String("user_id", target), zap.String("actor_id", actor))
	h.publishCredentialChanged(target, actor, "auth.update")

	return c.JSON(http.StatusOK, echo.Map{"message": "password updated", "error": nil})
}

type matrimonyResetReq struct {
	Phone       string `json:"phone"`
	DOB         string `json:"dob"`
	NewPassword string `json:"new_password"`
}

// ResetMatrimonyPassword lets a matrimony user recover access by proving
// their date of birth.  404 for unknown phone or missing profile, 401 when
// the supplied dob does not match the stored details.
func (h *AuthHandler) ResetMatrimonyPassword(c echo.Context) error {
	var req matrimonyResetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Phone) == "" || req.DOB == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone/dob/new_password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByPhone(ctx, req.Phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "phone not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	profile, err := h.Matrimony.GetByUserID(ctx, u.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no matrimony profile"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if profile.Details.DOB != req.DOB {
		h.Log.Info("matrimony reset rejected", zap.String("user_id", u.ID), zap.String("reason", "dob mismatch"))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "dob does not match"})
	}

	if err := h.setPassword(ctx, u.ID, req.NewPassword); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	h.Log.Info("matrimony password reset", zap.String("user_id", u.ID))
	h.publishCredentialChanged(u.ID, "", "auth.reset_matrimony")
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

type memberResetReq struct {
	Phone       string `json:"phone"`
	NewPassword string `json:"new_password"`
}

// ResetMemberPassword resets a member's password by phone.  404 for unknown
// phone; no secondary proof is required for the member portal.
func (h *AuthHandler) ResetMemberPassword(c echo.Context) error {
	var req memberResetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Phone) == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone/new_password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByPhone(ctx, req.Phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "phone not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.setPassword(ctx, u.ID, req.NewPassword); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	h.Log.Info("member password reset", zap.String("user_id", u.ID))
	h.publishCredentialChanged(u.ID, "", "auth.reset_member")
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// RevealPassword is the admin support endpoint: it decrypts the vault
// ciphertext of a user's current password.  Route-level middleware enforces
// the admin role; every reveal is logged and published for the audit trail.
func (h *AuthHandler) RevealPassword(c echo.Context) error {
	targetID := c.Param("id")
	actor := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, targetID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	plain, err := h.Vault.Decrypt(u.PasswordEnc)
	if err != nil {
		h.Log.Error("vault decrypt failed", zap.String("user_id", targetID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "decrypt failed"})
	}

	h.Log.Warn("password revealed", zap.String("actor_id", actor), zap.String("target_id", targetID))
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishCredentialRevealed(ctx, queue.CredentialRevealedEvent{
			ActorID:    actor,
			TargetID:   targetID,
			RevealedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusOK, envelope{Data: echo.Map{
		"user_id":  u.ID,
		"phone":    u.Phone,
		"password": plain,
	}})
}

// ListUsers returns every account with its role tags for the admin user
// browser.  Password material never leaves this handler.
func (h *AuthHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]echo.Map, 0, len(users))
	for _, u := range users {
		roles, err := h.Users.RolesFor(ctx, u.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load roles failed"})
		}
		out = append(out, echo.Map{
			"id":         u.ID,
			"phone":      u.Phone,
			"email":      u.Email,
			"roles":      roles,
			"is_active":  u.IsActive,
			"created_at": u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, envelope{Data: out})
}

// setPassword writes both stored forms of the password in one statement.
func (h *AuthHandler) setPassword(ctx context.Context, userID, plain string) error {
	hash, enc, err := h.encoder().Encode(plain)
	if err != nil {
		return err
	}
	return h.Users.UpdateCredentials(ctx, userID, hash, enc)
}

// publishCredentialChanged emits the audit event without blocking the
// request; publish failures are logged inside the publisher and ignored.
func (h *AuthHandler) publishCredentialChanged(userID, actorID, source string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishCredentialChanged(ctx, queue.CredentialChangedEvent{
			UserID:          userID,
			ActorID:         actorID,
			Source:          source,
			PasswordChanged: true,
			ChangedAt:       time.Now().UTC().Format(time.RFC3339),
		})
	}()
}
