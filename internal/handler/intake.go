package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/thirdeyesoft/portal-backend/internal/model"
	"github.com/thirdeyesoft/portal-backend/internal/queue"
	"github.com/thirdeyesoft/portal-backend/internal/repository"
	queue_publisher "github.com/thirdeyesoft/portal-backend/internal/service"
)

// IntakeHandler accepts the unauthenticated inbound forms (signup
// enquiries and contact messages) and gives admins read/prune access.
type IntakeHandler struct {
	Intake *repository.IntakeRepo
	Log    *zap.Logger
}

func NewIntakeHandler(r *repository.IntakeRepo, log *zap.Logger) *IntakeHandler {
	return &IntakeHandler{Intake: r, Log: log}
}

// CreateRegistration records a signup enquiry from the public site.
// No account is created here; staff follow up by phone.
func (h *IntakeHandler) CreateRegistration(c echo.Context) error {
	var req struct {
		FullName         string `json:"full_name"`
		Phone            string `json:"phone"`
		RegistrationType string `json:"registration_type"`
		Notes            string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.FullName == "" || req.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name and phone required"})
	}
	if req.RegistrationType == "" {
		req.RegistrationType = "member"
	}
	reg := model.Registration{
		FullName:         req.FullName,
		Phone:            req.Phone,
		RegistrationType: req.RegistrationType,
		Notes:            req.Notes,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Intake.CreateRegistration(ctx, &reg); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, reg)
}

func (h *IntakeHandler) ListRegistrations(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	regs, err := h.Intake.ListRegistrations(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, regs)
}

func (h *IntakeHandler) DeleteRegistration(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Intake.DeleteRegistration(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateContactMessage stores a contact-form message and notifies staff
// over the queue.  A broker outage never fails the request.
func (h *IntakeHandler) CreateContactMessage(c echo.Context) error {
	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and message required"})
	}
	msg := model.ContactMessage{
		Name:    req.Name,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Intake.CreateContactMessage(ctx, &msg); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}

	go func(m model.ContactMessage) {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pubCancel()
		err := queue_publisher.PublishContactReceived(pubCtx, queue.ContactReceivedEvent{
			MessageID:  m.ID,
			Name:       m.Name,
			Phone:      m.Phone,
			Subject:    m.Subject,
			ReceivedAt: time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil && h.Log != nil {
			h.Log.Warn("contact event publish failed", zap.Uint64("message_id", m.ID), zap.Error(err))
		}
	}(msg)

	return c.JSON(http.StatusCreated, msg)
}

func (h *IntakeHandler) ListContactMessages(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msgs, err := h.Intake.ListContactMessages(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, msgs)
}

func (h *IntakeHandler) DeleteContactMessage(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Intake.DeleteContactMessage(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "contact message not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
