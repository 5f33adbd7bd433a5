package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/thirdeyesoft/portal-backend/internal/middleware"
	"github.com/thirdeyesoft/portal-backend/internal/model"
	"github.com/thirdeyesoft/portal-backend/internal/queue"
	"github.com/thirdeyesoft/portal-backend/internal/repository"
	queue_publisher "github.com/thirdeyesoft/portal-backend/internal/service"
)

// MatrimonyHandler serves the matrimony profile CRUD.  Updates run through
// the credential sync so contact-phone and password changes propagate to the
// owning user row in the same transaction.
type MatrimonyHandler struct {
	Profiles MatrimonyStore
	Encoder  repository.CredentialEncoder
	Log      *zap.Logger
}

func NewMatrimonyHandler(p MatrimonyStore, enc repository.CredentialEncoder, log *zap.Logger) *MatrimonyHandler {
	return &MatrimonyHandler{Profiles: p, Encoder: enc, Log: log}
}

type matrimonyDetailsDTO struct {
	DOB        string `json:"dob"`
	FatherName string `json:"father_name"`
	MotherName string `json:"mother_name"`
	Caste      string `json:"caste"`
	Community  string `json:"community"`
	Salary     string `json:"salary"`
}

type matrimonyProfileDTO struct {
	ID           string              `json:"id"`
	UserID       string              `json:"user_id"`
	FullName     string              `json:"full_name"`
	Age          int                 `json:"age"`
	Gender       string              `json:"gender"`
	Occupation   string              `json:"occupation"`
	Location     string              `json:"location"`
	ContactPhone string              `json:"contact_phone"`
	ImageURL     string              `json:"image_url"`
	IsActive     bool                `json:"is_active"`
	Details      matrimonyDetailsDTO `json:"details"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func toProfileDTO(p model.MatrimonyProfile) matrimonyProfileDTO {
	return matrimonyProfileDTO{
		ID:           p.ID,
		UserID:       p.UserID,
		FullName:     p.FullName,
		Age:          p.Age,
		Gender:       p.Gender,
		Occupation:   p.Occupation,
		Location:     p.Location,
		ContactPhone: p.ContactPhone,
		ImageURL:     p.ImageURL,
		IsActive:     p.IsActive,
		Details: matrimonyDetailsDTO{
			DOB:        p.Details.DOB,
			FatherName: p.Details.FatherName,
			MotherName: p.Details.MotherName,
			Caste:      p.Details.Caste,
			Community:  p.Details.Community,
			Salary:     p.Details.Salary,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// List returns profiles.  Guests and regular users see active profiles
// only; admins see everything.
func (h *MatrimonyHandler) List(c echo.Context) error {
	activeOnly := !middleware.HasRole(c, model.RoleAdmin)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profiles, err := h.Profiles.List(ctx, activeOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]matrimonyProfileDTO, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toProfileDTO(p))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns a single profile by id.
func (h *MatrimonyHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Profiles.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toProfileDTO(p))
}

type matrimonyCreateReq struct {
	FullName     string              `json:"full_name"`
	Gender       string              `json:"gender"`
	Occupation   string              `json:"occupation"`
	Location     string              `json:"location"`
	ContactPhone string              `json:"contact_phone"`
	ImageURL     string              `json:"image_url"`
	IsActive     *bool               `json:"is_active"`
	Details      matrimonyDetailsDTO `json:"details"`
}

// Create adds a profile for the authenticated user directly, outside the
// registration flow.
func (h *MatrimonyHandler) Create(c echo.Context) error {
	var req matrimonyCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.FullName == "" || req.Details.DOB == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name/details.dob required"})
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p := model.MatrimonyProfile{
		UserID:       middleware.UserID(c),
		FullName:     req.FullName,
		Gender:       req.Gender,
		Occupation:   req.Occupation,
		Location:     req.Location,
		ContactPhone: req.ContactPhone,
		ImageURL:     req.ImageURL,
		IsActive:     active,
		Details: model.MatrimonyDetails{
			DOB:        req.Details.DOB,
			FatherName: req.Details.FatherName,
			MotherName: req.Details.MotherName,
			Caste:      req.Details.Caste,
			Community:  req.Details.Community,
			Salary:     req.Details.Salary,
		},
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Profiles.Create(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create profile failed"})
	}
	return c.JSON(http.StatusCreated, toProfileDTO(p))
}

type matrimonyUpdateReq struct {
	FullName     *string              `json:"full_name"`
	Gender       *string              `json:"gender"`
	Occupation   *string              `json:"occupation"`
	Location     *string              `json:"location"`
	ContactPhone *string              `json:"contact_phone"`
	ImageURL     *string              `json:"image_url"`
	IsActive     *bool                `json:"is_active"`
	Password     string               `json:"password"`
	Details      *matrimonyDetailsDTO `json:"details"`
}

// Update applies a partial profile update plus the credential sync it
// implies.  A non-admin may only touch their own profile.  An explicit
// password field overrides everything; otherwise a changed details.dob
// becomes the new password.
func (h *MatrimonyHandler) Update(c echo.Context) error {
	id := c.Param("id")
	var req matrimonyUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	current, err := h.Profiles.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if current.UserID != middleware.UserID(c) && !middleware.HasRole(c, model.RoleAdmin) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	upd := repository.MatrimonyUpdate{
		FullName:     req.FullName,
		Gender:       req.Gender,
		Occupation:   req.Occupation,
		Location:     req.Location,
		ContactPhone: req.ContactPhone,
		ImageURL:     req.ImageURL,
		IsActive:     req.IsActive,
		Password:     req.Password,
	}
	if req.Details != nil {
		upd.Details = &model.MatrimonyDetails{
			DOB:        req.Details.DOB,
			FatherName: req.Details.FatherName,
			MotherName: req.Details.MotherName,
			Caste:      req.Details.Caste,
			Community:  req.Details.Community,
			Salary:     req.Details.Salary,
		}
	}

	res, err := h.Profiles.ApplyUpdate(ctx, id, upd, h.Encoder)
	if err != nil {
		if err == repository.ErrPhoneExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "phone already exists"})
		}
		h.Log.Error("matrimony update failed", zap.String("profile_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	if res.PasswordChanged || res.PhoneChanged {
		h.Log.Info("matrimony credential sync",
			zap.String("profile_id", id),
			zap.String("user_id", res.UserID),
			zap.Bool("password_changed", res.PasswordChanged),
			zap.Bool("phone_changed", res.PhoneChanged))
		actor := middleware.UserID(c)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = queue_publisher.PublishCredentialChanged(ctx, queue.CredentialChangedEvent{
				UserID:          res.UserID,
				ActorID:         actor,
				Source:          "matrimony.sync",
				PasswordChanged: res.PasswordChanged,
				PhoneChanged:    res.PhoneChanged,
				ChangedAt:       time.Now().UTC().Format(time.RFC3339),
			})
		}()
	}

	updated, err := h.Profiles.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reload failed"})
	}
	return c.JSON(http.StatusOK, toProfileDTO(updated))
}

// Delete removes a profile.  Admin-only (enforced by route middleware).
func (h *MatrimonyHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Profiles.Delete(ctx, c.Param("id")); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
