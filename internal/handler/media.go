package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/thirdeyesoft/portal-backend/internal/model"
	"github.com/thirdeyesoft/portal-backend/internal/repository"
)

// MediaHandler serves gallery items, news posts and the rasi palan column.
type MediaHandler struct {
	Media *repository.MediaRepo
}

func NewMediaHandler(r *repository.MediaRepo) *MediaHandler { return &MediaHandler{Media: r} }

func (h *MediaHandler) ListGallery(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Media.ListGallery(ctx, activeFilter(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, items)
}

func (h *MediaHandler) CreateGalleryItem(c echo.Context) error {
	var req struct {
		Title    string `json:"title"`
		Category string `json:"category"`
		ImageURL string `json:"image_url"`
		IsActive *bool  `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ImageURL == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image_url required"})
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	g := model.GalleryItem{Title: req.Title, Category: req.Category, ImageURL: req.ImageURL, IsActive: active}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Media.CreateGalleryItem(ctx, &g); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *MediaHandler) DeleteGalleryItem(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Media.DeleteGalleryItem(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "gallery item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *MediaHandler) ListNews(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	news, err := h.Media.ListNews(ctx, activeFilter(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, news)
}

type newsReq struct {
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	ImageURL    string     `json:"image_url"`
	PublishedAt *time.Time `json:"published_at"`
	IsActive    *bool      `json:"is_active"`
}

func (h *MediaHandler) CreateNews(c echo.Context) error {
	var req newsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	published := time.Now().UTC()
	if req.PublishedAt != nil {
		published = *req.PublishedAt
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	n := model.News{Title: req.Title, Content: req.Content, ImageURL: req.ImageURL, PublishedAt: published, IsActive: active}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Media.CreateNews(ctx, &n); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *MediaHandler) UpdateNews(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req newsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	published := time.Now().UTC()
	if req.PublishedAt != nil {
		published = *req.PublishedAt
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	n := model.News{ID: id, Title: req.Title, Content: req.Content, ImageURL: req.ImageURL, PublishedAt: published, IsActive: active}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Media.UpdateNews(ctx, n); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "news not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, n)
}

func (h *MediaHandler) DeleteNews(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Media.DeleteNews(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "news not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *MediaHandler) ListRasiPalan(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Media.ListRasiPalan(ctx, activeFilter(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, items)
}

func (h *MediaHandler) CreateRasiPalan(c echo.Context) error {
	var req struct {
		Rasi        string    `json:"rasi"`
		Content     string    `json:"content"`
		PeriodStart time.Time `json:"period_start"`
		PeriodEnd   time.Time `json:"period_end"`
		IsActive    *bool     `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Rasi == "" || req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rasi/content required"})
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p := model.RasiPalan{Rasi: req.Rasi, Content: req.Content, PeriodStart: req.PeriodStart, PeriodEnd: req.PeriodEnd, IsActive: active}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Media.CreateRasiPalan(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *MediaHandler) DeleteRasiPalan(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Media.DeleteRasiPalan(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rasi palan not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
