package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/services"
)

type BrandHandler struct {
	log *logger.Logger
	svc services.BrandService
}

func NewBrandHandler(log *logger.Logger, svc services.BrandService) *BrandHandler {
	return &BrandHandler{log: log.With("handler", "BrandHandler"), svc: svc}
}

// POST /api/brands
func (h *BrandHandler) Create(c *gin.Context) {
	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	brand, err := h.svc.Create(c.Request.Context(), body.Name)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"brand": brand})
}

// GET /api/brands/:id
func (h *BrandHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid brand id"))
		return
	}

	brand, err := h.svc.Get(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	RespondOK(c, gin.H{"brand": brand})
}

// DELETE /api/brands/:id
func (h *BrandHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid brand id"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
