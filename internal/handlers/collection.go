package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/requestdata"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/services"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/types"
)

type CollectionHandler struct {
	log *logger.Logger
	svc services.CollectionService
}

func NewCollectionHandler(log *logger.Logger, svc services.CollectionService) *CollectionHandler {
	return &CollectionHandler{log: log.With("handler", "CollectionHandler"), svc: svc}
}

// resolveCollection loads the collection and enforces brand ownership.
func (h *CollectionHandler) resolveCollection(c *gin.Context) (*types.Collection, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid collection id"))
		return nil, false
	}

	collection, err := h.svc.Get(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return nil, false
	}
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return nil, false
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || collection.BrandID != rd.BrandID {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("collection not found"))
		return nil, false
	}
	return collection, true
}

// POST /api/collections
func (h *CollectionHandler) Create(c *gin.Context) {
	var body struct {
		Name   string `json:"name" binding:"required"`
		Season string `json:"season"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "missing_brand", errors.New("brand context required"))
		return
	}

	collection, err := h.svc.Create(c.Request.Context(), rd.BrandID, body.Name, body.Season)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"collection": collection})
}

// GET /api/collections
func (h *CollectionHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "missing_brand", errors.New("brand context required"))
		return
	}

	collections, err := h.svc.ListByBrand(c.Request.Context(), rd.BrandID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"collections": collections})
}

// GET /api/collections/:id
func (h *CollectionHandler) Get(c *gin.Context) {
	collection, ok := h.resolveCollection(c)
	if !ok {
		return
	}
	RespondOK(c, gin.H{"collection": collection})
}

// GET /api/collections/:id/categories
func (h *CollectionHandler) Categories(c *gin.Context) {
	collection, ok := h.resolveCollection(c)
	if !ok {
		return
	}

	categories, err := h.svc.Categories(c.Request.Context(), collection.ID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "categories_failed", err)
		return
	}
	RespondOK(c, gin.H{"categories": categories})
}

// DELETE /api/collections/:id
func (h *CollectionHandler) Delete(c *gin.Context) {
	collection, ok := h.resolveCollection(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), collection.ID); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
