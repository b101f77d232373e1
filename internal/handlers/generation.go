package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/requestdata"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/services"
)

type GenerationHandler struct {
	log         *logger.Logger
	generation  services.GenerationService
	collections services.CollectionService
}

func NewGenerationHandler(log *logger.Logger, generation services.GenerationService, collections services.CollectionService) *GenerationHandler {
	return &GenerationHandler{
		log:         log.With("handler", "GenerationHandler"),
		generation:  generation,
		collections: collections,
	}
}

func (h *GenerationHandler) resolveCollectionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid collection id"))
		return uuid.Nil, false
	}

	collection, err := h.collections.Get(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return uuid.Nil, false
	}
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return uuid.Nil, false
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || collection.BrandID != rd.BrandID {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("collection not found"))
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/collections/:id/generate-items
// Queues purchase-order reconciliation; 202 on acceptance, 409 when a run
// is already active on the collection.
func (h *GenerationHandler) GenerateItems(c *gin.Context) {
	collectionID, ok := h.resolveCollectionID(c)
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())

	run, err := h.generation.EnqueueGeneration(c.Request.Context(), rd.BrandID, collectionID)
	if errors.Is(err, services.ErrConflict) {
		RespondError(c, http.StatusConflict, "already_generating", err)
		return
	}
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "enqueue_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run": run})
}

// POST /api/collections/:id/generate-items/cancel
func (h *GenerationHandler) Cancel(c *gin.Context) {
	collectionID, ok := h.resolveCollectionID(c)
	if !ok {
		return
	}

	run, err := h.generation.Cancel(c.Request.Context(), collectionID)
	if errors.Is(err, services.ErrNotFound) {
		RespondError(c, http.StatusNotFound, "no_active_run", err)
		return
	}
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "cancel_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run": run})
}

// GET /api/collections/:id/generate-items/status
func (h *GenerationHandler) Status(c *gin.Context) {
	collectionID, ok := h.resolveCollectionID(c)
	if !ok {
		return
	}

	run, err := h.generation.Status(c.Request.Context(), collectionID)
	if errors.Is(err, services.ErrNotFound) {
		RespondError(c, http.StatusNotFound, "no_runs", err)
		return
	}
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "status_failed", err)
		return
	}
	RespondOK(c, gin.H{"run": run})
}

// GET /api/collections/:id/items
func (h *GenerationHandler) Items(c *gin.Context) {
	collectionID, ok := h.resolveCollectionID(c)
	if !ok {
		return
	}

	items, err := h.generation.Items(c.Request.Context(), collectionID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "items_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": items})
}
