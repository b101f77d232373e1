package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/requestdata"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/services"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/types"
)

const maxUploadBytes = 50 << 20

type DocumentHandler struct {
	log         *logger.Logger
	documents   services.DocumentService
	collections services.CollectionService
}

func NewDocumentHandler(log *logger.Logger, documents services.DocumentService, collections services.CollectionService) *DocumentHandler {
	return &DocumentHandler{
		log:         log.With("handler", "DocumentHandler"),
		documents:   documents,
		collections: collections,
	}
}

func (h *DocumentHandler) brandOwnsCollection(c *gin.Context, collectionID uuid.UUID) bool {
	collection, err := h.collections.Get(c.Request.Context(), collectionID)
	if errors.Is(err, services.ErrNotFound) {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return false
	}
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return false
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || collection.BrandID != rd.BrandID {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("collection not found"))
		return false
	}
	return true
}

func (h *DocumentHandler) resolveDocument(c *gin.Context) (*types.Document, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid document id"))
		return nil, false
	}
	doc, err := h.documents.Get(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return nil, false
	}
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return nil, false
	}
	if !h.brandOwnsCollection(c, doc.CollectionID) {
		return nil, false
	}
	return doc, true
}

// POST /api/collections/:id/documents
// Multipart upload: "file" plus a "type" field (line_sheet or
// purchase_order). The upload always succeeds independent of any later
// enrichment.
func (h *DocumentHandler) Upload(c *gin.Context) {
	collectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid collection id"))
		return
	}
	if !h.brandOwnsCollection(c, collectionID) {
		return
	}

	docType := c.PostForm("type")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	if fileHeader.Size > maxUploadBytes {
		RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", errors.New("file exceeds upload limit"))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	doc, err := h.documents.Upload(c.Request.Context(), services.UploadInput{
		CollectionID: collectionID,
		Type:         docType,
		Filename:     fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		Data:         data,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "upload_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

// GET /api/collections/:id/documents
func (h *DocumentHandler) ListByCollection(c *gin.Context) {
	collectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid collection id"))
		return
	}
	if !h.brandOwnsCollection(c, collectionID) {
		return
	}

	docs, err := h.documents.ListByCollection(c.Request.Context(), collectionID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"documents": docs})
}

// GET /api/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, ok := h.resolveDocument(c)
	if !ok {
		return
	}
	RespondOK(c, gin.H{"document": doc})
}

// POST /api/documents/:id/process
// Queues background extraction; returns 202 immediately. Failures found
// during processing land on the document's status record, not here.
func (h *DocumentHandler) Process(c *gin.Context) {
	doc, ok := h.resolveDocument(c)
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())

	run, err := h.documents.EnqueueProcess(c.Request.Context(), rd.BrandID, doc.ID)
	if errors.Is(err, services.ErrConflict) {
		RespondError(c, http.StatusConflict, "already_processing", err)
		return
	}
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "enqueue_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run": run})
}

// GET /api/documents/:id/progress
func (h *DocumentHandler) Progress(c *gin.Context) {
	doc, ok := h.resolveDocument(c)
	if !ok {
		return
	}

	progress, err := h.documents.Progress(c.Request.Context(), doc.ID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "progress_failed", err)
		return
	}
	RespondOK(c, progress)
}

// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	doc, ok := h.resolveDocument(c)
	if !ok {
		return
	}
	if err := h.documents.Delete(c.Request.Context(), doc.ID); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
