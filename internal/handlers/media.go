package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pairchat-service/internal/apperrors"
	"pairchat-service/internal/media"
	"pairchat-service/internal/telemetry"
)

// MediaHandler fronts the upload CDN: a file goes up, a stable content
// reference comes back, and only then can a message or avatar point at it.
type MediaHandler struct {
	uploader media.Uploader
	folder   string
	audit    *telemetry.AuditEmitter
}

// NewMediaHandler builds a MediaHandler.
func NewMediaHandler(uploader media.Uploader, folder string, audit *telemetry.AuditEmitter) *MediaHandler {
	return &MediaHandler{uploader: uploader, folder: folder, audit: audit}
}

// Upload forwards the multipart file to the media store and returns its
// content reference.
func (h *MediaHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer file.Close()

	ref, err := h.uploader.Upload(c.Request.Context(), fileHeader.Filename, file, h.folder)
	if err != nil {
		c.JSON(apperrors.StatusFor(err), gin.H{"error": "upload failed"})
		return
	}

	h.audit.Emit(c.Request.Context(), "media_uploaded", "file uploaded", requestIDFromContext(c), currentUserID(c))
	c.JSON(http.StatusCreated, gin.H{"content_url": ref, "file_name": fileHeader.Filename})
}
