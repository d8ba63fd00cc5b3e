package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pairchat-service/internal/apperrors"
	"pairchat-service/internal/media"
	"pairchat-service/internal/repositories"
	"pairchat-service/internal/telemetry"
)

// UserHandler serves the user directory and profile updates.
type UserHandler struct {
	userRepo repositories.UserRepository
	audit    *telemetry.AuditEmitter
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(userRepo repositories.UserRepository, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{userRepo: userRepo, audit: audit}
}

// List returns the directory without the caller.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userRepo.ListExcept(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Me returns the caller's own profile.
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userRepo.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(apperrors.StatusFor(err), gin.H{"error": "failed to load profile"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateAvatar stores a new profile image reference. The reference must
// already be resolved, the same rule as media messages.
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	var req struct {
		AvatarURL string `json:"avatar_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := media.RequireContentRef(req.AvatarURL); err != nil {
		c.JSON(apperrors.StatusFor(err), gin.H{"error": err.Error()})
		return
	}

	userID := currentUserID(c)
	if err := h.userRepo.UpdateAvatar(c.Request.Context(), userID, req.AvatarURL); err != nil {
		c.JSON(apperrors.StatusFor(err), gin.H{"error": "could not update profile image"})
		return
	}

	h.audit.Emit(c.Request.Context(), "avatar_updated", "profile image updated", requestIDFromContext(c), userID)
	c.Status(http.StatusNoContent)
}
