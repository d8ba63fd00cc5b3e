package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pairchat-service/internal/apperrors"
	"pairchat-service/internal/auth"
	"pairchat-service/internal/middleware"
	"pairchat-service/internal/models"
	"pairchat-service/internal/repositories"
	"pairchat-service/internal/session"
	"pairchat-service/internal/telemetry"
)

// AuthHandler owns sign-up, sign-in and session lifecycle.
type AuthHandler struct {
	userRepo  repositories.UserRepository
	issuer    *auth.TokenIssuer
	federated *auth.FederatedVerifier
	sessions  session.Store
	audit     *telemetry.AuditEmitter
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(userRepo repositories.UserRepository, issuer *auth.TokenIssuer, federated *auth.FederatedVerifier, sessions session.Store, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{
		userRepo:  userRepo,
		issuer:    issuer,
		federated: federated,
		sessions:  sessions,
		audit:     audit,
	}
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Signup registers a new email/password identity and opens a session.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = emailLocalPart(req.Email)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		return
	}

	user, err := h.userRepo.Create(c.Request.Context(), models.User{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    req.Email,
		Password: hash,
		Provider: "password",
	})
	if err != nil {
		c.JSON(apperrors.StatusFor(err), gin.H{"error": "could not create account"})
		return
	}

	h.openSession(c, user, "signup")
}

// Login authenticates an email/password identity and opens a session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	h.openSession(c, user, "login")
}

// FederatedLogin exchanges a provider-signed token for a session, creating
// the profile on first sign-in.
func (h *AuthHandler) FederatedLogin(c *gin.Context) {
	var req struct {
		IDToken string `json:"id_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, err := h.federated.Verify(req.IDToken)
	if err != nil {
		c.JSON(apperrors.StatusFor(err), gin.H{"error": "invalid provider token"})
		return
	}

	name := identity.Name
	if name == "" {
		name = emailLocalPart(identity.Email)
	}

	user, err := h.userRepo.Upsert(c.Request.Context(), models.User{
		ID:       identity.Subject,
		Name:     name,
		Email:    identity.Email,
		Provider: "federated",
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save profile"})
		return
	}

	h.openSession(c, user, "federated_login")
}

// Logout revokes the caller's session; the token stops working immediately.
func (h *AuthHandler) Logout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
		return
	}

	claims, err := h.issuer.Verify(parts[1])
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), claims.ID); err != nil {
		c.JSON(apperrors.StatusFor(err), gin.H{"error": "could not end session"})
		return
	}

	h.audit.Emit(c.Request.Context(), "logout", "session revoked", requestIDFromContext(c), claims.Subject)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) openSession(c *gin.Context, user models.User, action string) {
	token, sessionID, expiresAt, err := h.issuer.Issue(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	if err := h.sessions.Put(c.Request.Context(), sessionID, user.ID, expiresAt); err != nil {
		c.JSON(apperrors.StatusFor(err), gin.H{"error": "could not open session"})
		return
	}

	h.audit.Emit(c.Request.Context(), action, "session opened", requestIDFromContext(c), user.ID)
	c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

func emailLocalPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}
