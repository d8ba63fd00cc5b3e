package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pairchat-service/internal/auth"
	"pairchat-service/internal/mocks"
	"pairchat-service/internal/models"
	"pairchat-service/internal/repositories"
	"pairchat-service/internal/session"
)

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/signup", handler.Signup)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/token", handler.FederatedLogin)
	r.POST("/auth/logout", handler.Logout)
	return r
}

func newTestAuthHandler(userRepo *mocks.UserRepositoryMock) (*AuthHandler, *auth.TokenIssuer, *session.MemoryStore) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	sessions := session.NewMemoryStore()
	federated := auth.NewFederatedVerifier("federated-secret")
	return NewAuthHandler(userRepo, issuer, federated, sessions, nil), issuer, sessions
}

func signFederatedToken(t *testing.T, secret, subject, email, name string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"name":  name,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestSignupSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler, issuer, sessions := newTestAuthHandler(userRepo)
	router := setupAuthRouter(handler)

	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "alice@example.com" && u.Name == "alice" && u.Password != "" && u.Provider == "password"
	})).Return(models.User{ID: "u1", Name: "alice", Email: "alice@example.com"}, nil).Once()

	body := bytes.NewBufferString(`{"email":"alice@example.com","password":"hunter2hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp authResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "u1", resp.User.ID)

	claims, err := issuer.Verify(resp.Token)
	require.NoError(t, err)
	userID, err := sessions.UserID(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	userRepo.AssertExpectations(t)
}

func TestSignupShortPassword(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler, _, _ := newTestAuthHandler(userRepo)
	router := setupAuthRouter(handler)

	body := bytes.NewBufferString(`{"email":"alice@example.com","password":"short"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	userRepo.AssertNotCalled(t, "Create")
}

func TestSignupEmailTaken(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler, _, _ := newTestAuthHandler(userRepo)
	router := setupAuthRouter(handler)

	userRepo.On("Create", mock.Anything, mock.Anything).Return(nil, repositories.ErrEmailTaken).Once()

	body := bytes.NewBufferString(`{"email":"alice@example.com","password":"hunter2hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestLoginSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler, _, _ := newTestAuthHandler(userRepo)
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	userRepo.On("GetByEmail", mock.Anything, "alice@example.com").
		Return(models.User{ID: "u1", Email: "alice@example.com", Password: hash}, nil).Once()

	body := bytes.NewBufferString(`{"email":"alice@example.com","password":"hunter2hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler, _, _ := newTestAuthHandler(userRepo)
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	userRepo.On("GetByEmail", mock.Anything, "alice@example.com").
		Return(models.User{ID: "u1", Email: "alice@example.com", Password: hash}, nil).Once()

	body := bytes.NewBufferString(`{"email":"alice@example.com","password":"wrong-password"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestLoginUnknownEmail(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler, _, _ := newTestAuthHandler(userRepo)
	router := setupAuthRouter(handler)

	userRepo.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(nil, repositories.ErrUserNotFound).Once()

	body := bytes.NewBufferString(`{"email":"ghost@example.com","password":"hunter2hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestFederatedLoginUpsertsProfile(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler, _, _ := newTestAuthHandler(userRepo)
	router := setupAuthRouter(handler)

	idToken := signFederatedToken(t, "federated-secret", "ext-1", "alice@example.com", "Alice")
	userRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.ID == "ext-1" && u.Email == "alice@example.com" && u.Provider == "federated"
	})).Return(models.User{ID: "ext-1", Name: "Alice", Email: "alice@example.com"}, nil).Once()

	body, err := json.Marshal(gin.H{"id_token": idToken})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestFederatedLoginBadToken(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler, _, _ := newTestAuthHandler(userRepo)
	router := setupAuthRouter(handler)

	body := bytes.NewBufferString(`{"id_token":"garbage"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/token", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	userRepo.AssertNotCalled(t, "Upsert")
}

func TestLogoutRevokesSession(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler, issuer, sessions := newTestAuthHandler(userRepo)
	router := setupAuthRouter(handler)

	token, sessionID, expiresAt, err := issuer.Issue("u1")
	require.NoError(t, err)
	require.NoError(t, sessions.Put(context.Background(), sessionID, "u1", expiresAt))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	_, err = sessions.UserID(context.Background(), sessionID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestLogoutMissingHeader(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler, _, _ := newTestAuthHandler(userRepo)
	router := setupAuthRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
