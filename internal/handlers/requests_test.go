package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pairchat-service/internal/mocks"
	"pairchat-service/internal/models"
	"pairchat-service/internal/repositories"
	"pairchat-service/internal/ws"
)

func setupRequestRouter(handler *RequestHandler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.POST("/requests", handler.Send)
	r.GET("/requests/incoming", handler.ListIncoming)
	r.GET("/requests/outgoing", handler.ListOutgoing)
	r.POST("/requests/:request_id/accept", handler.Accept)
	r.POST("/requests/:request_id/reject", handler.Reject)
	return r
}

func stubRequestFeeds(requestRepo *mocks.RequestRepositoryMock) {
	requestRepo.On("ListIncoming", mock.Anything, mock.Anything).Return([]models.ConnectionRequest{}, nil)
	requestRepo.On("ListOutgoing", mock.Anything, mock.Anything).Return([]models.ConnectionRequest{}, nil)
}

func TestSendRequestSuccess(t *testing.T) {
	requestRepo := new(mocks.RequestRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewRequestHandler(requestRepo, userRepo, ws.NewHub(), nil)
	router := setupRequestRouter(handler, "alice")

	created := models.ConnectionRequest{ID: "r1", PairKey: "alice_bob", FromID: "alice", ToID: "bob", Status: models.StatusPending}
	userRepo.On("Get", mock.Anything, "bob").Return(models.User{ID: "bob"}, nil).Once()
	requestRepo.On("Create", mock.Anything, "alice", "bob").Return(created, nil).Once()
	stubRequestFeeds(requestRepo)

	req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewBufferString(`{"to_id":"bob"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var view models.RequestView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, "r1", view.ID)
	assert.Equal(t, models.DirectionSent, view.Direction)
	requestRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestSendRequestToSelf(t *testing.T) {
	handler := NewRequestHandler(new(mocks.RequestRepositoryMock), new(mocks.UserRepositoryMock), ws.NewHub(), nil)
	router := setupRequestRouter(handler, "alice")

	req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewBufferString(`{"to_id":"alice"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendRequestUnknownRecipient(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewRequestHandler(new(mocks.RequestRepositoryMock), userRepo, ws.NewHub(), nil)
	router := setupRequestRouter(handler, "alice")

	userRepo.On("Get", mock.Anything, "ghost").Return(nil, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewBufferString(`{"to_id":"ghost"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestSendRequestDuplicateConflict(t *testing.T) {
	requestRepo := new(mocks.RequestRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewRequestHandler(requestRepo, userRepo, ws.NewHub(), nil)
	router := setupRequestRouter(handler, "alice")

	userRepo.On("Get", mock.Anything, "bob").Return(models.User{ID: "bob"}, nil).Once()
	requestRepo.On("Create", mock.Anything, "alice", "bob").Return(nil, repositories.ErrDuplicateRequest).Once()

	req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewBufferString(`{"to_id":"bob"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	requestRepo.AssertExpectations(t)
}

func TestAcceptRequestSuccess(t *testing.T) {
	requestRepo := new(mocks.RequestRepositoryMock)
	handler := NewRequestHandler(requestRepo, new(mocks.UserRepositoryMock), ws.NewHub(), nil)
	router := setupRequestRouter(handler, "bob")

	pending := models.ConnectionRequest{ID: "r1", FromID: "alice", ToID: "bob", Status: models.StatusPending}
	accepted := pending
	accepted.Status = models.StatusAccepted
	conv := models.Conversation{ID: "alice_bob", User1ID: "alice", User2ID: "bob"}

	requestRepo.On("Get", mock.Anything, "r1").Return(pending, nil).Once()
	requestRepo.On("Accept", mock.Anything, "r1").Return(accepted, conv, nil).Once()
	stubRequestFeeds(requestRepo)

	req := httptest.NewRequest(http.MethodPost, "/requests/r1/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Request      models.RequestView  `json:"request"`
		Conversation models.Conversation `json:"conversation"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, models.StatusAccepted, resp.Request.Status)
	assert.Equal(t, models.DirectionReceived, resp.Request.Direction)
	assert.Equal(t, "alice_bob", resp.Conversation.ID)
	requestRepo.AssertExpectations(t)
}

func TestAcceptRequestNotRecipient(t *testing.T) {
	requestRepo := new(mocks.RequestRepositoryMock)
	handler := NewRequestHandler(requestRepo, new(mocks.UserRepositoryMock), ws.NewHub(), nil)
	router := setupRequestRouter(handler, "mallory")

	pending := models.ConnectionRequest{ID: "r1", FromID: "alice", ToID: "bob", Status: models.StatusPending}
	requestRepo.On("Get", mock.Anything, "r1").Return(pending, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/requests/r1/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	requestRepo.AssertExpectations(t)
}

func TestAcceptRequestAlreadyResolved(t *testing.T) {
	requestRepo := new(mocks.RequestRepositoryMock)
	handler := NewRequestHandler(requestRepo, new(mocks.UserRepositoryMock), ws.NewHub(), nil)
	router := setupRequestRouter(handler, "bob")

	pending := models.ConnectionRequest{ID: "r1", FromID: "alice", ToID: "bob", Status: models.StatusPending}
	requestRepo.On("Get", mock.Anything, "r1").Return(pending, nil).Once()
	requestRepo.On("Accept", mock.Anything, "r1").Return(nil, nil, repositories.ErrRequestResolved).Once()

	req := httptest.NewRequest(http.MethodPost, "/requests/r1/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	requestRepo.AssertExpectations(t)
}

func TestAcceptRequestNotFound(t *testing.T) {
	requestRepo := new(mocks.RequestRepositoryMock)
	handler := NewRequestHandler(requestRepo, new(mocks.UserRepositoryMock), ws.NewHub(), nil)
	router := setupRequestRouter(handler, "bob")

	requestRepo.On("Get", mock.Anything, "missing").Return(nil, repositories.ErrRequestNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/requests/missing/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	requestRepo.AssertExpectations(t)
}

func TestRejectAfterAcceptConflicts(t *testing.T) {
	requestRepo := new(mocks.RequestRepositoryMock)
	handler := NewRequestHandler(requestRepo, new(mocks.UserRepositoryMock), ws.NewHub(), nil)
	router := setupRequestRouter(handler, "bob")

	accepted := models.ConnectionRequest{ID: "r1", FromID: "alice", ToID: "bob", Status: models.StatusAccepted}
	requestRepo.On("Get", mock.Anything, "r1").Return(accepted, nil).Once()
	requestRepo.On("Reject", mock.Anything, "r1").Return(nil, repositories.ErrRequestResolved).Once()

	req := httptest.NewRequest(http.MethodPost, "/requests/r1/reject", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	requestRepo.AssertExpectations(t)
}

func TestRejectRequestSuccess(t *testing.T) {
	requestRepo := new(mocks.RequestRepositoryMock)
	handler := NewRequestHandler(requestRepo, new(mocks.UserRepositoryMock), ws.NewHub(), nil)
	router := setupRequestRouter(handler, "bob")

	pending := models.ConnectionRequest{ID: "r1", FromID: "alice", ToID: "bob", Status: models.StatusPending}
	rejected := pending
	rejected.Status = models.StatusRejected

	requestRepo.On("Get", mock.Anything, "r1").Return(pending, nil).Once()
	requestRepo.On("Reject", mock.Anything, "r1").Return(rejected, nil).Once()
	stubRequestFeeds(requestRepo)

	req := httptest.NewRequest(http.MethodPost, "/requests/r1/reject", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var view models.RequestView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, models.StatusRejected, view.Status)
	requestRepo.AssertExpectations(t)
}

func TestListIncomingProjectsDirection(t *testing.T) {
	requestRepo := new(mocks.RequestRepositoryMock)
	handler := NewRequestHandler(requestRepo, new(mocks.UserRepositoryMock), ws.NewHub(), nil)
	router := setupRequestRouter(handler, "bob")

	reqs := []models.ConnectionRequest{{ID: "r1", FromID: "alice", ToID: "bob", Status: models.StatusPending}}
	requestRepo.On("ListIncoming", mock.Anything, "bob").Return(reqs, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/requests/incoming", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Requests []models.RequestView `json:"requests"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Requests, 1)
	assert.Equal(t, models.DirectionReceived, resp.Requests[0].Direction)
	requestRepo.AssertExpectations(t)
}

func TestListOutgoingRepoError(t *testing.T) {
	requestRepo := new(mocks.RequestRepositoryMock)
	handler := NewRequestHandler(requestRepo, new(mocks.UserRepositoryMock), ws.NewHub(), nil)
	router := setupRequestRouter(handler, "alice")

	requestRepo.On("ListOutgoing", mock.Anything, "alice").Return(nil, assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/requests/outgoing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	requestRepo.AssertExpectations(t)
}
