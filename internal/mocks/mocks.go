package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"pairchat-service/internal/models"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	var stored models.User
	if val := args.Get(0); val != nil {
		stored = val.(models.User)
	}
	return stored, args.Error(1)
}

func (m *UserRepositoryMock) Upsert(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	var stored models.User
	if val := args.Get(0); val != nil {
		stored = val.(models.User)
	}
	return stored, args.Error(1)
}

func (m *UserRepositoryMock) Get(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ListExcept(ctx context.Context, userID string) ([]models.User, error) {
	args := m.Called(ctx, userID)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) UpdateAvatar(ctx context.Context, userID string, avatarURL string) error {
	args := m.Called(ctx, userID, avatarURL)
	return args.Error(0)
}

type RequestRepositoryMock struct {
	mock.Mock
}

func (m *RequestRepositoryMock) Create(ctx context.Context, fromID, toID string) (models.ConnectionRequest, error) {
	args := m.Called(ctx, fromID, toID)
	var req models.ConnectionRequest
	if val := args.Get(0); val != nil {
		req = val.(models.ConnectionRequest)
	}
	return req, args.Error(1)
}

func (m *RequestRepositoryMock) Get(ctx context.Context, requestID string) (models.ConnectionRequest, error) {
	args := m.Called(ctx, requestID)
	var req models.ConnectionRequest
	if val := args.Get(0); val != nil {
		req = val.(models.ConnectionRequest)
	}
	return req, args.Error(1)
}

func (m *RequestRepositoryMock) Accept(ctx context.Context, requestID string) (models.ConnectionRequest, models.Conversation, error) {
	args := m.Called(ctx, requestID)
	var req models.ConnectionRequest
	if val := args.Get(0); val != nil {
		req = val.(models.ConnectionRequest)
	}
	var conv models.Conversation
	if val := args.Get(1); val != nil {
		conv = val.(models.Conversation)
	}
	return req, conv, args.Error(2)
}

func (m *RequestRepositoryMock) Reject(ctx context.Context, requestID string) (models.ConnectionRequest, error) {
	args := m.Called(ctx, requestID)
	var req models.ConnectionRequest
	if val := args.Get(0); val != nil {
		req = val.(models.ConnectionRequest)
	}
	return req, args.Error(1)
}

func (m *RequestRepositoryMock) ListActiveFor(ctx context.Context, userID string) ([]models.ConnectionRequest, error) {
	args := m.Called(ctx, userID)
	var reqs []models.ConnectionRequest
	if val := args.Get(0); val != nil {
		reqs = val.([]models.ConnectionRequest)
	}
	return reqs, args.Error(1)
}

func (m *RequestRepositoryMock) ListIncoming(ctx context.Context, userID string) ([]models.ConnectionRequest, error) {
	args := m.Called(ctx, userID)
	var reqs []models.ConnectionRequest
	if val := args.Get(0); val != nil {
		reqs = val.([]models.ConnectionRequest)
	}
	return reqs, args.Error(1)
}

func (m *RequestRepositoryMock) ListOutgoing(ctx context.Context, userID string) ([]models.ConnectionRequest, error) {
	args := m.Called(ctx, userID)
	var reqs []models.ConnectionRequest
	if val := args.Get(0); val != nil {
		reqs = val.([]models.ConnectionRequest)
	}
	return reqs, args.Error(1)
}

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) Get(ctx context.Context, conversationID string) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	var convs []models.Conversation
	if val := args.Get(0); val != nil {
		convs = val.([]models.Conversation)
	}
	return convs, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Append(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var stored models.Message
	if val := args.Get(0); val != nil {
		stored = val.(models.Message)
	}
	return stored, args.Error(1)
}

func (m *MessageRepositoryMock) ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	args := m.Called(ctx, conversationID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type UploaderMock struct {
	mock.Mock
}

func (m *UploaderMock) Upload(ctx context.Context, fileName string, payload io.Reader, folder string) (string, error) {
	args := m.Called(ctx, fileName, payload, folder)
	return args.String(0), args.Error(1)
}
