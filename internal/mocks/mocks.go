package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"campus-connect/internal/models"
	"campus-connect/internal/repositories"
	"campus-connect/internal/services"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUsers(ctx context.Context, userIDs []string) ([]models.User, error) {
	args := m.Called(ctx, userIDs)
	var list []models.User
	if val := args.Get(0); val != nil {
		list = val.([]models.User)
	}
	return list, args.Error(1)
}

func (m *UserRepositoryMock) SetActive(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *UserRepositoryMock) SetInactive(ctx context.Context, userID string, lastSeen time.Time) error {
	args := m.Called(ctx, userID, lastSeen)
	return args.Error(0)
}

func (m *UserRepositoryMock) SearchByName(ctx context.Context, userID string, term string) ([]models.UserSummary, error) {
	args := m.Called(ctx, userID, term)
	var list []models.UserSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.UserSummary)
	}
	return list, args.Error(1)
}

func (m *UserRepositoryMock) RandomStudents(ctx context.Context, userID string, limit int) ([]models.UserSummary, error) {
	args := m.Called(ctx, userID, limit)
	var list []models.UserSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.UserSummary)
	}
	return list, args.Error(1)
}

type RelationshipRepositoryMock struct {
	mock.Mock
}

func (m *RelationshipRepositoryMock) Following(ctx context.Context, userID string) ([]models.Edge, error) {
	args := m.Called(ctx, userID)
	var list []models.Edge
	if val := args.Get(0); val != nil {
		list = val.([]models.Edge)
	}
	return list, args.Error(1)
}

func (m *RelationshipRepositoryMock) Followers(ctx context.Context, userID string) ([]models.Edge, error) {
	args := m.Called(ctx, userID)
	var list []models.Edge
	if val := args.Get(0); val != nil {
		list = val.([]models.Edge)
	}
	return list, args.Error(1)
}

func (m *RelationshipRepositoryMock) GetFollowing(ctx context.Context, userID, targetID string) (models.Edge, error) {
	args := m.Called(ctx, userID, targetID)
	var edge models.Edge
	if val := args.Get(0); val != nil {
		edge = val.(models.Edge)
	}
	return edge, args.Error(1)
}

func (m *RelationshipRepositoryMock) GetFollower(ctx context.Context, userID, sourceID string) (models.Edge, error) {
	args := m.Called(ctx, userID, sourceID)
	var edge models.Edge
	if val := args.Get(0); val != nil {
		edge = val.(models.Edge)
	}
	return edge, args.Error(1)
}

func (m *RelationshipRepositoryMock) CreateRequest(ctx context.Context, followerID, targetID string) error {
	args := m.Called(ctx, followerID, targetID)
	return args.Error(0)
}

func (m *RelationshipRepositoryMock) CompleteFollowBack(ctx context.Context, followerID, targetID string) error {
	args := m.Called(ctx, followerID, targetID)
	return args.Error(0)
}

func (m *RelationshipRepositoryMock) Approve(ctx context.Context, followerID, targetID string) error {
	args := m.Called(ctx, followerID, targetID)
	return args.Error(0)
}

func (m *RelationshipRepositoryMock) Remove(ctx context.Context, followerID, targetID string) error {
	args := m.Called(ctx, followerID, targetID)
	return args.Error(0)
}

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateOrGetChat(ctx context.Context, userID, friendID string) (models.Chat, bool, error) {
	args := m.Called(ctx, userID, friendID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Bool(1), args.Error(2)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) FindChat(ctx context.Context, userID, friendID string) (models.Chat, error) {
	args := m.Called(ctx, userID, friendID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) ListChatsForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var list []models.Chat
	if val := args.Get(0); val != nil {
		list = val.([]models.Chat)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) ListSummaries(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ChatSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatSummary)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateChatMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var saved models.Message
	if val := args.Get(0); val != nil {
		saved = val.(models.Message)
	}
	return saved, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessageView(ctx context.Context, messageID string) (models.MessageView, error) {
	args := m.Called(ctx, messageID)
	var view models.MessageView
	if val := args.Get(0); val != nil {
		view = val.(models.MessageView)
	}
	return view, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessageViews(ctx context.Context, chatID string) ([]models.MessageView, error) {
	args := m.Called(ctx, chatID)
	var list []models.MessageView
	if val := args.Get(0); val != nil {
		list = val.([]models.MessageView)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) MarkSeen(ctx context.Context, messageID, userID string) error {
	args := m.Called(ctx, messageID, userID)
	return args.Error(0)
}

type FollowServiceMock struct {
	mock.Mock
}

func (m *FollowServiceMock) RequestFollow(ctx context.Context, followerID, targetID string) (services.FollowResult, error) {
	args := m.Called(ctx, followerID, targetID)
	var result services.FollowResult
	if val := args.Get(0); val != nil {
		result = val.(services.FollowResult)
	}
	return result, args.Error(1)
}

func (m *FollowServiceMock) Unfollow(ctx context.Context, followerID, targetID string) (services.FollowResult, error) {
	args := m.Called(ctx, followerID, targetID)
	var result services.FollowResult
	if val := args.Get(0); val != nil {
		result = val.(services.FollowResult)
	}
	return result, args.Error(1)
}

func (m *FollowServiceMock) ApproveFollow(ctx context.Context, userID, followerID string) (services.FollowResult, error) {
	args := m.Called(ctx, userID, followerID)
	var result services.FollowResult
	if val := args.Get(0); val != nil {
		result = val.(services.FollowResult)
	}
	return result, args.Error(1)
}

type DiscoveryServiceMock struct {
	mock.Mock
}

func (m *DiscoveryServiceMock) Discover(ctx context.Context, userID string, limit int) (models.Discovery, error) {
	args := m.Called(ctx, userID, limit)
	var result models.Discovery
	if val := args.Get(0); val != nil {
		result = val.(models.Discovery)
	}
	return result, args.Error(1)
}

var (
	_ repositories.UserRepository         = (*UserRepositoryMock)(nil)
	_ repositories.RelationshipRepository = (*RelationshipRepositoryMock)(nil)
	_ repositories.ChatRepository         = (*ChatRepositoryMock)(nil)
	_ repositories.MessageRepository      = (*MessageRepositoryMock)(nil)
)
