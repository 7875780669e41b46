package repositories

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"campus-connect/internal/models"
)

// MemoryStore keeps every repository in process memory. It backs
// STORE_DRIVER=memory and the package tests of the engine and relay.
type MemoryStore struct {
	mu        sync.RWMutex
	now       func() time.Time
	users     map[string]models.User
	following map[string][]models.Edge
	followers map[string][]models.Edge
	chats     map[string]models.Chat
	chatPairs map[models.PairKey]string
	messages  map[string]models.Message
	chatMsgs  map[string][]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:       time.Now,
		users:     make(map[string]models.User),
		following: make(map[string][]models.Edge),
		followers: make(map[string][]models.Edge),
		chats:     make(map[string]models.Chat),
		chatPairs: make(map[models.PairKey]string),
		messages:  make(map[string]models.Message),
		chatMsgs:  make(map[string][]string),
	}
}

var (
	_ UserRepository         = (*MemoryStore)(nil)
	_ RelationshipRepository = (*MemoryStore)(nil)
	_ ChatRepository         = (*MemoryStore)(nil)
	_ MessageRepository      = (*MemoryStore)(nil)
)

// PutUser inserts or replaces a user. A zero role defaults to student.
func (s *MemoryStore) PutUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	s.users[user.ID] = user
}

// ChatCount reports how many chats exist.
func (s *MemoryStore) ChatCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chats)
}

// MessageCount reports how many messages exist.
func (s *MemoryStore) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

func (s *MemoryStore) GetUser(ctx context.Context, userID string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *MemoryStore) GetUsers(ctx context.Context, userIDs []string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := []models.User{}
	for _, id := range userIDs {
		if user, ok := s.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (s *MemoryStore) SetActive(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.Active = true
	user.LastSeen = nil
	s.users[userID] = user
	return nil
}

func (s *MemoryStore) SetInactive(ctx context.Context, userID string, lastSeen time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.Active = false
	user.LastSeen = &lastSeen
	s.users[userID] = user
	return nil
}

func (s *MemoryStore) SearchByName(ctx context.Context, userID string, term string) ([]models.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(term)
	out := []models.UserSummary{}
	for _, user := range s.users {
		if user.ID == userID || user.Role == models.RoleAdmin {
			continue
		}
		if !strings.Contains(strings.ToLower(user.FullName), needle) {
			continue
		}
		if _, ok := edgeIndex(s.following[userID], user.ID); ok {
			continue
		}
		out = append(out, user.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (s *MemoryStore) RandomStudents(ctx context.Context, userID string, limit int) ([]models.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.UserSummary{}
	for _, user := range s.users {
		if user.ID == userID || user.Role == models.RoleAdmin {
			continue
		}
		if _, ok := edgeIndex(s.following[userID], user.ID); ok {
			continue
		}
		if _, ok := edgeIndex(s.followers[userID], user.ID); ok {
			continue
		}
		out = append(out, user.Summary())
	}
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Following(ctx context.Context, userID string) ([]models.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Edge{}, s.following[userID]...), nil
}

func (s *MemoryStore) Followers(ctx context.Context, userID string) ([]models.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Edge{}, s.followers[userID]...), nil
}

func (s *MemoryStore) GetFollowing(ctx context.Context, userID, targetID string) (models.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := edgeIndex(s.following[userID], targetID); ok {
		return s.following[userID][i], nil
	}
	return models.Edge{}, ErrEdgeNotFound
}

func (s *MemoryStore) GetFollower(ctx context.Context, userID, sourceID string) (models.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := edgeIndex(s.followers[userID], sourceID); ok {
		return s.followers[userID][i], nil
	}
	return models.Edge{}, ErrEdgeNotFound
}

func (s *MemoryStore) CreateRequest(ctx context.Context, followerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := edgeIndex(s.following[followerID], targetID); ok {
		return ErrEdgeExists
	}
	s.following[followerID] = append(s.following[followerID], s.edge(followerID, targetID, models.EdgePending))
	s.upsert(s.followers, targetID, followerID, models.EdgePending)
	return nil
}

func (s *MemoryStore) CompleteFollowBack(ctx context.Context, followerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := edgeIndex(s.following[followerID], targetID); ok {
		return ErrEdgeExists
	}
	i, ok := edgeIndex(s.following[targetID], followerID)
	if !ok {
		return ErrEdgeNotFound
	}
	s.following[followerID] = append(s.following[followerID], s.edge(followerID, targetID, models.EdgeApproved))
	s.upsert(s.followers, targetID, followerID, models.EdgeApproved)
	s.following[targetID][i].State = models.EdgeApproved
	s.upsert(s.followers, followerID, targetID, models.EdgeApproved)
	return nil
}

func (s *MemoryStore) Approve(ctx context.Context, followerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := edgeIndex(s.following[followerID], targetID)
	if !ok {
		return ErrEdgeNotFound
	}
	s.following[followerID][i].State = models.EdgeApproved
	s.upsert(s.followers, targetID, followerID, models.EdgeApproved)
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, followerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := edgeIndex(s.following[followerID], targetID)
	if !ok {
		return ErrEdgeNotFound
	}
	s.following[followerID] = append(s.following[followerID][:i:i], s.following[followerID][i+1:]...)
	if j, ok := edgeIndex(s.followers[targetID], followerID); ok {
		s.followers[targetID] = append(s.followers[targetID][:j:j], s.followers[targetID][j+1:]...)
	}
	return nil
}

func (s *MemoryStore) CreateOrGetChat(ctx context.Context, userID, friendID string) (models.Chat, bool, error) {
	if userID == friendID {
		return models.Chat{}, false, errors.New("cannot create chat with self")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.NewPairKey(userID, friendID)
	if id, ok := s.chatPairs[key]; ok {
		return s.chats[id], false, nil
	}
	user1, user2 := models.SortedPair(userID, friendID)
	now := s.now()
	chat := models.Chat{ID: uuid.NewString(), User1ID: user1, User2ID: user2, CreatedAt: now, UpdatedAt: now}
	s.chats[chat.ID] = chat
	s.chatPairs[key] = chat.ID
	return chat, true, nil
}

func (s *MemoryStore) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, nil
}

func (s *MemoryStore) FindChat(ctx context.Context, userID, friendID string) (models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.chatPairs[models.NewPairKey(userID, friendID)]
	if !ok {
		return models.Chat{}, ErrChatNotFound
	}
	return s.chats[id], nil
}

func (s *MemoryStore) ListChatsForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chats := []models.Chat{}
	for _, chat := range s.chats {
		if chat.HasParticipant(userID) {
			chats = append(chats, chat)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].CreatedAt.Before(chats[j].CreatedAt) })
	return chats, nil
}

func (s *MemoryStore) ListSummaries(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	chats, err := s.ListChatsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]models.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		friend := s.users[chat.Other(userID)]
		summary := models.ChatSummary{
			ChatID:       chat.ID,
			FriendID:     friend.ID,
			FullName:     friend.FullName,
			ProfileImage: friend.ProfileImage,
			Time:         chat.UpdatedAt,
		}
		if chat.LastMessageID != nil {
			if msg, ok := s.messages[*chat.LastMessageID]; ok {
				if msg.Content != nil {
					summary.LastMessage = *msg.Content
				}
				summary.Time = msg.CreatedAt
			}
		}
		summaries = append(summaries, summary)
	}
	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].Time.After(summaries[j].Time) })
	return summaries, nil
}

func (s *MemoryStore) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chat, ok := s.chats[chatID]
	return ok && chat.HasParticipant(userID), nil
}

func (s *MemoryStore) CreateChatMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[msg.ChatID]
	if !ok {
		return models.Message{}, ErrChatNotFound
	}
	msg.ID = uuid.NewString()
	msg.CreatedAt = s.now()
	if msg.SeenBy == nil {
		msg.SeenBy = pq.StringArray{}
	}
	s.messages[msg.ID] = msg
	s.chatMsgs[msg.ChatID] = append(s.chatMsgs[msg.ChatID], msg.ID)
	chat.LastMessageID = &msg.ID
	chat.UpdatedAt = msg.CreatedAt
	s.chats[chat.ID] = chat
	return msg, nil
}

func (s *MemoryStore) GetMessageView(ctx context.Context, messageID string) (models.MessageView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return models.MessageView{}, ErrMessageNotFound
	}
	return s.view(msg), nil
}

func (s *MemoryStore) ListMessageViews(ctx context.Context, chatID string) ([]models.MessageView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	views := make([]models.MessageView, 0, len(s.chatMsgs[chatID]))
	for _, id := range s.chatMsgs[chatID] {
		views = append(views, s.view(s.messages[id]))
	}
	return views, nil
}

func (s *MemoryStore) MarkSeen(ctx context.Context, messageID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return ErrMessageNotFound
	}
	for _, id := range msg.SeenBy {
		if id == userID {
			return nil
		}
	}
	msg.SeenBy = append(append(pq.StringArray{}, msg.SeenBy...), userID)
	s.messages[messageID] = msg
	return nil
}

func (s *MemoryStore) view(msg models.Message) models.MessageView {
	sender := s.users[msg.SenderID]
	msg.SeenBy = append(pq.StringArray{}, msg.SeenBy...)
	return models.MessageView{
		Message: msg,
		Sender:  models.SenderRef{ID: msg.SenderID, FullName: sender.FullName, ProfileImage: sender.ProfileImage},
	}
}

func (s *MemoryStore) edge(ownerID, peerID string, state models.EdgeState) models.Edge {
	return models.Edge{OwnerID: ownerID, PeerID: peerID, State: state, CreatedAt: s.now()}
}

func (s *MemoryStore) upsert(lists map[string][]models.Edge, ownerID, peerID string, state models.EdgeState) {
	if i, ok := edgeIndex(lists[ownerID], peerID); ok {
		lists[ownerID][i].State = state
		return
	}
	lists[ownerID] = append(lists[ownerID], s.edge(ownerID, peerID, state))
}

func edgeIndex(edges []models.Edge, peerID string) (int, bool) {
	for i, e := range edges {
		if e.PeerID == peerID {
			return i, true
		}
	}
	return -1, false
}
