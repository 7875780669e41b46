package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-connect/internal/models"
	"campus-connect/internal/repositories"
	"campus-connect/internal/services"
)

type relayFixture struct {
	store *repositories.MemoryStore
	hub   *Hub
	relay *Relay
	chat  models.Chat
}

func newRelayFixture(t *testing.T) relayFixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	store.PutUser(models.User{ID: "u1", FullName: "Ada Lovelace"})
	store.PutUser(models.User{ID: "u2", FullName: "Alan Turing"})
	store.PutUser(models.User{ID: "u3", FullName: "Grace Hopper"})
	store.PutUser(models.User{ID: "admin", FullName: "Ada Admin", Role: models.RoleAdmin})

	chat, _, err := store.CreateOrGetChat(context.Background(), "u1", "u2")
	require.NoError(t, err)

	hub := NewHub()
	return relayFixture{store: store, hub: hub, relay: NewRelay(hub, store, store, store), chat: chat}
}

func (f relayFixture) connect(userID string) *Client {
	c := newTestClient(userID)
	f.hub.Register(c)
	return c
}

func TestJoinRoomUsesSortedPair(t *testing.T) {
	f := newRelayFixture(t)
	c := f.connect("u2")

	f.relay.JoinRoom(context.Background(), c, "u2", f.chat.ID)
	assert.Equal(t, []string{"u1_u2"}, f.hub.Rooms(c))
}

func TestJoinRoomIgnoresUnknownChatAndStrangers(t *testing.T) {
	f := newRelayFixture(t)
	c := f.connect("u3")

	f.relay.JoinRoom(context.Background(), c, "u3", "missing")
	f.relay.JoinRoom(context.Background(), c, "u3", f.chat.ID)
	assert.Empty(t, f.hub.Rooms(c))
}

func TestSetActiveWithInactiveFriend(t *testing.T) {
	f := newRelayFixture(t)
	me, other := f.connect("u1"), f.connect("u3")

	friends, err := f.relay.SetActive(context.Background(), me, "u1")
	require.NoError(t, err)
	assert.NotNil(t, friends)
	assert.Empty(t, friends)
	assert.Empty(t, f.hub.Rooms(me))

	user, err := f.store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, user.Active)
	assert.Nil(t, user.LastSeen)

	events := drain(t, other)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventNewUserOnline, events[0].Event)
	assert.JSONEq(t, `"u1"`, string(events[0].Data))
}

func TestSetActiveJoinsRoomsOfActiveFriends(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	friend, me := f.connect("u2"), f.connect("u1")

	_, err := f.relay.SetActive(ctx, friend, "u2")
	require.NoError(t, err)
	drain(t, friend)
	drain(t, me)

	f.relay.JoinRoom(ctx, friend, "u2", f.chat.ID)

	friends, err := f.relay.SetActive(ctx, me, "u1")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, models.ActiveFriend{ID: "u2", FullName: "Alan Turing", ChatID: f.chat.ID}, friends[0])
	assert.Equal(t, []string{"u1_u2"}, f.hub.Rooms(me))

	assert.Equal(t, []string{models.EventNewUserOnline, models.EventUserActive}, eventNames(drain(t, friend)))
	assert.Equal(t, []string{models.EventNewUserOnline}, eventNames(drain(t, me)))
}

func TestSetActiveUnknownUser(t *testing.T) {
	f := newRelayFixture(t)

	watcher := f.connect("u1")

	_, err := f.relay.SetActive(context.Background(), f.connect(""), "ghost")
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Empty(t, drain(t, watcher))
}

func TestSetInactiveNotifiesEveryChatRoom(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	me, friend := f.connect("u1"), f.connect("u2")
	f.relay.JoinRoom(ctx, friend, "u2", f.chat.ID)

	lastSeen, err := f.relay.SetInactive(ctx, me, "u1")
	require.NoError(t, err)

	user, err := f.store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, user.Active)
	require.NotNil(t, user.LastSeen)
	assert.True(t, lastSeen.Equal(*user.LastSeen))

	events := drain(t, friend)
	require.Equal(t, []string{models.EventNewUserOffline, models.EventUserInactive}, eventNames(events))
	var presence models.PresenceEvent
	require.NoError(t, json.Unmarshal(events[1].Data, &presence))
	assert.Equal(t, "u1", presence.UserID)
	assert.Equal(t, f.chat.ID, presence.ChatID)
	require.NotNil(t, presence.LastSeen)
}

func TestSendMessageBroadcastsToRoom(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	sender, receiver := f.connect("u1"), f.connect("u2")
	f.relay.JoinRoom(ctx, receiver, "u2", f.chat.ID)

	view, err := f.relay.SendMessage(ctx, sender, models.SendMessageRequest{Type: "text", Value: "hi", UserID: "u1", ChatID: f.chat.ID})
	require.NoError(t, err)
	require.NotNil(t, view.Content)
	assert.Equal(t, "hi", *view.Content)
	assert.Equal(t, "u1", view.Sender.ID)
	assert.Equal(t, "Ada Lovelace", view.Sender.FullName)

	chat, err := f.store.GetChat(ctx, f.chat.ID)
	require.NoError(t, err)
	require.NotNil(t, chat.LastMessageID)
	assert.Equal(t, view.ID, *chat.LastMessageID)

	for _, c := range []*Client{sender, receiver} {
		events := drain(t, c)
		require.Len(t, events, 1)
		assert.Equal(t, models.EventNewMessage, events[0].Event)

		var payload struct {
			SenderID    string          `json:"senderId"`
			ReceiverID  string          `json:"receiverId"`
			ChatID      string          `json:"chatId"`
			Value       string          `json:"value"`
			MessageData json.RawMessage `json:"messageData"`
		}
		require.NoError(t, json.Unmarshal(events[0].Data, &payload))
		assert.Equal(t, "u1", payload.SenderID)
		assert.Equal(t, "u2", payload.ReceiverID)
		assert.Equal(t, f.chat.ID, payload.ChatID)
		assert.Equal(t, "hi", payload.Value)
		assert.Contains(t, string(payload.MessageData), `"content":"hi"`)
	}
}

func TestSendMessageStoresPayloadByType(t *testing.T) {
	f := newRelayFixture(t)

	view, err := f.relay.SendMessage(context.Background(), f.connect("u2"), models.SendMessageRequest{Type: "image", Value: "https://cdn/x.png", UserID: "u2", ChatID: f.chat.ID})
	require.NoError(t, err)
	assert.Nil(t, view.Content)
	require.NotNil(t, view.Image)
	assert.Equal(t, "https://cdn/x.png", *view.Image)
}

func TestSendMessageFailures(t *testing.T) {
	cases := []struct {
		name string
		req  func(chatID string) models.SendMessageRequest
		want error
	}{
		{"missing value", func(id string) models.SendMessageRequest {
			return models.SendMessageRequest{Type: "text", UserID: "u1", ChatID: id}
		}, services.ErrValidation},
		{"unsupported type", func(id string) models.SendMessageRequest {
			return models.SendMessageRequest{Type: "audio", Value: "x", UserID: "u1", ChatID: id}
		}, services.ErrValidation},
		{"unknown chat", func(string) models.SendMessageRequest {
			return models.SendMessageRequest{Type: "text", Value: "x", UserID: "u1", ChatID: "missing"}
		}, services.ErrNotFound},
		{"not a participant", func(id string) models.SendMessageRequest {
			return models.SendMessageRequest{Type: "text", Value: "x", UserID: "u3", ChatID: id}
		}, services.ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRelayFixture(t)
			_, err := f.relay.SendMessage(context.Background(), f.connect(""), tc.req(f.chat.ID))
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, 0, f.store.MessageCount())
		})
	}
}

func TestSearchUsersExcludesSelfAdminsAndFollowing(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.CreateRequest(ctx, "u1", "u3"))

	users, err := f.relay.SearchUsers(ctx, "u1", "A")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u2", users[0].ID)

	users, err = f.relay.SearchUsers(ctx, "u2", "grace")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u3", users[0].ID)
}

func TestSendMessageStaysInsideChatWithUnderscoreIDs(t *testing.T) {
	store := repositories.NewMemoryStore()
	for _, id := range []string{"a", "b_c", "a_b", "c"} {
		store.PutUser(models.User{ID: id, FullName: "User " + id})
	}
	ctx := context.Background()
	chat, _, err := store.CreateOrGetChat(ctx, "a", "b_c")
	require.NoError(t, err)
	other, created, err := store.CreateOrGetChat(ctx, "a_b", "c")
	require.NoError(t, err)
	require.True(t, created)
	assert.NotEqual(t, chat.ID, other.ID)
	assert.ElementsMatch(t, []string{"a_b", "c"}, other.Participants())

	hub := NewHub()
	relay := NewRelay(hub, store, store, store)
	sender, outsider := newTestClient("a"), newTestClient("c")
	hub.Register(sender)
	hub.Register(outsider)
	relay.JoinRoom(ctx, outsider, "c", other.ID)
	require.Len(t, hub.Rooms(outsider), 1)

	_, err = relay.SendMessage(ctx, sender, models.SendMessageRequest{Type: "text", Value: "for b_c", UserID: "a", ChatID: chat.ID})
	require.NoError(t, err)

	assert.Empty(t, drain(t, outsider))
	assert.Equal(t, []string{models.EventNewMessage}, eventNames(drain(t, sender)))
	assert.NotEqual(t, hub.Rooms(sender), hub.Rooms(outsider))
}
