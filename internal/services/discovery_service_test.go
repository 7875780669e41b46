package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-connect/internal/models"
)

func summaryIDs(users []models.UserSummary) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func TestDiscoverBuckets(t *testing.T) {
	store := newTestStore("me", "req", "pend", "fan", "mutual", "stranger")
	store.PutUser(models.User{ID: "root", FullName: "Root", Role: models.RoleAdmin})
	follows := newTestFollowService(store)
	ctx := context.Background()

	_, err := follows.RequestFollow(ctx, "me", "req")
	require.NoError(t, err)

	_, err = follows.RequestFollow(ctx, "pend", "me")
	require.NoError(t, err)

	_, err = follows.RequestFollow(ctx, "me", "fan")
	require.NoError(t, err)
	_, err = follows.ApproveFollow(ctx, "fan", "me")
	require.NoError(t, err)

	_, err = follows.RequestFollow(ctx, "mutual", "me")
	require.NoError(t, err)
	_, err = follows.RequestFollow(ctx, "me", "mutual")
	require.NoError(t, err)

	svc := NewDiscoveryService(store, store, 10)
	got, err := svc.Discover(ctx, "me", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"req"}, summaryIDs(got.Requested))
	assert.Equal(t, []string{"pend"}, summaryIDs(got.Pending))
	assert.Equal(t, []string{"fan"}, summaryIDs(got.NotFollowingBack))
	assert.Equal(t, []string{"stranger"}, summaryIDs(got.Suggestions))
}

func TestDiscoverEmptyGraph(t *testing.T) {
	store := newTestStore("me")
	svc := NewDiscoveryService(store, store, 10)

	got, err := svc.Discover(context.Background(), "me", 5)
	require.NoError(t, err)
	assert.Empty(t, got.Requested)
	assert.Empty(t, got.Pending)
	assert.Empty(t, got.NotFollowingBack)
	assert.Empty(t, got.Suggestions)
}

func TestDiscoverUnknownUser(t *testing.T) {
	store := newTestStore()
	svc := NewDiscoveryService(store, store, 10)

	_, err := svc.Discover(context.Background(), "ghost", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDiscoverSampleSize(t *testing.T) {
	store := newTestStore("me")
	for i := 0; i < 60; i++ {
		store.PutUser(models.User{ID: fmt.Sprintf("s%02d", i), FullName: "Student"})
	}
	svc := NewDiscoveryService(store, store, 4)
	ctx := context.Background()

	got, err := svc.Discover(ctx, "me", 0)
	require.NoError(t, err)
	assert.Len(t, got.Suggestions, 4)

	got, err = svc.Discover(ctx, "me", 7)
	require.NoError(t, err)
	assert.Len(t, got.Suggestions, 7)

	got, err = svc.Discover(ctx, "me", 500)
	require.NoError(t, err)
	assert.Len(t, got.Suggestions, maxSuggestions)
	assert.NotContains(t, summaryIDs(got.Suggestions), "me")
}

func TestDiscoverDoesNotMutate(t *testing.T) {
	store := newTestStore("me", "other")
	follows := newTestFollowService(store)
	ctx := context.Background()

	_, err := follows.RequestFollow(ctx, "other", "me")
	require.NoError(t, err)

	svc := NewDiscoveryService(store, store, 10)
	_, err = svc.Discover(ctx, "me", 0)
	require.NoError(t, err)

	edge, err := store.GetFollower(ctx, "me", "other")
	require.NoError(t, err)
	assert.Equal(t, models.EdgePending, edge.State)
	assert.Equal(t, 0, store.ChatCount())
}
