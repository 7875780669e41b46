package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-connect/internal/models"
	"campus-connect/internal/repositories"
)

func newTestStore(ids ...string) *repositories.MemoryStore {
	store := repositories.NewMemoryStore()
	for _, id := range ids {
		store.PutUser(models.User{ID: id, FullName: "User " + id, Email: id + "@campus.test"})
	}
	return store
}

func newTestFollowService(store *repositories.MemoryStore) *FollowService {
	return NewFollowService(store, store, store)
}

func TestRequestFollowCreatesPendingMirrors(t *testing.T) {
	store := newTestStore("a", "b")
	svc := newTestFollowService(store)

	res, err := svc.RequestFollow(context.Background(), "a", "b")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "Follow request sent", res.Message)
	assert.Empty(t, res.ChatID)

	following, ok := res.User.FindFollowing("b")
	require.True(t, ok)
	assert.Equal(t, models.EdgePending, following.State)
	follower, ok := res.Target.FindFollower("a")
	require.True(t, ok)
	assert.Equal(t, models.EdgePending, follower.State)
	assert.Equal(t, 0, store.ChatCount())
}

func TestRequestFollowRejectsSelf(t *testing.T) {
	svc := newTestFollowService(newTestStore("a"))

	_, err := svc.RequestFollow(context.Background(), "a", "a")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRequestFollowRejectsEmptyIDs(t *testing.T) {
	svc := newTestFollowService(newTestStore("a"))

	_, err := svc.RequestFollow(context.Background(), "", "a")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRequestFollowUnknownUser(t *testing.T) {
	svc := newTestFollowService(newTestStore("a"))

	_, err := svc.RequestFollow(context.Background(), "a", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestFollowDuplicateConflicts(t *testing.T) {
	svc := newTestFollowService(newTestStore("a", "b"))
	ctx := context.Background()

	_, err := svc.RequestFollow(ctx, "a", "b")
	require.NoError(t, err)

	_, err = svc.RequestFollow(ctx, "a", "b")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestFollowBackMakesMutualWithOneChat(t *testing.T) {
	store := newTestStore("a", "b")
	svc := newTestFollowService(store)
	ctx := context.Background()

	_, err := svc.RequestFollow(ctx, "a", "b")
	require.NoError(t, err)

	res, err := svc.RequestFollow(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, "Follow back completed, you are now friends", res.Message)
	require.NotEmpty(t, res.ChatID)

	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}} {
		following, err := store.GetFollowing(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, following.Approved())
		follower, err := store.GetFollower(ctx, pair[1], pair[0])
		require.NoError(t, err)
		assert.True(t, follower.Approved())
	}

	assert.Equal(t, 1, store.ChatCount())
	chat, err := store.FindChat(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, res.ChatID, chat.ID)
	assert.ElementsMatch(t, []string{"a", "b"}, chat.Participants())
}

func TestFollowBackAfterApprovalIsPlainRequest(t *testing.T) {
	store := newTestStore("a", "b")
	svc := newTestFollowService(store)
	ctx := context.Background()

	_, err := svc.RequestFollow(ctx, "a", "b")
	require.NoError(t, err)
	_, err = svc.ApproveFollow(ctx, "b", "a")
	require.NoError(t, err)

	res, err := svc.RequestFollow(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, "Follow request sent", res.Message)

	edge, err := store.GetFollowing(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, models.EdgePending, edge.State)
	assert.Equal(t, 1, store.ChatCount())
}

func TestApproveFollowProvisionsChat(t *testing.T) {
	store := newTestStore("x", "y")
	svc := newTestFollowService(store)
	ctx := context.Background()

	_, err := svc.RequestFollow(ctx, "x", "y")
	require.NoError(t, err)

	res, err := svc.ApproveFollow(ctx, "y", "x")
	require.NoError(t, err)
	assert.Equal(t, "Follow request approved", res.Message)
	require.NotEmpty(t, res.ChatID)

	following, ok := res.Target.FindFollowing("y")
	require.True(t, ok)
	assert.True(t, following.Approved())
	follower, ok := res.User.FindFollower("x")
	require.True(t, ok)
	assert.True(t, follower.Approved())

	chat, err := store.FindChat(ctx, "x", "y")
	require.NoError(t, err)
	assert.Equal(t, res.ChatID, chat.ID)
}

func TestApproveFollowIsIdempotent(t *testing.T) {
	store := newTestStore("x", "y")
	svc := newTestFollowService(store)
	ctx := context.Background()

	_, err := svc.RequestFollow(ctx, "x", "y")
	require.NoError(t, err)
	first, err := svc.ApproveFollow(ctx, "y", "x")
	require.NoError(t, err)

	second, err := svc.ApproveFollow(ctx, "y", "x")
	require.NoError(t, err)
	assert.Equal(t, "Follow request already approved", second.Message)
	assert.Equal(t, first.ChatID, second.ChatID)
	assert.Equal(t, 1, store.ChatCount())
}

func TestApproveFollowWithoutRequest(t *testing.T) {
	store := newTestStore("x", "y")
	svc := newTestFollowService(store)

	_, err := svc.ApproveFollow(context.Background(), "y", "x")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, store.ChatCount())
}

func TestApproveFollowUnknownUser(t *testing.T) {
	svc := newTestFollowService(newTestStore("y"))

	_, err := svc.ApproveFollow(context.Background(), "y", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnfollowRemovesBothMirrors(t *testing.T) {
	store := newTestStore("a", "b")
	svc := newTestFollowService(store)
	ctx := context.Background()

	_, err := svc.RequestFollow(ctx, "a", "b")
	require.NoError(t, err)

	res, err := svc.Unfollow(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "Unfollowed successfully", res.Message)

	_, ok := res.User.FindFollowing("b")
	assert.False(t, ok)
	_, ok = res.Target.FindFollower("a")
	assert.False(t, ok)

	_, err = store.GetFollowing(ctx, "a", "b")
	assert.ErrorIs(t, err, repositories.ErrEdgeNotFound)
	_, err = store.GetFollower(ctx, "b", "a")
	assert.ErrorIs(t, err, repositories.ErrEdgeNotFound)
}

func TestUnfollowWithoutEdge(t *testing.T) {
	svc := newTestFollowService(newTestStore("a", "b"))

	_, err := svc.Unfollow(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrNotFollowing)
}

func TestUnfollowKeepsChatAndReverseEdge(t *testing.T) {
	store := newTestStore("a", "b")
	svc := newTestFollowService(store)
	ctx := context.Background()

	_, err := svc.RequestFollow(ctx, "a", "b")
	require.NoError(t, err)
	_, err = svc.RequestFollow(ctx, "b", "a")
	require.NoError(t, err)

	_, err = svc.Unfollow(ctx, "a", "b")
	require.NoError(t, err)

	reverse, err := store.GetFollowing(ctx, "b", "a")
	require.NoError(t, err)
	assert.True(t, reverse.Approved())
	assert.Equal(t, 1, store.ChatCount())
}

func TestRequestAfterUnfollowStartsOver(t *testing.T) {
	store := newTestStore("a", "b")
	svc := newTestFollowService(store)
	ctx := context.Background()

	_, err := svc.RequestFollow(ctx, "a", "b")
	require.NoError(t, err)
	_, err = svc.Unfollow(ctx, "a", "b")
	require.NoError(t, err)

	res, err := svc.RequestFollow(ctx, "a", "b")
	require.NoError(t, err)
	edge, ok := res.User.FindFollowing("b")
	require.True(t, ok)
	assert.Equal(t, models.EdgePending, edge.State)
}

func TestConcurrentFollowBackProvisionsSingleChat(t *testing.T) {
	store := newTestStore("a", "b")
	svc := newTestFollowService(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, pair := range [][2]string{{"a", "b"}, {"b", "a"}} {
		wg.Add(1)
		go func(i int, follower, target string) {
			defer wg.Done()
			_, errs[i] = svc.RequestFollow(ctx, follower, target)
		}(i, pair[0], pair[1])
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, store.ChatCount())

	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}} {
		edge, err := store.GetFollowing(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, edge.Approved())
	}
}

func TestApproveFollowKeepsUnderscorePairsApart(t *testing.T) {
	store := newTestStore("a", "b_c", "a_b", "c")
	svc := newTestFollowService(store)
	ctx := context.Background()

	_, err := svc.RequestFollow(ctx, "a", "b_c")
	require.NoError(t, err)
	first, err := svc.ApproveFollow(ctx, "b_c", "a")
	require.NoError(t, err)

	_, err = svc.RequestFollow(ctx, "a_b", "c")
	require.NoError(t, err)
	second, err := svc.ApproveFollow(ctx, "c", "a_b")
	require.NoError(t, err)

	require.NotEmpty(t, first.ChatID)
	require.NotEmpty(t, second.ChatID)
	assert.NotEqual(t, first.ChatID, second.ChatID)
	assert.Equal(t, 2, store.ChatCount())

	chat, err := store.FindChat(ctx, "c", "a_b")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a_b", "c"}, chat.Participants())
}
