package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"campus-connect/internal/models"
	"campus-connect/internal/observability"
	"campus-connect/internal/repositories"
)

var tracer = otel.Tracer("campus-connect/services")

// FollowResult is returned by every follow transition.
type FollowResult struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	User    models.UserEdges `json:"user"`
	Target  models.UserEdges `json:"target"`
	ChatID  string           `json:"chatId,omitempty"`
}

// FollowService drives follow edges through pending and approved and
// provisions the chat once a follow is confirmed.
type FollowService struct {
	users     repositories.UserRepository
	relations repositories.RelationshipRepository
	chats     repositories.ChatRepository
	locks     *pairLocks
}

// NewFollowService builds a FollowService.
func NewFollowService(users repositories.UserRepository, relations repositories.RelationshipRepository, chats repositories.ChatRepository) *FollowService {
	return &FollowService{
		users:     users,
		relations: relations,
		chats:     chats,
		locks:     newPairLocks(),
	}
}

// RequestFollow records followerID -> targetID as pending. When targetID had
// already asked to follow followerID both directions become approved at once.
func (s *FollowService) RequestFollow(ctx context.Context, followerID, targetID string) (FollowResult, error) {
	ctx, span := startSpan(ctx, "follow.request", followerID, targetID)
	defer span.End()

	if err := validatePair(followerID, targetID); err != nil {
		return FollowResult{}, err
	}
	unlock := s.locks.lock(followerID, targetID)
	defer unlock()

	if err := s.ensureUsers(ctx, followerID, targetID); err != nil {
		return FollowResult{}, err
	}

	if _, err := s.relations.GetFollowing(ctx, followerID, targetID); err == nil {
		return FollowResult{}, fmt.Errorf("already following or requested: %w", ErrConflict)
	} else if !errors.Is(err, repositories.ErrEdgeNotFound) {
		return FollowResult{}, fmt.Errorf("load edge: %w", err)
	}

	reverse, err := s.relations.GetFollowing(ctx, targetID, followerID)
	if err != nil && !errors.Is(err, repositories.ErrEdgeNotFound) {
		return FollowResult{}, fmt.Errorf("load reverse edge: %w", err)
	}
	followBack := err == nil && reverse.State == models.EdgePending

	result := FollowResult{Success: true, Message: "Follow request sent"}
	if followBack {
		err = s.relations.CompleteFollowBack(ctx, followerID, targetID)
	} else {
		err = s.relations.CreateRequest(ctx, followerID, targetID)
	}
	if errors.Is(err, repositories.ErrEdgeExists) {
		return FollowResult{}, fmt.Errorf("already following or requested: %w", ErrConflict)
	}
	if err != nil {
		return FollowResult{}, fmt.Errorf("store follow request: %w", err)
	}

	if followBack {
		observability.IncFollowTransition("follow_back")
		observability.Emit(ctx, observability.RoutingFollowEvents, "follow_approved", followPayload(followerID, targetID))
		observability.Emit(ctx, observability.RoutingFollowEvents, "follow_approved", followPayload(targetID, followerID))
		log.Printf("follow back completed follower=%s target=%s", followerID, targetID)

		chat, err := s.provisionChat(ctx, followerID, targetID)
		if err != nil {
			return FollowResult{}, err
		}
		result.Message = "Follow back completed, you are now friends"
		result.ChatID = chat.ID
	} else {
		observability.IncFollowTransition("request")
		observability.Emit(ctx, observability.RoutingFollowEvents, "follow_requested", followPayload(followerID, targetID))
		log.Printf("follow requested follower=%s target=%s", followerID, targetID)
	}

	return s.withSnapshots(ctx, result, followerID, targetID)
}

// Unfollow removes followerID -> targetID from both mirrors whatever its
// state. Rejecting a request is the same operation seen from the target.
func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID string) (FollowResult, error) {
	ctx, span := startSpan(ctx, "follow.unfollow", followerID, targetID)
	defer span.End()

	if err := validatePair(followerID, targetID); err != nil {
		return FollowResult{}, err
	}
	unlock := s.locks.lock(followerID, targetID)
	defer unlock()

	if err := s.ensureUsers(ctx, followerID, targetID); err != nil {
		return FollowResult{}, err
	}

	err := s.relations.Remove(ctx, followerID, targetID)
	if errors.Is(err, repositories.ErrEdgeNotFound) {
		return FollowResult{}, fmt.Errorf("%s does not follow %s: %w", followerID, targetID, ErrNotFollowing)
	}
	if err != nil {
		return FollowResult{}, fmt.Errorf("remove follow: %w", err)
	}

	observability.IncFollowTransition("unfollow")
	observability.Emit(ctx, observability.RoutingFollowEvents, "unfollowed", followPayload(followerID, targetID))
	log.Printf("unfollowed follower=%s target=%s", followerID, targetID)

	return s.withSnapshots(ctx, FollowResult{Success: true, Message: "Unfollowed successfully"}, followerID, targetID)
}

// ApproveFollow approves followerID -> userID in both mirrors. Approving twice
// is a no-op. The chat is provisioned once a fresh read shows both mirrors of
// the edge approved.
func (s *FollowService) ApproveFollow(ctx context.Context, userID, followerID string) (FollowResult, error) {
	ctx, span := startSpan(ctx, "follow.approve", followerID, userID)
	defer span.End()

	if err := validatePair(userID, followerID); err != nil {
		return FollowResult{}, err
	}
	unlock := s.locks.lock(userID, followerID)
	defer unlock()

	if err := s.ensureUsers(ctx, userID, followerID); err != nil {
		return FollowResult{}, err
	}

	before, err := s.relations.GetFollowing(ctx, followerID, userID)
	if errors.Is(err, repositories.ErrEdgeNotFound) {
		return FollowResult{}, fmt.Errorf("no follow request from %s: %w", followerID, ErrNotFound)
	}
	if err != nil {
		return FollowResult{}, fmt.Errorf("load edge: %w", err)
	}

	if err := s.relations.Approve(ctx, followerID, userID); err != nil {
		if errors.Is(err, repositories.ErrEdgeNotFound) {
			return FollowResult{}, fmt.Errorf("no follow request from %s: %w", followerID, ErrNotFound)
		}
		return FollowResult{}, fmt.Errorf("approve follow: %w", err)
	}

	result := FollowResult{Success: true, Message: "Follow request approved"}
	if before.State == models.EdgePending {
		observability.IncFollowTransition("approve")
		observability.Emit(ctx, observability.RoutingFollowEvents, "follow_approved", followPayload(followerID, userID))
		log.Printf("follow approved follower=%s user=%s", followerID, userID)
	} else {
		result.Message = "Follow request already approved"
	}

	confirmed, err := s.confirmed(ctx, followerID, userID)
	if err != nil {
		return FollowResult{}, err
	}
	if confirmed {
		chat, err := s.provisionChat(ctx, userID, followerID)
		if err != nil {
			return FollowResult{}, err
		}
		result.ChatID = chat.ID
	}

	return s.withSnapshots(ctx, result, userID, followerID)
}

// confirmed re-reads followerID -> targetID from the store and reports whether
// both the following entry and its followers mirror are approved.
func (s *FollowService) confirmed(ctx context.Context, followerID, targetID string) (bool, error) {
	following, err := s.relations.GetFollowing(ctx, followerID, targetID)
	if errors.Is(err, repositories.ErrEdgeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reload edge: %w", err)
	}
	follower, err := s.relations.GetFollower(ctx, targetID, followerID)
	if errors.Is(err, repositories.ErrEdgeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reload mirror edge: %w", err)
	}
	return following.Approved() && follower.Approved(), nil
}

// provisionChat returns the pair's chat, creating it when absent. The caller
// holds the pair lock; the store's unique pair constraint covers other writers.
func (s *FollowService) provisionChat(ctx context.Context, a, b string) (models.Chat, error) {
	chat, created, err := s.chats.CreateOrGetChat(ctx, a, b)
	if err != nil {
		return models.Chat{}, fmt.Errorf("provision chat: %w", err)
	}
	if created {
		observability.IncChatProvisioned()
		observability.Emit(ctx, observability.RoutingChatEvents, "chat_provisioned", map[string]interface{}{
			"chat_id":      chat.ID,
			"participants": chat.Participants(),
		})
		log.Printf("chat provisioned chat=%s participants=%s,%s", chat.ID, chat.User1ID, chat.User2ID)
	}
	return chat, nil
}

func (s *FollowService) ensureUsers(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if _, err := s.users.GetUser(ctx, id); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return fmt.Errorf("user %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("load user %s: %w", id, err)
		}
	}
	return nil
}

func (s *FollowService) withSnapshots(ctx context.Context, result FollowResult, userID, targetID string) (FollowResult, error) {
	user, err := s.snapshot(ctx, userID)
	if err != nil {
		return FollowResult{}, err
	}
	target, err := s.snapshot(ctx, targetID)
	if err != nil {
		return FollowResult{}, err
	}
	result.User = user
	result.Target = target
	return result, nil
}

func (s *FollowService) snapshot(ctx context.Context, userID string) (models.UserEdges, error) {
	following, err := s.relations.Following(ctx, userID)
	if err != nil {
		return models.UserEdges{}, fmt.Errorf("load following: %w", err)
	}
	followers, err := s.relations.Followers(ctx, userID)
	if err != nil {
		return models.UserEdges{}, fmt.Errorf("load followers: %w", err)
	}
	return models.UserEdges{ID: userID, Following: following, Followers: followers}, nil
}

func validatePair(a, b string) error {
	if a == "" || b == "" {
		return fmt.Errorf("both user ids are required: %w", ErrInvalidRequest)
	}
	if a == b {
		return fmt.Errorf("cannot follow yourself: %w", ErrInvalidRequest)
	}
	return nil
}

func followPayload(followerID, targetID string) map[string]interface{} {
	return map[string]interface{}{
		"follower_id": followerID,
		"target_id":   targetID,
	}
}

func startSpan(ctx context.Context, name, followerID, targetID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("follower.id", followerID),
		attribute.String("target.id", targetID),
	))
}
