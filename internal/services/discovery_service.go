package services

import (
	"context"
	"errors"
	"fmt"

	"campus-connect/internal/models"
	"campus-connect/internal/repositories"
)

const maxSuggestions = 50

// DiscoveryService derives friend-page buckets from a user's relationship lists.
type DiscoveryService struct {
	users       repositories.UserRepository
	relations   repositories.RelationshipRepository
	defaultSize int
}

// NewDiscoveryService builds a DiscoveryService sampling defaultSize
// suggestions when the caller asks for none.
func NewDiscoveryService(users repositories.UserRepository, relations repositories.RelationshipRepository, defaultSize int) *DiscoveryService {
	if defaultSize <= 0 {
		defaultSize = 10
	}
	return &DiscoveryService{users: users, relations: relations, defaultSize: defaultSize}
}

// Discover never mutates; it fails only when userID does not exist.
func (s *DiscoveryService) Discover(ctx context.Context, userID string, limit int) (models.Discovery, error) {
	ctx, span := tracer.Start(ctx, "discovery.discover")
	defer span.End()

	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.Discovery{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return models.Discovery{}, fmt.Errorf("load user: %w", err)
	}

	following, err := s.relations.Following(ctx, userID)
	if err != nil {
		return models.Discovery{}, fmt.Errorf("load following: %w", err)
	}
	followers, err := s.relations.Followers(ctx, userID)
	if err != nil {
		return models.Discovery{}, fmt.Errorf("load followers: %w", err)
	}

	followedBack := make(map[string]bool, len(followers))
	var pending []string
	for _, e := range followers {
		if e.Approved() {
			followedBack[e.PeerID] = true
		} else {
			pending = append(pending, e.PeerID)
		}
	}

	var requested, notFollowingBack []string
	for _, e := range following {
		switch {
		case !e.Approved():
			requested = append(requested, e.PeerID)
		case !followedBack[e.PeerID]:
			notFollowingBack = append(notFollowingBack, e.PeerID)
		}
	}

	ids := make([]string, 0, len(pending)+len(requested)+len(notFollowingBack))
	ids = append(ids, pending...)
	ids = append(ids, requested...)
	ids = append(ids, notFollowingBack...)
	users, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		return models.Discovery{}, fmt.Errorf("load users: %w", err)
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	suggestions, err := s.users.RandomStudents(ctx, userID, s.sampleSize(limit))
	if err != nil {
		return models.Discovery{}, fmt.Errorf("sample users: %w", err)
	}

	return models.Discovery{
		Requested:        summaries(requested, byID),
		Pending:          summaries(pending, byID),
		NotFollowingBack: summaries(notFollowingBack, byID),
		Suggestions:      suggestions,
	}, nil
}

func (s *DiscoveryService) sampleSize(limit int) int {
	if limit <= 0 {
		return s.defaultSize
	}
	if limit > maxSuggestions {
		return maxSuggestions
	}
	return limit
}

func summaries(ids []string, byID map[string]models.User) []models.UserSummary {
	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u.Summary())
		}
	}
	return out
}
