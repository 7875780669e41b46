package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"campus-connect/internal/models"
)

// RelationshipRepository stores the following/followers mirror lists.
// Every mutating method is a single transaction over both mirrors.
type RelationshipRepository interface {
	Following(ctx context.Context, userID string) ([]models.Edge, error)
	Followers(ctx context.Context, userID string) ([]models.Edge, error)
	GetFollowing(ctx context.Context, userID, targetID string) (models.Edge, error)
	GetFollower(ctx context.Context, userID, sourceID string) (models.Edge, error)
	CreateRequest(ctx context.Context, followerID, targetID string) error
	CompleteFollowBack(ctx context.Context, followerID, targetID string) error
	Approve(ctx context.Context, followerID, targetID string) error
	Remove(ctx context.Context, followerID, targetID string) error
}

// RelationshipRepo is a sqlx implementation of RelationshipRepository.
type RelationshipRepo struct {
	db *sqlx.DB
}

// NewRelationshipRepo constructs a RelationshipRepo.
func NewRelationshipRepo(db *sqlx.DB) *RelationshipRepo {
	return &RelationshipRepo{db: db}
}

// Following lists the user's outgoing edges in insertion order.
func (r *RelationshipRepo) Following(ctx context.Context, userID string) ([]models.Edge, error) {
	edges := []models.Edge{}
	err := r.db.SelectContext(ctx, &edges, `SELECT user_id, target_id AS peer_id, state, created_at
        FROM following WHERE user_id=$1 ORDER BY created_at ASC, target_id ASC`, userID)
	if err != nil {
		return nil, err
	}
	return edges, checkEdges(edges...)
}

// Followers lists the user's incoming edges in insertion order.
func (r *RelationshipRepo) Followers(ctx context.Context, userID string) ([]models.Edge, error) {
	edges := []models.Edge{}
	err := r.db.SelectContext(ctx, &edges, `SELECT user_id, source_id AS peer_id, state, created_at
        FROM followers WHERE user_id=$1 ORDER BY created_at ASC, source_id ASC`, userID)
	if err != nil {
		return nil, err
	}
	return edges, checkEdges(edges...)
}

// GetFollowing fetches userID's following entry towards targetID.
func (r *RelationshipRepo) GetFollowing(ctx context.Context, userID, targetID string) (models.Edge, error) {
	var edge models.Edge
	err := r.db.GetContext(ctx, &edge, `SELECT user_id, target_id AS peer_id, state, created_at
        FROM following WHERE user_id=$1 AND target_id=$2`, userID, targetID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Edge{}, ErrEdgeNotFound
	}
	if err != nil {
		return models.Edge{}, err
	}
	return edge, checkEdges(edge)
}

// GetFollower fetches userID's followers entry from sourceID.
func (r *RelationshipRepo) GetFollower(ctx context.Context, userID, sourceID string) (models.Edge, error) {
	var edge models.Edge
	err := r.db.GetContext(ctx, &edge, `SELECT user_id, source_id AS peer_id, state, created_at
        FROM followers WHERE user_id=$1 AND source_id=$2`, userID, sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Edge{}, ErrEdgeNotFound
	}
	if err != nil {
		return models.Edge{}, err
	}
	return edge, checkEdges(edge)
}

// CreateRequest appends a pending edge to the follower's following list and the
// target's followers list.
func (r *RelationshipRepo) CreateRequest(ctx context.Context, followerID, targetID string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO following (user_id, target_id, state) VALUES ($1, $2, 'pending')`, followerID, targetID); err != nil {
			if isUniqueViolation(err) {
				return ErrEdgeExists
			}
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO followers (user_id, source_id, state) VALUES ($1, $2, 'pending')
            ON CONFLICT (user_id, source_id) DO UPDATE SET state = 'pending'`, targetID, followerID)
		return err
	})
}

// CompleteFollowBack records followerID -> targetID while targetID -> followerID
// is pending, approving both directions in both mirrors.
func (r *RelationshipRepo) CompleteFollowBack(ctx context.Context, followerID, targetID string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO following (user_id, target_id, state) VALUES ($1, $2, 'approved')`, followerID, targetID); err != nil {
			if isUniqueViolation(err) {
				return ErrEdgeExists
			}
			return err
		}
		if err := upsertApproved(ctx, tx, targetID, followerID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE following SET state = 'approved' WHERE user_id=$1 AND target_id=$2`, targetID, followerID)
		if err := requireRow(res, err, ErrEdgeNotFound); err != nil {
			return err
		}
		return upsertApproved(ctx, tx, followerID, targetID)
	})
}

// Approve marks followerID -> targetID approved in both mirrors. The followers
// mirror is recreated if it went missing.
func (r *RelationshipRepo) Approve(ctx context.Context, followerID, targetID string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE following SET state = 'approved' WHERE user_id=$1 AND target_id=$2`, followerID, targetID)
		if err := requireRow(res, err, ErrEdgeNotFound); err != nil {
			return err
		}
		return upsertApproved(ctx, tx, targetID, followerID)
	})
}

// Remove deletes followerID -> targetID from both mirrors whatever its state.
func (r *RelationshipRepo) Remove(ctx context.Context, followerID, targetID string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM following WHERE user_id=$1 AND target_id=$2`, followerID, targetID)
		if err := requireRow(res, err, ErrEdgeNotFound); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM followers WHERE user_id=$1 AND source_id=$2`, targetID, followerID)
		return err
	})
}

// checkEdges rejects rows whose state column holds an unknown value.
func checkEdges(edges ...models.Edge) error {
	for _, e := range edges {
		if !e.State.Valid() {
			return fmt.Errorf("%w: %s -> %s has state %q", ErrInvalidEdgeState, e.OwnerID, e.PeerID, e.State)
		}
	}
	return nil
}

func upsertApproved(ctx context.Context, tx *sqlx.Tx, userID, sourceID string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO followers (user_id, source_id, state) VALUES ($1, $2, 'approved')
        ON CONFLICT (user_id, source_id) DO UPDATE SET state = 'approved'`, userID, sourceID)
	return err
}

func (r *RelationshipRepo) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
