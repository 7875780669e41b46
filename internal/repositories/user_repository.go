package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"campus-connect/internal/models"
)

// UserRepository abstracts access to user documents.
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (models.User, error)
	GetUsers(ctx context.Context, userIDs []string) ([]models.User, error)
	SetActive(ctx context.Context, userID string) error
	SetInactive(ctx context.Context, userID string, lastSeen time.Time) error
	SearchByName(ctx context.Context, userID string, term string) ([]models.UserSummary, error)
	RandomStudents(ctx context.Context, userID string, limit int) ([]models.UserSummary, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, email, id_number, full_name, role, profile_image, active, last_seen, created_at`

const summaryColumns = `id, full_name, id_number, email, role, profile_image`

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetUsers fetches the users with the given ids; missing ids are skipped.
func (r *UserRepo) GetUsers(ctx context.Context, userIDs []string) ([]models.User, error) {
	if len(userIDs) == 0 {
		return []models.User{}, nil
	}
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(userIDs))
	return users, err
}

// SetActive marks the user online and clears last_seen.
func (r *UserRepo) SetActive(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET active = TRUE, last_seen = NULL WHERE id=$1`, userID)
	return requireRow(res, err, ErrUserNotFound)
}

// SetInactive marks the user offline as of lastSeen.
func (r *UserRepo) SetInactive(ctx context.Context, userID string, lastSeen time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET active = FALSE, last_seen = $2 WHERE id=$1`, userID, lastSeen)
	return requireRow(res, err, ErrUserNotFound)
}

// SearchByName matches full names case-insensitively, skipping the caller,
// admins and users the caller already follows in any state.
func (r *UserRepo) SearchByName(ctx context.Context, userID string, term string) ([]models.UserSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM users u
        WHERE u.id <> $1
        AND u.role <> 'admin'
        AND u.full_name ILIKE $2 ESCAPE '\'
        AND NOT EXISTS (SELECT 1 FROM following f WHERE f.user_id = $1 AND f.target_id = u.id)
        ORDER BY u.full_name ASC`
	users := []models.UserSummary{}
	err := r.db.SelectContext(ctx, &users, query, userID, "%"+escapeLike(term)+"%")
	return users, err
}

// RandomStudents samples students unconnected to the caller in either direction.
func (r *UserRepo) RandomStudents(ctx context.Context, userID string, limit int) ([]models.UserSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM users u
        WHERE u.id <> $1
        AND u.role <> 'admin'
        AND NOT EXISTS (SELECT 1 FROM following f WHERE f.user_id = $1 AND f.target_id = u.id)
        AND NOT EXISTS (SELECT 1 FROM followers f WHERE f.user_id = $1 AND f.source_id = u.id)
        ORDER BY random()
        LIMIT $2`
	users := []models.UserSummary{}
	err := r.db.SelectContext(ctx, &users, query, userID, limit)
	return users, err
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

func requireRow(res sql.Result, err error, notFound error) error {
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return notFound
	}
	return nil
}
