package repositories

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEdgeNotFound = errors.New("edge not found")
	ErrEdgeExists   = errors.New("edge already exists")

	ErrInvalidEdgeState = errors.New("invalid edge state")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
