package services

import "errors"

// Error taxonomy shared by the engine, the relay and the handlers. Operations
// wrap these with context; callers classify with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrNotFollowing   = errors.New("not following")
	ErrUnauthorized   = errors.New("unauthorized")
)

var classified = []error{ErrValidation, ErrInvalidRequest, ErrNotFound, ErrConflict, ErrNotFollowing, ErrUnauthorized}

// IsClassified reports whether err belongs to the taxonomy.
func IsClassified(err error) bool {
	for _, target := range classified {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// PublicMessage is the text surfaced to callers. Store failures get a generic
// message; their detail only goes to the log.
func PublicMessage(err error) string {
	if IsClassified(err) {
		return err.Error()
	}
	return "internal server error"
}
