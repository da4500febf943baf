package store

import "errors"

// ErrMissingUserID is returned by Upsert when the document carries no
// user id. Ownership is keyed on user_id, so an unowned document is invalid.
var ErrMissingUserID = errors.New("user_id is required for saving conversations")

// NotFoundError is returned when a conversation doesn't exist in the store.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "conversation not found"
	}

	return "conversation not found: " + e.ID
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
