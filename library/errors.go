package library

import "errors"

// Expected lending failures. Operations wrap them with the offending title
// or id; callers match with errors.Is.
var (
	ErrInvalidItem     = errors.New("invalid item")
	ErrItemNotFound    = errors.New("item not found")
	ErrItemUnavailable = errors.New("item not available")
	ErrInvalidPatron   = errors.New("invalid patron")
	ErrDuplicatePatron = errors.New("patron already registered")
	ErrPatronNotFound  = errors.New("patron not found")
	ErrNotHeld         = errors.New("patron does not hold that item")
)

// Result is the success flag plus human-readable message handed to the
// presentation layer.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`

	err error
}

// ResultOf converts an operation error into a Result.
func ResultOf(err error) Result {
	if err == nil {
		return Result{Success: true}
	}
	return Result{Message: err.Error(), err: err}
}

// Err returns the underlying error, nil on success.
func (r Result) Err() error { return r.err }
