package library

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrLastAdminProtected = errors.New("cannot delete the last remaining admin")
	ErrBookUnavailable    = errors.New("book is not available")
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrBookNotFound       = fmt.Errorf("book %w", ErrNotFound)
	ErrStoreUnavailable   = errors.New("store unavailable")

	ErrInvalidInput   = errors.New("invalid input")
	ErrUsernameTaken  = errors.New("username already exists")
	ErrInvalidField   = errors.New("invalid search field")
	ErrBookBorrowed   = errors.New("book has borrow records")
	ErrUserHasBorrows = errors.New("user has borrow records")
)

// storeErr tags an unexpected driver error so callers can match
// ErrStoreUnavailable while keeping the cause in the chain.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
