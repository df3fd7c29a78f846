package library

import (
	"fmt"
	"strings"
)

// Role is the access level stored on a user row.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole maps free-form input onto a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// User is a library account. Password holds whatever the configured
// Credentials scheme stored (plain text by default).
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the user may manage the catalog and accounts.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Book represents catalog metadata and whether the copy is on the shelf.
type Book struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Category  string `json:"category"`
	Available bool   `json:"available"`
}

// BookUpdate carries the fields to overwrite; nil fields are left untouched.
type BookUpdate struct {
	Title    *string
	Author   *string
	Category *string
}

// SearchField selects the column SearchBooks matches against.
type SearchField string

const (
	FieldTitle    SearchField = "title"
	FieldAuthor   SearchField = "author"
	FieldCategory SearchField = "category"
)

// ParseSearchField validates user input naming a search column.
func ParseSearchField(s string) (SearchField, error) {
	switch f := SearchField(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldTitle, FieldAuthor, FieldCategory:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidField, s)
}

// BorrowDateLayout is the sortable calendar-date format of BorrowRecord.BorrowDate.
const BorrowDateLayout = "2006-01-02"

// BorrowRecord is the immutable log entry written when a book is borrowed.
type BorrowRecord struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	BookID     int64  `json:"book_id"`
	BorrowDate string `json:"borrow_date"`
}

// BorrowEntry is a borrow record joined with the book and borrower it references.
type BorrowEntry struct {
	BorrowRecord
	Title    string `json:"title"`
	Author   string `json:"author"`
	Username string `json:"username"`
}
