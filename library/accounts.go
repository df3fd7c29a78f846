package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Accounts authenticates users and manages user rows under last-admin protection.
type Accounts struct {
	db     *sql.DB
	creds  Credentials
	logger *zap.Logger
}

// NewAccounts creates the account service over db.
func NewAccounts(db *sql.DB, creds Credentials, logger *zap.Logger) *Accounts {
	if creds == nil {
		creds = PlainCredentials{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Accounts{db: db, creds: creds, logger: logger}
}

func (a *Accounts) verifyCredential(stored, password string) bool {
	return a.creds.Verify(stored, password)
}

// Authenticate returns the user whose username and password match exactly.
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u := &User{}
	err := a.db.QueryRowContext(ctx,
		`SELECT id, username, password, role FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.Password, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		a.logger.Error("failed to look up user", zap.Error(err), zap.String("username", username))
		return nil, storeErr("authenticate", err)
	}
	if !a.verifyCredential(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Register creates an account and returns its id.
func (a *Accounts) Register(ctx context.Context, username, password string, role Role) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, fmt.Errorf("%w: username and password required", ErrInvalidInput)
	}
	if role != RoleAdmin && role != RoleUser {
		return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	stored, err := a.creds.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	res, err := a.db.ExecContext(ctx,
		`INSERT INTO users (username, password, role) VALUES (?, ?, ?)`, username, stored, role)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, ErrUsernameTaken
		}
		a.logger.Error("failed to create user", zap.Error(err), zap.String("username", username))
		return 0, storeErr("register", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("register", err)
	}
	a.logger.Info("user registered", zap.Int64("user_id", id), zap.String("role", string(role)))
	return id, nil
}

// GetUser fetches a single user.
func (a *Accounts) GetUser(ctx context.Context, id int64) (*User, error) {
	u := &User{}
	err := a.db.QueryRowContext(ctx,
		`SELECT id, username, password, role FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.Password, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return u, nil
}

// ListUsers returns all users ordered by id.
func (a *Accounts) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT id, username, password, role FROM users ORDER BY id`)
	if err != nil {
		a.logger.Error("failed to list users", zap.Error(err))
		return nil, storeErr("list users", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u := &User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.Password, &u.Role); err != nil {
			return nil, storeErr("list users", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

// DeleteUser removes a user unless it is the only admin or still referenced by
// borrow records. The checks and the delete share one transaction.
func (a *Accounts) DeleteUser(ctx context.Context, id int64) error {
	err := withTx(ctx, a.db, "delete user", func(tx *sql.Tx) error {
		var role Role
		err := tx.QueryRowContext(ctx, `SELECT role FROM users WHERE id = ?`, id).Scan(&role)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		if err != nil {
			return storeErr("delete user", err)
		}

		if role == RoleAdmin {
			var admins int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM users WHERE role = ?`, RoleAdmin).Scan(&admins); err != nil {
				return storeErr("delete user", err)
			}
			if admins <= 1 {
				return ErrLastAdminProtected
			}
		}

		var borrows int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM borrow_records WHERE user_id = ?`, id).Scan(&borrows); err != nil {
			return storeErr("delete user", err)
		}
		if borrows > 0 {
			return ErrUserHasBorrows
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
			a.logger.Error("failed to delete user", zap.Error(err), zap.Int64("user_id", id))
			return storeErr("delete user", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	a.logger.Info("user deleted", zap.Int64("user_id", id))
	return nil
}
