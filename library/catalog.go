package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Catalog manages book rows. Availability is only changed by Borrowing.
type Catalog struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCatalog creates the catalog service over db.
func NewCatalog(db *sql.DB, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{db: db, logger: logger}
}

// AddBook inserts an available book. Duplicate titles are allowed.
func (c *Catalog) AddBook(ctx context.Context, title, author, category string) (int64, error) {
	title, author, category = strings.TrimSpace(title), strings.TrimSpace(author), strings.TrimSpace(category)
	if title == "" || author == "" {
		return 0, fmt.Errorf("%w: title and author required", ErrInvalidInput)
	}

	res, err := c.db.ExecContext(ctx,
		`INSERT INTO books (title, author, category, available) VALUES (?, ?, ?, 1)`,
		title, author, category)
	if err != nil {
		c.logger.Error("failed to add book", zap.Error(err), zap.String("title", title))
		return 0, storeErr("add book", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("add book", err)
	}
	c.logger.Info("book added", zap.Int64("book_id", id), zap.String("title", title))
	return id, nil
}

// UpdateBook overwrites the supplied subset of title, author and category.
func (c *Catalog) UpdateBook(ctx context.Context, id int64, upd BookUpdate) error {
	title, err := trimmedField(upd.Title, true)
	if err != nil {
		return fmt.Errorf("%w: title cannot be empty", err)
	}
	author, err := trimmedField(upd.Author, true)
	if err != nil {
		return fmt.Errorf("%w: author cannot be empty", err)
	}
	category, _ := trimmedField(upd.Category, false)

	res, err := c.db.ExecContext(ctx, `
		UPDATE books
		SET title = COALESCE(?, title), author = COALESCE(?, author), category = COALESCE(?, category)
		WHERE id = ?`, title, author, category, id)
	if err != nil {
		c.logger.Error("failed to update book", zap.Error(err), zap.Int64("book_id", id))
		return storeErr("update book", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("update book", err)
	}
	if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

func trimmedField(v *string, required bool) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*v)
	if required && s == "" {
		return nil, ErrInvalidInput
	}
	return &s, nil
}

// DeleteBook removes a book that no borrow record references.
func (c *Catalog) DeleteBook(ctx context.Context, id int64) error {
	err := withTx(ctx, c.db, "delete book", func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM books WHERE id = ?)`, id).Scan(&exists); err != nil {
			return storeErr("delete book", err)
		}
		if !exists {
			return ErrBookNotFound
		}

		var borrows int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM borrow_records WHERE book_id = ?`, id).Scan(&borrows); err != nil {
			return storeErr("delete book", err)
		}
		if borrows > 0 {
			return ErrBookBorrowed
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id); err != nil {
			c.logger.Error("failed to delete book", zap.Error(err), zap.Int64("book_id", id))
			return storeErr("delete book", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.logger.Info("book deleted", zap.Int64("book_id", id))
	return nil
}

// GetBook fetches a single book.
func (c *Catalog) GetBook(ctx context.Context, id int64) (*Book, error) {
	b := &Book{}
	err := c.db.QueryRowContext(ctx,
		`SELECT id, title, author, category, available FROM books WHERE id = ?`, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.Category, &b.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, storeErr("get book", err)
	}
	return b, nil
}

// ListBooks returns every book ordered by id.
func (c *Catalog) ListBooks(ctx context.Context) ([]*Book, error) {
	return c.queryBooks(ctx, "list books",
		`SELECT id, title, author, category, available FROM books ORDER BY id`)
}

// SearchBooks returns books whose field contains query, ignoring case
// under Unicode case folding. A blank query matches nothing.
func (c *Catalog) SearchBooks(ctx context.Context, query string, field SearchField) ([]*Book, error) {
	switch field {
	case FieldTitle, FieldAuthor, FieldCategory:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	if strings.TrimSpace(query) == "" {
		return []*Book{}, nil
	}

	// field is one of the constants above, never user text.
	q := fmt.Sprintf(`
		SELECT id, title, author, category, available FROM books
		WHERE instr(casefold(%s), casefold(?)) > 0
		ORDER BY id`, field)
	return c.queryBooks(ctx, "search books", q, query)
}

func (c *Catalog) queryBooks(ctx context.Context, op, query string, args ...any) ([]*Book, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		c.logger.Error("failed to query books", zap.Error(err), zap.String("op", op))
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	books := []*Book{}
	for rows.Next() {
		b := &Book{}
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Category, &b.Available); err != nil {
			return nil, storeErr(op, err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return books, nil
}
