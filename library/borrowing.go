package library

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Borrowing records borrow events. There is no return operation: once a book
// is borrowed it stays unavailable.
type Borrowing struct {
	db     *sql.DB
	now    func() time.Time
	logger *zap.Logger
}

// NewBorrowing creates the borrowing service over db. A nil clock means time.Now.
func NewBorrowing(db *sql.DB, now func() time.Time, logger *zap.Logger) *Borrowing {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Borrowing{db: db, now: now, logger: logger}
}

// BorrowBook records the borrow and marks the book unavailable in one transaction.
func (b *Borrowing) BorrowBook(ctx context.Context, userID, bookID int64) (int64, error) {
	var recordID int64
	err := withTx(ctx, b.db, "borrow book", func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, userID).Scan(&exists); err != nil {
			return storeErr("borrow book", err)
		}
		if !exists {
			return ErrUserNotFound
		}

		var avail bool
		err := tx.QueryRowContext(ctx, `SELECT available FROM books WHERE id = ?`, bookID).Scan(&avail)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookNotFound
		}
		if err != nil {
			return storeErr("borrow book", err)
		}
		if !avail {
			return ErrBookUnavailable
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO borrow_records (user_id, book_id, borrow_date) VALUES (?, ?, ?)`,
			userID, bookID, b.now().Format(BorrowDateLayout))
		if err != nil {
			b.logger.Error("failed to insert borrow record", zap.Error(err),
				zap.Int64("user_id", userID), zap.Int64("book_id", bookID))
			return storeErr("borrow book", err)
		}
		if recordID, err = res.LastInsertId(); err != nil {
			return storeErr("borrow book", err)
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE books SET available = 0 WHERE id = ? AND available = 1`, bookID)
		if err != nil {
			b.logger.Error("failed to mark book unavailable", zap.Error(err), zap.Int64("book_id", bookID))
			return storeErr("borrow book", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storeErr("borrow book", err)
		}
		if n != 1 {
			return ErrBookUnavailable
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	b.logger.Info("book borrowed", zap.Int64("borrow_id", recordID),
		zap.Int64("user_id", userID), zap.Int64("book_id", bookID))
	return recordID, nil
}

const borrowEntryQuery = `
	SELECT r.id, r.user_id, r.book_id, r.borrow_date, bk.title, bk.author, u.username
	FROM borrow_records r
	JOIN books bk ON bk.id = r.book_id
	JOIN users u ON u.id = r.user_id`

// ListBorrowed returns every borrow record, ordered by id.
func (b *Borrowing) ListBorrowed(ctx context.Context) ([]*BorrowEntry, error) {
	return b.queryEntries(ctx, borrowEntryQuery+` ORDER BY r.id`)
}

// ListBorrowedByUser returns one user's borrow records, ordered by id.
func (b *Borrowing) ListBorrowedByUser(ctx context.Context, userID int64) ([]*BorrowEntry, error) {
	return b.queryEntries(ctx, borrowEntryQuery+` WHERE r.user_id = ? ORDER BY r.id`, userID)
}

func (b *Borrowing) queryEntries(ctx context.Context, query string, args ...any) ([]*BorrowEntry, error) {
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		b.logger.Error("failed to list borrow records", zap.Error(err))
		return nil, storeErr("list borrowed", err)
	}
	defer rows.Close()

	entries := []*BorrowEntry{}
	for rows.Next() {
		e := &BorrowEntry{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.BookID, &e.BorrowDate,
			&e.Title, &e.Author, &e.Username); err != nil {
			return nil, storeErr("list borrowed", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list borrowed", err)
	}
	return entries, nil
}
