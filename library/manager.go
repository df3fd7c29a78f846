package library

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// LibraryManager is a thin façade that owns the store handle for one
// application session and hands the same handle to every service.
type LibraryManager struct {
	db        *Database
	accounts  *Accounts
	catalog   *Catalog
	borrowing *Borrowing
}

type options struct {
	logger *zap.Logger
	creds  Credentials
	now    func() time.Time
}

// Option customises NewLibraryManager.
type Option func(*options)

func WithLogger(l *zap.Logger) Option      { return func(o *options) { o.logger = l } }
func WithCredentials(c Credentials) Option { return func(o *options) { o.creds = c } }
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath.
func NewLibraryManager(ctx context.Context, dbPath string, opts ...Option) (*LibraryManager, error) {
	o := options{logger: zap.NewNop(), creds: PlainCredentials{}, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.creds == nil {
		o.creds = PlainCredentials{}
	}

	db, err := NewDatabase(ctx, dbPath, o.creds, o.logger)
	if err != nil {
		return nil, fmt.Errorf("open library %s: %w", dbPath, err)
	}
	return &LibraryManager{
		db:        db,
		accounts:  NewAccounts(db.db, o.creds, o.logger.Named("accounts")),
		catalog:   NewCatalog(db.db, o.logger.Named("catalog")),
		borrowing: NewBorrowing(db.db, o.now, o.logger.Named("borrowing")),
	}, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

func (lm *LibraryManager) Accounts() *Accounts   { return lm.accounts }
func (lm *LibraryManager) Catalog() *Catalog     { return lm.catalog }
func (lm *LibraryManager) Borrowing() *Borrowing { return lm.borrowing }
