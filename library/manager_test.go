package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibraryManager_ServicesShareStore(t *testing.T) {
	ctx := context.Background()
	mgr := tempDB(t)

	id, err := mgr.Catalog().AddBook(ctx, "Hello", "Anon", "")
	require.NoError(t, err)
	_, err = mgr.Borrowing().BorrowBook(ctx, 1, id)
	require.NoError(t, err)

	entries, err := mgr.Borrowing().ListBorrowed(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "admin", entries[0].Username)
}
