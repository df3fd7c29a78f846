package library

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func bookIDs(books []*Book) []int64 {
	ids := make([]int64, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	return ids
}

func TestAddBook(t *testing.T) {
	ctx := context.Background()
	catalog := tempDB(t).Catalog()

	id, err := catalog.AddBook(ctx, " Dune ", "Herbert", "SciFi")
	require.NoError(t, err)
	b, err := catalog.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, &Book{ID: id, Title: "Dune", Author: "Herbert", Category: "SciFi", Available: true}, b)

	dup, err := catalog.AddBook(ctx, "Dune", "Herbert", "SciFi")
	require.NoError(t, err, "duplicate titles are allowed")
	assert.NotEqual(t, id, dup)

	_, err = catalog.AddBook(ctx, "", "Herbert", "SciFi")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = catalog.AddBook(ctx, "Dune", "  ", "SciFi")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSearchBooks_RoundTripAnyField(t *testing.T) {
	ctx := context.Background()
	catalog := tempDB(t).Catalog()
	id, err := catalog.AddBook(ctx, "The Left Hand of Darkness", "Ursula K. Le Guin", "Science Fiction")
	require.NoError(t, err)
	_, err = catalog.AddBook(ctx, "Persuasion", "Jane Austen", "Romance")
	require.NoError(t, err)

	tests := []struct {
		field SearchField
		query string
	}{
		{FieldTitle, "left hand"},
		{FieldTitle, "DARKNESS"},
		{FieldTitle, "The Left Hand of Darkness"},
		{FieldAuthor, "le guin"},
		{FieldAuthor, "URSULA"},
		{FieldCategory, "science"},
		{FieldCategory, "FICTION"},
	}
	for _, tt := range tests {
		t.Run(string(tt.field)+"/"+tt.query, func(t *testing.T) {
			books, err := catalog.SearchBooks(ctx, tt.query, tt.field)
			require.NoError(t, err)
			assert.Equal(t, []int64{id}, bookIDs(books))
		})
	}
}

func TestSearchBooks_FoldsNonASCIICase(t *testing.T) {
	ctx := context.Background()
	catalog := tempDB(t).Catalog()
	id, err := catalog.AddBook(ctx, "Ärger im Élysée", "Ödön", "Román")
	require.NoError(t, err)
	_, err = catalog.AddBook(ctx, "Straße", "Öztürk", "Roman")
	require.NoError(t, err)

	tests := []struct {
		field SearchField
		query string
	}{
		{FieldTitle, "ärger"},
		{FieldTitle, "ÉLYSÉE"},
		{FieldTitle, "ärger im élysée"},
		{FieldAuthor, "ödön"},
		{FieldAuthor, "ÖDÖN"},
		{FieldCategory, "ROMÁN"},
		{FieldCategory, "román"},
	}
	for _, tt := range tests {
		t.Run(string(tt.field)+"/"+tt.query, func(t *testing.T) {
			books, err := catalog.SearchBooks(ctx, tt.query, tt.field)
			require.NoError(t, err)
			assert.Equal(t, []int64{id}, bookIDs(books))
		})
	}

	books, err := catalog.SearchBooks(ctx, "STRASSE", FieldTitle)
	require.NoError(t, err)
	assert.Len(t, books, 1, "ß folds to ss")
}

func TestSearchBooks_MatchesOnlySelectedField(t *testing.T) {
	ctx := context.Background()
	catalog := tempDB(t).Catalog()
	_, err := catalog.AddBook(ctx, "Mystery Road", "Ann Smith", "Travel")
	require.NoError(t, err)
	target, err := catalog.AddBook(ctx, "Gone Girl", "Gillian Flynn", "Mystery")
	require.NoError(t, err)

	books, err := catalog.SearchBooks(ctx, "mystery", FieldCategory)
	require.NoError(t, err)
	assert.Equal(t, []int64{target}, bookIDs(books))
}

func TestSearchBooks_OrderedByID(t *testing.T) {
	ctx := context.Background()
	catalog := tempDB(t).Catalog()
	var want []int64
	for _, title := range []string{"Zebra Tales", "Apple Tales", "Middle Tales"} {
		id, err := catalog.AddBook(ctx, title, "Anon", "")
		require.NoError(t, err)
		want = append(want, id)
	}

	books, err := catalog.SearchBooks(ctx, "tales", FieldTitle)
	require.NoError(t, err)
	assert.Equal(t, want, bookIDs(books))
}

func TestSearchBooks_EdgeCases(t *testing.T) {
	ctx := context.Background()
	catalog := tempDB(t).Catalog()
	_, err := catalog.AddBook(ctx, "100% Pure", "Anon", "")
	require.NoError(t, err)
	_, err = catalog.AddBook(ctx, "1000 Pure", "Anon", "")
	require.NoError(t, err)

	books, err := catalog.SearchBooks(ctx, "", FieldTitle)
	require.NoError(t, err)
	assert.Empty(t, books, "blank query matches nothing")

	books, err = catalog.SearchBooks(ctx, "   ", FieldAuthor)
	require.NoError(t, err)
	assert.Empty(t, books)

	books, err = catalog.SearchBooks(ctx, "0%", FieldTitle)
	require.NoError(t, err)
	require.Len(t, books, 1, "wildcards are matched literally")
	assert.Equal(t, "100% Pure", books[0].Title)

	_, err = catalog.SearchBooks(ctx, "pure", SearchField("isbn"))
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestUpdateBook(t *testing.T) {
	ctx := context.Background()
	catalog := tempDB(t).Catalog()
	id, err := catalog.AddBook(ctx, "Dune", "Herbert", "SciFi")
	require.NoError(t, err)

	require.NoError(t, catalog.UpdateBook(ctx, id, BookUpdate{Author: strPtr("Frank Herbert")}))
	b, err := catalog.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, "Frank Herbert", b.Author)
	assert.Equal(t, "SciFi", b.Category)

	require.NoError(t, catalog.UpdateBook(ctx, id, BookUpdate{Title: strPtr("Dune Messiah"), Category: strPtr("")}))
	b, err = catalog.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", b.Title)
	assert.Equal(t, "", b.Category)
	assert.True(t, b.Available)

	require.NoError(t, catalog.UpdateBook(ctx, id, BookUpdate{}), "empty update on an existing book")

	assert.ErrorIs(t, catalog.UpdateBook(ctx, 999, BookUpdate{Title: strPtr("X")}), ErrBookNotFound)
	assert.ErrorIs(t, catalog.UpdateBook(ctx, 999, BookUpdate{}), ErrNotFound)
	assert.ErrorIs(t, catalog.UpdateBook(ctx, id, BookUpdate{Title: strPtr("  ")}), ErrInvalidInput)
}

func TestUpdateBook_DoesNotTouchAvailability(t *testing.T) {
	ctx := context.Background()
	mgr := tempDB(t)
	id, err := mgr.Catalog().AddBook(ctx, "Dune", "Herbert", "SciFi")
	require.NoError(t, err)
	_, err = mgr.Borrowing().BorrowBook(ctx, 1, id)
	require.NoError(t, err)

	require.NoError(t, mgr.Catalog().UpdateBook(ctx, id, BookUpdate{Title: strPtr("Dune (1965)")}))
	b, err := mgr.Catalog().GetBook(ctx, id)
	require.NoError(t, err)
	assert.False(t, b.Available)
}

func TestDeleteBook(t *testing.T) {
	ctx := context.Background()
	mgr := tempDB(t)
	catalog := mgr.Catalog()

	assert.ErrorIs(t, catalog.DeleteBook(ctx, 42), ErrBookNotFound)

	id, err := catalog.AddBook(ctx, "Dune", "Herbert", "SciFi")
	require.NoError(t, err)
	require.NoError(t, catalog.DeleteBook(ctx, id))
	_, err = catalog.GetBook(ctx, id)
	assert.ErrorIs(t, err, ErrBookNotFound)

	borrowed, err := catalog.AddBook(ctx, "Emma", "Austen", "Classic")
	require.NoError(t, err)
	_, err = mgr.Borrowing().BorrowBook(ctx, 1, borrowed)
	require.NoError(t, err)
	assert.ErrorIs(t, catalog.DeleteBook(ctx, borrowed), ErrBookBorrowed)

	books, err := catalog.ListBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{borrowed}, bookIDs(books))
}

func TestListBooks_Empty(t *testing.T) {
	books, err := tempDB(t).Catalog().ListBooks(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestParseSearchField(t *testing.T) {
	for _, in := range []string{"title", " Author ", "CATEGORY"} {
		f, err := ParseSearchField(in)
		require.NoError(t, err)
		assert.Equal(t, strings.ToLower(strings.TrimSpace(in)), string(f))
	}
	_, err := ParseSearchField("year")
	assert.ErrorIs(t, err, ErrInvalidField)
}
