package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"library-desk/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", dbPath, "--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	a.close()
	return out.String(), err
}

func TestCLI_AdminFlow(t *testing.T) {
	chdir(t, t.TempDir())
	db := filepath.Join(t.TempDir(), "cli.db")
	admin := []string{"-u", "admin", "-p", "admin"}

	out, err := run(t, db, append([]string{"login"}, admin...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "role: admin")

	out, err = run(t, db, append([]string{"books", "add", "--title", "Dune", "--author", "Herbert", "--category", "SciFi"}, admin...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Added book ID 1")

	out, err = run(t, db, "books", "search", "DUNE", "--field", "title")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 book(s)")

	_, err = run(t, db, "users", "register", "reader", "--new-password", "pw")
	require.NoError(t, err)

	out, err = run(t, db, "borrow", "1", "-u", "reader", "-p", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Book 'Dune' borrowed by reader")

	_, err = run(t, db, "borrow", "1", "-u", "admin", "-p", "admin")
	assert.ErrorIs(t, err, library.ErrBookUnavailable)

	out, err = run(t, db, append([]string{"borrowed", "--all"}, admin...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "reader")
	assert.Contains(t, out, "Dune")

	_, err = run(t, db, "borrowed", "--all", "-u", "reader", "-p", "pw")
	assert.ErrorIs(t, err, errAdminRequired)

	_, err = run(t, db, append([]string{"books", "add", "--title", "X", "--author", "Y"}, "-u", "reader", "-p", "pw")...)
	assert.ErrorIs(t, err, errAdminRequired)

	_, err = run(t, db, "login", "-u", "admin", "-p", "wrong")
	assert.ErrorIs(t, err, library.ErrInvalidCredentials)
}

func TestCLI_CommandsWithoutStoreLeaveNoDatabase(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile("bookdetails.json",
		[]byte(`[{"title": "Dune", "author": "Frank Herbert", "category": "SciFi"}]`), 0o644))
	db := filepath.Join(dir, "never.db")

	out, err := run(t, db, "completion", "bash")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	out, err = run(t, db, "books", "suggest", "du")
	require.NoError(t, err)
	assert.Contains(t, out, "Dune")

	assert.NoFileExists(t, db)

	_, err = run(t, db, "books", "list")
	require.NoError(t, err)
	assert.FileExists(t, db)
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Dune", 10, "Dune"},
		{"The Left Hand of Darkness", 10, "The Lef..."},
		{"Ärger im Élysée", 15, "Ärger im Élysée"},
		{"Ärger im Élysée", 8, "Ärger..."},
		{"Ödön", 2, "Öd"},
	}
	for _, tt := range tests {
		got := truncateString(tt.in, tt.max)
		assert.Equal(t, tt.want, got)
		assert.True(t, utf8.ValidString(got), got)
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{library.ErrInvalidCredentials, "Invalid username or password."},
		{library.ErrLastAdminProtected, "Cannot delete the last remaining admin."},
		{library.ErrBookUnavailable, "That book is not available."},
		{library.ErrUserNotFound, "User not found."},
		{library.ErrBookNotFound, "Book not found."},
		{fmt.Errorf("open library: %w", library.ErrUsernameTaken), "That username is already taken."},
		{errAdminRequired, "This command requires an admin account."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, describeError(tt.err))
	}

	assert.Contains(t, describeError(fmt.Errorf("x: %w", library.ErrStoreUnavailable)), "unavailable")
}

func TestParseID(t *testing.T) {
	id, err := parseID("book", " 12 ")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := parseID("book", bad)
		assert.ErrorIs(t, err, library.ErrInvalidInput, bad)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
