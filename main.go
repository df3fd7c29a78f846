package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"library-desk/config"
	"library-desk/library"
	"library-desk/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// app carries the per-invocation session: one store handle, opened before a
// command runs and released after it.
type app struct {
	cfg *config.Config
	log *zap.Logger
	mgr *library.LibraryManager

	username string
	password string
}

func main() {
	a := &app{}
	root := newRootCmd(a)
	err := root.ExecuteContext(context.Background())
	// PersistentPostRunE is skipped when a command fails.
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describeError(err))
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "library",
		Short:         "Manage a library catalog, user accounts and borrowing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	pf := root.PersistentFlags()
	pf.String("db", "", "path to the SQLite database (env LMS_DATABASE_PATH)")
	pf.String("log-level", "", "log level: debug, info, warn, error (env LMS_LOG_LEVEL)")
	pf.StringVarP(&a.username, "username", "u", "", "account to act as")
	pf.StringVarP(&a.password, "password", "p", "", "password for --username (prompted when omitted)")

	root.AddCommand(
		newLoginCmd(a),
		newUsersCmd(a),
		newBooksCmd(a),
		newBorrowCmd(a),
		newBorrowedCmd(a),
	)
	return root
}

// annotationNoStore marks a command that runs without opening the database.
const annotationNoStore = "library/no-store"

// needsStore reports whether cmd reads or writes the database. Shell
// completion and help never do.
func needsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[annotationNoStore]; ok {
			return false
		}
		switch c.Name() {
		case "completion", "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Root().PersistentFlags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	if !needsStore(cmd) {
		return nil
	}

	creds, err := library.NewCredentials(cfg.Auth.CredentialScheme, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	mgr, err := library.NewLibraryManager(cmd.Context(), cfg.Database.Path,
		library.WithLogger(log), library.WithCredentials(creds))
	if err != nil {
		return err
	}
	a.mgr = mgr
	return nil
}

func (a *app) close() error {
	if a.log != nil {
		defer a.log.Sync()
	}
	if a.mgr == nil {
		return nil
	}
	err := a.mgr.Close()
	a.mgr = nil
	return err
}

var errAdminRequired = errors.New("this command requires an admin account")

// login authenticates --username, prompting for the password when needed.
func (a *app) login(cmd *cobra.Command) (*library.User, error) {
	if a.username == "" {
		return nil, fmt.Errorf("%w: --username is required", library.ErrInvalidInput)
	}
	password := a.password
	if password == "" {
		var err error
		if password, err = readPassword(fmt.Sprintf("Password for %s: ", a.username)); err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
	}
	return a.mgr.Accounts().Authenticate(cmd.Context(), a.username, password)
}

func (a *app) loginAdmin(cmd *cobra.Command) (*library.User, error) {
	u, err := a.login(cmd)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, errAdminRequired
	}
	return u, nil
}

// readPassword securely reads a password with masking
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // Add newline after password input
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(bytePassword)), nil
}

// describeError turns a failure into the line shown to the operator.
func describeError(err error) string {
	switch {
	case errors.Is(err, library.ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, errAdminRequired):
		return "This command requires an admin account."
	case errors.Is(err, library.ErrLastAdminProtected):
		return "Cannot delete the last remaining admin."
	case errors.Is(err, library.ErrUserHasBorrows):
		return "Cannot delete: the user has borrowed books."
	case errors.Is(err, library.ErrBookBorrowed):
		return "Cannot delete: the book has been borrowed."
	case errors.Is(err, library.ErrBookUnavailable):
		return "That book is not available."
	case errors.Is(err, library.ErrUserNotFound):
		return "User not found."
	case errors.Is(err, library.ErrBookNotFound):
		return "Book not found."
	case errors.Is(err, library.ErrUsernameTaken):
		return "That username is already taken."
	case errors.Is(err, library.ErrInvalidField):
		return "Search field must be one of: title, author, category."
	case errors.Is(err, library.ErrInvalidInput):
		return fmt.Sprintf("Invalid input: %v", err)
	case errors.Is(err, library.ErrStoreUnavailable):
		return fmt.Sprintf("The library database is unavailable, please retry: %v", err)
	}
	return err.Error()
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s ID %q", library.ErrInvalidInput, kind, s)
	}
	return id, nil
}

// truncateString shortens s to at most maxLength runes.
func truncateString(s string, maxLength int) string {
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	r := []rune(s)
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}
