package main

import (
	"fmt"
	"strings"

	"library-desk/library"

	"github.com/spf13/cobra"
)

func newBorrowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <book-id>",
		Short: "Borrow an available book as --username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.login(cmd)
			if err != nil {
				return err
			}
			bookID, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			recordID, err := a.mgr.Borrowing().BorrowBook(cmd.Context(), u.ID, bookID)
			if err != nil {
				return err
			}

			book, err := a.mgr.Catalog().GetBook(cmd.Context(), bookID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Book '%s' borrowed by %s (record %d)\n", book.Title, u.Username, recordID)
			return nil
		},
	}
}

func newBorrowedCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "borrowed",
		Short: "Show your borrow history, or everyone's with --all (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.login(cmd)
			if err != nil {
				return err
			}

			var entries []*library.BorrowEntry
			if all {
				if !u.IsAdmin() {
					return errAdminRequired
				}
				entries, err = a.mgr.Borrowing().ListBorrowed(cmd.Context())
			} else {
				entries, err = a.mgr.Borrowing().ListBorrowedByUser(cmd.Context(), u.ID)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No borrowed books.")
				return nil
			}
			fmt.Fprintf(out, "%-5s %-20s %-30s %-25s %-10s\n", "ID", "User", "Title", "Author", "Date")
			fmt.Fprintln(out, strings.Repeat("-", 94))
			for _, e := range entries {
				fmt.Fprintf(out, "%-5d %-20s %-30s %-25s %-10s\n",
					e.ID,
					truncateString(e.Username, 20),
					truncateString(e.Title, 30),
					truncateString(e.Author, 25),
					e.BorrowDate)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every user's records (admin)")
	return cmd
}
