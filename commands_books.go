package main

import (
	"fmt"
	"io"
	"strings"

	"library-desk/library"

	"github.com/spf13/cobra"
)

func newBooksCmd(a *app) *cobra.Command {
	books := &cobra.Command{
		Use:   "books",
		Short: "Browse and manage the catalog",
	}
	books.AddCommand(
		newBooksListCmd(a),
		newBooksSearchCmd(a),
		newBooksSuggestCmd(a),
		newBooksAddCmd(a),
		newBooksUpdateCmd(a),
		newBooksDeleteCmd(a),
	)
	return books
}

func printBooks(out io.Writer, books []*library.Book) {
	fmt.Fprintf(out, "%-5s %-30s %-25s %-15s %-10s\n", "ID", "Title", "Author", "Category", "Available")
	fmt.Fprintln(out, strings.Repeat("-", 89))
	for _, b := range books {
		availStr := "Yes"
		if !b.Available {
			availStr = "No"
		}
		fmt.Fprintf(out, "%-5d %-30s %-25s %-15s %-10s\n",
			b.ID,
			truncateString(b.Title, 30),
			truncateString(b.Author, 25),
			truncateString(b.Category, 15),
			availStr)
	}
}

func newBooksListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			books, err := a.mgr.Catalog().ListBooks(cmd.Context())
			if err != nil {
				return err
			}
			if len(books) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No books in library.")
				return nil
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		},
	}
}

func newBooksSearchCmd(a *app) *cobra.Command {
	var fieldName string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Case-insensitive substring search on one field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := library.ParseSearchField(fieldName)
			if err != nil {
				return err
			}
			query := args[0]
			books, err := a.mgr.Catalog().SearchBooks(cmd.Context(), query, field)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(books) == 0 {
				fmt.Fprintf(out, "No books found matching '%s'.\n", query)
				return nil
			}
			fmt.Fprintf(out, "Found %d book(s) matching '%s':\n", len(books), query)
			printBooks(out, books)
			return nil
		},
	}
	cmd.Flags().StringVarP(&fieldName, "field", "f", string(library.FieldTitle), "field to match: title, author or category")
	return cmd
}

func newBooksSuggestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "suggest [keyword]",
		Short:       "Look up titles in the autofill catalog file",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := library.LoadAutofillCatalog(a.cfg.Catalog.Path)
			if err != nil {
				return fmt.Errorf("read catalog %s: %w", a.cfg.Catalog.Path, err)
			}
			keyword := ""
			if len(args) == 1 {
				keyword = args[0]
			}

			out := cmd.OutOrStdout()
			matches := library.SearchAutofill(entries, keyword)
			if len(matches) == 0 {
				fmt.Fprintln(out, "No catalog entries found.")
				return nil
			}
			fmt.Fprintf(out, "%-40s %-30s %-15s\n", "Title", "Author", "Category")
			fmt.Fprintln(out, strings.Repeat("-", 87))
			for _, e := range matches {
				fmt.Fprintf(out, "%-40s %-30s %-15s\n",
					truncateString(e.Title, 40), truncateString(e.Author, 30), truncateString(e.Category, 15))
			}
			return nil
		},
	}
}

func newBooksAddCmd(a *app) *cobra.Command {
	var title, author, category string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.loginAdmin(cmd); err != nil {
				return err
			}
			id, err := a.mgr.Catalog().AddBook(cmd.Context(), title, author, category)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added book ID %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "book title")
	cmd.Flags().StringVar(&author, "author", "", "book author")
	cmd.Flags().StringVar(&category, "category", "", "book category")
	return cmd
}

func newBooksUpdateCmd(a *app) *cobra.Command {
	var title, author, category string
	cmd := &cobra.Command{
		Use:   "update <book-id>",
		Short: "Change a book's title, author or category (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.loginAdmin(cmd); err != nil {
				return err
			}
			id, err := parseID("book", args[0])
			if err != nil {
				return err
			}

			var upd library.BookUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				upd.Title = &title
			}
			if flags.Changed("author") {
				upd.Author = &author
			}
			if flags.Changed("category") {
				upd.Category = &category
			}
			if err := a.mgr.Catalog().UpdateBook(cmd.Context(), id, upd); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated book %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&author, "author", "", "new author")
	cmd.Flags().StringVar(&category, "category", "", "new category")
	return cmd
}

func newBooksDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Delete a book (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.loginAdmin(cmd); err != nil {
				return err
			}
			id, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			if err := a.mgr.Catalog().DeleteBook(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted book %d\n", id)
			return nil
		},
	}
}
