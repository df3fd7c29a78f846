package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"library-desk/config"
	"library-desk/library"
	"library-desk/logger"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	flags := pflag.NewFlagSet("import_books", pflag.ExitOnError)
	flags.String("db", "", "path to the SQLite database (env LMS_DATABASE_PATH)")
	flags.String("log-level", "", "log level (env LMS_LOG_LEVEL)")
	catalogPath := flags.String("catalog", "", "JSON catalog to import (env LMS_CATALOG_PATH)")
	reset := flags.Bool("reset", false, "remove the existing database files before importing")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *catalogPath == "" {
		*catalogPath = cfg.Catalog.Path
	}
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *reset {
		fmt.Println("Cleaning up existing database files...")
		for _, file := range []string{cfg.Database.Path, cfg.Database.Path + "-shm", cfg.Database.Path + "-wal"} {
			if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
				fmt.Printf("Warning: Could not remove %s: %v\n", file, err)
			}
		}
	}

	entries, err := library.LoadAutofillCatalog(*catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading catalog %s: %v\n", *catalogPath, err)
		os.Exit(1)
	}

	creds, err := library.NewCredentials(cfg.Auth.CredentialScheme, cfg.Auth.BcryptCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	manager, err := library.NewLibraryManager(ctx, cfg.Database.Path,
		library.WithLogger(log), library.WithCredentials(creds))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	fmt.Printf("Importing %d catalog entries from %s...\n", len(entries), *catalogPath)

	successCount, errorCount := 0, 0
	for _, e := range entries {
		fmt.Printf("Importing: %s by %s... ", e.Title, e.Author)
		bookID, err := manager.Catalog().AddBook(ctx, e.Title, e.Author, e.Category)
		if err != nil {
			fmt.Printf("ERROR - %v\n", err)
			log.Warn("skipped catalog entry", zap.String("title", e.Title), zap.Error(err))
			errorCount++
			continue
		}
		fmt.Printf("SUCCESS (ID: %d)\n", bookID)
		successCount++
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)

	if successCount == 0 {
		return
	}
	books, err := manager.Catalog().ListBooks(ctx)
	if err != nil {
		fmt.Printf("Error retrieving books: %v\n", err)
		return
	}
	fmt.Println("\nBooks in catalog:")
	fmt.Printf("%-3s %-50s %-30s\n", "ID", "Title", "Author")
	fmt.Println(strings.Repeat("-", 85))
	for _, book := range books {
		fmt.Printf("%-3d %-50s %-30s\n", book.ID, truncateString(book.Title, 50), truncateString(book.Author, 30))
	}
}

func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
