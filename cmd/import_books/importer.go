package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"bookshelf/library"
)

type importer struct {
	catalog    *library.Catalog
	extensions []string
	out        io.Writer
}

type importResult struct {
	added, skipped, failed int
}

// run adds each regular file in dir whose extension is allowed, titled by
// its file name without extension. Files already in the user's catalog
// under the same path are skipped.
func (imp *importer) run(user *library.User, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading books directory: %w", err)
	}

	existing, err := imp.catalog.ListBooks(user)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, b := range existing {
		known[b.Path] = true
	}

	fmt.Fprintf(imp.out, "Importing books from %s for %s...\n", dir, user.Nickname)
	var res importResult
	for _, entry := range entries {
		if entry.IsDir() || !imp.allowed(entry.Name()) {
			continue
		}

		path, err := filepath.Abs(filepath.Join(dir, entry.Name()))
		if err != nil {
			fmt.Fprintf(imp.out, "ERROR - %s: %v\n", entry.Name(), err)
			res.failed++
			continue
		}
		if known[path] {
			res.skipped++
			continue
		}
		title := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))

		fmt.Fprintf(imp.out, "Importing: %s... ", title)
		if err := library.VerifyPath(path); err != nil {
			fmt.Fprintf(imp.out, "ERROR - %v\n", err)
			res.failed++
			continue
		}
		b, err := imp.catalog.AddBook(user, title, path)
		if err != nil {
			fmt.Fprintf(imp.out, "ERROR - %v\n", err)
			res.failed++
			continue
		}
		fmt.Fprintf(imp.out, "SUCCESS (ID: %d)\n", b.ID)
		known[path] = true
		res.added++
	}

	fmt.Fprintf(imp.out, "\nImport complete!\n")
	fmt.Fprintf(imp.out, "Successfully imported: %d books\n", res.added)
	fmt.Fprintf(imp.out, "Already present: %d\n", res.skipped)
	fmt.Fprintf(imp.out, "Errors: %d\n", res.failed)

	if res.added == 0 {
		return nil
	}
	books, err := imp.catalog.ListBooks(user)
	if err != nil {
		fmt.Fprintf(imp.out, "Error retrieving books: %v\n", err)
		return nil
	}
	fmt.Fprintln(imp.out, "\nYour books:")
	fmt.Fprintf(imp.out, "%-4s %-50s\n", "ID", "Title")
	fmt.Fprintln(imp.out, strings.Repeat("-", 55))
	for _, b := range books {
		fmt.Fprintf(imp.out, "%-4d %-50s\n", b.ID, truncateString(b.Title, 50))
	}
	return nil
}

func (imp *importer) allowed(name string) bool {
	return slices.Contains(imp.extensions, strings.ToLower(filepath.Ext(name)))
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
