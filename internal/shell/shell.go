// Package shell is the line-prompt front-end: it reads commands from an
// input stream, drives the credential and catalog services, and writes
// plain-text results.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"bookshelf/library"
)

// Config holds rendering settings.
type Config struct {
	Prompt     string
	TitleWidth int
}

// PasswordReader prints prompt and returns a password typed by the user.
type PasswordReader func(prompt string) (string, error)

// Shell is one interactive session. It starts anonymous; a successful
// register or login authenticates it.
type Shell struct {
	sc      *bufio.Scanner
	out     io.Writer
	creds   *library.Credentials
	catalog *library.Catalog
	cfg     Config

	// ReadPassword defaults to reading a plain line from the input.
	ReadPassword PasswordReader

	user *library.User
}

// New creates a shell reading from in and writing to out.
func New(in io.Reader, out io.Writer, creds *library.Credentials, catalog *library.Catalog, cfg Config) *Shell {
	if cfg.Prompt == "" {
		cfg.Prompt = "> "
	}
	if cfg.TitleWidth <= 0 {
		cfg.TitleWidth = 40
	}
	s := &Shell{
		sc:      bufio.NewScanner(in),
		out:     out,
		creds:   creds,
		catalog: catalog,
		cfg:     cfg,
	}
	s.ReadPassword = s.readLinePassword
	return s
}

// User returns the authenticated user, or nil.
func (s *Shell) User() *library.User { return s.user }

// Run processes commands until "exit" or end of input.
func (s *Shell) Run() error {
	s.println("Welcome to your bookshelf.")
	s.printAnonymousHelp()

	for {
		fmt.Fprintf(s.out, "\n%s", s.cfg.Prompt)
		if !s.sc.Scan() {
			break
		}
		cmd := strings.ToLower(strings.TrimSpace(s.sc.Text()))
		if cmd == "" {
			continue
		}
		if cmd == "exit" || cmd == "quit" {
			s.println("Goodbye!")
			return nil
		}

		if s.user == nil {
			s.dispatchAnonymous(cmd)
		} else if done := s.dispatchAuthenticated(cmd); done {
			s.println("Goodbye!")
			return nil
		}
	}
	return s.sc.Err()
}

func (s *Shell) dispatchAnonymous(cmd string) {
	switch cmd {
	case "register", "0":
		s.handleRegister()
	case "login", "1":
		s.handleLogin()
	case "help":
		s.printAnonymousHelp()
	default:
		s.println("Please log in or register first. Type 'help' for commands.")
	}
}

// dispatchAuthenticated reports whether the session should end.
func (s *Shell) dispatchAuthenticated(cmd string) bool {
	switch cmd {
	case "add book", "add", "1":
		s.handleAddBook()
	case "list books", "list", "2":
		s.handleListBooks()
	case "open book", "open", "3":
		s.handleOpenBook()
	case "4":
		return true
	case "help", "5":
		s.printMenu()
	case "logout":
		s.printf("Logged out %s.\n", s.user.Nickname)
		s.user = nil
		s.printAnonymousHelp()
	default:
		s.println("Unknown command. Type 'help' to see the menu.")
	}
	return false
}

func (s *Shell) printAnonymousHelp() {
	s.println("Available commands:")
	s.println("  register (0), login (1), exit")
}

func (s *Shell) printMenu() {
	s.println("Available commands:")
	s.println("  1 - add book     Add a book file to your catalog")
	s.println("  2 - list books   Show all your books")
	s.println("  3 - open book    Open a book by ID or title")
	s.println("  4 - exit         Leave the application")
	s.println("  5 - help         Show this menu")
	s.println("  logout           Return to the login screen")
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

func (s *Shell) handleRegister() {
	nickname, ok := s.ask("Username: ")
	if !ok {
		return
	}
	password, err := s.ReadPassword("Password: ")
	if err != nil {
		s.printf("Error reading password: %v\n", err)
		return
	}
	confirm, err := s.ReadPassword("Repeat password: ")
	if err != nil {
		s.printf("Error reading password: %v\n", err)
		return
	}
	if password != confirm {
		s.println("Passwords do not match.")
		return
	}

	u, err := s.creds.Register(nickname, password)
	switch {
	case errors.Is(err, library.ErrDuplicateUser):
		s.println("A user with that name already exists.")
	case err != nil:
		s.printf("Error: %v\n", err)
	default:
		s.signIn(u)
	}
}

func (s *Shell) handleLogin() {
	nickname, ok := s.ask("Username: ")
	if !ok {
		return
	}
	password, err := s.ReadPassword("Password: ")
	if err != nil {
		s.printf("Error reading password: %v\n", err)
		return
	}

	u, err := s.creds.Login(nickname, password)
	switch {
	case errors.Is(err, library.ErrAuthenticationFailed):
		s.println("Wrong username or password. Type 'login' to try again.")
	case err != nil:
		s.printf("Error: %v\n", err)
	default:
		s.signIn(u)
	}
}

func (s *Shell) signIn(u *library.User) {
	s.user = u
	s.printf("Hello, %s!\n", u.Nickname)
	s.printMenu()
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// handleAddBook asks for a title and a path until the path exists. A title
// of "0" (or empty) returns to the menu.
func (s *Shell) handleAddBook() {
	for {
		title, ok := s.ask("Title (0 to cancel): ")
		if !ok || title == "" || title == "0" {
			return
		}
		path, ok := s.ask("Path to file: ")
		if !ok {
			return
		}

		if err := library.VerifyPath(path); err != nil {
			if errors.Is(err, library.ErrMissingFile) {
				s.println("There is no file at that path. Try again, or enter 0 to go back.")
				continue
			}
			s.printf("File error: %v\n", err)
			return
		}

		b, err := s.catalog.AddBook(s.user, title, path)
		if err != nil {
			s.printf("Error adding book: %v\n", err)
			return
		}
		s.printf("Added book %d: %q (%s)\n", b.ID, b.Title, b.Path)
		return
	}
}

func (s *Shell) handleListBooks() {
	books, err := s.catalog.ListBooks(s.user)
	if err != nil {
		s.printf("Error retrieving books: %v\n", err)
		return
	}
	s.renderBooks(books)
}

// handleOpenBook lists the user's books and opens the one named by ID or
// title, re-prompting until a match is found or the user enters 0.
func (s *Shell) handleOpenBook() {
	books, err := s.catalog.ListBooks(s.user)
	if err != nil {
		s.printf("Error retrieving books: %v\n", err)
		return
	}
	if len(books) == 0 {
		s.println("You have no books yet. Use 'add book' first.")
		return
	}
	s.renderBooks(books)

	for {
		key, ok := s.ask("Book ID or title (0 to cancel): ")
		if !ok || key == "0" {
			return
		}
		b, err := s.catalog.OpenBook(s.user, key)
		if errors.Is(err, library.ErrNotFound) {
			s.println("No such book in your catalog.")
			continue
		}
		if err != nil {
			s.printf("Error opening book: %v\n", err)
			return
		}
		s.printf("Opening %q...\n", b.Title)
		return
	}
}

func (s *Shell) renderBooks(books []*library.Book) {
	if len(books) == 0 {
		s.println("You have no books yet.")
		return
	}
	s.printf("%-5s %s\n", "ID", "Title")
	s.println(strings.Repeat("-", s.cfg.TitleWidth+6))
	for _, b := range books {
		s.printf("%-5d %s\n", b.ID, truncateString(b.Title, s.cfg.TitleWidth))
	}
}

// ---------------------------------------------------------------------------
// I/O helpers
// ---------------------------------------------------------------------------

// ask prints prompt and reads one trimmed line. ok is false at end of input.
func (s *Shell) ask(prompt string) (string, bool) {
	fmt.Fprint(s.out, prompt)
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.sc.Text()), true
}

func (s *Shell) readLinePassword(prompt string) (string, error) {
	line, ok := s.ask(prompt)
	if !ok {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return line, nil
}

func (s *Shell) println(a ...any)               { fmt.Fprintln(s.out, a...) }
func (s *Shell) printf(format string, a ...any) { fmt.Fprintf(s.out, format, a...) }

func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}
