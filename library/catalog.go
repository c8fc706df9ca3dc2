package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// BookStore is the slice of Database the catalog needs.
type BookStore interface {
	InsertBook(title, path string, ownerID int64) (int64, error)
	ListBooks(ownerID int64) ([]*Book, error)
	FindBook(id, ownerID int64) (*Book, error)
	FindBooksByTitle(title string, ownerID int64) ([]*Book, error)
}

type bookInput struct {
	Title string `validate:"required"`
	Path  string `validate:"required"`
}

// Catalog is the owner-scoped view of the book table. Every method takes
// the authenticated user and never returns another user's books.
type Catalog struct {
	store    BookStore
	opener   Opener
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCatalog wires a catalog over store that opens books with opener.
func NewCatalog(store BookStore, opener Opener, logger *zap.Logger) *Catalog {
	return &Catalog{
		store:    store,
		opener:   opener,
		validate: validator.New(),
		logger:   logger.Named("catalog"),
	}
}

// AddBook records a reference to path under title for owner.
func (c *Catalog) AddBook(owner *User, title, path string) (*Book, error) {
	if err := c.validate.Struct(bookInput{Title: title, Path: path}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, describeValidation(err))
	}
	id, err := c.store.InsertBook(title, path, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("add book %q: %w", title, err)
	}
	c.logger.Debug("book added", zap.Int64("owner", owner.ID), zap.Int64("id", id), zap.String("path", path))
	return &Book{ID: id, Title: title, Path: path, OwnerID: owner.ID}, nil
}

// ListBooks returns owner's books.
func (c *Catalog) ListBooks(owner *User) ([]*Book, error) {
	return c.store.ListBooks(owner.ID)
}

// FindBook looks a book up by ID within owner's books.
func (c *Catalog) FindBook(owner *User, id int64) (*Book, error) {
	return c.store.FindBook(id, owner.ID)
}

// Lookup resolves key against owner's books. A key that parses as an
// integer is treated as an ID; anything else is matched exactly against
// titles and the first match wins.
func (c *Catalog) Lookup(owner *User, key string) (*Book, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrNotFound
	}
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		return c.store.FindBook(id, owner.ID)
	}
	books, err := c.store.FindBooksByTitle(key, owner.ID)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, ErrNotFound
	}
	return books[0], nil
}

// OpenBook resolves key and passes the stored path, verbatim, to the opener.
func (c *Catalog) OpenBook(owner *User, key string) (*Book, error) {
	b, err := c.Lookup(owner, key)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("opening book", zap.Int64("id", b.ID), zap.String("path", b.Path))
	if err := c.opener.Open(b.Path); err != nil {
		return b, fmt.Errorf("open %q: %w", b.Title, err)
	}
	return b, nil
}

// VerifyPath reports ErrMissingFile when nothing exists at path. Front-ends
// call it before AddBook; the store itself never checks.
func VerifyPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: empty path", ErrMissingFile)
	}
	if _, err := os.Stat(filepath.Clean(path)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return err
	}
	return nil
}
