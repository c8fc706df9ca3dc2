package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
)

// Database owns the SQLite connection holding users and their books.
type Database struct {
	db *sql.DB

	insertUserStmt *sql.Stmt
	insertBookStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, creates the
// schema if needed, and prepares the insert statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One process, one caller at a time.
	db.SetMaxOpenConns(1)

	database := &Database{db: db}
	if err := database.CreateSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.insertUserStmt != nil {
		d.insertUserStmt.Close()
	}
	if d.insertBookStmt != nil {
		d.insertBookStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

const schemaVersion = 1

// CreateSchema ensures the Users and Books tables exist. Running it against
// an up-to-date database is a no-op. Table layout is compatible with
// catalogs created by earlier releases, which had no meta table.
func (d *Database) CreateSchema() error {
	if _, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return fmt.Errorf("create meta: %w", err)
	}

	var current int
	_ = d.db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS Users (
            id INTEGER PRIMARY KEY,
            nickname TEXT UNIQUE,
            password TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS Books (
            id INTEGER PRIMARY KEY,
            title TEXT,
            path TEXT,
            user_id INTEGER,
            FOREIGN KEY(user_id) REFERENCES Users(id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_books_user ON Books(user_id);`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

func (d *Database) prepareStatements() error {
	var err error
	if d.insertUserStmt, err = d.db.Prepare(`INSERT INTO Users(nickname,password) VALUES(?,?)`); err != nil {
		return err
	}
	if d.insertBookStmt, err = d.db.Prepare(`INSERT INTO Books(title,path,user_id) VALUES(?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// InsertUser stores a new user and returns its ID. A nickname that already
// exists yields ErrDuplicateUser and leaves the existing row untouched.
func (d *Database) InsertUser(nickname, digest string) (int64, error) {
	res, err := d.insertUserStmt.Exec(nickname, digest)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return 0, fmt.Errorf("insert user %q: %w", nickname, ErrDuplicateUser)
		}
		return 0, err
	}
	return res.LastInsertId()
}

// FindUser returns the user whose nickname and digest both match.
func (d *Database) FindUser(nickname, digest string) (*User, error) {
	var u User
	err := d.db.QueryRow(`SELECT id,nickname,password FROM Users WHERE nickname=? AND password=?`, nickname, digest).
		Scan(&u.ID, &u.Nickname, &u.PasswordDigest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser fetches a user by ID.
func (d *Database) GetUser(id int64) (*User, error) {
	var u User
	err := d.db.QueryRow(`SELECT id,nickname,password FROM Users WHERE id=?`, id).
		Scan(&u.ID, &u.Nickname, &u.PasswordDigest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

// InsertBook records a book reference for ownerID. The path is stored as
// given; whether it exists is the caller's concern.
func (d *Database) InsertBook(title, path string, ownerID int64) (int64, error) {
	res, err := d.insertBookStmt.Exec(title, path, ownerID)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
			return 0, fmt.Errorf("insert book for user %d: %w", ownerID, ErrUnknownOwner)
		}
		return 0, err
	}
	return res.LastInsertId()
}

// ListBooks returns every book owned by ownerID.
func (d *Database) ListBooks(ownerID int64) ([]*Book, error) {
	return d.queryBooks(`SELECT id,title,path,user_id FROM Books WHERE user_id=? ORDER BY id`, ownerID)
}

// FindBook returns the book with the given ID if, and only if, it belongs
// to ownerID.
func (d *Database) FindBook(id, ownerID int64) (*Book, error) {
	var b Book
	err := d.db.QueryRow(`SELECT id,title,path,user_id FROM Books WHERE id=? AND user_id=?`, id, ownerID).
		Scan(&b.ID, &b.Title, &b.Path, &b.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// FindBooksByTitle returns ownerID's books whose title matches exactly.
func (d *Database) FindBooksByTitle(title string, ownerID int64) ([]*Book, error) {
	return d.queryBooks(`SELECT id,title,path,user_id FROM Books WHERE title=? AND user_id=? ORDER BY id`, title, ownerID)
}

func (d *Database) queryBooks(query string, args ...any) ([]*Book, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Path, &b.OwnerID); err != nil {
			return nil, err
		}
		books = append(books, &b)
	}
	return books, rows.Err()
}

func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == code
}
