package library

import (
	"go.uber.org/zap"
)

// Options configures a Manager.
type Options struct {
	DBPath string
	Digest string
	Opener Opener
	Logger *zap.Logger
}

// Manager bundles the database with the services built on it, so
// front-ends only need one value.
type Manager struct {
	db *Database

	Credentials *Credentials
	Catalog     *Catalog
}

// NewManager opens (or creates) the SQLite database at opts.DBPath and
// wires the credential and catalog services over it.
func NewManager(opts Options) (*Manager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	digester, err := NewDigester(opts.Digest)
	if err != nil {
		return nil, err
	}
	db, err := NewDatabase(opts.DBPath)
	if err != nil {
		return nil, err
	}
	opener := opts.Opener
	if opener == nil {
		opener = CommandOpener{Command: "okular"}
	}

	logger.Debug("catalog opened", zap.String("db", opts.DBPath), zap.String("digest", digester.Algorithm()))
	return &Manager{
		db:          db,
		Credentials: NewCredentials(db, digester, logger),
		Catalog:     NewCatalog(db, opener, logger),
	}, nil
}

// Close closes the underlying database.
func (m *Manager) Close() error { return m.db.Close() }

// User re-reads a user by ID.
func (m *Manager) User(id int64) (*User, error) { return m.db.GetUser(id) }
