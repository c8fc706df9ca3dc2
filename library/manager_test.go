package library

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, opener Opener) *Manager {
	t.Helper()
	mgr, err := NewManager(Options{
		DBPath: filepath.Join(t.TempDir(), "lib.db"),
		Opener: opener,
	})
	require.NoError(t, err, "mgr")
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func TestNewManagerRejectsUnknownDigest(t *testing.T) {
	_, err := NewManager(Options{DBPath: filepath.Join(t.TempDir(), "lib.db"), Digest: "crc32"})
	assert.Error(t, err)
}

func TestEndToEndScenarios(t *testing.T) {
	opener := &fakeOpener{}
	mgr := newManager(t, opener)

	// Scenario 1: duplicate registration.
	alice, err := mgr.Credentials.Register("alice", "secret1")
	require.NoError(t, err)
	_, err = mgr.Credentials.Register("alice", "other")
	require.ErrorIs(t, err, ErrDuplicateUser)

	// Scenario 2: login.
	_, err = mgr.Credentials.Register("bob", "pw")
	require.NoError(t, err)
	bob, err := mgr.Credentials.Login("bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, "bob", bob.Nickname)
	_, err = mgr.Credentials.Login("bob", "wrong")
	require.ErrorIs(t, err, ErrAuthenticationFailed)

	// Scenario 3: owner-scoped listing.
	dune, err := mgr.Catalog.AddBook(bob, "Dune", "/tmp/dune.epub")
	require.NoError(t, err)
	books, err := mgr.Catalog.ListBooks(bob)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
	books, err = mgr.Catalog.ListBooks(alice)
	require.NoError(t, err)
	assert.Empty(t, books)

	// Scenario 4: alice cannot reach bob's book.
	_, err = mgr.Catalog.FindBook(alice, dune.ID)
	require.ErrorIs(t, err, ErrNotFound)

	again, err := mgr.User(bob.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.Nickname, again.Nickname)
}
