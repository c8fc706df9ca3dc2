package shell

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/library"
)

type harness struct {
	mgr    *library.Manager
	opened []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{}
	mgr, err := library.NewManager(library.Options{
		DBPath: filepath.Join(t.TempDir(), "books.db"),
		Opener: library.OpenerFunc(func(path string) error {
			h.opened = append(h.opened, path)
			return nil
		}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	h.mgr = mgr
	return h
}

// run feeds lines to a fresh shell and returns its output.
func (h *harness) run(t *testing.T, lines ...string) (string, *Shell) {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	sh := New(in, &out, h.mgr.Credentials, h.mgr.Catalog, Config{TitleWidth: 20})
	require.NoError(t, sh.Run())
	return out.String(), sh
}

func writeBook(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("book"), 0o644))
	return path
}

func TestRegisterThenDuplicate(t *testing.T) {
	h := newHarness(t)

	out, sh := h.run(t, "register", "alice", "secret1", "secret1")
	assert.Contains(t, out, "Hello, alice!")
	require.NotNil(t, sh.User())

	out, sh = h.run(t, "register", "alice", "other", "other")
	assert.Contains(t, out, "already exists")
	assert.Nil(t, sh.User())
}

func TestRegisterPasswordMismatch(t *testing.T) {
	h := newHarness(t)
	out, sh := h.run(t, "register", "alice", "one", "two")
	assert.Contains(t, out, "Passwords do not match.")
	assert.Nil(t, sh.User())

	_, err := h.mgr.Credentials.Login("alice", "one")
	assert.ErrorIs(t, err, library.ErrAuthenticationFailed)
}

func TestLoginRetry(t *testing.T) {
	h := newHarness(t)
	_, err := h.mgr.Credentials.Register("bob", "pw")
	require.NoError(t, err)

	out, sh := h.run(t, "login", "bob", "wrong", "login", "bob", "pw")
	assert.Contains(t, out, "Wrong username or password")
	assert.Contains(t, out, "Hello, bob!")
	require.NotNil(t, sh.User())
	assert.Equal(t, "bob", sh.User().Nickname)
}

func TestCatalogRequiresLogin(t *testing.T) {
	h := newHarness(t)
	out, _ := h.run(t, "list books", "exit")
	assert.Contains(t, out, "Please log in or register first.")
	assert.Contains(t, out, "Goodbye!")
}

func TestAddListOpen(t *testing.T) {
	h := newHarness(t)
	_, err := h.mgr.Credentials.Register("bob", "pw")
	require.NoError(t, err)
	dune := writeBook(t, "dune.epub")

	out, _ := h.run(t,
		"login", "bob", "pw",
		"add book", "Dune", "/definitely/not/here.epub", "Dune", dune,
		"list books",
		"open book", "Missing", "Dune",
		"exit",
	)

	assert.Contains(t, out, "There is no file at that path.")
	assert.Contains(t, out, "Added book 1: \"Dune\"")
	assert.Contains(t, out, "No such book in your catalog.")
	assert.Contains(t, out, "Opening \"Dune\"...")
	assert.Equal(t, []string{dune}, h.opened)
}

func TestAddBookCancel(t *testing.T) {
	h := newHarness(t)
	bob, err := h.mgr.Credentials.Register("bob", "pw")
	require.NoError(t, err)

	_, _ = h.run(t, "login", "bob", "pw", "1", "0", "2", "4")
	books, err := h.mgr.Catalog.ListBooks(bob)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestOtherUsersBooksHidden(t *testing.T) {
	h := newHarness(t)
	bob, err := h.mgr.Credentials.Register("bob", "pw")
	require.NoError(t, err)
	_, err = h.mgr.Credentials.Register("alice", "secret1")
	require.NoError(t, err)
	_, err = h.mgr.Catalog.AddBook(bob, "Dune", "/tmp/dune.epub")
	require.NoError(t, err)

	out, _ := h.run(t, "login", "alice", "secret1", "list", "open", "exit")
	assert.NotContains(t, out, "Dune")
	assert.Contains(t, out, "You have no books yet.")
	assert.Empty(t, h.opened)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	_, err := h.mgr.Credentials.Register("bob", "pw")
	require.NoError(t, err)

	out, sh := h.run(t, "login", "bob", "pw", "logout", "list")
	assert.Contains(t, out, "Logged out bob.")
	assert.Contains(t, out, "Please log in or register first.")
	assert.Nil(t, sh.User())
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "a long ...", truncateString("a long title here", 10))
	assert.Equal(t, "Вой", truncateString("Война и мир", 3))
}
