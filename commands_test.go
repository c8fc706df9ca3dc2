package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/library"
)

func execute(t *testing.T, db, stdin string, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", db}, args...))
	err := root.Execute()
	require.NoError(t, a.close())
	return out.String(), err
}

func TestRegisterAddList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "books.db")
	book := filepath.Join(t.TempDir(), "dune.epub")
	require.NoError(t, os.WriteFile(book, []byte("epub"), 0o644))

	out, err := execute(t, db, "pw\npw\n", "register", "--user", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered bob (ID 1)")

	_, err = execute(t, db, "pw\npw\n", "register", "--user", "bob")
	assert.ErrorIs(t, err, library.ErrDuplicateUser)

	_, err = execute(t, db, "pw\n", "add", "-u", "bob", "-t", "Dune", "-p", book+".missing")
	assert.ErrorIs(t, err, library.ErrMissingFile)

	out, err = execute(t, db, "pw\n", "add", "-u", "bob", "-t", "Dune", "-p", book)
	require.NoError(t, err)
	assert.Contains(t, out, "Added book 1")

	out, err = execute(t, db, "pw\n", "list", "-u", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "1\tDune\t"+book)

	_, err = execute(t, db, "wrong\n", "list", "-u", "bob")
	assert.ErrorIs(t, err, library.ErrAuthenticationFailed)
}

func TestRegisterMismatch(t *testing.T) {
	db := filepath.Join(t.TempDir(), "books.db")
	_, err := execute(t, db, "one\ntwo\n", "register", "--user", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passwords do not match")
}

func TestUserFlagRequired(t *testing.T) {
	db := filepath.Join(t.TempDir(), "books.db")
	_, err := execute(t, db, "", "list")
	assert.Error(t, err)
}

func TestOpenUsesViewer(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("no 'true' binary on PATH")
	}
	db := filepath.Join(t.TempDir(), "books.db")
	_, err := execute(t, db, "pw\npw\n", "register", "-u", "bob")
	require.NoError(t, err)
	_, err = execute(t, db, "pw\n", "add", "-u", "bob", "-t", "Dune", "-p", db)
	require.NoError(t, err)

	out, err := execute(t, db, "pw\n", "--viewer", "true", "open", "-u", "bob", "Dune")
	require.NoError(t, err)
	assert.Contains(t, out, "Opened \"Dune\"")

	_, err = execute(t, db, "pw\n", "--viewer", "true", "open", "-u", "bob", "7")
	assert.ErrorIs(t, err, library.ErrNotFound)
}

func TestInteractiveShell(t *testing.T) {
	db := filepath.Join(t.TempDir(), "books.db")
	out, err := execute(t, db, "register\ncarol\nx\nx\nlist\nexit\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello, carol!")
	assert.Contains(t, out, "You have no books yet.")
}
