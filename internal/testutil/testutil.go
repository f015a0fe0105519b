// Package testutil holds fixtures shared by package tests: site trees on
// disk and throwaway git repositories.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// WriteTree creates files (slash paths relative to a fresh temp dir) and
// returns the directory.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	WriteFiles(t, root, files)
	return root
}

// WriteFiles writes files below root, creating parent directories.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

// ReadFile returns the content of a file below root.
func ReadFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

// InitRepo initializes an empty repository in a temp dir.
func InitRepo(t *testing.T) (*git.Worktree, string) {
	t.Helper()
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return wt, root
}

// Commit writes rel with body and commits it with author and committer
// time when.
func Commit(t *testing.T, wt *git.Worktree, root, rel, body string, when time.Time) {
	t.Helper()
	WriteFiles(t, root, map[string]string{rel: body})
	_, err := wt.Add(rel)
	require.NoError(t, err)
	sig := &object.Signature{Name: "test", Email: "test@example.com", When: when}
	_, err = wt.Commit("update "+rel, &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)
}
