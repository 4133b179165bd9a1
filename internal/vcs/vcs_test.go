package vcs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, plumbing.Hash) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.ts"), []byte("export {}\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("app.ts")
	require.NoError(t, err)

	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, hash
}

type fakeRepo struct {
	hash plumbing.Hash
	err  error
}

func (f fakeRepo) Head() (plumbing.Hash, error) { return f.hash, f.err }
func (f fakeRepo) RepoPath() string             { return "/fake" }

type fakeOpener struct {
	repo Repository
	err  error
}

func (f fakeOpener) PlainOpenWithDetect(string) (Repository, error) { return f.repo, f.err }

func TestHeadCommit(t *testing.T) {
	dir, hash := initRepo(t)

	got := HeadCommit(DefaultOpener(), dir)

	assert.Equal(t, hash.String()[:ShortHashLength], got)
}

func TestHeadCommit_Subdirectory(t *testing.T) {
	dir, hash := initRepo(t)
	sub := filepath.Join(dir, "src", "lib")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	assert.Equal(t, ShortHash(hash.String()), HeadCommit(DefaultOpener(), sub))
}

func TestHeadCommit_NotARepository(t *testing.T) {
	assert.Empty(t, HeadCommit(fakeOpener{err: git.ErrRepositoryNotExists}, t.TempDir()))
}

func TestHeadCommit_NoCommits(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	assert.Empty(t, HeadCommit(DefaultOpener(), dir))
}

func TestHeadCommit_Fake(t *testing.T) {
	hash := plumbing.NewHash("0123456789abcdef0123456789abcdef01234567")

	assert.Equal(t, "0123456", HeadCommit(fakeOpener{repo: fakeRepo{hash: hash}}, "."))
	assert.Empty(t, HeadCommit(fakeOpener{repo: fakeRepo{err: errors.New("broken")}}, "."))
}

func TestRepoRoot(t *testing.T) {
	dir, _ := initRepo(t)
	sub := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	root, err := RepoRoot(DefaultOpener(), sub)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = RepoRoot(fakeOpener{err: git.ErrRepositoryNotExists}, ".")
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "abc", ShortHash("abc"))
	assert.Equal(t, "abcdef0", ShortHash("abcdef0123"))
}
