// Package vcs provides the git lookups used to stamp scoring results.
package vcs

import (
	"errors"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ShortHashLength is the number of hex digits in a short commit hash.
const ShortHashLength = 7

// Repository is the subset of a git repository qscore reads.
type Repository interface {
	// Head returns the hash of the HEAD commit.
	Head() (plumbing.Hash, error)
	// RepoPath returns the root path of the work tree.
	RepoPath() string
}

// Opener opens git repositories.
type Opener interface {
	// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
	PlainOpenWithDetect(path string) (Repository, error)
}

// GitOpener opens git repositories using go-git.
type GitOpener struct{}

// NewGitOpener creates a new GitOpener.
func NewGitOpener() *GitOpener {
	return &GitOpener{}
}

// DefaultOpener returns the go-git opener.
func DefaultOpener() Opener {
	return NewGitOpener()
}

// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
func (o *GitOpener) PlainOpenWithDetect(path string) (Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, err
	}
	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &gitRepository{repo: repo, root: root}, nil
}

// gitRepository wraps go-git Repository.
type gitRepository struct {
	repo *git.Repository
	root string
}

func (r *gitRepository) Head() (plumbing.Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

func (r *gitRepository) RepoPath() string {
	return r.root
}

// HeadCommit returns the short hash of HEAD for the repository containing
// path, or "" when path is not inside a repository or HEAD has no commit.
func HeadCommit(opener Opener, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	repo, err := opener.PlainOpenWithDetect(abs)
	if err != nil {
		return ""
	}
	hash, err := repo.Head()
	if err != nil || hash.IsZero() {
		return ""
	}
	return ShortHash(hash.String())
}

// RepoRoot returns the work tree root containing path.
func RepoRoot(opener Opener, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	repo, err := opener.PlainOpenWithDetect(abs)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", ErrNotRepository
		}
		return "", err
	}
	return repo.RepoPath(), nil
}

// ErrNotRepository is returned when a path is outside any git repository.
var ErrNotRepository = errors.New("not a git repository (or any parent)")

// ShortHash truncates a hex hash to ShortHashLength digits.
func ShortHash(hash string) string {
	if len(hash) <= ShortHashLength {
		return hash
	}
	return hash[:ShortHashLength]
}
