package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/qscore/pkg/config"
)

// Scanner finds source files in a directory.
type Scanner struct {
	config     *config.Config
	extensions map[string]bool
	dirs       map[string]bool
	matchers   []gitignore.Matcher
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithExtensions limits results to files with these extensions. An empty
// list accepts every file.
func WithExtensions(exts []string) Option {
	return func(s *Scanner) {
		s.extensions = extensionSet(exts)
	}
}

// NewScanner creates a new file scanner. By default it accepts the
// extensions custom rules apply to.
func NewScanner(cfg *config.Config, opts ...Option) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Scanner{
		config:     cfg,
		extensions: extensionSet(cfg.Rules.FileExtensions),
		dirs:       make(map[string]bool, len(cfg.Exclude.Dirs)),
	}
	for _, d := range cfg.Exclude.Dirs {
		s.dirs[d] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func extensionSet(exts []string) map[string]bool {
	if len(exts) == 0 {
		return nil
	}
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = true
	}
	return set
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns loads exclusion patterns from both config and .gitignore files.
// Config patterns are parsed as gitignore patterns; .gitignore files are read
// from the repository root, or from root itself outside a repository.
func (s *Scanner) loadExcludePatterns(root string) {
	s.matchers = nil
	var patterns []gitignore.Pattern

	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}

	if s.config.Exclude.Gitignore {
		base := findGitRoot(root)
		if base == "" {
			base = root
		}
		if gitPatterns, err := gitignore.ReadPatterns(osfs.New(base), nil); err == nil {
			if rel, err := filepath.Rel(base, root); err == nil && rel != "." {
				gitPatterns = rebase(gitPatterns, base, root)
			}
			patterns = append(patterns, gitPatterns...)
		}
	}

	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}
}

// rebase keeps matching gitignore patterns read at base for paths relative to root.
func rebase(patterns []gitignore.Pattern, base, root string) []gitignore.Pattern {
	rel, _ := filepath.Rel(base, root)
	prefix := strings.Split(rel, string(filepath.Separator))
	out := make([]gitignore.Pattern, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, prefixed{Pattern: p, prefix: prefix})
	}
	return out
}

type prefixed struct {
	gitignore.Pattern
	prefix []string
}

func (p prefixed) Match(path []string, isDir bool) gitignore.MatchResult {
	full := make([]string, 0, len(p.prefix)+len(path))
	full = append(full, p.prefix...)
	full = append(full, path...)
	return p.Pattern.Match(full, isDir)
}

// isExcluded checks if a path matches any exclusion pattern.
func (s *Scanner) isExcluded(path string, isDir bool) bool {
	pathParts := strings.Split(path, string(filepath.Separator))
	if isDir && s.dirs[pathParts[len(pathParts)-1]] {
		return true
	}
	for _, m := range s.matchers {
		if m.Match(pathParts, isDir) {
			return true
		}
	}
	return false
}

// accepts reports whether a file's extension is wanted.
func (s *Scanner) accepts(path string) bool {
	if s.extensions == nil {
		return true
	}
	return s.extensions[strings.ToLower(filepath.Ext(path))]
}

// ScanDir recursively scans a directory for source files, in lexical order.
// Symlinks that resolve outside root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &ScanError{Path: root, Err: err}
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, &ScanError{Path: root, Err: err}
	}

	s.loadExcludePatterns(absRoot)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		if relPath == "." {
			return nil
		}

		// Security: validate path stays within root (prevent symlink traversal)
		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if s.isExcluded(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(relPath, false) || !s.accepts(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return nil, &ScanError{Path: root, Err: walkErr}
	}

	return files, nil
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ScanFile checks if a single file should be analyzed.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}

	if s.matchers == nil {
		s.loadExcludePatterns(filepath.Dir(path))
	}
	if s.isExcluded(filepath.Base(path), false) {
		return false, nil
	}
	return s.accepts(path), nil
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan directory " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
