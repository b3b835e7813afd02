package inbox

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFile holds gitignore-style patterns for files the inbox skips.
const IgnoreFile = ".rekindleignore"

// IgnoreMatcher wraps a gitignore pattern matcher.
type IgnoreMatcher struct {
	gi *gitignore.GitIgnore
}

// NewIgnoreMatcher loads .rekindleignore from the inbox directory.
// If no ignore file is found, the matcher accepts everything.
func NewIgnoreMatcher(dir string) *IgnoreMatcher {
	path := filepath.Join(dir, IgnoreFile)
	if _, err := os.Stat(path); err != nil {
		return &IgnoreMatcher{}
	}
	gi, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return &IgnoreMatcher{}
	}
	return &IgnoreMatcher{gi: gi}
}

// NewIgnoreMatcherFromLines compiles patterns given inline.
func NewIgnoreMatcherFromLines(lines ...string) *IgnoreMatcher {
	return &IgnoreMatcher{gi: gitignore.CompileIgnoreLines(lines...)}
}

// Match returns true if the given relative path should be ignored.
func (m *IgnoreMatcher) Match(relPath string) bool {
	if m.gi == nil {
		return false
	}
	return m.gi.MatchesPath(relPath)
}

// Directories the watcher manages itself.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

var hardIgnored = map[string]bool{
	ProcessedDir: true,
	FailedDir:    true,
	".git":       true,
}

// HardIgnore returns true if the directory name is always excluded.
func HardIgnore(name string) bool {
	return hardIgnored[name]
}

// shouldIgnore checks whether a path relative to the inbox is skipped.
func shouldIgnore(rel string, ignore *IgnoreMatcher) bool {
	for _, p := range strings.Split(rel, string(filepath.Separator)) {
		if HardIgnore(p) || strings.HasPrefix(p, ".") {
			return true
		}
	}
	return ignore.Match(rel)
}
