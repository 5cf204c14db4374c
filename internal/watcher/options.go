package watcher

import (
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// DefaultSettleDelay is how long a file's size and mtime must stay put
// before its change is reported.
const DefaultSettleDelay = 100 * time.Millisecond

// defaultIgnorePatterns match OS litter and partial downloads that share a
// directory with sidecars.
var defaultIgnorePatterns = []string{
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
	"*.tmp",
	"*.part",
	"*.crdownload",
}

// Options configures the file watcher.
type Options struct {
	// IgnorePatterns are filepath.Match globs tested against the base name.
	// Nil selects the defaults and turns IgnoreHidden on.
	IgnorePatterns []string
	SettleDelay    time.Duration
	// IgnoreHidden skips dotfiles and anything inside a dot directory.
	IgnoreHidden bool
}

func (o *Options) setDefaults() {
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = defaultIgnorePatterns
		o.IgnoreHidden = true
	}
}

func (o *Options) shouldIgnore(path string) bool {
	if o.IgnoreHidden && isHidden(path) {
		return true
	}
	base := filepath.Base(path)
	return slices.ContainsFunc(o.IgnorePatterns, func(pattern string) bool {
		matched, err := filepath.Match(pattern, base)
		return err == nil && matched
	})
}

func isHidden(path string) bool {
	for part := range strings.SplitSeq(filepath.Clean(path), string(filepath.Separator)) {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}
