package scanner

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// Walker traverses a scan path and streams the sidecar files it finds.
type Walker struct {
	logger *slog.Logger
}

// NewWalker creates a new walker.
func NewWalker(logger *slog.Logger) *Walker {
	return &Walker{logger: logger}
}

// WalkResult is a sidecar discovered during walking, or a path that failed.
type WalkResult struct {
	Error   error
	Path    string
	Parent  string
	Kind    SidecarKind
	ModTime time.Time
}

// Walk streams the sidecars under rootPath. Hidden files and directories are
// skipped. The channel closes when the walk completes or ctx is canceled.
func (w *Walker) Walk(ctx context.Context, rootPath string) <-chan WalkResult {
	results := make(chan WalkResult, 100)

	go func() {
		defer close(results)

		send := func(r WalkResult) error {
			select {
			case results <- r:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				w.logger.Warn("walk error", "path", path, "error", err)
				if path == rootPath {
					return send(WalkResult{Path: path, Error: err})
				}
				return nil
			}

			if path != rootPath && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			kind := ClassifySidecar(d.Name())
			if kind == KindNotASidecar {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return send(WalkResult{Path: path, Error: err})
			}

			return send(WalkResult{
				Path:    path,
				Parent:  filepath.Dir(path),
				Kind:    kind,
				ModTime: info.ModTime(),
			})
		})

		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			w.logger.Error("walk failed", "root", rootPath, "error", err)
		}
	}()

	return results
}
