package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"
)

// mappingVersion is incremented whenever the index mapping changes.
// A persisted snapshot with another version is discarded on open.
const mappingVersion = "1"

// manifestName records the live snapshot as "<version> <dir>".
const manifestName = "CURRENT"

// SearchIndex wraps a Bleve index with book-specific operations.
//
// Thread safety: All public methods are safe for concurrent use. Rebuild
// builds a complete snapshot off to the side and swaps it in under the write
// lock, so readers see either the old index or the new one.
type SearchIndex struct {
	mu       sync.RWMutex
	index    bleve.Index
	snapshot string // directory of the live snapshot, empty when in memory
	dir      string // parent of all snapshots, empty when in memory
	logger   *slog.Logger

	needsRebuild bool
}

// Options configures the search index.
type Options struct {
	DataPath string       // Data directory; snapshots live in DataPath/search. Empty keeps the index in memory.
	Logger   *slog.Logger // Logger for operations (uses discard if nil)
}

// NewSearchIndex opens the live snapshot, or creates an empty one when there
// is none, it is unreadable, or its mapping is outdated. In the latter cases
// NeedsRebuild reports true so the caller can repopulate it.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &SearchIndex{logger: logger}

	if opts.DataPath == "" {
		index, err := newIndex("")
		if err != nil {
			return nil, err
		}
		s.index = index
		s.needsRebuild = true
		return s, nil
	}

	s.dir = filepath.Join(opts.DataPath, "search")
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create search dir: %w", err)
	}

	if name, ok := s.readManifest(); ok {
		path := filepath.Join(s.dir, name)
		index, err := bleve.Open(path)
		if err == nil {
			s.index = index
			s.snapshot = path
			s.removeStaleSnapshots()
			logger.Info("opened existing search index", "path", path)
			return s, nil
		}
		logger.Warn("failed to open existing index, will recreate", "path", path, "error", err)
	}

	path := s.newSnapshotPath()
	index, err := newIndex(path)
	if err != nil {
		return nil, err
	}
	if err := s.writeManifest(path); err != nil {
		index.Close()
		return nil, err
	}
	s.index = index
	s.snapshot = path
	s.needsRebuild = true
	s.removeStaleSnapshots()
	logger.Info("created new search index", "path", path, "mapping_version", mappingVersion)
	return s, nil
}

func newIndex(path string) (bleve.Index, error) {
	indexMapping, err := buildIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("build mapping: %w", err)
	}
	var index bleve.Index
	if path == "" {
		index, err = bleve.NewMemOnly(indexMapping)
	} else {
		index, err = bleve.New(path, indexMapping)
	}
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return index, nil
}

func (s *SearchIndex) newSnapshotPath() string {
	return filepath.Join(s.dir, uuid.NewString()+".bleve")
}

func (s *SearchIndex) readManifest() (string, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, manifestName))
	if err != nil {
		return "", false
	}
	version, name, ok := strings.Cut(strings.TrimSpace(string(data)), " ")
	if !ok || name == "" {
		return "", false
	}
	if version != mappingVersion {
		s.logger.Info("search index mapping version changed, will rebuild",
			"old_version", version,
			"new_version", mappingVersion,
		)
		return "", false
	}
	return name, true
}

// writeManifest points the manifest at path via write-and-rename.
func (s *SearchIndex) writeManifest(path string) error {
	tmp := filepath.Join(s.dir, manifestName+".tmp")
	content := mappingVersion + " " + filepath.Base(path) + "\n"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, manifestName)); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// removeStaleSnapshots deletes snapshot directories other than the live one.
func (s *SearchIndex) removeStaleSnapshots() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), ".bleve") {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if path == s.snapshot {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			s.logger.Warn("failed to remove stale search snapshot", "path", path, "error", err)
		}
	}
}

// NeedsRebuild reports whether the index was created empty on open.
func (s *SearchIndex) NeedsRebuild() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.needsRebuild
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexDocument indexes a single document, replacing any previous version.
func (s *SearchIndex) IndexDocument(doc *Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.ToMap())
}

// DeleteDocument removes a document from the index.
func (s *SearchIndex) DeleteDocument(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DocumentCount returns the total number of indexed documents.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// indexDocuments writes docs into index in chunks to bound batch memory.
func indexDocuments(ctx context.Context, index bleve.Index, docs []*Document) error {
	const batchSize = 500

	for i := 0; i < len(docs); i += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+batchSize, len(docs))

		batch := index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// Rebuild replaces the whole index with one built from docs. The new
// snapshot is populated without holding the lock; only the swap is exclusive.
// On failure the live index is left untouched.
func (s *SearchIndex) Rebuild(ctx context.Context, docs []*Document) error {
	var path string
	if s.dir != "" {
		path = s.newSnapshotPath()
	}

	fresh, err := newIndex(path)
	if err != nil {
		return err
	}
	discard := func() {
		fresh.Close()
		if path != "" {
			os.RemoveAll(path)
		}
	}

	if err := indexDocuments(ctx, fresh, docs); err != nil {
		discard()
		return err
	}

	s.mu.Lock()
	if path != "" {
		if err := s.writeManifest(path); err != nil {
			s.mu.Unlock()
			discard()
			return err
		}
	}
	old, oldPath := s.index, s.snapshot
	s.index, s.snapshot = fresh, path
	s.needsRebuild = false
	s.mu.Unlock()

	if err := old.Close(); err != nil {
		s.logger.Warn("failed to close previous search index", "error", err)
	}
	if oldPath != "" {
		if err := os.RemoveAll(oldPath); err != nil {
			s.logger.Warn("failed to remove previous search index", "path", oldPath, "error", err)
		}
	}

	s.logger.Info("rebuilt search index", "documents", len(docs), "path", path)
	return nil
}
