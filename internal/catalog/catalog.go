// Package catalog loads libraries, series, books and read progress from a
// YAML catalog file.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/listenupapp/readup-server/internal/domain"
	domainerrors "github.com/listenupapp/readup-server/internal/errors"
	"github.com/listenupapp/readup-server/internal/id"
	"github.com/listenupapp/readup-server/internal/validation"
)

// File is the top-level catalog document.
type File struct {
	Libraries []Library  `yaml:"libraries" validate:"dive"`
	Progress  []Progress `yaml:"progress" validate:"dive"`
}

// Library is a catalog library with its series.
type Library struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name" validate:"required"`
	ScanPaths []string `yaml:"scan_paths"`
	Series    []Series `yaml:"series" validate:"dive"`
}

// Series is a catalog series with its books.
type Series struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name" validate:"required"`
	Books []Book `yaml:"books" validate:"dive"`
}

// Book is a catalog book. NumberSort defaults to Number.
type Book struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name" validate:"required"`
	URL         string   `yaml:"url"`
	Number      int      `yaml:"number" validate:"gte=0"`
	NumberSort  *float64 `yaml:"number_sort"`
	FileSize    int64    `yaml:"file_size" validate:"gte=0"`
	MediaStatus string   `yaml:"media_status" validate:"omitempty,media_status"`
	Deleted     bool     `yaml:"deleted"`
	Metadata    Metadata `yaml:"metadata"`
}

// Metadata is the descriptive part of a catalog book.
type Metadata struct {
	Title       string   `yaml:"title"`
	Summary     string   `yaml:"summary"`
	ReleaseDate string   `yaml:"release_date" validate:"omitempty,datetime=2006-01-02"`
	ISBN        string   `yaml:"isbn"`
	Authors     []Author `yaml:"authors" validate:"dive"`
	Tags        []string `yaml:"tags"`
}

// Author credits a person on a catalog book.
type Author struct {
	Name string `yaml:"name" validate:"required"`
	Role string `yaml:"role" validate:"required,author_role"`
}

// Progress is a user's reading position in a catalog book.
type Progress struct {
	User      string `yaml:"user" validate:"required"`
	Book      string `yaml:"book" validate:"required"`
	Page      int    `yaml:"page" validate:"gte=0"`
	Completed bool   `yaml:"completed"`
}

// Store is the storage the importer writes to.
type Store interface {
	CreateLibrary(ctx context.Context, lib *domain.Library) error
	CreateSeries(ctx context.Context, series *domain.Series) error
	CreateBook(ctx context.Context, book *domain.Book) error
	SaveReadProgress(ctx context.Context, progress *domain.ReadProgress) error
	SetBulkMode(enabled bool)
}

// Stats counts what an import created.
type Stats struct {
	Libraries int
	Series    int
	Books     int
	Progress  int
}

// Importer loads catalog files into a store.
type Importer struct {
	store     Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewImporter creates an importer.
func NewImporter(s Store, logger *slog.Logger) *Importer {
	return &Importer{store: s, validator: validation.New(), logger: logger}
}

// Parse decodes and validates a catalog without importing it.
func (im *Importer) Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, domainerrors.Validationf("decode catalog: %v", err)
	}
	if err := im.validator.Validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Import creates everything in the catalog. The store runs in bulk mode for
// the duration, so the caller must rebuild the search index afterwards.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*Stats, error) {
	f, err := im.Parse(r)
	if err != nil {
		return nil, err
	}

	im.store.SetBulkMode(true)
	defer im.store.SetBulkMode(false)

	stats := &Stats{}
	now := time.Now()

	for _, l := range f.Libraries {
		lib := &domain.Library{
			ID:        l.ID,
			Name:      l.Name,
			ScanPaths: l.ScanPaths,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if lib.ID == "" {
			if lib.ID, err = id.NewLibraryID(); err != nil {
				return stats, err
			}
		}
		if err := im.store.CreateLibrary(ctx, lib); err != nil {
			return stats, fmt.Errorf("create library %q: %w", l.Name, err)
		}
		stats.Libraries++

		for _, sr := range l.Series {
			if err := im.importSeries(ctx, lib.ID, sr, stats); err != nil {
				return stats, err
			}
		}
	}

	for _, p := range f.Progress {
		progress := &domain.ReadProgress{
			BookID:    p.Book,
			UserID:    p.User,
			Page:      p.Page,
			Completed: p.Completed,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := im.store.SaveReadProgress(ctx, progress); err != nil {
			return stats, fmt.Errorf("save progress of %s on %s: %w", p.User, p.Book, err)
		}
		stats.Progress++
	}

	im.logger.Info("catalog imported",
		"libraries", stats.Libraries,
		"series", stats.Series,
		"books", stats.Books,
		"progress", stats.Progress,
	)
	return stats, nil
}

func (im *Importer) importSeries(ctx context.Context, libraryID string, sr Series, stats *Stats) error {
	series := &domain.Series{LibraryID: libraryID, Name: sr.Name}
	series.ID = sr.ID
	if series.ID == "" {
		var err error
		if series.ID, err = id.NewSeriesID(); err != nil {
			return err
		}
	}
	series.InitTimestamps()
	if err := im.store.CreateSeries(ctx, series); err != nil {
		return fmt.Errorf("create series %q: %w", sr.Name, err)
	}
	stats.Series++

	for _, b := range sr.Books {
		book, err := toBook(libraryID, series.ID, b)
		if err != nil {
			return err
		}
		if err := im.store.CreateBook(ctx, book); err != nil {
			return fmt.Errorf("create book %q: %w", b.Name, err)
		}
		stats.Books++
	}
	return nil
}

func toBook(libraryID, seriesID string, b Book) (*domain.Book, error) {
	book := &domain.Book{
		LibraryID:   libraryID,
		SeriesID:    seriesID,
		Name:        b.Name,
		URL:         b.URL,
		Number:      b.Number,
		NumberSort:  float64(b.Number),
		FileSize:    b.FileSize,
		MediaStatus: domain.MediaStatusUnknown,
		Metadata: domain.BookMetadata{
			Title:   b.Metadata.Title,
			Summary: b.Metadata.Summary,
			ISBN:    b.Metadata.ISBN,
			Tags:    b.Metadata.Tags,
		},
	}
	book.ID = b.ID
	if book.ID == "" {
		var err error
		if book.ID, err = id.NewBookID(); err != nil {
			return nil, err
		}
	}
	if b.NumberSort != nil {
		book.NumberSort = *b.NumberSort
	}
	if status, ok := domain.ParseMediaStatus(b.MediaStatus); ok {
		book.MediaStatus = status
	}
	if book.Metadata.Title == "" {
		book.Metadata.Title = b.Name
	}
	if b.Metadata.ReleaseDate != "" {
		d, err := time.Parse(time.DateOnly, b.Metadata.ReleaseDate)
		if err != nil {
			return nil, domainerrors.Validationf("book %q: release_date: %v", b.Name, err)
		}
		book.Metadata.ReleaseDate = &d
	}
	for _, a := range b.Metadata.Authors {
		book.Metadata.Authors = append(book.Metadata.Authors, domain.Author{
			Name: a.Name,
			Role: strings.ToLower(a.Role),
		})
	}

	book.InitTimestamps()
	if b.Deleted {
		book.MarkDeleted()
	}
	return book, nil
}
