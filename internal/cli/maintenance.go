package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/readup-server/internal/catalog"
	"github.com/listenupapp/readup-server/internal/di/providers"
	"github.com/listenupapp/readup-server/internal/domain"
	"github.com/listenupapp/readup-server/internal/scanner"
	"github.com/listenupapp/readup-server/internal/service"
)

func newReindexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			injector := a.container()
			defer injector.Shutdown() //nolint:errcheck // best effort on exit

			searchService, err := do.Invoke[*service.SearchService](injector)
			if err != nil {
				return err
			}
			return a.reindex(cmd.Context(), searchService)
		},
	}
}

func (a *app) reindex(ctx context.Context, searchService *service.SearchService) error {
	start := time.Now()
	if err := searchService.ReindexAll(ctx); err != nil {
		return err
	}
	count, err := searchService.DocumentCount()
	if err != nil {
		return err
	}
	a.ok("Indexed %d books in %s", count, time.Since(start).Round(time.Millisecond))
	return nil
}

func newScanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [library-id...]",
		Short: "Scan library roots for sidecar files",
		Long:  "Scans the given libraries, or every library when none is named, and reconciles stored sidecars with the files on disk.",
		RunE: func(cmd *cobra.Command, args []string) error {
			injector := a.container()
			defer injector.Shutdown() //nolint:errcheck // best effort on exit

			storeHandle, err := do.Invoke[*providers.StoreHandle](injector)
			if err != nil {
				return err
			}
			fileScanner, err := do.Invoke[*scanner.Scanner](injector)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var libraries []*domain.Library
			if len(args) == 0 {
				if libraries, err = storeHandle.ListLibraries(ctx); err != nil {
					return err
				}
			}
			for _, id := range args {
				lib, err := storeHandle.GetLibrary(ctx, id)
				if err != nil {
					return fmt.Errorf("library %s: %w", id, err)
				}
				libraries = append(libraries, lib)
			}

			if len(libraries) == 0 {
				a.warn("No libraries to scan")
				return nil
			}

			results, err := fileScanner.ScanAll(ctx, libraries)
			if err != nil {
				return err
			}
			for _, r := range results {
				a.ok("Library %s: %d added, %d updated, %d removed, %d unchanged",
					r.LibraryID, r.Added, r.Updated, r.Removed, r.Unchanged)
				for _, e := range r.Errors {
					a.warn("%s: %s", e.Path, e.Error)
				}
			}
			if skipped := len(libraries) - len(results); skipped > 0 {
				return fmt.Errorf("%d of %d libraries failed to scan", skipped, len(libraries))
			}
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.yaml>",
		Short: "Load libraries, series, books and read progress from a YAML catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			injector := a.container()
			defer injector.Shutdown() //nolint:errcheck // best effort on exit

			importer, err := do.Invoke[*catalog.Importer](injector)
			if err != nil {
				return err
			}
			searchService, err := do.Invoke[*service.SearchService](injector)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			stats, err := importer.Import(ctx, f)
			if err != nil {
				return err
			}
			a.ok("Imported %d libraries, %d series, %d books, %d progress records",
				stats.Libraries, stats.Series, stats.Books, stats.Progress)

			return a.reindex(ctx, searchService)
		},
	}
}
