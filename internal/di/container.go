// Package di provides dependency injection configuration for the ReadUp server.
package di

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/listenupapp/readup-server/internal/config"
	"github.com/listenupapp/readup-server/internal/di/providers"
	"github.com/listenupapp/readup-server/internal/logger"
	"github.com/listenupapp/readup-server/internal/scanner"
	"github.com/listenupapp/readup-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// Providers are lazy: commands invoke only what they need.
func NewContainer(cfg *config.Config, build providers.BuildInfo) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, build)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Business services
	do.Provide(injector, providers.ProvideBookQueryService)
	do.Provide(injector, providers.ProvideReadProgressService)
	do.Provide(injector, providers.ProvideCatalogImporter)

	// Scanner layer
	do.Provide(injector, providers.ProvideScanner)

	// Workers
	do.Provide(injector, providers.ProvideAutoScanner)
	do.Provide(injector, providers.ProvideScheduler)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes every service the server needs, prepares the
// search index and starts the watcher, the scheduler and the HTTP server.
func Bootstrap(ctx context.Context, injector *do.RootScope) error {
	steps := []func() error{
		invoke[*logger.Logger](injector),
		invoke[*providers.StoreHandle](injector),
		invoke[*providers.SearchIndexHandle](injector),
		invoke[*service.SearchService](injector),
		func() error { return providers.PrepareSearchIndex(ctx, injector) },
		invoke[*service.BookQueryService](injector),
		invoke[*service.ReadProgressService](injector),
		invoke[*scanner.Scanner](injector),

		// Workers
		invoke[*providers.AutoScannerHandle](injector),
		invoke[*providers.SchedulerHandle](injector),

		// Server
		invoke[*providers.RateLimiterHandle](injector),
		invoke[*providers.HTTPServerHandle](injector),
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}
	return nil
}

func invoke[T any](injector do.Injector) func() error {
	return func() error {
		_, err := do.Invoke[T](injector)
		return err
	}
}
