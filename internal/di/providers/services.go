package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/readup-server/internal/catalog"
	"github.com/listenupapp/readup-server/internal/logger"
	"github.com/listenupapp/readup-server/internal/service"
)

// ProvideBookQueryService provides the book listing and on-deck service.
func ProvideBookQueryService(i do.Injector) (*service.BookQueryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookQueryService(storeHandle.Store, searchService, log.Logger), nil
}

// ProvideReadProgressService provides the read progress service.
func ProvideReadProgressService(i do.Injector) (*service.ReadProgressService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReadProgressService(storeHandle.Store, log.Logger), nil
}

// ProvideCatalogImporter provides the YAML catalog importer. Imports run
// in bulk mode; callers rebuild the search index afterwards.
func ProvideCatalogImporter(i do.Injector) (*catalog.Importer, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return catalog.NewImporter(storeHandle.Store, log.Logger), nil
}
