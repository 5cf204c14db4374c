package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/readup-server/internal/config"
	"github.com/listenupapp/readup-server/internal/logger"
	"github.com/listenupapp/readup-server/internal/scanner"
	"github.com/listenupapp/readup-server/internal/watcher"
)

// ProvideScanner provides the sidecar scanner.
func ProvideScanner(i do.Injector) (*scanner.Scanner, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return scanner.NewScanner(storeHandle.Store, log.Logger), nil
}

// AutoScannerHandle wraps the watcher-driven rescanner with shutdown
// capability. AutoScanner is nil when watching is disabled.
type AutoScannerHandle struct {
	*scanner.AutoScanner
	watcher *watcher.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *AutoScannerHandle) Shutdown() error {
	if h.AutoScanner == nil {
		return nil
	}
	h.cancel()
	<-h.done
	return h.watcher.Stop()
}

// ProvideAutoScanner watches every library's scan paths and rescans a
// library shortly after its sidecars change.
func ProvideAutoScanner(i do.Injector) (*AutoScannerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	fileScanner := do.MustInvoke[*scanner.Scanner](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Scanner.Watch {
		log.Info("Sidecar watching disabled")
		return &AutoScannerHandle{}, nil
	}

	libraries, err := storeHandle.ListLibraries(context.Background())
	if err != nil {
		return nil, err
	}

	w, err := watcher.New(log.Logger, watcher.Options{IgnoreHidden: true})
	if err != nil {
		return nil, err
	}

	auto, err := scanner.NewAutoScanner(fileScanner, w, libraries, cfg.Scanner.RescanDelay, log.Logger)
	if err != nil {
		_ = w.Stop()
		return nil, err
	}
	auto.OnScan = func(r *scanner.Result) {
		log.Info("Library rescanned after change",
			"library_id", r.LibraryID,
			"added", r.Added,
			"updated", r.Updated,
			"removed", r.Removed,
		)
	}

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		auto.Run(ctx)
	}()

	log.Info("Sidecar watcher started", "libraries", len(libraries))

	return &AutoScannerHandle{
		AutoScanner: auto,
		watcher:     w,
		cancel:      cancel,
		done:        done,
	}, nil
}
