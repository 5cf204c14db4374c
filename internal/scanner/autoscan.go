package scanner

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/listenupapp/readup-server/internal/domain"
	"github.com/listenupapp/readup-server/internal/watcher"
)

// DefaultRescanDelay is how long AutoScanner waits after the last change in
// a library before rescanning it.
const DefaultRescanDelay = 2 * time.Second

// AutoScanner rescans a library shortly after sidecar files in it change.
type AutoScanner struct {
	scanner   *Scanner
	watcher   *watcher.Watcher
	libraries []*domain.Library
	delay     time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool // set once Run returns; late timers bail out
	wg     sync.WaitGroup

	// OnScan, if set, receives every completed rescan.
	OnScan func(*Result)
}

// NewAutoScanner watches the scan paths of libraries. A zero delay uses
// DefaultRescanDelay.
func NewAutoScanner(s *Scanner, w *watcher.Watcher, libraries []*domain.Library, delay time.Duration, logger *slog.Logger) (*AutoScanner, error) {
	if delay <= 0 {
		delay = DefaultRescanDelay
	}
	a := &AutoScanner{
		scanner:   s,
		watcher:   w,
		libraries: libraries,
		delay:     delay,
		logger:    logger,
		timers:    make(map[string]*time.Timer),
	}
	for _, lib := range libraries {
		for _, root := range lib.ScanPaths {
			if err := w.Watch(root); err != nil {
				return nil, err
			}
		}
	}
	return a, nil
}

// Run dispatches watcher events until ctx is done, then waits for any
// rescan in flight.
func (a *AutoScanner) Run(ctx context.Context) {
	go a.watcher.Start(ctx) //nolint:errcheck // Start only returns nil

	defer a.close()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-a.watcher.Events():
			a.handle(ctx, event)
		case err := <-a.watcher.Errors():
			a.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (a *AutoScanner) handle(ctx context.Context, event watcher.Event) {
	// A removed directory may have held sidecars, so removals always count.
	if event.Type != watcher.EventRemoved && ClassifySidecar(event.Path) == KindNotASidecar {
		return
	}
	lib := a.libraryFor(event.Path)
	if lib == nil {
		return
	}

	a.logger.Debug("sidecar change detected", "library_id", lib.ID, "path", event.Path, "type", event.Type.String())

	a.schedule(ctx, lib)
}

// schedule arms or pushes back the rescan timer of lib.
func (a *AutoScanner) schedule(ctx context.Context, lib *domain.Library) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if t, ok := a.timers[lib.ID]; ok {
		t.Reset(a.delay)
		return
	}
	a.timers[lib.ID] = time.AfterFunc(a.delay, func() { a.rescan(ctx, lib) })
}

func (a *AutoScanner) rescan(ctx context.Context, lib *domain.Library) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	delete(a.timers, lib.ID)
	a.wg.Add(1)
	a.mu.Unlock()
	defer a.wg.Done()

	if ctx.Err() != nil {
		return
	}
	result, err := a.scanner.Scan(ctx, lib)
	if err != nil {
		a.logger.Error("rescan failed", "library_id", lib.ID, "error", err)
		return
	}
	if a.OnScan != nil {
		a.OnScan(result)
	}
}

// close stops pending timers and waits for rescans already running.
func (a *AutoScanner) close() {
	a.mu.Lock()
	a.closed = true
	for _, t := range a.timers {
		t.Stop()
	}
	clear(a.timers)
	a.mu.Unlock()
	a.wg.Wait()
}

// libraryFor returns the library whose scan path contains path.
func (a *AutoScanner) libraryFor(path string) *domain.Library {
	path = filepath.Clean(path)
	for _, lib := range a.libraries {
		for _, root := range lib.ScanPaths {
			root = filepath.Clean(root)
			if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
				return lib
			}
		}
	}
	return nil
}
