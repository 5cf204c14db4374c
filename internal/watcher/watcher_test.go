package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T, opts Options) (*Watcher, string) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	w, err := New(logger, opts)
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() }) //nolint:errcheck // Test cleanup

	dir := t.TempDir()
	require.NoError(t, w.Watch(dir))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Start(ctx) //nolint:errcheck // Test goroutine

	return w, dir
}

func waitEvent(t *testing.T, w *Watcher, path string) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-w.Events():
			if event.Path == path {
				return event
			}
		case <-deadline:
			t.Fatalf("timeout waiting for event on %s", path)
		}
	}
}

func TestWatcher_FileCreation(t *testing.T) {
	w, dir := newTestWatcher(t, Options{SettleDelay: 50 * time.Millisecond})

	path := filepath.Join(dir, "cover.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))

	event := waitEvent(t, w, path)
	assert.Equal(t, EventAdded, event.Type)
	assert.Equal(t, int64(4), event.Size)
}

func TestWatcher_ExistingFileModified(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	dir := t.TempDir()
	path := filepath.Join(dir, "series.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	w, err := New(logger, Options{SettleDelay: 50 * time.Millisecond})
	require.NoError(t, err)
	defer w.Stop() //nolint:errcheck // Test cleanup
	require.NoError(t, w.Watch(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx) //nolint:errcheck // Test goroutine

	require.NoError(t, os.WriteFile(path, []byte(`{"name":"x"}`), 0o644))

	event := waitEvent(t, w, path)
	assert.Equal(t, EventModified, event.Type)
}

func TestWatcher_Removal(t *testing.T) {
	w, dir := newTestWatcher(t, Options{SettleDelay: 50 * time.Millisecond})

	path := filepath.Join(dir, "ComicInfo.xml")
	require.NoError(t, os.WriteFile(path, []byte("<x/>"), 0o644))
	waitEvent(t, w, path)

	require.NoError(t, os.Remove(path))
	event := waitEvent(t, w, path)
	assert.Equal(t, EventRemoved, event.Type)
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	w, dir := newTestWatcher(t, Options{SettleDelay: 50 * time.Millisecond})

	sub := filepath.Join(dir, "Batman")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(sub, "poster.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))

	event := waitEvent(t, w, path)
	assert.Equal(t, EventAdded, event.Type)
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := New(slog.New(slog.DiscardHandler), Options{})
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestOptions_ShouldIgnore(t *testing.T) {
	opts := Options{}
	opts.setDefaults()

	tests := []struct {
		path string
		want bool
	}{
		{"/comics/Batman/cover.jpg", false},
		{"/comics/.hidden/cover.jpg", true},
		{"/comics/Batman/.DS_Store", true},
		{"/comics/Batman/download.part", true},
		{"/comics/Batman/Thumbs.db", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, opts.shouldIgnore(tt.path))
		})
	}

	explicit := Options{IgnorePatterns: []string{}}
	explicit.setDefaults()
	assert.False(t, explicit.shouldIgnore("/comics/.hidden/cover.jpg"))
	assert.Equal(t, 100*time.Millisecond, explicit.SettleDelay)
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "added", EventAdded.String())
	assert.Equal(t, "modified", EventModified.String())
	assert.Equal(t, "removed", EventRemoved.String())
	assert.Equal(t, "unknown", EventType(42).String())
}
