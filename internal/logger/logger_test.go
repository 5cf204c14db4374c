package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Writer: &buf})

	l.Info("rebuilt search index", "documents", 42)

	assert.Contains(t, buf.String(), `"msg":"rebuilt search index"`)
	assert.Contains(t, buf.String(), `"level":"INFO"`)
	assert.Contains(t, buf.String(), `"documents":42`)
}

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		environment string
		wantJSON    bool
	}{
		{"production", true},
		{"development", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Config{Environment: tt.environment, Writer: &buf, NoColor: true})
			l.Info("hello")
			assert.Equal(t, tt.wantJSON, strings.HasPrefix(buf.String(), "{"))
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		valid bool
	}{
		{"debug", slog.LevelDebug, true},
		{"DEBUG", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
			assert.Equal(t, tt.valid, ValidLevel(tt.input))
		})
	}
}

func TestPrettyHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	h.noColor = true

	r := slog.NewRecord(time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC), slog.LevelWarn, "scan path unreadable", 0)
	r.AddAttrs(
		slog.String("library_id", "lib-1"),
		slog.String("path", "/mnt/my comics"),
		slog.Duration("took", 1500*time.Millisecond),
	)
	require.NoError(t, h.Handle(context.Background(), r))

	assert.Equal(t,
		"15:04:05 WRN scan path unreadable library_id=lib-1 path=\"/mnt/my comics\" took=1.5s\n",
		buf.String())
}

func TestPrettyHandler_Levels(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	ctx := context.Background()

	assert.False(t, h.Enabled(ctx, slog.LevelDebug))
	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelWarn))
	assert.True(t, h.Enabled(ctx, slog.LevelError))

	assert.True(t, NewPrettyHandler(&buf, nil).Enabled(ctx, slog.LevelInfo))
}

func TestPrettyHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil)
	h.noColor = true

	l := slog.New(h).With("component", "search").WithGroup("query").With("term", "batman")
	l.Info("composed", "candidates", 3, slog.Group("page", "size", 20))

	out := buf.String()
	assert.Contains(t, out, "component=search")
	assert.Contains(t, out, "query.term=batman")
	assert.Contains(t, out, "query.candidates=3")
	assert.Contains(t, out, "query.page.size=20")
}

func TestPrettyHandler_Colors(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, nil))
	l.Error("boom")

	assert.Contains(t, buf.String(), colorRed+"ERR"+colorReset)
}

func TestLogger_Helpers(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: FormatJSON, Writer: &buf})

	l.Component("scanner").Info("scan")
	assert.Contains(t, buf.String(), `"component":"scanner"`)
}
