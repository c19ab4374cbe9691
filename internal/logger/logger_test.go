package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelWarn)
	log.Info("dropped")
	require.Zero(t, buf.Len())

	log.With("texture", "tex_a").Warn("clamped", "allowed", 2)
	out := buf.String()
	require.Contains(t, out, `"texture":"tex_a"`)
	require.Contains(t, out, `"allowed":2`)
	require.Contains(t, out, `"level":"WARN"`)
}

func TestPrettyWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelDebug)
	log.WithGroup("inject").Debug("laid out", "name", "has space", "size", 5632)

	out := buf.String()
	require.Contains(t, out, "DEBUG laid out")
	require.Contains(t, out, `inject.name="has space"`)
	require.Contains(t, out, "inject.size=5632")
	require.NotContains(t, out, "\033[")
}

func TestPrettyColor(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil)
	h.color = true
	slog.New(h).Error("boom")
	require.Contains(t, buf.String(), colorRed)
}

func TestPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	require.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	require.True(t, h.Enabled(context.Background(), slog.LevelError))
	require.Same(t, h, h.WithGroup(""))

	nested := h.WithGroup("a").WithGroup("b").WithAttrs([]slog.Attr{slog.String("k", "v")})
	slog.New(nested).Warn("x")
	require.Contains(t, buf.String(), "a.b.k=v")
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, `"msg":"hi"`},
		{FormatText, "msg=hi"},
		{FormatPretty, "INFO  hi"},
		{FormatAuto, "msg=hi"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			ForFormat(&buf, tt.format, slog.LevelInfo).Info("hi")
			require.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestParse(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))

	f, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatAuto, f)
	_, err = ParseFormat("xml")
	require.Error(t, err)
}

func TestContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), JSON(&buf, slog.LevelInfo))
	FromContext(ctx).Info("via context")
	require.Contains(t, buf.String(), "via context")
	require.NotNil(t, FromContext(context.Background()))
}
