package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := write(t, `
log_level: debug
backup: false
inject:
  tile_mode: linear
  import_mips: true
export:
  workers: 3
preview:
  format: tga
  max_size: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", *cfg.LogLevel)
	require.Nil(t, cfg.LogFormat)
	require.False(t, *cfg.Backup)
	require.Equal(t, "linear", *cfg.Inject.TileMode)
	require.True(t, *cfg.Inject.ImportMips)
	require.Nil(t, cfg.Inject.SRGB)
	require.Equal(t, 3, *cfg.Export.Workers)
	require.Nil(t, cfg.Export.Dir)
	require.Equal(t, "tga", *cfg.Preview.Format)
	require.Equal(t, 0, *cfg.Preview.MaxSize)
}

func TestLoadMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, Config{}, cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	require.Equal(t, Config{}, cfg)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", "inject: [unclosed"},
		{"wrong type", "backup: sometimes"},
		{"zero workers", "export:\n  workers: 0"},
		{"negative size", "preview:\n  max_size: -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, tt.body))
			require.Error(t, err)
		})
	}
}

func TestApply(t *testing.T) {
	fl := pflag.NewFlagSet("test", pflag.ContinueOnError)
	workers := fl.Int("workers", 4, "")
	dir := fl.String("out", ".", "")
	require.NoError(t, fl.Parse([]string{"--out", "explicit"}))

	fromFile := 8
	fileDir := "from-file"
	Apply(fl, "workers", workers, &fromFile)
	Apply(fl, "out", dir, &fileDir)
	require.Equal(t, 8, *workers)
	require.Equal(t, "explicit", *dir)

	Apply[int](fl, "workers", workers, nil)
	require.Equal(t, 8, *workers)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if p := DefaultPath(); p != "" {
		require.Equal(t, filepath.Join("bntxtool", "config.yaml"), filepath.Join(filepath.Base(filepath.Dir(p)), filepath.Base(p)))
	}
}
