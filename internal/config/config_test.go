package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
source:
  path: configs/tradesession.csv
presets:
  IF: stock_index
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "data/tradesession.db", cfg.DBPath)
	require.Equal(t, "127.0.0.1:8090", cfg.Listen)
	require.Equal(t, SourceFile, cfg.Source.Kind)
	require.Equal(t, "info", cfg.Log.Level)
	require.False(t, cfg.MergeOnReload())
	require.Equal(t, 30, cfg.Reload.RetentionDays)
	require.Equal(t, "stock_index", cfg.Presets["IF"])
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"file without path":  "source:\n  kind: file\n",
		"postgres needs dsn": "source:\n  kind: postgres\n",
		"unknown kind":       "source:\n  kind: ftp\n",
		"unknown preset":     "source:\n  kind: sqlite\npresets:\n  BTC: crypto\n",
		"negative interval":  "source:\n  kind: sqlite\nreload:\n  interval_seconds: -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestRedisDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "source:\n  kind: REDIS\nreload:\n  merge: true\n"))
	require.NoError(t, err)
	require.Equal(t, SourceRedis, cfg.Source.Kind)
	require.Equal(t, "127.0.0.1:6379", cfg.Source.Redis.Addr)
	require.Equal(t, "tradesession:sessions", cfg.Source.Redis.Key)
	require.True(t, cfg.MergeOnReload())
}

func TestDotEnvOverrides(t *testing.T) {
	path := writeConfig(t, "source:\n  kind: postgres\n")
	env := "TSESS_SOURCE_DSN=postgres://u:p@localhost/ts\nTSESS_LISTEN=0.0.0.0:9000\n"
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), ".env"), []byte(env), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("TSESS_SOURCE_DSN")
		os.Unsetenv("TSESS_LISTEN")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "postgres://u:p@localhost/ts", cfg.Source.DSN)
	require.Equal(t, "0.0.0.0:9000", cfg.Listen)
}
