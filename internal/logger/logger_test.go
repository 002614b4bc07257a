package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/pcdogyu/tradesession/internal/config"
)

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tsess.log")
	require.NoError(t, Init(config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1}))
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })
	require.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	logrus.WithField("product", "ag").Info("loaded")
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "product=ag")

	SetLevel("warn")
	require.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	SetLevel("nonsense")
	require.Equal(t, logrus.WarnLevel, logrus.GetLevel())
}

func TestInitBadLevelFallsBack(t *testing.T) {
	require.NoError(t, Init(config.LogConfig{Level: "loud"}))
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })
	require.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
