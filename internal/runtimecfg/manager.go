// Package runtimecfg holds the settings that can change while serving and
// applies every accepted patch to the running process.
package runtimecfg

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/pcdogyu/tradesession/internal/config"
	"github.com/pcdogyu/tradesession/internal/logger"
	"github.com/pcdogyu/tradesession/internal/manager"
	"github.com/pcdogyu/tradesession/internal/market"
	"github.com/pcdogyu/tradesession/internal/session"
)

type Settings struct {
	path string

	mu  sync.RWMutex
	cfg config.Config
	// sessions receives preset changes; nil until Bind.
	sessions *manager.Manager
}

func Load(path string) (*Settings, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return &Settings{path: path, cfg: cfg}, nil
}

// NewStatic never writes back to disk.
func NewStatic(cfg config.Config) *Settings {
	return &Settings{cfg: cfg}
}

// Bind makes later preset patches take effect on sessions right away instead
// of at the next source reload.
func (s *Settings) Bind(sessions *manager.Manager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = sessions
}

func (s *Settings) Get() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update validates p on top of the current settings, persists the result and
// applies it: the log level at once, and a new preset table merged into the
// bound sessions. Products dropped from the table stay until the next replace
// reload.
func (s *Settings) Update(p Patch) (config.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg
	p.Apply(&next)
	if err := config.NormalizeAndValidate(&next); err != nil {
		return config.Config{}, err
	}

	var presets map[string]*session.TradeSession
	if p.Presets != nil && s.sessions != nil {
		var err error
		if presets, err = market.PresetTable(next.Presets); err != nil {
			return config.Config{}, err
		}
	}

	if s.path != "" {
		if err := save(s.path, next); err != nil {
			return config.Config{}, err
		}
	}
	s.cfg = next

	fields := logrus.Fields{}
	if p.LogLevel != nil {
		logger.SetLevel(next.Log.Level)
		fields["log_level"] = next.Log.Level
	}
	if len(presets) > 0 {
		snap := s.sessions.Install(presets, true)
		fields["presets"] = len(presets)
		fields["generation"] = snap.Generation
	}
	logrus.WithFields(fields).Info("runtime settings updated")
	return next, nil
}

// save replaces path through a temp file in the same directory.
func save(path string, cfg config.Config) error {
	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
