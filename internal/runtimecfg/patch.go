package runtimecfg

import "github.com/pcdogyu/tradesession/internal/config"

// Patch is a partial update for settings exposed over HTTP.
// Fields are pointers so "not set" can be distinguished from zero values.
type Patch struct {
	ReloadIntervalSeconds *int  `json:"reload_interval_seconds,omitempty"`
	ReloadMerge           *bool `json:"reload_merge,omitempty"`
	RetentionDays         *int  `json:"retention_days,omitempty"`

	LogLevel *string `json:"log_level,omitempty"`

	// Presets replaces the whole preset table when set.
	Presets map[string]string `json:"presets,omitempty"`
}

func (p Patch) Apply(cfg *config.Config) {
	if p.ReloadIntervalSeconds != nil {
		cfg.Reload.IntervalSeconds = *p.ReloadIntervalSeconds
	}
	if p.ReloadMerge != nil {
		v := *p.ReloadMerge
		cfg.Reload.Merge = &v
	}
	if p.RetentionDays != nil {
		cfg.Reload.RetentionDays = *p.RetentionDays
	}
	if p.LogLevel != nil {
		cfg.Log.Level = *p.LogLevel
	}
	if p.Presets != nil {
		cfg.Presets = p.Presets
	}
}
