package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pcdogyu/tradesession/internal/config"
	"github.com/pcdogyu/tradesession/internal/loader"
	"github.com/pcdogyu/tradesession/internal/manager"
	"github.com/pcdogyu/tradesession/internal/market"
	"github.com/pcdogyu/tradesession/internal/metrics"
	"github.com/pcdogyu/tradesession/internal/session"
	"github.com/pcdogyu/tradesession/internal/source"
	"github.com/pcdogyu/tradesession/internal/store/sqlite"
)

type cfgProvider interface {
	Get() config.Config
}

// reloader installs a new generation from the source or from uploaded CSV,
// with the configured presets on top, and records every attempt.
type reloader struct {
	mgr  *manager.Manager
	src  source.Source
	db   *sql.DB
	cfgp cfgProvider
}

const sourceHTTP = "http"

func (r *reloader) fromSource(ctx context.Context, merge bool) (*manager.Snapshot, error) {
	started := time.Now()
	recs, err := r.src.Records(ctx)
	var sessions map[string]*session.TradeSession
	if err == nil {
		sessions, err = loader.Build(recs)
	}
	return r.install(r.src.Name(), started, merge, sessions, err)
}

func (r *reloader) fromCSV(content string, merge bool) (*manager.Snapshot, error) {
	started := time.Now()
	sessions, err := loader.ParseCSVContent(content)
	return r.install(sourceHTTP, started, merge, sessions, err)
}

func (r *reloader) install(name string, started time.Time, merge bool, sessions map[string]*session.TradeSession, err error) (*manager.Snapshot, error) {
	var snap *manager.Snapshot
	if err == nil {
		r.addPresets(sessions)
		snap = r.mgr.Install(sessions, merge)
	}

	entry := sqlite.ReloadEntry{Source: name, Merge: merge}
	fields := logrus.Fields{"source": name, "merge": merge, "elapsed": time.Since(started).Round(time.Millisecond)}
	if err != nil {
		entry.Error = err.Error()
		metrics.ObserveReload(name, started, 0, err)
		logrus.WithFields(fields).WithError(err).Warn("reload failed, keeping previous snapshot")
	} else {
		entry.Products = snap.Len()
		entry.Generation = snap.Generation
		metrics.ObserveReload(name, started, snap.Len(), nil)
		fields["products"] = snap.Len()
		fields["generation"] = snap.Generation
		logrus.WithFields(fields).Info("reload ok")
	}

	if r.db != nil {
		if werr := sqlite.InsertReload(r.db, time.Now().UTC(), entry); werr != nil {
			logrus.WithError(werr).Warn("reload log write failed")
		}
	}
	return snap, err
}

// addPresets overrides loaded products with the configured presets.
func (r *reloader) addPresets(sessions map[string]*session.TradeSession) {
	presets, err := market.PresetTable(r.cfgp.Get().Presets)
	if err != nil {
		logrus.WithError(err).Warn("skip presets")
		return
	}
	for product, ts := range presets {
		sessions[product] = ts
	}
}

func runReloadLoop(ctx context.Context, cfgp cfgProvider, r *reloader) {
	var lastInterval int
	for {
		cfg := cfgp.Get()
		interval := cfg.Reload.IntervalSeconds
		if interval != lastInterval {
			logrus.WithField("interval_seconds", interval).Info("reload loop")
			lastInterval = interval
		}
		if interval <= 0 {
			// Disabled; check again in case settings changed.
			select {
			case <-ctx.Done():
				return
			case <-time.After(30 * time.Second):
				continue
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(interval) * time.Second):
		}

		_, _ = r.fromSource(ctx, cfgp.Get().MergeOnReload())
	}
}

func runCleanupLoop(ctx context.Context, cfgp cfgProvider, db *sql.DB) {
	var lastRunDay string
	for {
		now := time.Now().In(market.Shanghai)
		today := now.Format("2006-01-02")
		if lastRunDay != today && !now.Before(cleanupTimeToday(now)) {
			days := cfgp.Get().Reload.RetentionDays
			n, err := sqlite.CleanupOldReloads(db, time.Now().UTC(), days)
			if err != nil {
				logrus.WithError(err).Warn("cleanup failed")
			} else {
				logrus.WithFields(logrus.Fields{"retention_days": days, "deleted": n}).Info("cleanup ok")
			}
			lastRunDay = today
		}

		// Tick at 1-minute granularity; this is a once-per-day job.
		select {
		case <-ctx.Done():
			return
		case <-time.After(1 * time.Minute):
		}
	}
}

// cleanupTimeToday is 03:10 Asia/Shanghai, after night sessions have closed.
func cleanupTimeToday(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 3, 10, 0, 0, now.Location())
}
