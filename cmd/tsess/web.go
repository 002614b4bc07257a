package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/pcdogyu/tradesession/internal/config"
	"github.com/pcdogyu/tradesession/internal/loader"
	"github.com/pcdogyu/tradesession/internal/manager"
	"github.com/pcdogyu/tradesession/internal/market"
	"github.com/pcdogyu/tradesession/internal/metrics"
	"github.com/pcdogyu/tradesession/internal/runtimecfg"
	"github.com/pcdogyu/tradesession/internal/session"
	"github.com/pcdogyu/tradesession/internal/store/sqlite"
	"github.com/pcdogyu/tradesession/internal/symbol"
)

var errBadParam = errors.New("bad parameter")

func newWebServer(settings *runtimecfg.Settings, mgr *manager.Manager, rl *reloader, db *sql.DB) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		snap := mgr.Snapshot()
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":         true,
			"products":   snap.Len(),
			"generation": snap.Generation,
			"loaded_at":  snap.LoadedAt,
		})
	})

	mux.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, mgr.Products())
	})

	// GET /api/session?product=rb or ?symbol=rb2405.SHFE [&minutes=1]
	mux.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		product, err := productParam(r)
		if err != nil {
			writeError(w, err)
			return
		}
		ts, err := mgr.Lookup(product)
		metrics.ObserveQuery("session", err == nil)
		if err != nil {
			writeError(w, err)
			return
		}
		withMinutes, err := boolParam(r, "minutes", false)
		if err != nil {
			writeError(w, err)
			return
		}
		v := toSessionView(product, ts, withMinutes)
		v.Exchange = symbol.ExchangeOf(r.URL.Query().Get("symbol"))
		writeJSON(w, http.StatusOK, v)
	})

	mux.HandleFunc("/api/presets", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, market.PresetNames())
	})

	// GET /api/in_session?product=rb&t=10:00:00[&include_begin=1&include_end=0]
	mux.HandleFunc("/api/in_session", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		product, err := productParam(r)
		if err != nil {
			writeError(w, err)
			return
		}
		t, err := timeParam(r, "t")
		if err != nil {
			writeError(w, err)
			return
		}
		includeBegin, err := boolParam(r, "include_begin", true)
		if err != nil {
			writeError(w, err)
			return
		}
		includeEnd, err := boolParam(r, "include_end", false)
		if err != nil {
			writeError(w, err)
			return
		}
		in, found := mgr.InSession(product, t, includeBegin, includeEnd)
		metrics.ObserveQuery("in_session", found)
		if !found {
			writeError(w, errors.Wrap(manager.ErrProductNotFound, product))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product, "t": t.String(), "in_session": in})
	})

	// GET /api/any_in_session?product=IF&start=11:00:00&end=12:00:00[&include=1]
	mux.HandleFunc("/api/any_in_session", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		product, err := productParam(r)
		if err != nil {
			writeError(w, err)
			return
		}
		start, err := timeParam(r, "start")
		if err != nil {
			writeError(w, err)
			return
		}
		end, err := timeParam(r, "end")
		if err != nil {
			writeError(w, err)
			return
		}
		include, err := boolParam(r, "include", true)
		if err != nil {
			writeError(w, err)
			return
		}
		hit, found := mgr.AnyInSession(product, start, end, include)
		metrics.ObserveQuery("any_in_session", found)
		if !found {
			writeError(w, errors.Wrap(manager.ErrProductNotFound, product))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"product":        product,
			"start":          start.String(),
			"end":            end.String(),
			"any_in_session": hit,
		})
	})

	// POST /api/reload?merge=0|1 with a CSV body, or an empty body to re-read the source.
	mux.HandleFunc("/api/reload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		merge, err := boolParam(r, "merge", settings.Get().MergeOnReload())
		if err != nil {
			writeError(w, err)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, 8<<20))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}

		var snap *manager.Snapshot
		if strings.TrimSpace(string(body)) == "" {
			snap, err = rl.fromSource(r.Context(), merge)
		} else {
			snap, err = rl.fromCSV(string(body), merge)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"products":   snap.Len(),
			"generation": snap.Generation,
			"merge":      merge,
		})
	})

	// GET /api/reloads?limit=50
	mux.HandleFunc("/api/reloads", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		limit := parseLimit(r.URL.Query().Get("limit"), 50, 1000)
		rows, err := sqlite.QueryReloads(db, limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, rows)
	})

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, toConfigView(settings.Get()))
		case http.MethodPost:
			body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
				return
			}
			var p runtimecfg.Patch
			if err := json.Unmarshal(body, &p); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
				return
			}
			cfg, err := settings.Update(p)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, toConfigView(cfg))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.Handle("/metrics", promhttp.Handler())

	return logRequests(mux)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"elapsed": time.Since(started),
		}).Debug("http")
	})
}

type sliceView struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
	Night bool   `json:"night"`
}

type sessionView struct {
	Product  string `json:"product"`
	Exchange string `json:"exchange,omitempty"`

	DayBegin          string `json:"day_begin"`
	DayBeginNanos     int64  `json:"day_begin_nanos"`
	DayEnd            string `json:"day_end"`
	DayEndNanos       int64  `json:"day_end_nanos"`
	MorningBegin      string `json:"morning_begin"`
	MorningBeginNanos int64  `json:"morning_begin_nanos"`

	HasNight bool        `json:"has_night"`
	Slices   []sliceView `json:"slices"`
	Minutes  []uint16    `json:"minutes,omitempty"`
}

func toSessionView(product string, ts *session.TradeSession, withMinutes bool) sessionView {
	v := sessionView{
		Product:           product,
		DayBegin:          ts.DayBegin().String(),
		DayBeginNanos:     ts.DayBegin().Nanos(),
		DayEnd:            ts.DayEnd().String(),
		DayEndNanos:       ts.DayEnd().Nanos(),
		MorningBegin:      ts.MorningBegin().String(),
		MorningBeginNanos: ts.MorningBegin().Nanos(),
		HasNight:          ts.HasNight(),
	}
	for _, s := range ts.Slices() {
		v.Slices = append(v.Slices, sliceView{
			Begin: s.Begin().Nominal().String(),
			End:   s.End().Nominal().String(),
			Night: s.IsNight(),
		})
	}
	if withMinutes {
		v.Minutes = ts.Minutes()
	}
	return v
}

type configView struct {
	DBPath string `json:"db_path"`
	Source struct {
		Kind string `json:"kind"`
		Path string `json:"path,omitempty"`
	} `json:"source"`
	Reload struct {
		IntervalSeconds int  `json:"interval_seconds"`
		Merge           bool `json:"merge"`
		RetentionDays   int  `json:"retention_days"`
	} `json:"reload"`
	LogLevel string            `json:"log_level"`
	Presets  map[string]string `json:"presets"`
}

// toConfigView leaves out DSNs and passwords.
func toConfigView(cfg config.Config) configView {
	var v configView
	v.DBPath = cfg.DBPath
	v.Source.Kind = cfg.Source.Kind
	v.Source.Path = cfg.Source.Path
	v.Reload.IntervalSeconds = cfg.Reload.IntervalSeconds
	v.Reload.Merge = cfg.MergeOnReload()
	v.Reload.RetentionDays = cfg.Reload.RetentionDays
	v.LogLevel = cfg.Log.Level
	v.Presets = cfg.Presets
	return v
}

func productParam(r *http.Request) (string, error) {
	q := r.URL.Query()
	if p := strings.TrimSpace(q.Get("product")); p != "" {
		return p, nil
	}
	if s := q.Get("symbol"); s != "" {
		p, err := symbol.ProductOf(s)
		if err != nil {
			return "", errors.Wrap(errBadParam, err.Error())
		}
		return p, nil
	}
	return "", errors.Wrap(errBadParam, "product or symbol is required")
}

func timeParam(r *http.Request, name string) (session.TimeOfDay, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return session.TimeOfDay{}, errors.Wrapf(errBadParam, "%s is required (HH:MM:SS)", name)
	}
	t, err := session.ParseTimeOfDay(s)
	if err != nil {
		return session.TimeOfDay{}, errors.Wrap(errBadParam, err.Error())
	}
	return t, nil
}

func boolParam(r *http.Request, name string, def bool) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.Wrapf(errBadParam, "%s: %q", name, s)
	}
	return v, nil
}

// writeError maps error kinds to status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, manager.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errBadParam),
		errors.Is(err, session.ErrInvalidRange),
		errors.Is(err, session.ErrMalformedSessionJSON),
		errors.Is(err, loader.ErrMalformedRow):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func parseLimit(s string, def, max int) int {
	if s == "" {
		return def
	}
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
