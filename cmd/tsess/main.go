package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pcdogyu/tradesession/internal/config"
	"github.com/pcdogyu/tradesession/internal/loader"
	"github.com/pcdogyu/tradesession/internal/logger"
	"github.com/pcdogyu/tradesession/internal/manager"
	"github.com/pcdogyu/tradesession/internal/market"
	"github.com/pcdogyu/tradesession/internal/metrics"
	"github.com/pcdogyu/tradesession/internal/runtimecfg"
	"github.com/pcdogyu/tradesession/internal/session"
	"github.com/pcdogyu/tradesession/internal/source"
	"github.com/pcdogyu/tradesession/internal/store/sqlite"
	"github.com/pcdogyu/tradesession/internal/symbol"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "init-db":
		fs := flag.NewFlagSet("init-db", flag.ExitOnError)
		cfgPath := fs.String("config", "configs/config.yaml", "config path (YAML)")
		_ = fs.Parse(os.Args[2:])

		cfg := loadConfig(*cfgPath)
		db, err := sqlite.Open(cfg.DBPath)
		fatalIf(err)
		defer db.Close()
		fatalIf(sqlite.Migrate(db))
		logrus.WithField("db", cfg.DBPath).Info("db initialized")
	case "import":
		fs := flag.NewFlagSet("import", flag.ExitOnError)
		cfgPath := fs.String("config", "configs/config.yaml", "config path (YAML)")
		file := fs.String("file", "", "session table (.csv or .xlsx)")
		enc := fs.String("encoding", "", "csv encoding without BOM: utf-8 (default) or gbk")
		sheet := fs.String("sheet", "", "xlsx sheet, default: first sheet")
		to := fs.String("to", "sqlite", "target: sqlite or redis")
		replace := fs.Bool("replace", false, "sqlite: delete products missing from the file")
		_ = fs.Parse(os.Args[2:])
		if *file == "" {
			fatalIf(errors.New("-file is required"))
		}

		cfg := loadConfig(*cfgPath)
		ctx := context.Background()
		recs, err := (&source.File{Path: *file, Encoding: *enc, Sheet: *sheet}).Records(ctx)
		fatalIf(err)
		// Reject the whole file before touching the target.
		_, err = loader.Build(recs)
		fatalIf(err)

		switch *to {
		case "sqlite":
			db, err := sqlite.Open(cfg.DBPath)
			fatalIf(err)
			defer db.Close()
			fatalIf(sqlite.Migrate(db))
			fatalIf(sqlite.UpsertSessions(db, time.Now().UTC(), recs))
			if *replace {
				stale, err := staleProducts(db, recs)
				fatalIf(err)
				fatalIf(sqlite.DeleteSessions(db, stale...))
				logrus.WithField("deleted", len(stale)).Info("stale products removed")
			}
		case "redis":
			r := source.NewRedis(cfg.Source.Redis)
			defer r.Close()
			fatalIf(r.Publish(ctx, recs))
		default:
			fatalIf(fmt.Errorf("unknown import target %q", *to))
		}
		logrus.WithFields(logrus.Fields{"file": *file, "to": *to, "products": len(recs)}).Info("import ok")
	case "dump":
		fs := flag.NewFlagSet("dump", flag.ExitOnError)
		cfgPath := fs.String("config", "configs/config.yaml", "config path (YAML)")
		_ = fs.Parse(os.Args[2:])

		cfg := loadConfig(*cfgPath)
		db, err := sqlite.Open(cfg.DBPath)
		fatalIf(err)
		defer db.Close()
		fatalIf(sqlite.Migrate(db))

		js, err := sqlite.QuerySessionJSONMap(db)
		fatalIf(err)
		mgr, err := manager.NewFromJSONMap(js)
		fatalIf(err)
		for _, p := range mgr.Products() {
			ts, _ := mgr.Get(p)
			fmt.Printf("%s\t%s\n", p, ts)
		}
	case "check":
		fs := flag.NewFlagSet("check", flag.ExitOnError)
		cfgPath := fs.String("config", "configs/config.yaml", "config path (YAML)")
		product := fs.String("product", "", "product code, e.g. rb")
		sym := fs.String("symbol", "", "contract, e.g. rb2405.SHFE")
		at := fs.String("t", "", "HH:MM:SS, or RFC3339 to also gate weekends; default: now in Asia/Shanghai")
		_ = fs.Parse(os.Args[2:])

		cfg := loadConfig(*cfgPath)
		mgr := loadOnce(context.Background(), cfg)

		p := *product
		if p == "" && *sym != "" {
			var err error
			p, err = symbol.ProductOf(*sym)
			fatalIf(err)
		}
		ts, err := mgr.Lookup(p)
		fatalIf(err)
		fmt.Println(ts)

		in, err := checkAt(ts, *at)
		fatalIf(err)
		fmt.Printf("%s in session: %v\n", p, in)
	case "serve":
		fs := flag.NewFlagSet("serve", flag.ExitOnError)
		cfgPath := fs.String("config", "configs/config.yaml", "config path (YAML)")
		listen := fs.String("listen", "", "override listen address")
		_ = fs.Parse(os.Args[2:])

		settings, err := runtimecfg.Load(*cfgPath)
		fatalIf(err)
		cfg := settings.Get()
		fatalIf(logger.Init(cfg.Log))
		metrics.Init(nil)
		if *listen != "" {
			cfg.Listen = *listen
		}

		db, err := sqlite.Open(cfg.DBPath)
		fatalIf(err)
		defer db.Close()
		fatalIf(sqlite.Migrate(db))

		src, err := source.New(cfg.Source, cfg.DBPath)
		fatalIf(err)
		defer src.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		mgr := manager.New()
		settings.Bind(mgr)
		rl := &reloader{mgr: mgr, src: src, db: db, cfgp: settings}
		if _, err := rl.fromSource(ctx, false); err != nil {
			logrus.WithError(err).Warn("initial load failed, serving without products")
		}

		go runReloadLoop(ctx, settings, rl)
		go runCleanupLoop(ctx, settings, db)

		srv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           newWebServer(settings, mgr, rl, db),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		logrus.WithFields(logrus.Fields{"listen": cfg.Listen, "source": src.Name()}).Info("serving")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatalIf(err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func loadConfig(path string) config.Config {
	cfg, err := config.Load(path)
	fatalIf(err)
	fatalIf(logger.Init(cfg.Log))
	return cfg
}

// loadOnce reads the configured source and the presets into a fresh manager.
func loadOnce(ctx context.Context, cfg config.Config) *manager.Manager {
	src, err := source.New(cfg.Source, cfg.DBPath)
	fatalIf(err)
	defer src.Close()

	mgr := manager.New()
	_, err = mgr.ReloadFrom(ctx, src, false)
	fatalIf(err)
	for product, name := range cfg.Presets {
		ts, err := market.Preset(name)
		fatalIf(err)
		mgr.Add(product, ts)
	}
	return mgr
}

// staleProducts lists stored products that recs does not mention.
func staleProducts(db *sql.DB, recs []loader.Record) ([]string, error) {
	keep := make(map[string]bool, len(recs))
	for _, r := range recs {
		keep[r.Product] = true
	}
	stored, err := sqlite.QuerySessions(db)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, r := range stored {
		if !keep[r.Product] {
			out = append(out, r.Product)
		}
	}
	return out, nil
}

// checkAt answers InSession for a clock reading, or for an instant with the
// weekday gate applied.
func checkAt(ts *session.TradeSession, at string) (bool, error) {
	if at == "" {
		return market.IsTradingTime(ts, time.Now().In(market.Shanghai)), nil
	}
	if t, err := time.Parse(time.RFC3339, at); err == nil {
		return market.IsTradingTime(ts, t.In(market.Shanghai)), nil
	}
	tod, err := session.ParseTimeOfDay(at)
	if err != nil {
		return false, err
	}
	return ts.InSession(tod, true, false), nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  tsess init-db -config configs/config.yaml")
	fmt.Fprintln(os.Stderr, "  tsess import  -config configs/config.yaml -file sessions.csv [-encoding gbk] [-sheet S] [-to sqlite|redis] [-replace]")
	fmt.Fprintln(os.Stderr, "  tsess dump    -config configs/config.yaml")
	fmt.Fprintln(os.Stderr, "  tsess check   -config configs/config.yaml (-product rb | -symbol rb2405.SHFE) [-t HH:MM:SS|RFC3339]")
	fmt.Fprintln(os.Stderr, "  tsess serve   -config configs/config.yaml [-listen 127.0.0.1:8090]")
}

func fatalIf(err error) {
	if err != nil {
		logrus.Fatal(err)
	}
}
