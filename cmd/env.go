package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/soprim/pricebot/internal/catalog"
	"github.com/soprim/pricebot/internal/fetcher"
	"github.com/soprim/pricebot/internal/model"
	"github.com/soprim/pricebot/internal/pricing"
	"github.com/soprim/pricebot/internal/resolve"
	"github.com/soprim/pricebot/internal/source"
	"github.com/soprim/pricebot/internal/store"
)

// botEnv holds the initialized store, catalog cache, source registry, and
// resolver shared by the resolve/serve/catalog commands.
type botEnv struct {
	Store    store.Store
	Catalog  *catalog.Cache
	Registry *source.Registry
	Runner   *source.ProcessRunner
	Resolver *resolve.Resolver
	Pricer   *pricing.Engine
}

// Close releases resources held by the environment.
func (e *botEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates the config for mode, opens the store, and builds the
// resolution stack. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*botEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	cache := initCatalog()
	runner := source.NewProcessRunner()
	registry := initRegistry(runner)

	plan := resolve.DefaultPlan()
	if cfg.Sources.PlanPath != "" {
		plan, err = resolve.LoadPlan(cfg.Sources.PlanPath)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	fastSource := model.SourceSufarmed
	if src, ok := sourceByName(cfg.Resolve.FastSource); ok {
		fastSource = src
	}

	var searcher resolve.CatalogSearcher
	if cache != nil {
		searcher = cache
	}

	resolver := resolve.New(searcher, registry, plan, runner, resolve.Options{
		Timeouts:         sourceTimeouts(),
		CatalogThreshold: cfg.Resolve.CatalogThreshold,
		FastSource:       fastSource,
	})

	return &botEnv{
		Store:    st,
		Catalog:  cache,
		Registry: registry,
		Runner:   runner,
		Resolver: resolver,
		Pricer:   pricing.NewEngine(marginTable()),
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "pricebot.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initCatalog builds the feed-backed catalog cache, or nil when no feed URL
// is configured. A nil cache degrades every query to external sources only.
func initCatalog() *catalog.Cache {
	if cfg.Catalog.FeedURL == "" {
		zap.L().Warn("catalog feed not configured, queries go straight to external sources")
		return nil
	}

	var f fetcher.Fetcher
	if strings.HasPrefix(cfg.Catalog.FeedURL, "ftp://") {
		f = fetcher.NewFTPFetcher(fetcher.FTPOptions{
			User:     cfg.Catalog.FTPUser,
			Password: cfg.Catalog.FTPPassword,
		})
	} else {
		f = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
	}

	var feed catalog.Feed
	switch cfg.Catalog.FeedKind {
	case "xlsx":
		feed = catalog.NewXLSXFeed(f, cfg.Catalog.FeedURL, "")
	default:
		feed = catalog.NewCSVFeed(f, cfg.Catalog.FeedURL)
	}

	ttl := time.Duration(cfg.Catalog.TTLSecs) * time.Second
	return catalog.NewCache(feed, ttl)
}

// initRegistry registers a script adapter for every configured source with
// a helper binary. Sources without one stay unregistered and are skipped by
// the orchestrator.
func initRegistry(runner *source.ProcessRunner) *source.Registry {
	registry := source.NewRegistry()
	for name, sc := range cfg.Sources.Adapters {
		if sc.Bin == "" {
			continue
		}
		src, ok := sourceByName(name)
		if !ok {
			zap.L().Warn("unknown source in config, skipping", zap.String("source", name))
			continue
		}
		registry.Register(source.NewScriptAdapter(src, runner, sc.Bin, sc.Args...))
	}
	return registry
}

func sourceTimeouts() map[model.Source]time.Duration {
	timeouts := make(map[model.Source]time.Duration)
	for name, sc := range cfg.Sources.Adapters {
		if sc.TimeoutSecs <= 0 {
			continue
		}
		if src, ok := sourceByName(name); ok {
			timeouts[src] = time.Duration(sc.TimeoutSecs) * time.Second
		}
	}
	return timeouts
}

func marginTable() map[model.Source]float64 {
	margins := make(map[model.Source]float64, len(cfg.Pricing.Margins))
	for name, m := range cfg.Pricing.Margins {
		src, ok := sourceByName(name)
		if !ok {
			zap.L().Warn("unknown source in margins, skipping", zap.String("source", name))
			continue
		}
		margins[src] = m
	}
	return margins
}

// sourceByName maps lowercase config keys to source identifiers.
func sourceByName(name string) (model.Source, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "base_interna", "catalogo":
		return model.SourceCatalog, true
	case "sufarmed":
		return model.SourceSufarmed, true
	case "fanasa":
		return model.SourceFanasa, true
	case "nadro":
		return model.SourceNadro, true
	case "difarmer":
		return model.SourceDifarmer, true
	default:
		return "", false
	}
}
