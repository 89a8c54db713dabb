package resolve

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/soprim/pricebot/internal/catalog"
	"github.com/soprim/pricebot/internal/model"
	"github.com/soprim/pricebot/internal/source"
)

// DefaultSourceTimeout bounds an adapter call when no per-source budget is
// configured.
const DefaultSourceTimeout = 60 * time.Second

// CatalogSearcher is the slice of the catalog cache the resolver needs.
type CatalogSearcher interface {
	Search(ctx context.Context, query model.ProductQuery, threshold float64) (*catalog.Match, error)
}

// Cleaner reaps automation processes leaked by adapter helpers.
type Cleaner interface {
	Reap(ctx context.Context) int
}

// Options tunes the resolver.
type Options struct {
	// Timeouts holds per-source wall-clock budgets. Sources without an
	// entry get DefaultSourceTimeout.
	Timeouts map[model.Source]time.Duration
	// CatalogThreshold is the similarity floor for a catalog
	// short-circuit.
	CatalogThreshold float64
	// FastSource is the supplier whose offers can be delivered same-day.
	FastSource model.Source
}

// Resolver executes the phase plan for one query at a time. A catalog hit
// answers immediately without touching any supplier; otherwise every phase
// runs and the collected offers go through the selection policy. Nothing a
// source does, including timing out or panicking, aborts the overall query.
type Resolver struct {
	catalog  CatalogSearcher
	registry *source.Registry
	plan     Plan
	cleaner  Cleaner
	opts     Options

	sleep func(ctx context.Context, d time.Duration) // test hook
}

// New creates a resolver. catalog and cleaner may be nil, which disables
// the catalog short-circuit and the cleanup step respectively.
func New(cat CatalogSearcher, reg *source.Registry, plan Plan, cleaner Cleaner, opts Options) *Resolver {
	if opts.FastSource == "" {
		opts.FastSource = model.SourceSufarmed
	}
	return &Resolver{
		catalog:  cat,
		registry: reg,
		plan:     plan,
		cleaner:  cleaner,
		opts:     opts,
		sleep:    settle,
	}
}

// Resolve answers a product query with the offers worth quoting.
func (r *Resolver) Resolve(ctx context.Context, query model.ProductQuery) model.OfferBundle {
	if r.catalog != nil {
		match, err := r.catalog.Search(ctx, query, r.opts.CatalogThreshold)
		if err != nil {
			zap.L().Warn("catalog lookup failed, falling through to suppliers",
				zap.String("query", query.Normalized),
				zap.Error(err),
			)
		} else if match != nil {
			offer := catalog.Format(match.Entry)
			zap.L().Info("catalog hit, skipping external sources",
				zap.String("query", query.Normalized),
				zap.String("product", offer.Name),
				zap.Float64("score", match.Score),
			)
			return model.OfferBundle{BestPrice: &offer}
		}
	}

	offers := r.collect(ctx, query)
	return SelectOffers(offers, r.opts.FastSource)
}

func (r *Resolver) collect(ctx context.Context, query model.ProductQuery) []model.Offer {
	var offers []model.Offer
	for _, phase := range r.plan.Phases {
		start := time.Now()
		found := r.runPhase(ctx, phase, query)
		offers = append(offers, found...)

		zap.L().Debug("phase finished",
			zap.String("phase", phase.Name),
			zap.Int("offers", len(found)),
			zap.Duration("elapsed", time.Since(start)),
		)

		if phase.Cleanup && r.cleaner != nil {
			r.cleaner.Reap(ctx)
		}
		r.sleep(ctx, phase.SettleDelay)
	}
	return offers
}

func (r *Resolver) runPhase(ctx context.Context, phase Phase, query model.ProductQuery) []model.Offer {
	if !phase.Parallel {
		var offers []model.Offer
		for _, src := range phase.Sources {
			if offer, ok := r.searchSource(ctx, src, query); ok {
				offers = append(offers, offer)
			}
		}
		return offers
	}

	var (
		mu     sync.Mutex
		offers []model.Offer
	)
	g := new(errgroup.Group)
	for _, src := range phase.Sources {
		src := src
		g.Go(func() error {
			if offer, ok := r.searchSource(ctx, src, query); ok {
				mu.Lock()
				offers = append(offers, offer)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return offers
}

// searchSource calls one adapter under its timeout. A slow adapter is
// abandoned, not awaited: its goroutine keeps running until the helper
// notices the cancelled context, and the cleanup step reaps whatever it
// leaked.
func (r *Resolver) searchSource(ctx context.Context, src model.Source, query model.ProductQuery) (model.Offer, bool) {
	adapter := r.registry.Get(src)
	if adapter == nil {
		zap.L().Debug("source not registered", zap.String("source", src.String()))
		return model.Offer{}, false
	}

	timeout := r.opts.Timeouts[src]
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan model.RawResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				zap.L().Error("source adapter panicked",
					zap.String("source", src.String()),
					zap.Any("panic", p),
				)
				ch <- model.RawResult{Status: model.RawError, Message: "adapter panic"}
			}
		}()
		ch <- adapter.Search(callCtx, query)
	}()

	start := time.Now()
	select {
	case raw := <-ch:
		zap.L().Debug("source answered",
			zap.String("source", src.String()),
			zap.String("status", string(raw.Status)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return source.NormalizeResult(src, raw)
	case <-callCtx.Done():
		zap.L().Warn("source timed out, abandoning",
			zap.String("source", src.String()),
			zap.Duration("budget", timeout),
		)
		return model.Offer{}, false
	}
}

func settle(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
