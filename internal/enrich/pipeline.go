package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/entityforge/enrich-cli/internal/model"
	"github.com/entityforge/enrich-cli/internal/resilience"
	"github.com/entityforge/enrich-cli/pkg/duckduckgo"
)

// Searcher is the slice of the search client the pipeline needs.
type Searcher interface {
	Search(ctx context.Context, term string) (*duckduckgo.SearchResult, error)
	SearchVariants(ctx context.Context, name string) (*duckduckgo.SearchResult, error)
}

// ClueSink receives finished clues. Ownership of the clue transfers on
// Submit.
type ClueSink interface {
	Submit(ctx context.Context, clue *model.Clue) error
}

// Enricher runs the per-entity enrichment pass: candidate extraction, query
// execution, normalization and clue construction. One pass is a sequential
// unit of work; concurrency happens across entities, not inside a pass.
type Enricher struct {
	extractor *Extractor
	search    Searcher
	builder   *ClueBuilder
	sink      ClueSink
	retry     resilience.Config
}

// NewEnricher wires the pipeline. sink may be nil when the caller consumes
// the returned clues directly.
func NewEnricher(extractor *Extractor, search Searcher, builder *ClueBuilder, sink ClueSink) *Enricher {
	return &Enricher{
		extractor: extractor,
		search:    search,
		builder:   builder,
		sink:      sink,
		retry:     resilience.DefaultConfig(),
	}
}

// EnrichEntity runs one full pass for the entity and returns the clues
// produced. Zero candidates or zero usable results is success, not error.
func (e *Enricher) EnrichEntity(ctx context.Context, entity *model.Entity) ([]*model.Clue, error) {
	log := zap.L().With(
		zap.String("entity", entity.Name),
		zap.Stringer("origin_code", entity.OriginCode),
	)

	candidates := e.extractor.Candidates(entity, nil)
	if len(candidates) == 0 {
		log.Debug("no search candidates for entity")
		return nil, nil
	}
	log.Info("enriching entity", zap.Int("candidates", len(candidates)))

	var results []*duckduckgo.SearchResult
	var clues []*model.Clue

	for _, cand := range candidates {
		// Results gathered earlier in this pass may already cover the
		// candidate; skip the remote round trip.
		if Covered(cand, results) {
			log.Debug("candidate covered by earlier result", zap.String("candidate", cand.Value))
			continue
		}

		result, err := resilience.DoVal(ctx, e.withRetryLog(cand.Value), func(ctx context.Context) (*duckduckgo.SearchResult, error) {
			if cand.Kind == model.CandidateName {
				return e.search.SearchVariants(ctx, cand.Value)
			}
			return e.search.Search(ctx, cand.Value)
		})
		if err != nil {
			return clues, eris.Wrapf(err, "enrich: query %q", cand.Value)
		}
		if !result.Usable() {
			continue
		}
		results = append(results, result)

		clue, err := e.builder.Build(ctx, result, entity)
		if err != nil {
			return clues, err
		}
		if clue == nil {
			log.Debug("result rejected by company guard", zap.String("candidate", cand.Value))
			continue
		}

		if e.sink != nil {
			if err := e.sink.Submit(ctx, clue); err != nil {
				return clues, eris.Wrap(err, "enrich: submit clue")
			}
		}
		clues = append(clues, clue)
	}

	log.Info("entity pass complete", zap.Int("clues", len(clues)))
	return clues, nil
}

// EnrichBatch runs passes for many entities with bounded concurrency. The
// first failing entity cancels the remaining work.
func (e *Enricher) EnrichBatch(ctx context.Context, entities []*model.Entity, concurrency int) ([]*model.Clue, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	clueLists := make([][]*model.Clue, len(entities))
	for i, entity := range entities {
		g.Go(func() error {
			clues, err := e.EnrichEntity(ctx, entity)
			clueLists[i] = clues
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []*model.Clue
	for _, clues := range clueLists {
		all = append(all, clues...)
	}
	return all, nil
}

func (e *Enricher) withRetryLog(candidate string) resilience.Config {
	cfg := e.retry
	cfg.OnRetry = resilience.RetryLogger("search " + candidate)
	return cfg
}
