package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/entityforge/enrich-cli/internal/enrich"
	"github.com/entityforge/enrich-cli/internal/vocab"
	"github.com/entityforge/enrich-cli/pkg/duckduckgo"
)

// vocabStore is what a vocabulary backend must provide: the shared store,
// the creation lock, schema migration, and cleanup.
type vocabStore interface {
	vocab.Repository
	vocab.Locker
	Migrate(ctx context.Context) error
	Close()
}

// enrichEnv holds the initialized store, search client, and enricher shared
// by the enrich/batch/serve commands.
type enrichEnv struct {
	Store    vocabStore
	Client   duckduckgo.Client
	Enricher *enrich.Enricher
}

// Close releases resources held by the environment.
func (e *enrichEnv) Close() {
	if e.Store != nil {
		e.Store.Close()
	}
}

// initStore opens the configured vocabulary backend.
func initStore(ctx context.Context) (vocabStore, error) {
	switch cfg.Vocab.Driver {
	case "postgres":
		return vocab.NewPostgres(ctx, cfg.Vocab.DatabaseURL)
	case "sqlite":
		return vocab.NewSQLite(cfg.Vocab.Path)
	default:
		return nil, eris.New(fmt.Sprintf("unknown vocab driver %q (want postgres or sqlite)", cfg.Vocab.Driver))
	}
}

// initEnv sets up the store, search client, vocabulary synchronizer, and
// enricher. Callers should defer env.Close().
func initEnv(ctx context.Context) (*enrichEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate vocabulary store")
	}

	opts := []duckduckgo.Option{
		duckduckgo.WithRateLimit(cfg.Search.RatePerSec, cfg.Search.Burst),
	}
	if cfg.Search.BaseURL != "" {
		opts = append(opts, duckduckgo.WithBaseURL(cfg.Search.BaseURL))
	}
	if cfg.Search.TimeoutSecs > 0 {
		opts = append(opts, duckduckgo.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Search.TimeoutSecs) * time.Second,
		}))
	}
	client := duckduckgo.NewClient(opts...)

	var filter enrich.NameFilter
	if cfg.Connector.FilterPath != "" {
		filter, err = enrich.LoadNameFilter(cfg.Connector.FilterPath)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	syncer := vocab.NewSynchronizer(st, st)
	builder := enrich.NewClueBuilder(syncer, enrich.NewHTTPImageFetcher())
	extractor := enrich.NewExtractor(cfg.Connector, filter)
	enricher := enrich.NewEnricher(extractor, client, builder, nil)

	zap.L().Debug("environment initialized",
		zap.String("vocab_driver", cfg.Vocab.Driver),
		zap.String("search_base_url", cfg.Search.BaseURL),
	)

	return &enrichEnv{
		Store:    st,
		Client:   client,
		Enricher: enricher,
	}, nil
}
