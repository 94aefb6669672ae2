package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/event-scout/internal/cache"
	"github.com/sells-group/event-scout/internal/engine"
	"github.com/sells-group/event-scout/internal/extractor"
	"github.com/sells-group/event-scout/internal/monitoring"
	"github.com/sells-group/event-scout/internal/rank"
	"github.com/sells-group/event-scout/internal/store"
	"github.com/sells-group/event-scout/internal/tier"
	anthropicpkg "github.com/sells-group/event-scout/pkg/anthropic"
	"github.com/sells-group/event-scout/pkg/firecrawl"
	"github.com/sells-group/event-scout/pkg/jina"
	"github.com/sells-group/event-scout/pkg/notion"
	"github.com/sells-group/event-scout/pkg/perplexity"
)

// extractRPS bounds outbound page reads across all extraction workers.
const extractRPS = 2

func cacheTTL() time.Duration {
	return time.Duration(cfg.Cache.TTLHours) * time.Hour
}

// engineEnv holds the initialized store, orchestrator, and supporting pieces
// needed by the search/serve/runs commands.
type engineEnv struct {
	Store        store.Store
	Orchestrator *engine.Orchestrator
	Cache        *cache.ResultCache
	Collector    *monitoring.Collector
}

// Close releases resources held by the environment.
func (e *engineEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens and migrates the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	dsn := cfg.Store.DatabaseURL
	if cfg.Store.Driver != "postgres" {
		dsn = cfg.Store.SQLitePath
	}

	st, err := store.Open(ctx, cfg.Store.Driver, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initEngine sets up the store, all API clients, the discovery tiers, and the
// orchestrator. Callers should defer env.Close().
func initEngine(ctx context.Context) (*engineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	jinaOpts := []jina.Option{jina.WithBaseURL(cfg.Jina.BaseURL)}
	if cfg.Jina.SearchBaseURL != "" {
		jinaOpts = append(jinaOpts, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
	}
	jinaClient := jina.NewClient(cfg.Jina.Key, jinaOpts...)
	firecrawlClient := firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
	perplexityClient := perplexity.NewClient(cfg.Perplexity.Key, perplexity.WithBaseURL(cfg.Perplexity.BaseURL), perplexity.WithModel(cfg.Perplexity.Model))

	// Curated tier: Notion database when configured, local dataset otherwise.
	var notionClient notion.Client
	if cfg.Notion.Token != "" && cfg.Notion.CuratedDB != "" {
		notionClient = notion.NewClient(cfg.Notion.Token)
		zap.L().Info("notion curated tier enabled")
	} else {
		zap.L().Debug("notion not configured, curated tier uses local dataset only")
	}

	dataset, err := tier.LoadDataset(cfg.Search.Curated.DatasetPath)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load curated dataset")
	}
	zap.L().Info("curated dataset loaded", zap.Int("events", len(dataset.Events)))

	curated := tier.NewCuratedService(notionClient, cfg.Notion.CuratedDB, dataset)

	executor := engine.NewTierExecutor(
		curated,
		tier.NewJinaService(jinaClient),
		tier.NewPerplexityService(perplexityClient),
		tier.NewFirecrawlService(firecrawlClient),
	)

	var primary rank.Ranker
	if cfg.Anthropic.Key != "" {
		anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
		primary = rank.NewAnthropicRanker(anthropicClient, cfg.Anthropic.RankModel)
	} else {
		zap.L().Warn("EVENTSCOUT_ANTHROPIC_KEY not set, ranking and extraction run on heuristics only")
	}
	prioritizer := engine.NewPrioritizer(primary, rank.NewHeuristicRanker())

	providers := []extractor.Provider{}
	if cfg.Anthropic.Key != "" {
		anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
		providers = append(providers, extractor.NewAnthropicExtractor(jinaClient, anthropicClient, cfg.Anthropic.ExtractModel))
	}
	providers = append(providers, extractor.NewHeuristicExtractor(firecrawlClient))
	extraction := engine.NewExtractionEngine(extractRPS, providers...)

	filter := engine.NewRelaxationFilter(cfg.Search.RelaxOrder)

	orch := engine.NewOrchestrator(executor, prioritizer, extraction, filter, curated, cfg.RequestDefaults())

	var resultCache *cache.ResultCache
	if cfg.Cache.Enabled {
		resultCache = cache.New(st, cacheTTL())
	}

	return &engineEnv{
		Store:        st,
		Orchestrator: orch,
		Cache:        resultCache,
		Collector:    monitoring.NewCollector(st),
	}, nil
}
