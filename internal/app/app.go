// Package app builds the scan pipeline from configuration. The HTTP server
// and the CLI share it.
package app

import (
	"fmt"
	"log"

	"github.com/scanlens/backend/config"
	"github.com/scanlens/backend/internal/domain"
	"github.com/scanlens/backend/internal/infrastructure/cache"
	"github.com/scanlens/backend/internal/infrastructure/providers"
	"github.com/scanlens/backend/internal/infrastructure/rulesengine"
	"github.com/scanlens/backend/internal/infrastructure/zxing"
	"github.com/scanlens/backend/internal/usecase"
)

// App holds the wired scan service and the resources it owns
type App struct {
	Scanner *usecase.ScanService

	memoryCache *cache.MemoryCache
}

// New wires decoders, providers, cache and rules engine per cfg
func New(cfg *config.Config) (*App, error) {
	debug := cfg.Server.Environment == "development" || cfg.Providers.Debug

	primary := zxing.NewPrimary()
	primary.SetDebug(debug)

	var secondary domain.Decoder
	if cfg.Scanner.EnableSecondaryDecoder {
		d := zxing.NewSecondary()
		d.SetDebug(debug)
		secondary = d
	}

	var preprocessor usecase.VariantGenerator
	if cfg.Scanner.EnablePreprocessing {
		preprocessor = usecase.NewPreprocessor(nil, usecase.PreprocessorConfig{
			Parallel:   cfg.Scanner.ParallelPreprocessing,
			MaxWorkers: cfg.Scanner.MaxWorkers,
		})
	}

	engine := usecase.NewDecodeEngine(primary, secondary, preprocessor)

	productProviders, err := providers.Build(cfg.Providers.Order, cfg.ProviderSettings())
	if err != nil {
		return nil, fmt.Errorf("building providers: %w", err)
	}
	for _, p := range productProviders {
		info := p.Descriptor().Info()
		log.Printf("[App] Provider %s: %s", info.ID, info.Status)
	}

	resolver := usecase.NewResolver(productProviders, usecase.ResolverConfig{
		ProviderTimeout: cfg.Resolver.ProviderTimeout,
	})

	a := &App{}

	var cacheRepo domain.CacheRepository
	if cfg.Cache.Type == config.CacheMemory {
		a.memoryCache = cache.NewMemoryCache(0)
		cacheRepo = a.memoryCache
	}

	var compliance domain.ComplianceEngine
	if cfg.RulesEngine.URL != "" {
		compliance = rulesengine.NewClient(cfg.RulesEngine.URL, cfg.RulesEngine.Timeout)
		log.Printf("[App] Rules engine: %s", cfg.RulesEngine.URL)
	}

	a.Scanner = usecase.NewScanService(engine, resolver, cacheRepo, compliance, usecase.ScanServiceConfig{
		CacheTTL: cfg.Cache.TTL,
	})

	return a, nil
}

// Close stops the cache sweeper
func (a *App) Close() error {
	if a.memoryCache != nil {
		return a.memoryCache.Close()
	}
	return nil
}
