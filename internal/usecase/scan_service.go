package usecase

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/scanlens/backend/internal/domain"
)

// autoProvider names the default provider order in cache keys
const autoProvider = "auto"

// ScanServiceConfig holds configuration for the scan service
type ScanServiceConfig struct {
	CacheTTL time.Duration
}

// ScanService runs the pipeline from image or typed barcode to compliance
// fields: decode, validate, resolve, map, and optionally evaluate.
type ScanService struct {
	engine     *DecodeEngine
	resolver   *Resolver
	cache      domain.CacheRepository
	compliance domain.ComplianceEngine
	cacheTTL   time.Duration
}

// NewScanService creates a scan service. cache and compliance may be nil.
func NewScanService(
	engine *DecodeEngine,
	resolver *Resolver,
	cache domain.CacheRepository,
	compliance domain.ComplianceEngine,
	config ScanServiceConfig,
) *ScanService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &ScanService{
		engine:     engine,
		resolver:   resolver,
		cache:      cache,
		compliance: compliance,
		cacheTTL:   cacheTTL,
	}
}

// Providers lists the configured product providers
func (s *ScanService) Providers() []domain.ProviderInfo {
	return s.resolver.Providers()
}

// ScanImage decodes img and resolves the first candidate that validates.
// Misses along the way are reported in the status, not as errors.
func (s *ScanService) ScanImage(ctx context.Context, img image.Image, providerID string) (*domain.ScanReport, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: image is required", domain.ErrInvalidRequest)
	}

	outcome, err := s.engine.Decode(ctx, img)
	if err != nil {
		return nil, err
	}

	report := &domain.ScanReport{Candidates: outcome.Candidates}
	if outcome.Empty() {
		log.Printf("[ScanService] No barcode decoded (variants tried: %d)", outcome.VariantsTried)
		report.Status = domain.ScanDecodeMiss
		return report, nil
	}

	for _, c := range outcome.Candidates {
		v := ValidateBarcode(c.Value)
		report.Validations = append(report.Validations, v)
		if v.OK && report.Barcode == "" {
			report.Barcode = v.NormalizedValue
		}
	}
	if report.Barcode == "" {
		report.Status = domain.ScanInvalidBarcode
		return report, nil
	}

	return s.resolve(ctx, report, providerID)
}

// LookupBarcode validates a typed barcode and resolves it, skipping decode
func (s *ScanService) LookupBarcode(ctx context.Context, raw, providerID string) (*domain.ScanReport, error) {
	v := ValidateBarcode(raw)
	report := &domain.ScanReport{Validations: []domain.ValidationResult{v}}
	if !v.OK {
		report.Status = domain.ScanInvalidBarcode
		return report, nil
	}
	report.Barcode = v.NormalizedValue

	return s.resolve(ctx, report, providerID)
}

// Detect returns every barcode found in img with its region
func (s *ScanService) Detect(ctx context.Context, img image.Image) ([]domain.Detection, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: image is required", domain.ErrInvalidRequest)
	}
	return s.engine.DecodeWithRegions(ctx, img)
}

// resolve fills the resolution and compliance parts of report.
// Flow: check cache -> resolver -> cache -> map fields -> rules engine
func (s *ScanService) resolve(ctx context.Context, report *domain.ScanReport, providerID string) (*domain.ScanReport, error) {
	cacheKey := generateCacheKey(report.Barcode, providerID)

	if record, ok := s.getFromCache(ctx, cacheKey); ok {
		report.Resolution = &domain.Resolution{
			Barcode:  report.Barcode,
			State:    domain.StateSuccess,
			Record:   record,
			Attempts: []domain.Attempt{},
			Cached:   true,
		}
	} else {
		resolution, err := s.resolver.Resolve(ctx, report.Barcode, providerID)
		if err != nil {
			return nil, err
		}
		report.Resolution = resolution
		if !resolution.Found() {
			report.Status = domain.ScanNotFound
			return report, nil
		}
		s.setInCache(ctx, cacheKey, resolution.Record)
	}

	report.Status = domain.ScanResolved
	fields := MapComplianceFields(report.Resolution.Record)
	report.Fields = &fields
	report.Compliance = s.evaluate(ctx, fields)
	return report, nil
}

// evaluate consults the rules engine when one is configured. Failures are
// logged and leave the report without a verdict.
func (s *ScanService) evaluate(ctx context.Context, fields domain.ComplianceFields) *domain.ComplianceReport {
	if s.compliance == nil {
		return nil
	}
	verdict, err := s.compliance.Evaluate(ctx, fields)
	if err != nil {
		log.Printf("[ScanService] Compliance evaluation failed for %s: %v", fields.Barcode, err)
		return nil
	}
	return verdict
}

// generateCacheKey creates the cache key for a resolved product.
// Format: "product:{provider|auto}:{barcode}"
func generateCacheKey(barcode, providerID string) string {
	if providerID == "" {
		providerID = autoProvider
	}
	return fmt.Sprintf("product:%s:%s", providerID, barcode)
}

// getFromCache retrieves a product record from cache
func (s *ScanService) getFromCache(ctx context.Context, key string) (*domain.ProductRecord, bool) {
	if s.cache == nil {
		return nil, false
	}
	var record domain.ProductRecord
	if err := s.cache.Get(ctx, key, &record); err != nil {
		return nil, false
	}
	return &record, true
}

// setInCache stores a product record; failures only cost a future lookup
func (s *ScanService) setInCache(ctx context.Context, key string, record *domain.ProductRecord) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, record, s.cacheTTL); err != nil {
		log.Printf("[ScanService] Failed to cache %s: %v", key, err)
	}
}
