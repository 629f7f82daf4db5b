package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/scanlens/backend/internal/domain"
)

// ResolverConfig holds configuration for the provider resolver
type ResolverConfig struct {
	ProviderTimeout time.Duration
}

// Resolver queries product providers one at a time until one returns a
// usable record
type Resolver struct {
	providers []domain.ProductProvider
	byID      map[string]domain.ProductProvider
	timeout   time.Duration
}

// NewResolver creates a resolver over providers, given in priority order
func NewResolver(providers []domain.ProductProvider, config ResolverConfig) *Resolver {
	timeout := config.ProviderTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	byID := make(map[string]domain.ProductProvider, len(providers))
	for _, p := range providers {
		byID[p.Descriptor().ID] = p
	}
	return &Resolver{
		providers: providers,
		byID:      byID,
		timeout:   timeout,
	}
}

// Providers lists every registered provider with its availability
func (r *Resolver) Providers() []domain.ProviderInfo {
	infos := make([]domain.ProviderInfo, 0, len(r.providers))
	for _, p := range r.providers {
		infos = append(infos, p.Descriptor().Info())
	}
	return infos
}

// Resolve looks barcode up across providers and returns the first record
// with a non-empty product name. A non-empty providerID restricts the
// lookup to that provider.
//
// Running out of providers is not an error: the resolution comes back
// EXHAUSTED. The only error besides an unknown provider is ErrAborted,
// returned with the partial resolution when ctx is cancelled.
func (r *Resolver) Resolve(ctx context.Context, barcode, providerID string) (*domain.Resolution, error) {
	res := &domain.Resolution{
		Barcode:  barcode,
		State:    domain.StatePending,
		Attempts: []domain.Attempt{},
	}

	candidates := r.ordered()
	if providerID != "" {
		p, ok := r.byID[providerID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, providerID)
		}
		candidates = []domain.ProductProvider{p}
	}

	for _, p := range candidates {
		d := p.Descriptor()
		if err := ctx.Err(); err != nil {
			return r.abort(res, d.ID, 0, err)
		}
		if !d.Available() {
			log.Printf("[Resolver] Skipping %s: no API key", d.ID)
			res.Attempts = append(res.Attempts, domain.Attempt{
				ProviderID: d.ID,
				Outcome:    domain.OutcomeUnavailable,
				Error:      domain.ErrProviderUnavailable.Error(),
			})
			continue
		}

		res.State = domain.StateTrying
		start := time.Now()
		record, err := r.lookup(ctx, p, barcode)
		elapsed := time.Since(start)

		attempt := domain.Attempt{ProviderID: d.ID, Duration: elapsed}
		switch {
		case err != nil && ctx.Err() != nil:
			return r.abort(res, d.ID, elapsed, ctx.Err())
		case errors.Is(err, domain.ErrProviderUnavailable):
			attempt.Outcome = domain.OutcomeUnavailable
			attempt.Error = err.Error()
		case err != nil:
			log.Printf("[Resolver] %s failed for %s after %v: %v", d.ID, barcode, elapsed, err)
			attempt.Outcome = domain.OutcomeError
			attempt.Error = err.Error()
		case record == nil || strings.TrimSpace(record.ProductName) == "":
			attempt.Outcome = domain.OutcomeEmpty
		default:
			attempt.Outcome = domain.OutcomeAccepted
			res.Attempts = append(res.Attempts, attempt)
			res.State = domain.StateSuccess
			res.Record = record
			log.Printf("[Resolver] %s resolved %s: %q", d.ID, barcode, record.ProductName)
			return res, nil
		}
		res.Attempts = append(res.Attempts, attempt)
	}

	res.State = domain.StateExhausted
	log.Printf("[Resolver] No provider resolved %s (%d attempts)", barcode, len(res.Attempts))
	return res, nil
}

type lookupResult struct {
	record *domain.ProductRecord
	err    error
}

// lookup calls the provider under the per-attempt timeout. A provider that
// ignores its context is abandoned once the timeout fires.
func (r *Resolver) lookup(ctx context.Context, p domain.ProductProvider, barcode string) (*domain.ProductRecord, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan lookupResult, 1)
	go func() {
		record, err := p.Lookup(attemptCtx, barcode)
		done <- lookupResult{record, err}
	}()

	select {
	case out := <-done:
		return out.record, out.err
	case <-attemptCtx.Done():
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, attemptCtx.Err())
	}
}

func (r *Resolver) abort(res *domain.Resolution, providerID string, elapsed time.Duration, cause error) (*domain.Resolution, error) {
	res.State = domain.StateAborted
	res.Attempts = append(res.Attempts, domain.Attempt{
		ProviderID: providerID,
		Outcome:    domain.OutcomeAborted,
		Error:      cause.Error(),
		Duration:   elapsed,
	})
	log.Printf("[Resolver] Aborted resolution of %s: %v", res.Barcode, cause)
	return res, fmt.Errorf("%w: %v", domain.ErrAborted, cause)
}

// ordered returns the providers with free ones first, keeping the
// configured priority within each group
func (r *Resolver) ordered() []domain.ProductProvider {
	out := make([]domain.ProductProvider, len(r.providers))
	copy(out, r.providers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Descriptor().IsFree && !out[j].Descriptor().IsFree
	})
	return out
}
