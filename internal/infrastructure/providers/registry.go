package providers

import (
	"fmt"

	"github.com/scanlens/backend/internal/domain"
)

// DefaultOrder is the provider priority used when none is configured
var DefaultOrder = []string{OpenFoodFactsID, UPCItemDBID, BarcodeLookupID}

// Setting is the per-provider configuration read at startup
type Setting struct {
	Enabled bool
	Options Options
}

// New creates the adapter registered under id
func New(id string, opts Options) (domain.ProductProvider, error) {
	switch id {
	case OpenFoodFactsID:
		return NewOpenFoodFacts(opts), nil
	case UPCItemDBID:
		return NewUPCItemDB(opts), nil
	case BarcodeLookupID:
		return NewBarcodeLookup(opts), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, id)
	}
}

// Build creates the enabled providers in priority order. IDs missing from
// settings are built with default options.
func Build(order []string, settings map[string]Setting) ([]domain.ProductProvider, error) {
	if len(order) == 0 {
		order = DefaultOrder
	}
	seen := make(map[string]bool, len(order))
	out := make([]domain.ProductProvider, 0, len(order))
	for _, id := range order {
		if seen[id] {
			continue
		}
		seen[id] = true

		setting, ok := settings[id]
		if ok && !setting.Enabled {
			continue
		}
		p, err := New(id, setting.Options)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
