package domain

import (
	"context"
	"image"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string, dst interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Decoder is the barcode decoding primitive. Malformed or unsupported
// images yield an empty slice, never an error.
type Decoder interface {
	Name() string
	Decode(ctx context.Context, img image.Image) []Symbol
}

// ProductProvider looks up a barcode at one external data source.
// A miss is (nil, nil); errors are reserved for failed requests.
type ProductProvider interface {
	Descriptor() ProviderDescriptor
	Lookup(ctx context.Context, barcode string) (*ProductRecord, error)
}

// ComplianceEngine evaluates compliance fields against regulatory rules
type ComplianceEngine interface {
	Evaluate(ctx context.Context, fields ComplianceFields) (*ComplianceReport, error)
}
