package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"

	"github.com/scanlens/backend/internal/domain"
)

const (
	BarcodeLookupID      = "barcodelookup"
	BarcodeLookupBaseURL = "https://api.barcodelookup.com"
)

type blResponse struct {
	Products []json.RawMessage `json:"products"`
}

type blProduct struct {
	BarcodeFormat string   `json:"barcode_format"`
	ProductName   string   `json:"product_name"`
	Title         string   `json:"title"`
	Brand         string   `json:"brand"`
	Manufacturer  string   `json:"manufacturer"`
	Category      string   `json:"category"`
	Description   string   `json:"description"`
	ImageURL      string   `json:"image_url"`
	Images        []string `json:"images"`
	Size          string   `json:"size"`
	Country       string   `json:"country"`
}

// BarcodeLookup queries the paid barcodelookup.com API
type BarcodeLookup struct {
	client     *client
	baseURL    string
	descriptor domain.ProviderDescriptor
}

// NewBarcodeLookup creates a Barcode Lookup adapter. It is unavailable
// until an API key is configured.
func NewBarcodeLookup(opts Options) *BarcodeLookup {
	base := opts.BaseURL
	if base == "" {
		base = BarcodeLookupBaseURL
	}
	c := newClient("BarcodeLookup", opts.Client)
	c.SetDebug(opts.Debug)
	return &BarcodeLookup{
		client:  c,
		baseURL: base,
		descriptor: domain.ProviderDescriptor{
			ID:               BarcodeLookupID,
			DisplayName:      "Barcode Lookup",
			Description:      "Comprehensive product database",
			EndpointTemplate: base + "/v3/products?barcode={barcode}&formatted=y&key={key}",
			RequiresKey:      true,
			APIKey:           opts.APIKey,
			Confidence:       0.95,
		},
	}
}

// Descriptor returns the provider description
func (p *BarcodeLookup) Descriptor() domain.ProviderDescriptor {
	return p.descriptor
}

// Lookup fetches the first product listed for barcode
func (p *BarcodeLookup) Lookup(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	if p.descriptor.APIKey == "" {
		return nil, fmt.Errorf("%w: %s has no API key", domain.ErrProviderUnavailable, p.descriptor.ID)
	}

	params := url.Values{}
	params.Set("barcode", barcode)
	params.Set("formatted", "y")
	params.Set("key", p.descriptor.APIKey)
	reqURL := fmt.Sprintf("%s/v3/products?%s", p.baseURL, params.Encode())

	var resp blResponse
	found, err := p.client.getJSON(ctx, reqURL, nil, &resp)
	if err != nil {
		return nil, err
	}
	if !found || len(resp.Products) == 0 {
		log.Printf("[BarcodeLookup] No product for barcode %s", barcode)
		return nil, nil
	}

	var product blProduct
	if err := json.Unmarshal(resp.Products[0], &product); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	record := mapBarcodeLookup(barcode, &product, p.descriptor)
	record.RawPayload = rawPayload(resp.Products[0])
	return acceptRecord(record), nil
}
