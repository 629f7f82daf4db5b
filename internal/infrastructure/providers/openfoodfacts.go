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
	OpenFoodFactsID      = "openfoodfacts"
	OpenFoodFactsBaseURL = "https://world.openfoodfacts.org"
)

// Options configures a single provider adapter
type Options struct {
	BaseURL string
	APIKey  string
	Client  ClientConfig
	Debug   bool
}

type offResponse struct {
	Status  int             `json:"status"`
	Product json.RawMessage `json:"product"`
}

type offProduct struct {
	ProductName         string                     `json:"product_name"`
	Brands              string                     `json:"brands"`
	ManufacturingPlaces string                     `json:"manufacturing_places"`
	Categories          string                     `json:"categories"`
	GenericName         string                     `json:"generic_name"`
	IngredientsText     string                     `json:"ingredients_text"`
	Quantity            string                     `json:"quantity"`
	Countries           string                     `json:"countries"`
	Nutriments          map[string]interface{}     `json:"nutriments"`
	Images              map[string]json.RawMessage `json:"images"`
}

// OpenFoodFacts looks products up in the Open Food Facts database
type OpenFoodFacts struct {
	client     *client
	baseURL    string
	descriptor domain.ProviderDescriptor
}

// NewOpenFoodFacts creates an Open Food Facts adapter
func NewOpenFoodFacts(opts Options) *OpenFoodFacts {
	base := opts.BaseURL
	if base == "" {
		base = OpenFoodFactsBaseURL
	}
	c := newClient("OpenFoodFacts", opts.Client)
	c.SetDebug(opts.Debug)
	return &OpenFoodFacts{
		client:  c,
		baseURL: base,
		descriptor: domain.ProviderDescriptor{
			ID:               OpenFoodFactsID,
			DisplayName:      "Open Food Facts",
			Description:      "Free, open database of food products",
			EndpointTemplate: base + "/api/v0/product/{barcode}.json",
			IsFree:           true,
			Confidence:       0.9,
		},
	}
}

// Descriptor returns the provider description
func (p *OpenFoodFacts) Descriptor() domain.ProviderDescriptor {
	return p.descriptor
}

// Lookup fetches the product for barcode. Unknown products are (nil, nil).
func (p *OpenFoodFacts) Lookup(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	reqURL := fmt.Sprintf("%s/api/v0/product/%s.json", p.baseURL, url.PathEscape(barcode))

	var resp offResponse
	found, err := p.client.getJSON(ctx, reqURL, nil, &resp)
	if err != nil {
		return nil, err
	}
	if !found || resp.Status != 1 || isNull(resp.Product) {
		log.Printf("[OpenFoodFacts] No product for barcode %s", barcode)
		return nil, nil
	}

	var product offProduct
	if err := json.Unmarshal(resp.Product, &product); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	record := mapOpenFoodFacts(barcode, &product, p.descriptor)
	record.RawPayload = rawPayload(resp.Product)
	return acceptRecord(record), nil
}
