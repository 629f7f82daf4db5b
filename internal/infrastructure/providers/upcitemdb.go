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
	UPCItemDBID      = "upcitemdb"
	UPCItemDBBaseURL = "https://api.upcitemdb.com"
)

type upcResponse struct {
	Code  string            `json:"code"`
	Items []json.RawMessage `json:"items"`
}

type upcItem struct {
	Title        string   `json:"title"`
	Brand        string   `json:"brand"`
	Manufacturer string   `json:"manufacturer"`
	Category     string   `json:"category"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	Images       []string `json:"images"`
	Size         string   `json:"size"`
}

// UPCItemDB looks products up in UPCitemdb. Without a key it uses the
// free trial endpoint.
type UPCItemDB struct {
	client     *client
	baseURL    string
	descriptor domain.ProviderDescriptor
}

// NewUPCItemDB creates a UPCitemdb adapter
func NewUPCItemDB(opts Options) *UPCItemDB {
	base := opts.BaseURL
	if base == "" {
		base = UPCItemDBBaseURL
	}
	c := newClient("UPCItemDB", opts.Client)
	c.SetDebug(opts.Debug)
	p := &UPCItemDB{
		client:  c,
		baseURL: base,
		descriptor: domain.ProviderDescriptor{
			ID:          UPCItemDBID,
			DisplayName: "UPC Item DB",
			Description: "UPC database with a free trial tier",
			IsFree:      true,
			APIKey:      opts.APIKey,
			Confidence:  0.8,
		},
	}
	p.descriptor.EndpointTemplate = base + p.path() + "?upc={barcode}"
	return p
}

func (p *UPCItemDB) path() string {
	if p.descriptor.APIKey != "" {
		return "/prod/v1/lookup"
	}
	return "/prod/trial/lookup"
}

// Descriptor returns the provider description
func (p *UPCItemDB) Descriptor() domain.ProviderDescriptor {
	return p.descriptor
}

// Lookup fetches the first item listed for barcode
func (p *UPCItemDB) Lookup(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	params := url.Values{}
	params.Set("upc", barcode)
	reqURL := fmt.Sprintf("%s%s?%s", p.baseURL, p.path(), params.Encode())

	var headers map[string]string
	if key := p.descriptor.APIKey; key != "" {
		headers = map[string]string{"user_key": key, "key_type": "3scale"}
	}

	var resp upcResponse
	found, err := p.client.getJSON(ctx, reqURL, headers, &resp)
	if err != nil {
		return nil, err
	}
	if !found || resp.Code != "OK" || len(resp.Items) == 0 {
		log.Printf("[UPCItemDB] No item for barcode %s (code %q)", barcode, resp.Code)
		return nil, nil
	}

	var item upcItem
	if err := json.Unmarshal(resp.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	record := mapUPCItemDB(barcode, &item, p.descriptor)
	record.RawPayload = rawPayload(resp.Items[0])
	return acceptRecord(record), nil
}
