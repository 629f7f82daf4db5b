package domain

import "time"

// ProviderDescriptor describes a product-data provider. Loaded once at startup
// and read-only afterwards.
type ProviderDescriptor struct {
	ID               string  `json:"id"`
	DisplayName      string  `json:"displayName"`
	Description      string  `json:"description"`
	EndpointTemplate string  `json:"endpointTemplate"`
	IsFree           bool    `json:"isFree"`
	RequiresKey      bool    `json:"requiresKey"`
	APIKey           string  `json:"-"`
	Confidence       float64 `json:"confidence"` // fixed trust weight 0-1
}

// Available reports whether the provider may be queried. A provider that
// requires a key and has none is never available.
func (d ProviderDescriptor) Available() bool {
	if d.RequiresKey && d.APIKey == "" {
		return false
	}
	return d.IsFree || d.APIKey != ""
}

// Info summarizes the descriptor for listing endpoints
func (d ProviderDescriptor) Info() ProviderInfo {
	available := d.Available()
	status := "Requires API Key"
	switch {
	case d.IsFree:
		status = "Free"
	case available:
		status = "Available"
	}
	return ProviderInfo{
		ID:          d.ID,
		Name:        d.DisplayName,
		Description: d.Description,
		Free:        d.IsFree,
		RequiresKey: d.RequiresKey,
		Available:   available,
		Status:      status,
	}
}

// ProviderInfo is the public availability view of a provider
type ProviderInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Free        bool   `json:"free"`
	RequiresKey bool   `json:"requiresKey"`
	Available   bool   `json:"available"`
	Status      string `json:"status"`
}

// ProductRecord is the product data returned by a single provider. It is
// never merged with another provider's record.
type ProductRecord struct {
	Barcode            string                 `json:"barcode"`
	Format             string                 `json:"format"`
	ProductName        string                 `json:"productName"`
	Brand              string                 `json:"brand,omitempty"`
	Manufacturer       string                 `json:"manufacturer,omitempty"`
	Category           string                 `json:"category,omitempty"`
	Description        string                 `json:"description,omitempty"`
	Images             []string               `json:"images"`
	NutritionFacts     map[string]interface{} `json:"nutritionFacts,omitempty"`
	Ingredients        []string               `json:"ingredients"`
	NetWeightRaw       string                 `json:"netWeightRaw,omitempty"`
	CountryOfOrigin    string                 `json:"countryOfOrigin,omitempty"`
	SourceProviderID   string                 `json:"sourceProviderId"`
	SourceProviderName string                 `json:"sourceProviderName"`
	Confidence         float64                `json:"confidence"`
	RawPayload         map[string]interface{} `json:"rawPayload,omitempty"`
	FetchedAt          time.Time              `json:"fetchedAt"`
}
