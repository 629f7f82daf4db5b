package providers

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/scanlens/backend/internal/domain"
)

// mapOpenFoodFacts converts an Open Food Facts product into a ProductRecord
func mapOpenFoodFacts(barcode string, p *offProduct, d domain.ProviderDescriptor) *domain.ProductRecord {
	record := newRecord(barcode, "EAN/UPC", d)
	record.ProductName = p.ProductName
	record.Brand = p.Brands
	record.Manufacturer = p.ManufacturingPlaces
	record.Category = p.Categories
	record.Description = p.GenericName
	record.NetWeightRaw = p.Quantity
	record.CountryOfOrigin = p.Countries
	record.Images = offImages(p.Images)
	record.NutritionFacts = offNutrition(p.Nutriments)
	if p.IngredientsText != "" {
		record.Ingredients = strings.Split(p.IngredientsText, ", ")
	}
	return record
}

// offNutrition keeps nutriment values, dropping the *_unit and *_value twins
func offNutrition(nutriments map[string]interface{}) map[string]interface{} {
	if len(nutriments) == 0 {
		return nil
	}
	facts := make(map[string]interface{}, len(nutriments))
	for k, v := range nutriments {
		if strings.HasSuffix(k, "_unit") || strings.HasSuffix(k, "_value") {
			continue
		}
		facts[k] = v
	}
	return facts
}

// offImages collects the display URLs in key order. A display entry is
// either a URL or a map of language to URL.
func offImages(images map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(images))
	for k := range images {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	urls := []string{}
	for _, k := range keys {
		var entry struct {
			Display json.RawMessage `json:"display"`
		}
		if err := json.Unmarshal(images[k], &entry); err != nil || isNull(entry.Display) {
			continue
		}
		var single string
		if err := json.Unmarshal(entry.Display, &single); err == nil {
			if single != "" {
				urls = append(urls, single)
			}
			continue
		}
		var byLang map[string]string
		if err := json.Unmarshal(entry.Display, &byLang); err == nil {
			langs := make([]string, 0, len(byLang))
			for lang := range byLang {
				langs = append(langs, lang)
			}
			sort.Strings(langs)
			for _, lang := range langs {
				if u := byLang[lang]; u != "" {
					urls = append(urls, u)
				}
			}
		}
	}
	return urls
}

// mapUPCItemDB converts a UPCitemdb item into a ProductRecord
func mapUPCItemDB(barcode string, item *upcItem, d domain.ProviderDescriptor) *domain.ProductRecord {
	record := newRecord(barcode, "UPC", d)
	record.ProductName = item.Title
	record.Brand = item.Brand
	record.Manufacturer = item.Manufacturer
	record.Category = item.Category
	record.Description = item.Description
	record.NetWeightRaw = item.Size
	record.Images = imageList(item.Image, item.Images)
	return record
}

// mapBarcodeLookup converts a Barcode Lookup product into a ProductRecord
func mapBarcodeLookup(barcode string, p *blProduct, d domain.ProviderDescriptor) *domain.ProductRecord {
	format := p.BarcodeFormat
	if format == "" {
		format = "Unknown"
	}
	record := newRecord(barcode, format, d)
	record.ProductName = firstNonEmpty(p.ProductName, p.Title)
	record.Brand = p.Brand
	record.Manufacturer = p.Manufacturer
	record.Category = p.Category
	record.Description = p.Description
	record.NetWeightRaw = p.Size
	record.CountryOfOrigin = p.Country
	record.Images = imageList(p.ImageURL, p.Images)
	return record
}

func newRecord(barcode, format string, d domain.ProviderDescriptor) *domain.ProductRecord {
	return &domain.ProductRecord{
		Barcode:            barcode,
		Format:             format,
		Images:             []string{},
		Ingredients:        []string{},
		SourceProviderID:   d.ID,
		SourceProviderName: d.DisplayName,
		Confidence:         d.Confidence,
		FetchedAt:          time.Now().UTC(),
	}
}

// acceptRecord turns a record without a usable name into a miss
func acceptRecord(r *domain.ProductRecord) *domain.ProductRecord {
	if strings.TrimSpace(r.ProductName) == "" {
		return nil
	}
	return r
}

// imageList prefers the single image field and falls back to the list
func imageList(single string, list []string) []string {
	if single != "" {
		return []string{single}
	}
	out := []string{}
	for _, u := range list {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func rawPayload(data json.RawMessage) map[string]interface{} {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	return raw
}

func isNull(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
