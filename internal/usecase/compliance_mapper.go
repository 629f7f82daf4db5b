package usecase

import (
	"regexp"
	"strings"

	"github.com/scanlens/backend/internal/domain"
)

// ExtractionMethodBarcode marks fields that came from a barcode lookup
const ExtractionMethodBarcode = "barcode_api"

// mrpPatterns are tried in order; the first match wins
var mrpPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)₹\s*(\d+(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)rs\.?\s*(\d+(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)inr\s*(\d+(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)mrp\s*[:\-]?\s*₹?\s*(\d+(?:\.\d{2})?)`),
}

// Units are unanchored so label spellings such as "gms" or "Ltr"
// collapse to their short form.
var quantityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kg|g|l|ml|pieces?|pcs?|units?)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kilograms?|millilit(?:er|re)s?)`),
}

// MapComplianceFields derives the rules engine field set from a product
// record. It never fails: anything missing is left empty.
func MapComplianceFields(record *domain.ProductRecord) domain.ComplianceFields {
	if record == nil {
		return domain.ComplianceFields{ExtractionMethod: ExtractionMethodBarcode}
	}

	return domain.ComplianceFields{
		ProductName:       record.ProductName,
		BrandName:         record.Brand,
		ManufacturerName:  record.Manufacturer,
		NetQuantityRaw:    normalizeQuantity(record.NetWeightRaw),
		CountryOfOrigin:   record.CountryOfOrigin,
		Category:          record.Category,
		IngredientsJoined: strings.Join(record.Ingredients, ", "),
		MRPRaw:            extractMRP(record.ProductName + " " + record.Description),
		Barcode:           record.Barcode,
		DataSourceLabel:   dataSourceLabel(record),
		ConfidenceScore:   record.Confidence * 100,
		ExtractionMethod:  ExtractionMethodBarcode,
	}
}

// extractMRP finds a rupee amount in free text and returns it as "₹<amount>"
func extractMRP(text string) string {
	for _, re := range mrpPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return "₹" + m[1]
		}
	}
	return ""
}

// normalizeQuantity rewrites a size string as "<value> <unit>", or returns
// it unchanged when no quantity is recognized
func normalizeQuantity(raw string) string {
	if raw == "" {
		return ""
	}
	for _, re := range quantityPatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			return m[1] + " " + strings.ToLower(m[2])
		}
	}
	return raw
}

func dataSourceLabel(record *domain.ProductRecord) string {
	name := record.SourceProviderName
	if name == "" {
		name = record.SourceProviderID
	}
	return "Barcode Scan (" + name + ")"
}
