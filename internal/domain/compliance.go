package domain

// ComplianceFields is the canonical field set handed to the compliance rules engine
type ComplianceFields struct {
	ProductName       string  `json:"product_name"`
	BrandName         string  `json:"brand_name"`
	ManufacturerName  string  `json:"manufacturer_name"`
	NetQuantityRaw    string  `json:"net_quantity_raw"`
	CountryOfOrigin   string  `json:"country_of_origin"`
	Category          string  `json:"category"`
	IngredientsJoined string  `json:"ingredients"`
	MRPRaw            string  `json:"mrp_raw,omitempty"` // empty when no price was found
	Barcode           string  `json:"barcode"`
	DataSourceLabel   string  `json:"data_source"`
	ConfidenceScore   float64 `json:"confidence_score"` // 0-100
	ExtractionMethod  string  `json:"extraction_method"`
}

// ComplianceIssue is a single finding reported by the rules engine
type ComplianceIssue struct {
	Level   string `json:"level"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ComplianceReport is the rules engine's verdict
type ComplianceReport struct {
	Score       float64           `json:"score"`
	IsCompliant bool              `json:"is_compliant"`
	Issues      []ComplianceIssue `json:"issues"`
}
