package domain

import (
	"fmt"
	"image"
)

// Validation failure reasons
const (
	ReasonNonNumeric       = "non-numeric"
	ReasonInvalidLength    = "invalid length"
	ReasonChecksumMismatch = "checksum mismatch"
)

// Barcode symbology names keyed by digit count
const (
	FormatEAN8  = "EAN-8"
	FormatUPCA  = "UPC-A"
	FormatEAN13 = "EAN-13"
	FormatITF14 = "ITF-14"
)

// CandidateSource records which decode tier produced a candidate
type CandidateSource string

const (
	SourceDecoder          CandidateSource = "decoder"
	SourceSecondaryDecoder CandidateSource = "secondary_decoder"
)

// SourcePreprocessedVariant names the candidate source for the i-th preprocessing variant
func SourcePreprocessedVariant(i int) CandidateSource {
	return CandidateSource(fmt.Sprintf("preprocessed_variant_%d", i))
}

// Symbol is a single result of the decoder primitive
type Symbol struct {
	Value   string        `json:"value"`
	Format  string        `json:"format"`
	Polygon []image.Point `json:"polygon,omitempty"`
}

// BarcodeCandidate is a decoded barcode value awaiting validation
type BarcodeCandidate struct {
	Value          string          `json:"value"`
	Source         CandidateSource `json:"source"`
	DetectedFormat string          `json:"detectedFormat"`
	Variant        string          `json:"variant,omitempty"` // preprocessing stage name
}

// Detection pairs a candidate with where it was found, for overlay rendering
type Detection struct {
	Candidate BarcodeCandidate `json:"candidate"`
	Polygon   []image.Point    `json:"polygon"`
	Region    image.Rectangle  `json:"region"`
}

// ValidationResult is the outcome of format and checksum validation
type ValidationResult struct {
	OK              bool   `json:"ok"`
	NormalizedValue string `json:"normalizedValue"`
	Reason          string `json:"reason,omitempty"`
	Format          string `json:"format,omitempty"`
	Message         string `json:"message"`
}

// Err returns a *ValidationError for a failed result, nil otherwise
func (r ValidationResult) Err() error {
	if r.OK {
		return nil
	}
	return &ValidationError{Value: r.NormalizedValue, Reason: r.Reason, Msg: r.Message}
}
