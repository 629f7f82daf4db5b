package usecase

import (
	"fmt"
	"strings"

	"github.com/scanlens/backend/internal/domain"
)

// formatsByLength maps the accepted digit counts to their symbology
var formatsByLength = map[int]string{
	8:  domain.FormatEAN8,
	12: domain.FormatUPCA,
	13: domain.FormatEAN13,
	14: domain.FormatITF14,
}

var separatorReplacer = strings.NewReplacer(" ", "", "-", "")

// ValidateBarcode checks a raw barcode string for digits, length and, for
// EAN-13 and UPC-A, the check digit. EAN-8 and ITF-14 are accepted on
// length alone.
func ValidateBarcode(raw string) domain.ValidationResult {
	value := separatorReplacer.Replace(raw)
	result := domain.ValidationResult{NormalizedValue: value}

	if !isDigits(value) {
		result.Reason = domain.ReasonNonNumeric
		result.Message = "Barcode must contain only digits"
		return result
	}

	format, ok := formatsByLength[len(value)]
	if !ok {
		result.Reason = domain.ReasonInvalidLength
		result.Message = fmt.Sprintf("Invalid barcode length: %d. Expected: [8 12 13 14]", len(value))
		return result
	}
	result.Format = format

	got := int(value[len(value)-1] - '0')
	var want int
	switch len(value) {
	case 13:
		want = ean13CheckDigit(value[:12])
	case 12:
		want = upcACheckDigit(value[:11])
	default:
		result.OK = true
		result.Message = "Valid barcode format"
		return result
	}

	if got != want {
		result.Reason = domain.ReasonChecksumMismatch
		result.Message = fmt.Sprintf("Invalid %s checksum. Expected: %d, Got: %d", format, want, got)
		return result
	}

	result.OK = true
	result.Message = "Valid barcode format"
	return result
}

// ean13CheckDigit weights digits at odd 0-indexed positions by 3
func ean13CheckDigit(digits string) int {
	var evenSum, oddSum int
	for i := 0; i < len(digits); i++ {
		d := int(digits[i] - '0')
		if i%2 == 0 {
			evenSum += d
		} else {
			oddSum += d
		}
	}
	total := evenSum + 3*oddSum
	return (10 - total%10) % 10
}

// upcACheckDigit weights digits at even 0-indexed positions by 3. The
// weighting is the inverse of EAN-13 because UPC-A has one fewer leading digit.
func upcACheckDigit(digits string) int {
	var evenSum, oddSum int
	for i := 0; i < len(digits); i++ {
		d := int(digits[i] - '0')
		if i%2 == 0 {
			evenSum += d
		} else {
			oddSum += d
		}
	}
	total := 3*evenSum + oddSum
	return (10 - total%10) % 10
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
