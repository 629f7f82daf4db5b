package domain

import "time"

// ResolutionState tracks a single resolution request through the provider list
type ResolutionState string

const (
	StatePending   ResolutionState = "pending"
	StateTrying    ResolutionState = "trying"
	StateSuccess   ResolutionState = "success"
	StateExhausted ResolutionState = "exhausted"
	StateAborted   ResolutionState = "aborted"
)

// AttemptOutcome classifies how one provider attempt ended
type AttemptOutcome string

const (
	OutcomeAccepted    AttemptOutcome = "accepted"
	OutcomeEmpty       AttemptOutcome = "empty"       // call succeeded, no usable product name
	OutcomeUnavailable AttemptOutcome = "unavailable" // skipped, key missing
	OutcomeError       AttemptOutcome = "error"
	OutcomeAborted     AttemptOutcome = "aborted"
)

// Attempt is one provider's part in a resolution
type Attempt struct {
	ProviderID string         `json:"providerId"`
	Outcome    AttemptOutcome `json:"outcome"`
	Error      string         `json:"error,omitempty"`
	Duration   time.Duration  `json:"duration"`
}

// Resolution is the result of querying providers for one barcode
type Resolution struct {
	Barcode  string          `json:"barcode"`
	State    ResolutionState `json:"state"`
	Record   *ProductRecord  `json:"record,omitempty"`
	Attempts []Attempt       `json:"attempts"`
	Cached   bool            `json:"cached"`
}

// Found reports whether a provider record was accepted
func (r *Resolution) Found() bool {
	return r != nil && r.State == StateSuccess && r.Record != nil
}

// ScanStatus is the terminal outcome of the scan pipeline
type ScanStatus string

const (
	ScanDecodeMiss     ScanStatus = "decode_miss"
	ScanInvalidBarcode ScanStatus = "invalid_barcode"
	ScanNotFound       ScanStatus = "not_found"
	ScanResolved       ScanStatus = "resolved"
)

// ScanReport collects everything the pipeline learned about one input
type ScanReport struct {
	Status      ScanStatus         `json:"status"`
	Candidates  []BarcodeCandidate `json:"candidates,omitempty"`
	Validations []ValidationResult `json:"validations,omitempty"`
	Barcode     string             `json:"barcode,omitempty"`
	Resolution  *Resolution        `json:"resolution,omitempty"`
	Fields      *ComplianceFields  `json:"fields,omitempty"`
	Compliance  *ComplianceReport  `json:"compliance,omitempty"`
}
