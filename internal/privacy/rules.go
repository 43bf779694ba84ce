package privacy

import "regexp"

// Detection patterns. Order in DefaultRegistry is a precedence policy, not
// cosmetic: each detector scans text already rewritten by the ones before
// it, so an address detector cannot re-trigger on an already-masked name.
var (
	ssnPattern        = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	emailPattern      = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern      = regexp.MustCompile(`(?:\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	personNamePattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)
	addressPattern    = regexp.MustCompile(`\d+\s+[A-Za-z\s]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Circle|Cir|Way|Place|Pl)`)
	creditCardPattern = regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`)
)

// Registry is an ordered list of PII detectors.
type Registry struct {
	detectors []Detector
}

// NewRegistry creates a registry with the given detectors in priority order.
func NewRegistry(detectors ...Detector) *Registry {
	return &Registry{detectors: detectors}
}

// Detectors returns the registry's detectors in priority order.
func (r *Registry) Detectors() []Detector {
	return r.detectors
}

// DefaultRegistry returns the built-in detectors in their fixed priority
// order: SSN, email, phone, person name, street address, credit card.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewRegexDetector(CategorySSN, ssnPattern),
		NewRegexDetector(CategoryEmail, emailPattern),
		NewRegexDetector(CategoryPhone, phonePattern),
		NewRegexDetector(CategoryPersonName, personNamePattern),
		NewRegexDetector(CategoryAddress, addressPattern),
		NewRegexDetector(CategoryCreditCard, creditCardPattern),
	)
}
