package privacy

import "regexp"

// Category identifies a class of personally identifiable information.
type Category string

// Supported PII categories, in detection priority order.
const (
	CategorySSN        Category = "SOCIAL_SECURITY_NUMBER"
	CategoryEmail      Category = "EMAIL"
	CategoryPhone      Category = "PHONE"
	CategoryPersonName Category = "PERSON_NAME"
	CategoryAddress    Category = "ADDRESS"
	CategoryCreditCard Category = "CREDIT_CARD"
)

// Span marks a half-open [Start, End) byte range within scanned text.
type Span struct {
	Start int
	End   int
}

// Detector finds occurrences of a single PII category in text. Detectors
// run in registry order over text already rewritten by earlier detectors,
// so a value claimed by an earlier category never re-matches a later one.
type Detector interface {
	Category() Category
	Detect(text string) []Span
}

// RegexDetector detects a PII category with a compiled regular expression.
type RegexDetector struct {
	category Category
	pattern  *regexp.Regexp
}

// NewRegexDetector creates a detector for the given category and pattern.
func NewRegexDetector(category Category, pattern *regexp.Regexp) *RegexDetector {
	return &RegexDetector{category: category, pattern: pattern}
}

// Category returns the PII category this detector finds.
func (d *RegexDetector) Category() Category {
	return d.category
}

// Detect returns all non-overlapping matches in the text.
func (d *RegexDetector) Detect(text string) []Span {
	indexes := d.pattern.FindAllStringIndex(text, -1)
	if len(indexes) == 0 {
		return nil
	}

	spans := make([]Span, 0, len(indexes))
	for _, idx := range indexes {
		spans = append(spans, Span{Start: idx[0], End: idx[1]})
	}
	return spans
}

// Finding summarizes one detection pass over a text
type Finding struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
	Tokens   []string `json:"tokens"`
}

// MaskResult contains the result of masking a text
type MaskResult struct {
	MaskedText string    `json:"maskedText"`
	SessionID  string    `json:"sessionId"`
	Findings   []Finding `json:"findings"`
	Original   string    `json:"-"` // Never serialize original text
}
