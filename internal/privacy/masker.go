package privacy

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/maskrelay/maskrelay/internal/config"
	"github.com/maskrelay/maskrelay/internal/logger"
	"github.com/maskrelay/maskrelay/internal/session"
	"go.uber.org/zap"
)

// Masker handles PII masking and restoration against a session store
type Masker struct {
	registry *Registry
	enabled  map[Category]bool
	store    session.Store
	logger   *logger.Logger
	config   config.PrivacyConfig
}

// NewMasker creates a new masker instance. A nil registry selects the
// built-in detectors.
func NewMasker(cfg config.PrivacyConfig, registry *Registry, store session.Store, log *logger.Logger) (*Masker, error) {
	if registry == nil {
		registry = DefaultRegistry()
	}

	masker := &Masker{
		registry: registry,
		enabled:  make(map[Category]bool),
		store:    store,
		logger:   log,
		config:   cfg,
	}

	// Configure enabled detectors
	if err := masker.configureDetectors(cfg.Detectors); err != nil {
		return nil, fmt.Errorf("failed to configure detectors: %w", err)
	}

	log.Info("PII masker initialized",
		zap.Int("total_detectors", len(registry.detectors)),
		zap.Int("enabled_detectors", masker.countEnabledDetectors()),
	)

	return masker, nil
}

// configureDetectors enables/disables detectors based on configuration
func (m *Masker) configureDetectors(detectors []string) error {
	// Disable all detectors by default
	for _, detector := range m.registry.detectors {
		m.enabled[detector.Category()] = false
	}

	// Enable specified detectors
	for _, name := range detectors {
		if name == "all" {
			// Enable all detectors
			for _, detector := range m.registry.detectors {
				m.enabled[detector.Category()] = true
			}
			continue
		}

		// Enable specific detector
		found := false
		for _, detector := range m.registry.detectors {
			if string(detector.Category()) == name {
				m.enabled[detector.Category()] = true
				found = true
				break
			}
		}

		if !found {
			return fmt.Errorf("unknown detector: %s", name)
		}
	}

	return nil
}

// Mask replaces every PII occurrence in the text with a placeholder token
// and records the reverse mapping in the session store. An empty sessionID
// mints a fresh one; the identifier actually used is always returned so the
// caller can correlate later restoration.
func (m *Masker) Mask(ctx context.Context, text, sessionID string) (string, string, []Finding, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if !m.config.Enabled || text == "" {
		return text, sessionID, nil, nil
	}

	mapping, ok, err := m.store.Mapping(ctx, sessionID)
	if err != nil {
		return text, sessionID, nil, fmt.Errorf("failed to load session mapping: %w", err)
	}
	if !ok {
		mapping = make(map[string]string)
	}

	current := text
	findings := make([]Finding, 0)

	for _, detector := range m.registry.Detectors() {
		if !m.enabled[detector.Category()] {
			continue
		}

		// Each detector scans the current, possibly already partially
		// masked text.
		spans := detector.Detect(current)
		if len(spans) == 0 {
			continue
		}

		// Assign tokens left to right so the first distinct value of a
		// category takes the unsuffixed token. Every entry is recorded in
		// the store before the masked text is returned.
		tokens := make([]string, len(spans))
		for i, span := range spans {
			original := current[span.Start:span.End]
			token := tokenFor(detector.Category(), original, mapping)
			if _, exists := mapping[token]; !exists {
				if err := m.store.Record(ctx, sessionID, token, original); err != nil {
					return text, sessionID, nil, fmt.Errorf("failed to record mapping: %w", err)
				}
				mapping[token] = original
			}
			tokens[i] = token
		}

		// Splice right to left so earlier spans keep their offsets.
		for i := len(spans) - 1; i >= 0; i-- {
			current = current[:spans[i].Start] + tokens[i] + current[spans[i].End:]
		}

		findings = append(findings, Finding{
			Category: detector.Category(),
			Count:    len(spans),
			Tokens:   tokens,
		})

		m.logger.Debug("PII detected and masked",
			zap.String("category", string(detector.Category())),
			zap.Int("count", len(spans)),
		)
	}

	return current, sessionID, findings, nil
}

// Restore replaces every placeholder token in the text with its original
// value from the session's mapping. A missing or unknown session is a no-op,
// not an error; placeholders with no mapping entry are left untouched.
func (m *Masker) Restore(ctx context.Context, text, sessionID string) (string, error) {
	if sessionID == "" || text == "" {
		return text, nil
	}

	mapping, ok, err := m.store.Mapping(ctx, sessionID)
	if err != nil {
		return text, fmt.Errorf("failed to load session mapping: %w", err)
	}
	if !ok {
		return text, nil
	}

	// Tokens always end with "]" and never contain one internally, so no
	// token is a substring of another and replacement order cannot matter.
	restored := text
	for placeholder, original := range mapping {
		restored = strings.ReplaceAll(restored, placeholder, original)
	}

	return restored, nil
}

// EnabledCategories returns the categories currently enabled for detection.
func (m *Masker) EnabledCategories() []Category {
	var enabled []Category
	for _, detector := range m.registry.Detectors() {
		if m.enabled[detector.Category()] {
			enabled = append(enabled, detector.Category())
		}
	}
	return enabled
}

// countEnabledDetectors returns the number of enabled detectors
func (m *Masker) countEnabledDetectors() int {
	count := 0
	for _, enabled := range m.enabled {
		if enabled {
			count++
		}
	}
	return count
}

// tokenFor returns the deterministic token for a value. A value already
// mapped in this session reuses its token; a new value whose token would
// collide with a different original takes the next occurrence-indexed
// variant, so restoration never loses the first value.
func tokenFor(category Category, original string, mapping map[string]string) string {
	base := baseToken(category, original)
	token := base
	for n := 2; ; n++ {
		existing, taken := mapping[token]
		if !taken || existing == original {
			return token
		}
		token = strings.TrimSuffix(base, "]") + "_" + strconv.Itoa(n) + "]"
	}
}

// baseToken builds the placeholder for a category. Credit cards embed the
// last four digits of the number; all other categories carry no data from
// the match.
func baseToken(category Category, original string) string {
	if category == CategoryCreditCard {
		digits := digitsOnly(original)
		last4 := digits
		if len(digits) >= 4 {
			last4 = digits[len(digits)-4:]
		}
		return "[MASKED_CREDIT_CARD:" + last4 + "]"
	}
	return "[MASKED_" + string(category) + "]"
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
