package privacy

import (
	"context"
	"strings"
	"testing"

	"github.com/maskrelay/maskrelay/internal/config"
	"github.com/maskrelay/maskrelay/internal/logger"
	"github.com/maskrelay/maskrelay/internal/session"
	"go.uber.org/zap"
)

func testMasker(t *testing.T, cfg config.PrivacyConfig) (*Masker, session.Store) {
	t.Helper()

	store := session.NewMemoryStore(session.MemoryConfig{}, zap.NewNop())
	t.Cleanup(func() { store.Close() })

	masker, err := NewMasker(cfg, nil, store, &logger.Logger{Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("Failed to create masker: %v", err)
	}

	return masker, store
}

func allDetectors() config.PrivacyConfig {
	return config.PrivacyConfig{Enabled: true, Detectors: []string{"all"}}
}

func TestMask(t *testing.T) {
	ctx := context.Background()

	t.Run("NoPIIUnchanged", func(t *testing.T) {
		masker, store := testMasker(t, allDetectors())

		input := "the quick brown fox jumps over the lazy dog"
		masked, sessionID, findings, err := masker.Mask(ctx, input, "s1")
		if err != nil {
			t.Fatalf("Mask failed: %v", err)
		}
		if masked != input {
			t.Errorf("Clean text modified: %q", masked)
		}
		if sessionID != "s1" {
			t.Errorf("Session ID changed: %q", sessionID)
		}
		if len(findings) != 0 {
			t.Errorf("Unexpected findings: %v", findings)
		}
		if _, ok, _ := store.Mapping(ctx, "s1"); ok {
			t.Error("Mapping created for clean text")
		}
	})

	t.Run("EmptyText", func(t *testing.T) {
		masker, store := testMasker(t, allDetectors())

		masked, sessionID, _, err := masker.Mask(ctx, "", "")
		if err != nil {
			t.Fatalf("Mask failed: %v", err)
		}
		if masked != "" {
			t.Errorf("Empty text modified: %q", masked)
		}
		if sessionID == "" {
			t.Error("No session ID minted")
		}
		if _, ok, _ := store.Mapping(ctx, sessionID); ok {
			t.Error("Mapping created for empty text")
		}
	})

	t.Run("MintsSessionID", func(t *testing.T) {
		masker, _ := testMasker(t, allDetectors())

		_, first, _, err := masker.Mask(ctx, "no pii here", "")
		if err != nil {
			t.Fatalf("Mask failed: %v", err)
		}
		_, second, _, _ := masker.Mask(ctx, "no pii here", "")
		if first == "" || second == "" {
			t.Fatal("Minted session ID is empty")
		}
		if first == second {
			t.Error("Minted session IDs are not unique")
		}
	})

	t.Run("Disabled", func(t *testing.T) {
		masker, _ := testMasker(t, config.PrivacyConfig{Enabled: false, Detectors: []string{"all"}})

		input := "reach me at jane.doe@example.com"
		masked, _, _, err := masker.Mask(ctx, input, "s1")
		if err != nil {
			t.Fatalf("Mask failed: %v", err)
		}
		if masked != input {
			t.Errorf("Masking ran while disabled: %q", masked)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		masker, _ := testMasker(t, allDetectors())

		input := "Contact John Smith at john.smith@example.com or 555-123-4567"
		masked, sessionID, findings, err := masker.Mask(ctx, input, "")
		if err != nil {
			t.Fatalf("Mask failed: %v", err)
		}

		for _, substr := range []string{"John Smith", "john.smith@example.com", "555-123-4567"} {
			if strings.Contains(masked, substr) {
				t.Errorf("Masked text still contains %q: %q", substr, masked)
			}
		}
		if got := strings.Count(masked, "[MASKED_"); got != 3 {
			t.Errorf("Expected 3 placeholder tokens, got %d: %q", got, masked)
		}
		if len(findings) != 3 {
			t.Errorf("Expected 3 findings, got %d", len(findings))
		}

		restored, err := masker.Restore(ctx, masked, sessionID)
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if restored != input {
			t.Errorf("Round trip mismatch:\n  input:    %q\n  restored: %q", input, restored)
		}
	})

	t.Run("IdempotentSafe", func(t *testing.T) {
		masker, _ := testMasker(t, allDetectors())

		input := "Email bob.jones@example.com, card 4111-1111-1111-1234, ssn 123-45-6789"
		once, sessionID, _, err := masker.Mask(ctx, input, "")
		if err != nil {
			t.Fatalf("Mask failed: %v", err)
		}

		twice, _, findings, err := masker.Mask(ctx, once, sessionID)
		if err != nil {
			t.Fatalf("Second mask failed: %v", err)
		}
		if twice != once {
			t.Errorf("Masking is not idempotent-safe:\n  once:  %q\n  twice: %q", once, twice)
		}
		if len(findings) != 0 {
			t.Errorf("Placeholder tokens re-detected as PII: %v", findings)
		}
	})

	t.Run("CreditCardLastFour", func(t *testing.T) {
		masker, _ := testMasker(t, allDetectors())

		masked, sessionID, _, err := masker.Mask(ctx, "4111-1111-1111-1234", "")
		if err != nil {
			t.Fatalf("Mask failed: %v", err)
		}
		if masked != "[MASKED_CREDIT_CARD:1234]" {
			t.Errorf("Unexpected masked text: %q", masked)
		}

		restored, err := masker.Restore(ctx, masked, sessionID)
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if restored != "4111-1111-1111-1234" {
			t.Errorf("Round trip mismatch: %q", restored)
		}
	})

	t.Run("DistinctValuesGetDistinctTokens", func(t *testing.T) {
		masker, _ := testMasker(t, allDetectors())

		input := "Introduce Alice Cooper to Bob Dylan"
		masked, sessionID, _, err := masker.Mask(ctx, input, "")
		if err != nil {
			t.Fatalf("Mask failed: %v", err)
		}

		if !strings.Contains(masked, "[MASKED_PERSON_NAME]") {
			t.Errorf("First name token missing: %q", masked)
		}
		if !strings.Contains(masked, "[MASKED_PERSON_NAME_2]") {
			t.Errorf("Indexed name token missing: %q", masked)
		}

		restored, err := masker.Restore(ctx, masked, sessionID)
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if restored != input {
			t.Errorf("Collision round trip mismatch:\n  input:    %q\n  restored: %q", input, restored)
		}
	})

	t.Run("RepeatedValueReusesToken", func(t *testing.T) {
		masker, store := testMasker(t, allDetectors())

		input := "mail a@example.com then mail a@example.com again"
		masked, sessionID, _, err := masker.Mask(ctx, input, "")
		if err != nil {
			t.Fatalf("Mask failed: %v", err)
		}

		if got := strings.Count(masked, "[MASKED_EMAIL]"); got != 2 {
			t.Errorf("Expected the same token twice, got %d in %q", got, masked)
		}

		mapping, ok, _ := store.Mapping(ctx, sessionID)
		if !ok || len(mapping) != 1 {
			t.Errorf("Expected a single mapping entry, got %v", mapping)
		}

		restored, _ := masker.Restore(ctx, masked, sessionID)
		if restored != input {
			t.Errorf("Round trip mismatch: %q", restored)
		}
	})

	t.Run("SessionsAreIsolated", func(t *testing.T) {
		masker, _ := testMasker(t, allDetectors())

		maskedA, _, _, _ := masker.Mask(ctx, "a@example.com", "sess-a")
		_, _, _, _ = masker.Mask(ctx, "555-123-4567", "sess-b")

		restored, err := masker.Restore(ctx, maskedA, "sess-b")
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if restored != "[MASKED_EMAIL]" {
			t.Errorf("Cross-session restoration leaked: %q", restored)
		}
	})
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownSession", func(t *testing.T) {
		masker, _ := testMasker(t, allDetectors())

		input := "[MASKED_EMAIL] and [MASKED_PHONE]"
		restored, err := masker.Restore(ctx, input, "unknown")
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if restored != input {
			t.Errorf("Unknown session modified text: %q", restored)
		}
	})

	t.Run("EmptySessionID", func(t *testing.T) {
		masker, _ := testMasker(t, allDetectors())

		restored, err := masker.Restore(ctx, "[MASKED_EMAIL]", "")
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if restored != "[MASKED_EMAIL]" {
			t.Errorf("Empty session modified text: %q", restored)
		}
	})

	t.Run("UnmappedPlaceholderLeftAsIs", func(t *testing.T) {
		masker, _ := testMasker(t, allDetectors())

		_, sessionID, _, _ := masker.Mask(ctx, "a@example.com", "")

		restored, err := masker.Restore(ctx, "[MASKED_PHONE] and [MASKED_EMAIL]", sessionID)
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if restored != "[MASKED_PHONE] and a@example.com" {
			t.Errorf("Unexpected restoration: %q", restored)
		}
	})

	t.Run("MultipleOccurrences", func(t *testing.T) {
		masker, _ := testMasker(t, allDetectors())

		_, sessionID, _, _ := masker.Mask(ctx, "a@example.com", "")

		restored, _ := masker.Restore(ctx, "[MASKED_EMAIL], [MASKED_EMAIL], [MASKED_EMAIL]", sessionID)
		if restored != "a@example.com, a@example.com, a@example.com" {
			t.Errorf("Unexpected restoration: %q", restored)
		}
	})
}

func TestConfigureDetectors(t *testing.T) {
	ctx := context.Background()

	t.Run("SubsetOnly", func(t *testing.T) {
		masker, _ := testMasker(t, config.PrivacyConfig{
			Enabled:   true,
			Detectors: []string{"ADDRESS"},
		})

		masked, _, _, err := masker.Mask(ctx, "ship to 123 elm Street, mail a@example.com", "s1")
		if err != nil {
			t.Fatalf("Mask failed: %v", err)
		}
		if !strings.Contains(masked, "[MASKED_ADDRESS]") {
			t.Errorf("Address not masked: %q", masked)
		}
		if !strings.Contains(masked, "a@example.com") {
			t.Errorf("Disabled email detector still masked: %q", masked)
		}
	})

	t.Run("UnknownDetector", func(t *testing.T) {
		store := session.NewMemoryStore(session.MemoryConfig{}, zap.NewNop())
		defer store.Close()

		_, err := NewMasker(config.PrivacyConfig{
			Enabled:   true,
			Detectors: []string{"FAVORITE_COLOR"},
		}, nil, store, &logger.Logger{Logger: zap.NewNop()})
		if err == nil {
			t.Fatal("Expected error for unknown detector")
		}
	})

	t.Run("EnabledCategories", func(t *testing.T) {
		masker, _ := testMasker(t, config.PrivacyConfig{
			Enabled:   true,
			Detectors: []string{"EMAIL", "PHONE"},
		})

		enabled := masker.EnabledCategories()
		if len(enabled) != 2 {
			t.Fatalf("Expected 2 enabled categories, got %v", enabled)
		}
		// Registry order is preserved
		if enabled[0] != CategoryEmail || enabled[1] != CategoryPhone {
			t.Errorf("Unexpected enabled categories: %v", enabled)
		}
	})
}
