package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("RecordAndMapping", func(t *testing.T) {
		store := NewMemoryStore(MemoryConfig{}, zap.NewNop())
		defer store.Close()

		if err := store.Record(ctx, "s1", "[MASKED_EMAIL]", "a@example.com"); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if err := store.Record(ctx, "s1", "[MASKED_PHONE]", "555-123-4567"); err != nil {
			t.Fatalf("Record failed: %v", err)
		}

		mapping, ok, err := store.Mapping(ctx, "s1")
		if err != nil {
			t.Fatalf("Mapping failed: %v", err)
		}
		if !ok {
			t.Fatal("Session not found")
		}
		if len(mapping) != 2 {
			t.Errorf("Expected 2 entries, got %d", len(mapping))
		}
		if mapping["[MASKED_EMAIL]"] != "a@example.com" {
			t.Errorf("Unexpected entry: %q", mapping["[MASKED_EMAIL]"])
		}
	})

	t.Run("UnknownSession", func(t *testing.T) {
		store := NewMemoryStore(MemoryConfig{}, zap.NewNop())
		defer store.Close()

		if _, ok, _ := store.Mapping(ctx, "missing"); ok {
			t.Error("Unknown session reported as found")
		}
	})

	t.Run("MappingReturnsCopy", func(t *testing.T) {
		store := NewMemoryStore(MemoryConfig{}, zap.NewNop())
		defer store.Close()

		store.Record(ctx, "s1", "[MASKED_EMAIL]", "a@example.com")

		mapping, _, _ := store.Mapping(ctx, "s1")
		mapping["[MASKED_EMAIL]"] = "tampered"

		fresh, _, _ := store.Mapping(ctx, "s1")
		if fresh["[MASKED_EMAIL]"] != "a@example.com" {
			t.Error("Store state shared with caller")
		}
	})

	t.Run("OverwriteEntry", func(t *testing.T) {
		store := NewMemoryStore(MemoryConfig{}, zap.NewNop())
		defer store.Close()

		store.Record(ctx, "s1", "[MASKED_EMAIL]", "first@example.com")
		store.Record(ctx, "s1", "[MASKED_EMAIL]", "second@example.com")

		mapping, _, _ := store.Mapping(ctx, "s1")
		if mapping["[MASKED_EMAIL]"] != "second@example.com" {
			t.Errorf("Expected last write to win, got %q", mapping["[MASKED_EMAIL]"])
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store := NewMemoryStore(MemoryConfig{}, zap.NewNop())
		defer store.Close()

		store.Record(ctx, "s1", "[MASKED_EMAIL]", "a@example.com")
		if err := store.Delete(ctx, "s1"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, ok, _ := store.Mapping(ctx, "s1"); ok {
			t.Error("Deleted session still found")
		}

		// Deleting an unknown session is a no-op
		if err := store.Delete(ctx, "missing"); err != nil {
			t.Errorf("Delete of unknown session failed: %v", err)
		}
	})

	t.Run("TTLExpiry", func(t *testing.T) {
		store := NewMemoryStore(MemoryConfig{
			TTL:           20 * time.Millisecond,
			SweepInterval: 5 * time.Millisecond,
		}, zap.NewNop())
		defer store.Close()

		store.Record(ctx, "s1", "[MASKED_EMAIL]", "a@example.com")

		if _, ok, _ := store.Mapping(ctx, "s1"); !ok {
			t.Fatal("Fresh session not found")
		}

		time.Sleep(50 * time.Millisecond)

		if _, ok, _ := store.Mapping(ctx, "s1"); ok {
			t.Error("Expired session still found")
		}
	})

	t.Run("WriteRefreshesExpiry", func(t *testing.T) {
		store := NewMemoryStore(MemoryConfig{
			TTL:           40 * time.Millisecond,
			SweepInterval: time.Hour, // expiry checked on access
		}, zap.NewNop())
		defer store.Close()

		store.Record(ctx, "s1", "[MASKED_EMAIL]", "a@example.com")
		time.Sleep(25 * time.Millisecond)
		store.Record(ctx, "s1", "[MASKED_PHONE]", "555-123-4567")
		time.Sleep(25 * time.Millisecond)

		if _, ok, _ := store.Mapping(ctx, "s1"); !ok {
			t.Error("Refreshed session expired early")
		}
	})

	t.Run("ConcurrentSessionCreation", func(t *testing.T) {
		store := NewMemoryStore(MemoryConfig{}, zap.NewNop())
		defer store.Close()

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				sessionID := fmt.Sprintf("session-%d", n)
				store.Record(ctx, sessionID, "[MASKED_EMAIL]", fmt.Sprintf("user%d@example.com", n))
			}(i)
		}
		wg.Wait()

		for i := 0; i < 50; i++ {
			sessionID := fmt.Sprintf("session-%d", i)
			mapping, ok, _ := store.Mapping(ctx, sessionID)
			if !ok {
				t.Fatalf("Session %s missing", sessionID)
			}
			if mapping["[MASKED_EMAIL]"] != fmt.Sprintf("user%d@example.com", i) {
				t.Errorf("Session %s has wrong entry: %q", sessionID, mapping["[MASKED_EMAIL]"])
			}
		}
	})

	t.Run("CloseStopsSweeper", func(t *testing.T) {
		store := NewMemoryStore(MemoryConfig{
			TTL:           time.Minute,
			SweepInterval: time.Millisecond,
		}, zap.NewNop())

		// Close must not hang waiting for the sweeper
		done := make(chan struct{})
		go func() {
			store.Close()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Close did not return")
		}
	})
}
