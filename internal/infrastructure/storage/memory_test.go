package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/ports"
)

func seedSource(id string, active bool) domain.Source {
	return domain.Source{
		ID:         id,
		URL:        "https://" + id + ".example.com",
		Type:       domain.SourceChangelog,
		Cadence:    domain.CadenceDaily,
		Active:     active,
		LastStatus: domain.StatusPending,
	}
}

func TestActiveSourcesFilter(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore([]domain.Source{
		seedSource("a", true),
		seedSource("b", false),
		seedSource("c", true),
	})

	active, err := s.GetActiveSources(context.Background())
	if err != nil {
		t.Fatalf("GetActiveSources error: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active sources, got %d", len(active))
	}
	if active[0].ID != "a" || active[1].ID != "c" {
		t.Fatalf("unexpected order: %s, %s", active[0].ID, active[1].ID)
	}
}

func TestFingerprintUniqueness(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(nil)
	ctx := context.Background()

	first, err := s.CreateUpdate(ctx, domain.Update{Title: "one", Fingerprint: "fp-1"})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected minted identifier")
	}

	_, err = s.CreateUpdate(ctx, domain.Update{Title: "two", Fingerprint: "fp-1"})
	if !errors.Is(err, ports.ErrDuplicateFingerprint) {
		t.Fatalf("expected ErrDuplicateFingerprint, got %v", err)
	}

	got, err := s.GetUpdateByFingerprint(ctx, "fp-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got == nil || got.Title != "one" {
		t.Fatalf("first writer should win, got %+v", got)
	}
}

func TestGetUpdateByFingerprintAbsent(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(nil)
	got, err := s.GetUpdateByFingerprint(context.Background(), "missing")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for absent fingerprint, got %+v", got)
	}
}

func TestUpdateSourceStatus(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore([]domain.Source{seedSource("a", true)})
	ctx := context.Background()

	if err := s.UpdateSourceStatus(ctx, "a", domain.StatusFailed, "navigation timeout"); err != nil {
		t.Fatalf("UpdateSourceStatus error: %v", err)
	}

	src, err := s.GetSource(ctx, "a")
	if err != nil {
		t.Fatalf("GetSource error: %v", err)
	}
	if src.LastStatus != domain.StatusFailed {
		t.Fatalf("unexpected status: %s", src.LastStatus)
	}
	if src.LastError != "navigation timeout" {
		t.Fatalf("unexpected error text: %s", src.LastError)
	}
	if src.LastChecked == nil {
		t.Fatal("last-checked must be stamped")
	}
}

func TestUpdatesInRange(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(nil)
	ctx := context.Background()
	base := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)

	for i, offset := range []time.Duration{-48 * time.Hour, 2 * time.Hour, 8 * time.Hour} {
		u, err := s.CreateUpdate(ctx, domain.Update{
			Fingerprint: string(rune('a' + i)),
			ScrapedAt:   base.Add(offset),
		})
		if err != nil {
			t.Fatalf("create update %d: %v", i, err)
		}
		if _, err := s.CreateClassification(ctx, domain.Classification{
			UpdateID: u.ID,
			Category: domain.CategoryFeature,
			Impact:   domain.ImpactLow,
		}); err != nil {
			t.Fatalf("create classification %d: %v", i, err)
		}
	}

	rows, err := s.GetUpdatesInRange(ctx, base, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("GetUpdatesInRange error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows in window, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Classification.Category != domain.CategoryFeature {
			t.Fatalf("classification not joined: %+v", row)
		}
	}
}

func TestUpdatesInRangeSkipsUnclassified(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(nil)
	ctx := context.Background()
	base := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)

	classified, err := s.CreateUpdate(ctx, domain.Update{Fingerprint: "fp-c", ScrapedAt: base})
	if err != nil {
		t.Fatalf("create classified update: %v", err)
	}
	if _, err := s.CreateClassification(ctx, domain.Classification{
		UpdateID: classified.ID,
		Category: domain.CategoryFeature,
		Impact:   domain.ImpactLow,
	}); err != nil {
		t.Fatalf("create classification: %v", err)
	}

	// Persisted but never classified, as after a failed verdict insert.
	if _, err := s.CreateUpdate(ctx, domain.Update{Fingerprint: "fp-u", ScrapedAt: base}); err != nil {
		t.Fatalf("create unclassified update: %v", err)
	}

	rows, err := s.GetUpdatesInRange(ctx, base.Add(-time.Hour), base.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetUpdatesInRange error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("unclassified updates must be excluded, got %d rows", len(rows))
	}
	if rows[0].Update.ID != classified.ID {
		t.Fatalf("wrong row survived: %+v", rows[0].Update)
	}
}

func TestDigestDelivery(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(nil)
	ctx := context.Background()

	d, err := s.CreateDigest(ctx, domain.Digest{Title: "Weekly digest", TotalUpdates: 3})
	if err != nil {
		t.Fatalf("CreateDigest error: %v", err)
	}
	if d.Delivered {
		t.Fatal("digest must not be born delivered")
	}

	if err := s.MarkDigestDelivered(ctx, d.ID, "telegram:42"); err != nil {
		t.Fatalf("MarkDigestDelivered error: %v", err)
	}

	stored := s.digests[d.ID]
	if !stored.Delivered || stored.DeliveryRef != "telegram:42" {
		t.Fatalf("delivery not recorded: %+v", stored)
	}
}
