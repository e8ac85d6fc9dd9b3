package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"CompetitorWatch/internal/domain"
)

func seedClassifiedUpdates(t *testing.T, store storageSeeder, base time.Time, impacts []domain.Impact) {
	t.Helper()
	ctx := context.Background()
	for i, impact := range impacts {
		u, err := store.CreateUpdate(ctx, domain.Update{
			CompetitorName: "Acme",
			Title:          fmt.Sprintf("update %d", i),
			Content:        "content",
			Fingerprint:    fmt.Sprintf("fp-%d", i),
			ScrapedAt:      base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("seed update %d: %v", i, err)
		}
		if _, err := store.CreateClassification(ctx, domain.Classification{
			UpdateID: u.ID,
			Category: domain.CategoryFeature,
			Impact:   impact,
		}); err != nil {
			t.Fatalf("seed classification %d: %v", i, err)
		}
	}
}

type storageSeeder interface {
	CreateUpdate(ctx context.Context, u domain.Update) (domain.Update, error)
	CreateClassification(ctx context.Context, c domain.Classification) (domain.Classification, error)
}

func TestGenerateEmptyWindowSkips(t *testing.T) {
	t.Parallel()

	store := memStore()
	notifier := &fakeNotifier{}
	g := NewDigestGenerator(store, &fakeOracle{reply: "narrative"}, notifier, nil)

	end := time.Now().UTC()
	digest, err := g.Generate(context.Background(), end.Add(-168*time.Hour), end)
	if err != nil {
		t.Fatalf("empty window must not error: %v", err)
	}
	if digest != nil {
		t.Fatalf("empty window must not create a digest, got %+v", digest)
	}
	if len(notifier.digests) != 0 {
		t.Fatal("nothing should be delivered for an empty window")
	}
}

func TestGenerateCountsComeFromRows(t *testing.T) {
	t.Parallel()

	store := memStore()
	base := time.Now().UTC().Add(-24 * time.Hour)
	seedClassifiedUpdates(t, store, base, []domain.Impact{
		domain.ImpactHigh, domain.ImpactLow, domain.ImpactHigh, domain.ImpactMedium,
	})

	notifier := &fakeNotifier{digestRef: "telegram:7"}
	// A narrative claiming absurd numbers must not influence the counts.
	g := NewDigestGenerator(store, &fakeOracle{reply: "This week saw 900 high-impact launches."}, notifier, nil)

	end := time.Now().UTC()
	digest, err := g.Generate(context.Background(), end.Add(-168*time.Hour), end)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if digest == nil {
		t.Fatal("expected a digest")
	}
	if digest.TotalUpdates != 4 {
		t.Fatalf("expected totalUpdates=4, got %d", digest.TotalUpdates)
	}
	if digest.HighImpactCount != 2 {
		t.Fatalf("expected highImpactCount=2, got %d", digest.HighImpactCount)
	}
	if digest.Content != "This week saw 900 high-impact launches." {
		t.Fatalf("narrative should be kept verbatim: %q", digest.Content)
	}
	if !digest.Delivered || digest.DeliveryRef != "telegram:7" {
		t.Fatalf("confirmed delivery must be recorded: %+v", digest)
	}
}

func TestGenerateNarrativeFallsBackToListing(t *testing.T) {
	t.Parallel()

	store := memStore()
	base := time.Now().UTC().Add(-24 * time.Hour)
	seedClassifiedUpdates(t, store, base, []domain.Impact{domain.ImpactHigh})

	g := NewDigestGenerator(store, &fakeOracle{err: fmt.Errorf("oracle down")}, &fakeNotifier{}, nil)

	end := time.Now().UTC()
	digest, err := g.Generate(context.Background(), end.Add(-168*time.Hour), end)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if digest == nil || digest.Content == "" {
		t.Fatal("narrative failure must fall back to the itemized listing")
	}
}

func TestGenerateDeliveryFailureKeepsDigest(t *testing.T) {
	t.Parallel()

	store := memStore()
	base := time.Now().UTC().Add(-24 * time.Hour)
	seedClassifiedUpdates(t, store, base, []domain.Impact{domain.ImpactLow})

	notifier := &fakeNotifier{failAll: true}
	g := NewDigestGenerator(store, &fakeOracle{reply: "ok"}, notifier, nil)

	end := time.Now().UTC()
	digest, err := g.Generate(context.Background(), end.Add(-168*time.Hour), end)
	if err != nil {
		t.Fatalf("delivery failure must not fail generation: %v", err)
	}
	if digest == nil {
		t.Fatal("digest must persist even when delivery fails")
	}
	if digest.Delivered || digest.DeliveryRef != "" {
		t.Fatalf("failed delivery must not record a reference: %+v", digest)
	}
}
