package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/ports"
)

const digestSystemPrompt = "You write competitive-intelligence digests for product teams. " +
	"Given a list of classified competitor updates, produce: an executive summary, " +
	"a breakdown of high-impact items, category-level insights, and recommended actions. " +
	"Plain narrative text."

const digestItemPreview = 200

// DigestGenerator aggregates a time-windowed set of classified updates into
// a narrative rollup and dispatches it.
type DigestGenerator struct {
	storage  ports.Storage
	oracle   ports.Oracle
	notifier ports.Notifier
	logger   *slog.Logger
}

// NewDigestGenerator constructs the rollup component.
func NewDigestGenerator(storage ports.Storage, oracle ports.Oracle, notifier ports.Notifier, logger *slog.Logger) *DigestGenerator {
	return &DigestGenerator{
		storage:  storage,
		oracle:   oracle,
		notifier: notifier,
		logger:   logger,
	}
}

// Generate builds, persists and dispatches the digest for the window. An
// empty window is a valid skip: it returns nil with no error and writes
// nothing.
func (g *DigestGenerator) Generate(ctx context.Context, windowStart, windowEnd time.Time) (*domain.Digest, error) {
	rows, err := g.storage.GetUpdatesInRange(ctx, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("read digest window: %w", err)
	}
	if len(rows) == 0 {
		if g.logger != nil {
			g.logger.Info("digest window empty, skipping",
				"window_start", windowStart, "window_end", windowEnd)
		}
		return nil, nil
	}

	// Counts come from the queried rows, never from the narrative.
	highImpact := 0
	for _, row := range rows {
		if row.Classification.Impact == domain.ImpactHigh {
			highImpact++
		}
	}

	narrative := g.narrative(ctx, rows)

	digest, err := g.storage.CreateDigest(ctx, domain.Digest{
		Title:           fmt.Sprintf("Competitor digest %s", windowEnd.Format("2006-01-02")),
		Content:         narrative,
		WindowStart:     windowStart,
		WindowEnd:       windowEnd,
		TotalUpdates:    len(rows),
		HighImpactCount: highImpact,
	})
	if err != nil {
		return nil, fmt.Errorf("persist digest: %w", err)
	}

	ref, err := g.notifier.DeliverDigest(ctx, digest)
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("digest delivery failed", "digest", digest.ID, "error", err)
		}
		return &digest, nil
	}
	if ref == "" {
		return &digest, nil
	}

	if err := g.storage.MarkDigestDelivered(ctx, digest.ID, ref); err != nil {
		if g.logger != nil {
			g.logger.Warn("record digest delivery", "digest", digest.ID, "error", err)
		}
		return &digest, nil
	}
	digest.Delivered = true
	digest.DeliveryRef = ref
	return &digest, nil
}

// narrative asks the oracle to synthesize the rollup text. The response is
// free-form; unexpected formatting is acceptable here, and an oracle
// failure degrades to the itemized listing itself.
func (g *DigestGenerator) narrative(ctx context.Context, rows []domain.ClassifiedUpdate) string {
	listing := itemizedListing(rows)
	if g.oracle == nil {
		return listing
	}

	text, err := g.oracle.Complete(ctx, digestSystemPrompt, listing)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil && g.logger != nil {
			g.logger.Warn("digest narrative synthesis failed", "error", err)
		}
		return listing
	}
	return text
}

func itemizedListing(rows []domain.ClassifiedUpdate) string {
	var b strings.Builder
	for _, row := range rows {
		date := "unknown date"
		if row.Update.PublishedAt != nil {
			date = row.Update.PublishedAt.Format("2006-01-02")
		}
		preview := row.Update.Content
		if runes := []rune(preview); len(runes) > digestItemPreview {
			preview = string(runes[:digestItemPreview])
		}
		fmt.Fprintf(&b, "- [%s] %s (%s, %s impact, %s)\n  %s\n",
			row.Update.CompetitorName,
			row.Update.Title,
			row.Classification.Category,
			row.Classification.Impact,
			date,
			preview)
	}
	return b.String()
}
