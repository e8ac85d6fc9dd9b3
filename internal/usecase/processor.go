package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/ports"
	"CompetitorWatch/internal/ratelimit"
)

// ProcessorDeps wires all driven adapters into the per-source pipeline.
type ProcessorDeps struct {
	Fetcher    ports.Fetcher
	Normalizer ports.Normalizer
	Classifier ports.Classifier
	Storage    ports.Storage
	Notifier   ports.Notifier
	Logger     *slog.Logger
}

// Processor runs the per-source pipeline: fetch, normalize, dedupe,
// classify, persist, alert. Items are processed independently; one item's
// failure never stops its siblings or fails the source.
type Processor struct {
	fetcher    ports.Fetcher
	normalizer ports.Normalizer
	classifier ports.Classifier
	storage    ports.Storage
	notifier   ports.Notifier
	logger     *slog.Logger
}

// NewProcessor constructs the pipeline component.
func NewProcessor(deps ProcessorDeps) *Processor {
	return &Processor{
		fetcher:    deps.Fetcher,
		normalizer: deps.Normalizer,
		classifier: deps.Classifier,
		storage:    deps.Storage,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
	}
}

// ProcessSource runs one fetch attempt for the source. Only fetch-level
// failures are recorded on the source; per-item failures are contained.
func (p *Processor) ProcessSource(ctx context.Context, src domain.Source) error {
	result := p.fetcher.Fetch(ctx, src)

	if result.RateLimited {
		// Retryable and origin-scoped: the source stays due and is
		// picked up again on the next cycle.
		p.debug("fetch throttled", "source", src.ID, "reason", result.Reason)
		return fmt.Errorf("source %s: %w", src.ID, ratelimit.ErrRateLimited)
	}

	if !result.Success {
		if err := p.storage.UpdateSourceStatus(ctx, src.ID, domain.StatusFailed, result.Reason); err != nil {
			p.warn("record fetch failure", "source", src.ID, "error", err)
		}
		return fmt.Errorf("source %s: fetch failed: %s", src.ID, result.Reason)
	}

	for _, item := range result.Items {
		p.processItem(ctx, src, item)
	}

	if err := p.storage.UpdateSourceStatus(ctx, src.ID, domain.StatusSuccess, ""); err != nil {
		p.warn("record fetch success", "source", src.ID, "error", err)
	}
	return nil
}

func (p *Processor) processItem(ctx context.Context, src domain.Source, item domain.RawItem) {
	cleaned, fingerprint := p.normalizer.Normalize(ctx, item)

	existing, err := p.storage.GetUpdateByFingerprint(ctx, fingerprint)
	if err != nil {
		p.warn("fingerprint lookup", "source", src.ID, "error", err)
		return
	}
	if existing != nil {
		// Re-scraping unchanged content is the steady state, not an error.
		p.debug("duplicate content skipped", "source", src.ID, "fingerprint", fingerprint)
		return
	}

	classification, err := p.classifier.Classify(ctx, item.Title, cleaned, item.URL)
	if err != nil {
		// Hard per-item failure: drop the item rather than persist it
		// half-classified.
		p.logError("classification rejected", "source", src.ID, "title", item.Title, "error", err)
		return
	}

	update, err := p.storage.CreateUpdate(ctx, domain.Update{
		SourceID:       src.ID,
		CompetitorID:   src.CompetitorID,
		CompetitorName: src.CompetitorName,
		Title:          item.Title,
		Content:        cleaned,
		URL:            item.URL,
		PublishedAt:    item.PublishedAt,
		ScrapedAt:      time.Now().UTC(),
		Fingerprint:    fingerprint,
		RawMarkup:      item.RawMarkup,
	})
	if errors.Is(err, ports.ErrDuplicateFingerprint) {
		p.debug("concurrent duplicate skipped", "source", src.ID, "fingerprint", fingerprint)
		return
	}
	if err != nil {
		p.warn("persist update", "source", src.ID, "error", err)
		return
	}

	classification.UpdateID = update.ID
	if _, err := p.storage.CreateClassification(ctx, classification); err != nil {
		p.warn("persist classification", "update", update.ID, "error", err)
		return
	}

	if classification.Impact == domain.ImpactHigh {
		// Fire-and-forget relative to the batch: a notification failure
		// never propagates as an item failure.
		alert := ports.Alert{
			Competitor: src.CompetitorName,
			Title:      update.Title,
			Category:   classification.Category,
			Impact:     classification.Impact,
			Summary:    classification.Summary,
			URL:        update.URL,
		}
		if err := p.notifier.NotifyHighImpact(ctx, alert); err != nil {
			p.warn("high-impact alert delivery", "update", update.ID, "error", err)
		}
	}
}

func (p *Processor) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Processor) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Processor) logError(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
