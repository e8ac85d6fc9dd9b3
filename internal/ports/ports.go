package ports

import (
	"context"
	"errors"
	"time"

	"CompetitorWatch/internal/domain"
)

// ErrDuplicateFingerprint is returned by Storage.CreateUpdate when the
// fingerprint uniqueness constraint is hit. Concurrent fetches may race on
// identical content; callers treat this as a skip, not a failure.
var ErrDuplicateFingerprint = errors.New("update fingerprint already exists")

// Storage is the persistence collaborator for the five pipeline entities.
// The core never issues queries beyond these operations.
type Storage interface {
	GetActiveSources(ctx context.Context) ([]domain.Source, error)
	GetSource(ctx context.Context, id string) (domain.Source, error)
	UpdateSourceStatus(ctx context.Context, id string, status domain.SourceStatus, lastError string) error
	GetUpdateByFingerprint(ctx context.Context, fingerprint string) (*domain.Update, error)
	CreateUpdate(ctx context.Context, update domain.Update) (domain.Update, error)
	CreateClassification(ctx context.Context, c domain.Classification) (domain.Classification, error)
	GetUpdatesInRange(ctx context.Context, start, end time.Time) ([]domain.ClassifiedUpdate, error)
	CreateDigest(ctx context.Context, d domain.Digest) (domain.Digest, error)
	MarkDigestDelivered(ctx context.Context, id, deliveryRef string) error
}

// Oracle is the external LLM service consumed for classification, content
// cleaning, and digest narrative synthesis.
type Oracle interface {
	// Complete returns free-form text; any well-formed text is tolerated.
	Complete(ctx context.Context, system, user string) (string, error)
	// CompleteJSON asks for a JSON object response; schema validation is
	// the caller's responsibility.
	CompleteJSON(ctx context.Context, system, user string) ([]byte, error)
}

// Severity labels system notices on the notification channel.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Alert is an immediate high-impact notification payload.
type Alert struct {
	Competitor string
	Title      string
	Category   domain.Category
	Impact     domain.Impact
	Summary    string
	URL        string
}

// Notifier delivers the three message shapes of the chat-ops channel.
// Implementations must never escalate delivery failures beyond an error
// return; an unconfigured channel degrades to a no-op.
type Notifier interface {
	NotifySystem(ctx context.Context, severity Severity, message string) error
	NotifyHighImpact(ctx context.Context, alert Alert) error
	// DeliverDigest returns an opaque delivery reference on success.
	DeliverDigest(ctx context.Context, digest domain.Digest) (string, error)
}

// Renderer obtains the HTML of a page after client-side rendering.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// Fetcher retrieves raw content for one source.
type Fetcher interface {
	Fetch(ctx context.Context, src domain.Source) domain.ScrapingResult
}

// RateLimiter bounds request volume per network origin.
type RateLimiter interface {
	Acquire(origin string) error
}

// Normalizer cleans extracted text and computes the dedup fingerprint.
type Normalizer interface {
	Normalize(ctx context.Context, item domain.RawItem) (cleaned, fingerprint string)
}

// Classifier sends a cleaned item to the oracle and validates the verdict.
type Classifier interface {
	Classify(ctx context.Context, title, content, itemURL string) (domain.Classification, error)
}
