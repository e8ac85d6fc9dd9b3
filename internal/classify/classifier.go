package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/ports"
)

const classifySystemPrompt = "You classify competitor product updates. Respond with a JSON object: " +
	`{"category": one of "Feature", "Bug Fix", "UI Update", "Pricing", "Integration"; ` +
	`"impact": one of "High", "Medium", "Low"; ` +
	`"confidence": a number between 0 and 1; ` +
	`"summary": one or two sentences for a product manager}.`

// Gateway sends cleaned items to the oracle and validates the structured
// verdict. A malformed or out-of-range response is a hard error for that
// item; a wrong category silently accepted would corrupt digest analytics.
type Gateway struct {
	oracle ports.Oracle
	logger *slog.Logger
}

var _ ports.Classifier = (*Gateway)(nil)

// NewGateway wires the classification oracle.
func NewGateway(oracle ports.Oracle, logger *slog.Logger) *Gateway {
	return &Gateway{oracle: oracle, logger: logger}
}

// Classify returns a validated classification for one item.
func (g *Gateway) Classify(ctx context.Context, title, content, itemURL string) (domain.Classification, error) {
	if g.oracle == nil {
		return domain.Classification{}, fmt.Errorf("classification oracle not configured")
	}

	prompt := fmt.Sprintf("Title: %s\nURL: %s\n\n%s", title, itemURL, content)
	raw, err := g.oracle.CompleteJSON(ctx, classifySystemPrompt, prompt)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classification request: %w", err)
	}

	var verdict struct {
		Category   string  `json:"category"`
		Impact     string  `json:"impact"`
		Confidence float64 `json:"confidence"`
		Summary    string  `json:"summary"`
	}
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return domain.Classification{}, fmt.Errorf("malformed classification %q: %w", string(raw), err)
	}

	category := domain.Category(verdict.Category)
	if !domain.ValidCategory(category) {
		return domain.Classification{}, fmt.Errorf("classification category %q outside enumeration: %s", verdict.Category, string(raw))
	}

	impact := domain.Impact(verdict.Impact)
	if !domain.ValidImpact(impact) {
		return domain.Classification{}, fmt.Errorf("classification impact %q outside enumeration: %s", verdict.Impact, string(raw))
	}

	return domain.Classification{
		Category:    category,
		Impact:      impact,
		Confidence:  clamp(verdict.Confidence),
		Summary:     verdict.Summary,
		RawResponse: string(raw),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func clamp(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
