package normalize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"html"
	"log/slog"
	"regexp"
	"strings"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/ports"
)

const cleanSystemPrompt = "You clean scraped product-update text. Remove navigation chrome, " +
	"cookie banners, boilerplate and markup artifacts. Keep the announcement itself. " +
	"Reply with the cleaned text only."

var tagExpr = regexp.MustCompile(`<[^>]*>`)

// Normalizer cleans raw items and computes their dedup fingerprint. The
// oracle produces the stored cleaned text when available; the fingerprint is
// always derived from the deterministic local form so re-scraping unchanged
// content reproduces the same value.
type Normalizer struct {
	oracle ports.Oracle
	logger *slog.Logger
}

var _ ports.Normalizer = (*Normalizer)(nil)

// New wires the oracle used for the primary cleaning path. A nil oracle
// degrades to local cleaning only.
func New(oracle ports.Oracle, logger *slog.Logger) *Normalizer {
	return &Normalizer{oracle: oracle, logger: logger}
}

// Normalize returns the cleaned content and its fingerprint. This stage is
// never a hard failure point: an oracle error falls back to the local form.
func (n *Normalizer) Normalize(ctx context.Context, item domain.RawItem) (string, string) {
	canonical := Canonicalize(item.Content)
	fingerprint := Fingerprint(canonical)

	cleaned := canonical
	if n.oracle != nil {
		refined, err := n.oracle.Complete(ctx, cleanSystemPrompt, canonical)
		if err != nil || strings.TrimSpace(refined) == "" {
			if err != nil && n.logger != nil {
				n.logger.Debug("oracle cleaning unavailable, using local form", "error", err)
			}
		} else {
			cleaned = strings.TrimSpace(refined)
		}
	}

	return cleaned, fingerprint
}

// Canonicalize strips markup artifacts and collapses whitespace, including
// non-breaking spaces left by entity unescaping. It is a pure function of
// its input.
func Canonicalize(content string) string {
	text := tagExpr.ReplaceAllString(content, " ")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

// Fingerprint hashes canonical content into the uniqueness key for updates.
func Fingerprint(canonical string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(canonical)))
	return hex.EncodeToString(sum[:])
}
