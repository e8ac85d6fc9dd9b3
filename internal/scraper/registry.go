package scraper

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"CompetitorWatch/internal/domain"
)

// Extractor captures a single per-source-type extraction strategy. Each
// implementation returns zero-to-N raw items, capped per call.
type Extractor interface {
	Type() domain.SourceType
	Extract(doc *goquery.Document, src domain.Source) []domain.RawItem
}

// Registry keeps a mapping from source types to their extractors.
type Registry struct {
	extractors map[domain.SourceType]Extractor
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: map[domain.SourceType]Extractor{}}
}

// Register adds or replaces an extractor implementation.
func (r *Registry) Register(e Extractor) {
	if r.extractors == nil {
		r.extractors = map[domain.SourceType]Extractor{}
	}
	r.extractors[e.Type()] = e
}

// Resolve returns the extractor for a source type or an error if absent.
func (r *Registry) Resolve(t domain.SourceType) (Extractor, error) {
	if e, ok := r.extractors[t]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("no extractor registered for source type %s", t)
}
