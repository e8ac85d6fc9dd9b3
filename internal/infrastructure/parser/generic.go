package parser

import (
	"github.com/PuerkitoBio/goquery"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/scraper"
)

// minGenericLength is the least amount of text required for a generic page
// to count as substantial content.
const minGenericLength = 50

// GenericExtractor is the fallback strategy for arbitrary pages: document
// title plus the largest textual block.
type GenericExtractor struct{}

var _ scraper.Extractor = (*GenericExtractor)(nil)

// NewGenericExtractor builds the generic-page strategy.
func NewGenericExtractor() *GenericExtractor {
	return &GenericExtractor{}
}

// Type identifies the strategy inside the registry.
func (e *GenericExtractor) Type() domain.SourceType {
	return domain.SourceGenericPage
}

// Extract returns at most one item: the page title paired with the largest
// of main/article/body text, provided it clears the minimum length.
func (e *GenericExtractor) Extract(doc *goquery.Document, src domain.Source) []domain.RawItem {
	title := collapse(doc.Find("title").First().Text())
	if title == "" {
		title = collapse(doc.Find("h1").First().Text())
	}

	var content string
	for _, selector := range []string{"main", "article", "body"} {
		candidate := collapse(doc.Find(selector).First().Text())
		if len(candidate) > len(content) {
			content = candidate
		}
	}

	if len(content) < minGenericLength {
		return nil
	}
	if title == "" {
		title = truncate(content, 80)
	}

	return []domain.RawItem{{
		Title:       title,
		Content:     truncate(content, maxContentLength),
		URL:         src.URL,
		PublishedAt: publishedAt(doc.Selection),
	}}
}
