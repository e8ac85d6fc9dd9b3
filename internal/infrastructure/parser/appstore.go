package parser

import (
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/scraper"
)

const appStoreMaxItems = 3

var versionExpr = regexp.MustCompile(`\bv?\d+(\.\d+)+\b`)

// AppStoreExtractor pulls release notes from app-store listing pages.
type AppStoreExtractor struct{}

var _ scraper.Extractor = (*AppStoreExtractor)(nil)

// NewAppStoreExtractor builds the app-store strategy.
func NewAppStoreExtractor() *AppStoreExtractor {
	return &AppStoreExtractor{}
}

// Type identifies the strategy inside the registry.
func (e *AppStoreExtractor) Type() domain.SourceType {
	return domain.SourceAppStore
}

// Extract selects what's-new/version-history containers. When a version
// string is detected it is prefixed onto the item title.
func (e *AppStoreExtractor) Extract(doc *goquery.Document, src domain.Source) []domain.RawItem {
	containers := doc.Find("[class*='whats-new'], [class*='what-s-new'], [class*='version-history'], [class*='release-notes']")

	var items []domain.RawItem
	containers.EachWithBreak(func(_ int, note *goquery.Selection) bool {
		content := collapse(note.Text())
		if content == "" {
			return true
		}

		title := headingText(note)
		if title == "" {
			title = "Release notes"
		}
		if version := versionExpr.FindString(content); version != "" {
			title = fmt.Sprintf("%s: %s", version, title)
		}

		items = append(items, domain.RawItem{
			Title:       title,
			Content:     truncate(content, maxContentLength),
			URL:         src.URL,
			PublishedAt: publishedAt(note),
			RawMarkup:   rawMarkup(note),
		})
		return len(items) < appStoreMaxItems
	})
	return items
}
