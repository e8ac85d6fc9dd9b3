package parser

import (
	"github.com/PuerkitoBio/goquery"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/scraper"
)

const changelogMaxItems = 10

// changelogSelectors is the ordered list of structural container selectors
// tried before the heading-pairing fallback.
var changelogSelectors = []string{
	"article",
	"[class*='changelog'] [class*='entry']",
	"[class*='changelog-item']",
	"[class*='release']",
	"[class*='update-item']",
	".post",
	"section",
}

// ChangelogExtractor pulls entries from changelog/release-notes pages.
type ChangelogExtractor struct{}

var _ scraper.Extractor = (*ChangelogExtractor)(nil)

// NewChangelogExtractor builds the changelog strategy.
func NewChangelogExtractor() *ChangelogExtractor {
	return &ChangelogExtractor{}
}

// Type identifies the strategy inside the registry.
func (e *ChangelogExtractor) Type() domain.SourceType {
	return domain.SourceChangelog
}

// Extract tries structural containers first, then pairs headings with their
// following sibling text when no container matches.
func (e *ChangelogExtractor) Extract(doc *goquery.Document, src domain.Source) []domain.RawItem {
	for _, selector := range changelogSelectors {
		containers := doc.Find(selector)
		if containers.Length() == 0 {
			continue
		}

		var items []domain.RawItem
		containers.EachWithBreak(func(_ int, container *goquery.Selection) bool {
			item, ok := entryFromContainer(container, src)
			if ok {
				items = append(items, item)
			}
			return len(items) < changelogMaxItems
		})

		if len(items) > 0 {
			return items
		}
	}

	return capItems(e.headingFallback(doc, src), changelogMaxItems)
}

func entryFromContainer(container *goquery.Selection, src domain.Source) (domain.RawItem, bool) {
	title := headingText(container)
	content := collapse(container.Text())
	if title == "" && content == "" {
		return domain.RawItem{}, false
	}
	if title == "" {
		title = truncate(content, 80)
	}

	return domain.RawItem{
		Title:       title,
		Content:     truncate(content, maxContentLength),
		URL:         itemURL(src, container),
		PublishedAt: publishedAt(container),
		RawMarkup:   rawMarkup(container),
	}, true
}

// headingFallback pairs each h2/h3 with the text of its next sibling.
func (e *ChangelogExtractor) headingFallback(doc *goquery.Document, src domain.Source) []domain.RawItem {
	var items []domain.RawItem
	doc.Find("h2, h3").Each(func(_ int, heading *goquery.Selection) {
		title := collapse(heading.Text())
		body := collapse(heading.Next().Text())
		if title == "" || body == "" {
			return
		}
		items = append(items, domain.RawItem{
			Title:       title,
			Content:     truncate(body, maxContentLength),
			URL:         src.URL,
			PublishedAt: publishedAt(heading.Parent()),
		})
	})
	return items
}
