package parser

import (
	"github.com/PuerkitoBio/goquery"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/scraper"
)

const socialMaxItems = 5

// SocialFeedAExtractor handles X/Twitter-style post markup.
type SocialFeedAExtractor struct{}

var _ scraper.Extractor = (*SocialFeedAExtractor)(nil)

// NewSocialFeedAExtractor builds the feed-A strategy.
func NewSocialFeedAExtractor() *SocialFeedAExtractor {
	return &SocialFeedAExtractor{}
}

// Type identifies the strategy inside the registry.
func (e *SocialFeedAExtractor) Type() domain.SourceType {
	return domain.SourceSocialFeedA
}

// Extract selects tweet containers and pulls post text plus the
// machine-readable timestamp.
func (e *SocialFeedAExtractor) Extract(doc *goquery.Document, src domain.Source) []domain.RawItem {
	containers := doc.Find("article[data-testid='tweet']")
	if containers.Length() == 0 {
		containers = doc.Find("[data-testid='cellInnerDiv'] article")
	}

	var items []domain.RawItem
	containers.EachWithBreak(func(_ int, post *goquery.Selection) bool {
		text := collapse(post.Find("[data-testid='tweetText']").First().Text())
		if text == "" {
			text = collapse(post.Text())
		}
		if text == "" {
			return true
		}

		items = append(items, domain.RawItem{
			Title:       truncate(text, 80),
			Content:     truncate(text, maxContentLength),
			URL:         itemURL(src, post),
			PublishedAt: publishedAt(post),
			RawMarkup:   rawMarkup(post),
		})
		return len(items) < socialMaxItems
	})
	return items
}

// SocialFeedBExtractor handles LinkedIn-style post markup.
type SocialFeedBExtractor struct{}

var _ scraper.Extractor = (*SocialFeedBExtractor)(nil)

// NewSocialFeedBExtractor builds the feed-B strategy.
func NewSocialFeedBExtractor() *SocialFeedBExtractor {
	return &SocialFeedBExtractor{}
}

// Type identifies the strategy inside the registry.
func (e *SocialFeedBExtractor) Type() domain.SourceType {
	return domain.SourceSocialFeedB
}

// Extract selects feed-update containers and pulls post commentary text.
func (e *SocialFeedBExtractor) Extract(doc *goquery.Document, src domain.Source) []domain.RawItem {
	containers := doc.Find(".feed-shared-update-v2")
	if containers.Length() == 0 {
		containers = doc.Find("[class*='feed-shared'], [class*='occludable-update']")
	}

	var items []domain.RawItem
	containers.EachWithBreak(func(_ int, post *goquery.Selection) bool {
		text := collapse(post.Find(".update-components-text, [class*='commentary']").First().Text())
		if text == "" {
			text = collapse(post.Text())
		}
		if text == "" {
			return true
		}

		items = append(items, domain.RawItem{
			Title:       truncate(text, 80),
			Content:     truncate(text, maxContentLength),
			URL:         itemURL(src, post),
			PublishedAt: publishedAt(post),
			RawMarkup:   rawMarkup(post),
		})
		return len(items) < socialMaxItems
	})
	return items
}
