package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/ports"
	"CompetitorWatch/internal/scraper"
)

const feedMaxItems = 10

// Fetcher retrieves raw content for one source. Every attempt acquires a
// rate-limiter permit keyed by the source hostname before touching the
// network; a denied permit aborts this attempt only.
type Fetcher struct {
	renderer   ports.Renderer
	limiter    ports.RateLimiter
	registry   *scraper.Registry
	feedParser *gofeed.Parser
	logger     *slog.Logger
}

var _ ports.Fetcher = (*Fetcher)(nil)

// New wires the renderer, limiter and extraction registry.
func New(renderer ports.Renderer, limiter ports.RateLimiter, registry *scraper.Registry, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		renderer:   renderer,
		limiter:    limiter,
		registry:   registry,
		feedParser: gofeed.NewParser(),
		logger:     logger,
	}
}

// Fetch runs the type-specific extraction strategy for the source. Network
// and timeout errors, and pages without substantial content, come back as
// failed results with a descriptive reason; a rate-limit rejection is
// flagged separately so throttling is distinguishable from broken selectors.
func (f *Fetcher) Fetch(ctx context.Context, src domain.Source) domain.ScrapingResult {
	if f.limiter != nil {
		if err := f.limiter.Acquire(src.Hostname()); err != nil {
			f.debug("permit denied", "source", src.ID, "origin", src.Hostname())
			return domain.ScrapingResult{
				Reason:      fmt.Sprintf("origin %s rate limited", src.Hostname()),
				RateLimited: true,
			}
		}
	}

	if src.Type == domain.SourceRSSFeed {
		return f.fetchFeed(ctx, src)
	}
	return f.fetchDocument(ctx, src)
}

func (f *Fetcher) fetchDocument(ctx context.Context, src domain.Source) domain.ScrapingResult {
	extractor, err := f.registry.Resolve(src.Type)
	if err != nil {
		return domain.ScrapingResult{Reason: err.Error()}
	}

	html, err := f.renderer.Render(ctx, src.URL)
	if err != nil {
		return domain.ScrapingResult{Reason: fmt.Sprintf("render failed: %v", err)}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.ScrapingResult{Reason: fmt.Sprintf("parse document: %v", err)}
	}

	items := extractor.Extract(doc, src)
	if len(items) == 0 {
		return domain.ScrapingResult{Reason: "no substantial content found"}
	}

	f.debug("extracted items", "source", src.ID, "count", len(items))
	return domain.ScrapingResult{Success: true, Items: items}
}

func (f *Fetcher) fetchFeed(ctx context.Context, src domain.Source) domain.ScrapingResult {
	feed, err := f.feedParser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return domain.ScrapingResult{Reason: fmt.Sprintf("parse feed: %v", err)}
	}

	var items []domain.RawItem
	for _, entry := range feed.Items {
		if len(items) >= feedMaxItems {
			break
		}

		content := entry.Content
		if content == "" {
			content = entry.Description
		}
		if entry.Title == "" && content == "" {
			continue
		}

		link := entry.Link
		if link == "" {
			link = src.URL
		}

		items = append(items, domain.RawItem{
			Title:       entry.Title,
			Content:     content,
			URL:         link,
			PublishedAt: entry.PublishedParsed,
		})
	}

	if len(items) == 0 {
		return domain.ScrapingResult{Reason: "feed has no usable entries"}
	}

	f.debug("extracted feed entries", "source", src.ID, "count", len(items))
	return domain.ScrapingResult{Success: true, Items: items}
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
