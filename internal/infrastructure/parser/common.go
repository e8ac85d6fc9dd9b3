package parser

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"CompetitorWatch/internal/domain"
)

const maxContentLength = 2000

// headingText returns the text of the first heading-like element inside the
// selection.
func headingText(s *goquery.Selection) string {
	heading := s.Find("h1, h2, h3, h4, .title").First()
	return collapse(heading.Text())
}

// publishedAt makes a best-effort pass over time/date-like elements. The
// machine-readable datetime attribute wins over display text.
func publishedAt(s *goquery.Selection) *time.Time {
	timeEl := s.Find("time").First()
	if attr, ok := timeEl.Attr("datetime"); ok {
		if parsed, err := dateparse.ParseAny(attr); err == nil {
			return &parsed
		}
	}

	for _, candidate := range []string{timeEl.Text(), s.Find(".date, [class*='date']").First().Text()} {
		candidate = collapse(candidate)
		if candidate == "" {
			continue
		}
		if parsed, err := dateparse.ParseAny(candidate); err == nil {
			return &parsed
		}
	}
	return nil
}

// itemURL prefers an absolute link inside the container, falling back to
// the source URL as the canonical location.
func itemURL(src domain.Source, s *goquery.Selection) string {
	if href, ok := s.Find("a[href]").First().Attr("href"); ok {
		if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
			return href
		}
	}
	return src.URL
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func capItems(items []domain.RawItem, limit int) []domain.RawItem {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func rawMarkup(s *goquery.Selection) string {
	markup, err := goquery.OuterHtml(s)
	if err != nil {
		return ""
	}
	return truncate(markup, maxContentLength)
}
