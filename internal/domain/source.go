package domain

import (
	"net/url"
	"strings"
	"time"
)

// SourceType selects the extraction strategy for a monitored origin.
type SourceType string

const (
	SourceGenericPage SourceType = "generic_page"
	SourceChangelog   SourceType = "changelog"
	SourceSocialFeedA SourceType = "social_feed_a"
	SourceSocialFeedB SourceType = "social_feed_b"
	SourceAppStore    SourceType = "app_store"
	SourceRSSFeed     SourceType = "rss_feed"
)

// CheckCadence is how often a source should be re-fetched.
type CheckCadence string

const (
	CadenceEvery6h  CheckCadence = "6h"
	CadenceEvery12h CheckCadence = "12h"
	CadenceDaily    CheckCadence = "daily"
	CadenceWeekly   CheckCadence = "weekly"
)

// Interval maps a cadence to its check interval. Unrecognized values
// default to daily.
func (c CheckCadence) Interval() time.Duration {
	switch c {
	case CadenceEvery6h:
		return 6 * time.Hour
	case CadenceEvery12h:
		return 12 * time.Hour
	case CadenceDaily:
		return 24 * time.Hour
	case CadenceWeekly:
		return 168 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// SourceStatus records the outcome of the most recent fetch attempt.
type SourceStatus string

const (
	StatusPending SourceStatus = "pending"
	StatusSuccess SourceStatus = "success"
	StatusFailed  SourceStatus = "failed"
)

// Source is one monitored origin belonging to a competitor.
type Source struct {
	ID             string
	CompetitorID   string
	CompetitorName string
	URL            string
	Type           SourceType
	Cadence        CheckCadence
	Active         bool
	LastChecked    *time.Time
	LastStatus     SourceStatus
	LastError      string
}

// Due reports whether the source should be fetched now. Sources that have
// never been checked are always due; otherwise the elapsed time since the
// last check must meet or exceed the cadence interval.
func (s Source) Due(now time.Time) bool {
	if s.LastChecked == nil {
		return true
	}
	return now.Sub(*s.LastChecked) >= s.Cadence.Interval()
}

// Hostname returns the network origin used for rate limiting.
func (s Source) Hostname() string {
	u, err := url.Parse(s.URL)
	if err != nil || u.Host == "" {
		return strings.ToLower(s.URL)
	}
	return strings.ToLower(u.Hostname())
}

// RawItem is one piece of extracted content. It lives in memory between the
// fetcher and the normalizer and is never persisted directly.
type RawItem struct {
	Title       string
	Content     string
	URL         string
	PublishedAt *time.Time
	RawMarkup   string
}

// ScrapingResult is the outcome of a single fetch attempt against a source.
type ScrapingResult struct {
	Success     bool
	Items       []RawItem
	Reason      string
	RateLimited bool
}
