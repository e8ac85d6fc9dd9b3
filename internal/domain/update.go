package domain

import "time"

// Update is a persisted, deduplicated content item. Immutable once created;
// the fingerprint is the uniqueness key across all updates.
type Update struct {
	ID             string
	SourceID       string
	CompetitorID   string
	CompetitorName string
	Title          string
	Content        string
	URL            string
	PublishedAt    *time.Time
	ScrapedAt      time.Time
	Fingerprint    string
	RawMarkup      string
}

// Category buckets an update by the kind of change it describes.
type Category string

const (
	CategoryFeature     Category = "Feature"
	CategoryBugFix      Category = "Bug Fix"
	CategoryUIUpdate    Category = "UI Update"
	CategoryPricing     Category = "Pricing"
	CategoryIntegration Category = "Integration"
)

// ValidCategory reports whether c is within the closed enumeration.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryFeature, CategoryBugFix, CategoryUIUpdate, CategoryPricing, CategoryIntegration:
		return true
	}
	return false
}

// Impact is the classification severity tier driving alerting.
type Impact string

const (
	ImpactHigh   Impact = "High"
	ImpactMedium Impact = "Medium"
	ImpactLow    Impact = "Low"
)

// ValidImpact reports whether i is within the closed enumeration.
func ValidImpact(i Impact) bool {
	switch i {
	case ImpactHigh, ImpactMedium, ImpactLow:
		return true
	}
	return false
}

// Classification is the oracle verdict for one update. Immutable.
type Classification struct {
	ID          string
	UpdateID    string
	Category    Category
	Impact      Impact
	Confidence  float64
	Summary     string
	RawResponse string
	CreatedAt   time.Time
}

// ClassifiedUpdate pairs an update with its classification for digest reads.
type ClassifiedUpdate struct {
	Update         Update
	Classification Classification
}
