package domain

import "time"

// Digest is a periodic narrative rollup of classified updates over a time
// window. It references the window, not specific rows; counts are computed
// from the queried rows at generation time.
type Digest struct {
	ID              string
	Title           string
	Content         string
	WindowStart     time.Time
	WindowEnd       time.Time
	TotalUpdates    int
	HighImpactCount int
	Delivered       bool
	DeliveryRef     string
	CreatedAt       time.Time
}
