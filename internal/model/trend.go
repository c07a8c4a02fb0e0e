package model

import "time"

// Degrees fitted by the trend calculator, lowest first.
var Degrees = []int{1, 2, 3, 4}

// TrendPoint is one row of the fitted series.
type TrendPoint struct {
	Index  int
	Date   time.Time
	Close  float64
	Degree [5]float64 // Degree[d] holds the degree-d prediction; index 0 unused
	Avg    float64
}

// ArtifactScope identifies which chart an artifact holds.
type ArtifactScope string

const (
	ScopeFull         ArtifactScope = "full"
	ScopeTrailingYear ArtifactScope = "trailing-year"
)

// TrendArtifact is a chart written to disk. Path is the rendered image, or the
// page itself when images are disabled; Page is the interactive HTML version.
type TrendArtifact struct {
	Scope ArtifactScope
	AsOf  time.Time
	Path  string
	Page  string
}
