package models

import (
	"time"

	dErrors "certguard/pkg/domain-errors"
)

// TimeRange is an inclusive [Start, End] interval.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeRange validates that start does not follow end.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, dErrors.New(dErrors.CodeValidation, "start and end are required")
	}
	if start.After(end) {
		return TimeRange{}, dErrors.New(dErrors.CodeValidation, "start must not be after end")
	}
	return TimeRange{Start: start, End: end}, nil
}

// Contains reports whether t lies within the range, bounds included.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Report summarizes flagged duplicates over a time range.
type Report struct {
	ID                 string            `json:"id"`
	TotalDuplicates    int               `json:"totalDuplicates"`
	DuplicatesByIssuer map[string]int    `json:"duplicatesByIssuer"`
	DuplicatesByType   map[MatchType]int `json:"duplicatesByType"`
	TimeRange          TimeRange         `json:"timeRange"`
	GeneratedAt        time.Time         `json:"generatedAt"`
	Duplicates         []Match           `json:"duplicates"`
}
