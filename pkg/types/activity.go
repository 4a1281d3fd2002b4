package types

import "time"

// NormalizedActivity is the canonical representation of one feed item,
// derived from a RawRecord of any kind. Instances are created fresh on every
// aggregation pass and are immutable after creation.
type NormalizedActivity struct {
	ID          string     `json:"id"`
	Kind        RecordKind `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	OccurredAt  time.Time  `json:"occurred_at"`
	Status      string     `json:"status"`
	Actor       string     `json:"actor"`
}

// DateRange bounds a dashboard query. Both ends are inclusive; a zero value
// on either side leaves that side unbounded.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the range
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// ActivitySnapshot is the cached state of the activity-log service as seen
// by the dashboard: the last successfully fetched records plus whether a
// fetch is currently outstanding.
type ActivitySnapshot struct {
	Records       []RawRecord `json:"records"`
	LastFetchedAt time.Time   `json:"last_fetched_at"`
	Loading       bool        `json:"loading"`
}
