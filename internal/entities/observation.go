// Package entities contains the core domain objects for the people-counter application
package entities

import (
	"fmt"
	"time"
)

// Observation represents a single people count recorded in the log
type Observation struct {
	Time     time.Time // Assigned by the store when the row is written
	NbPeople int32     // Number of people counted, no bounds enforced
	Source   *string   // Origin of the count, nil when unknown
}

// HourBucket is the sum of all counts whose time falls within one clock hour
type HourBucket struct {
	Start time.Time // Start of the hour
	Total int64
}

// Item is the caller-facing projection of an observation or an hour bucket.
// Only the time of day is surfaced; the date is implied by the query.
type Item struct {
	Time     string  `json:"time"`
	NbPeople int64   `json:"nb_people"`
	Source   *string `json:"source"`
}

// FormatClock renders the time of day of t in loc as zero-padded HH:MM
func FormatClock(t time.Time, loc *time.Location) string {
	t = t.In(loc)
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// FormatHour renders the hour of t in loc as HH:00
func FormatHour(t time.Time, loc *time.Location) string {
	return fmt.Sprintf("%02d:00", t.In(loc).Hour())
}

// ToItem projects the observation into an Item using loc for the time of day
func (o Observation) ToItem(loc *time.Location) Item {
	return Item{
		Time:     FormatClock(o.Time, loc),
		NbPeople: int64(o.NbPeople),
		Source:   o.Source,
	}
}

// ToItem projects the bucket into an Item. Source is always nil since a
// bucket aggregates counts from possibly many sources.
func (b HourBucket) ToItem(loc *time.Location) Item {
	return Item{
		Time:     FormatHour(b.Start, loc),
		NbPeople: b.Total,
	}
}
