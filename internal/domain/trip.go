// Package domain contains the core data types for the Atlas Nomad backend.
// This package has no dependencies beyond uuid and is imported by every other
// internal package (repo, service, handler, ingest).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trip represents a single journey with a fixed date range.
// A trip is the top-level aggregate; segments belong to a trip and are
// removed with it when it is deleted.
type Trip struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Covers reports whether ref's calendar date falls within the trip's date
// range, inclusive on both ends.
func (t Trip) Covers(ref time.Time) bool {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(t.StartDate) && !day.After(t.EndDate)
}
