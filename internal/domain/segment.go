package domain

import (
	"time"

	"github.com/google/uuid"
)

// SegmentType enumerates the kinds of bookable travel events a trip can hold.
type SegmentType string

const (
	SegmentTypeFlight   SegmentType = "flight"
	SegmentTypeLodging  SegmentType = "lodging"
	SegmentTypeTrain    SegmentType = "train"
	SegmentTypeFerry    SegmentType = "ferry"
	SegmentTypeBus      SegmentType = "bus"
	SegmentTypeActivity SegmentType = "activity"
	SegmentTypeCar      SegmentType = "car"
)

// SegmentStatus enumerates the booking states a segment can be in.
type SegmentStatus string

const (
	SegmentStatusConfirmed SegmentStatus = "confirmed"
	SegmentStatusDelayed   SegmentStatus = "delayed"
	SegmentStatusCancelled SegmentStatus = "cancelled"
)

// ValidSegmentType reports whether s is one of the known segment types.
func ValidSegmentType(s SegmentType) bool {
	switch s {
	case SegmentTypeFlight, SegmentTypeLodging, SegmentTypeTrain,
		SegmentTypeFerry, SegmentTypeBus, SegmentTypeActivity, SegmentTypeCar:
		return true
	}
	return false
}

// ValidSegmentStatus reports whether s is one of the known segment statuses.
func ValidSegmentStatus(s SegmentStatus) bool {
	switch s {
	case SegmentStatusConfirmed, SegmentStatusDelayed, SegmentStatusCancelled:
		return true
	}
	return false
}

// Media is a reference to a boarding document attached to a segment,
// e.g. a QR code image or a PDF ticket.
type Media struct {
	Type string `json:"type"` // "qr" or "pdf"
	URL  string `json:"url"`
}

// Segment represents one reservation or event within a trip: a flight leg,
// a lodging stay, a train ride, and so on.
//
// Date is the authoritative day-grouping key for itinerary display; for
// lodging it is the check-in date. StartTime and EndTime are local wall-clock
// times in "HH:mm" form. They stay strings because the segment's time zone
// is unknown.
type Segment struct {
	ID               uuid.UUID         `json:"id"`
	TripID           uuid.UUID         `json:"trip_id"`
	Type             SegmentType       `json:"type"`
	Status           SegmentStatus     `json:"status"`
	Title            string            `json:"title"`
	Provider         string            `json:"provider"`
	ConfirmationCode string            `json:"confirmation_code"`
	StartTime        string            `json:"start_time"`
	EndTime          string            `json:"end_time"`
	StartLocation    string            `json:"start_location"`
	EndLocation      string            `json:"end_location"`
	StartLocShort    string            `json:"start_location_short"`
	EndLocShort      string            `json:"end_location_short"`
	Date             time.Time         `json:"date"`
	Duration         string            `json:"duration,omitempty"`
	Details          map[string]string `json:"details,omitempty"`
	Media            []Media           `json:"media,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}
