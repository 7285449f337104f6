package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/atlasnomad/backend/internal/domain"
	"github.com/atlasnomad/backend/internal/repo"
)

// timeOfDayPattern matches "HH:mm" wall-clock times, e.g. "09:45" or "21:05".
var timeOfDayPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// SegmentService implements business logic for Segment operations.
// It holds both repos because creating a segment requires verifying the
// parent trip exists.
type SegmentService struct {
	trips    repo.TripRepo
	segments repo.SegmentRepo
}

// NewSegmentService constructs a SegmentService backed by the provided repos.
func NewSegmentService(trips repo.TripRepo, segments repo.SegmentRepo) *SegmentService {
	return &SegmentService{trips: trips, segments: segments}
}

// Create validates the segment, verifies the parent trip exists, assigns a
// fresh ID, then persists.
// Returns domain.ErrValidation if input violates business rules.
// Returns domain.ErrNotFound if the parent trip does not exist.
func (s *SegmentService) Create(ctx context.Context, seg domain.Segment) (domain.Segment, error) {
	if _, err := s.trips.GetByID(ctx, seg.TripID); err != nil {
		return domain.Segment{}, fmt.Errorf("service.SegmentService.Create: %w", err)
	}
	if seg.Status == "" {
		seg.Status = domain.SegmentStatusConfirmed
	}
	if err := validateSegment(seg); err != nil {
		return domain.Segment{}, err
	}
	seg.ID = uuid.New()
	result, err := s.segments.Create(ctx, seg)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("service.SegmentService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single segment by ID, scoped to the given tripID.
// Returns domain.ErrNotFound if no segment with that ID exists under that trip.
func (s *SegmentService) GetByID(ctx context.Context, tripID, segmentID uuid.UUID) (domain.Segment, error) {
	result, err := s.segments.GetByID(ctx, tripID, segmentID)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("service.SegmentService.GetByID: %w", err)
	}
	return result, nil
}

// ListByTripID returns all segments for a trip in itinerary order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *SegmentService) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error) {
	segments, err := s.segments.ListByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.SegmentService.ListByTripID: %w", err)
	}
	if segments == nil {
		return []domain.Segment{}, nil
	}
	return segments, nil
}

// Update validates and persists changes to an existing segment.
// Returns domain.ErrValidation for invalid input, domain.ErrNotFound if the
// segment does not exist under the given trip.
func (s *SegmentService) Update(ctx context.Context, seg domain.Segment) (domain.Segment, error) {
	if err := validateSegment(seg); err != nil {
		return domain.Segment{}, err
	}
	result, err := s.segments.Update(ctx, seg)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("service.SegmentService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a segment by ID, scoped to the given tripID.
// Returns domain.ErrNotFound if the segment does not exist under the given trip.
func (s *SegmentService) Delete(ctx context.Context, tripID, segmentID uuid.UUID) error {
	if err := s.segments.Delete(ctx, tripID, segmentID); err != nil {
		return fmt.Errorf("service.SegmentService.Delete: %w", err)
	}
	return nil
}

// validateSegment enforces business rules common to both Create and Update.
//   - Type and Status must be known enum values.
//   - Title must be non-empty (whitespace-only titles are rejected).
//   - Date must be set; it is the day-grouping key for the itinerary.
//   - StartTime/EndTime, when present, must be "HH:mm" wall-clock strings.
func validateSegment(seg domain.Segment) error {
	if !domain.ValidSegmentType(seg.Type) {
		return fmt.Errorf("%w: unknown segment type %q", domain.ErrValidation, seg.Type)
	}
	if !domain.ValidSegmentStatus(seg.Status) {
		return fmt.Errorf("%w: unknown segment status %q", domain.ErrValidation, seg.Status)
	}
	if strings.TrimSpace(seg.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if seg.Date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrValidation)
	}
	if seg.StartTime != "" && !timeOfDayPattern.MatchString(seg.StartTime) {
		return fmt.Errorf("%w: start_time must be in HH:mm format", domain.ErrValidation)
	}
	if seg.EndTime != "" && !timeOfDayPattern.MatchString(seg.EndTime) {
		return fmt.Errorf("%w: end_time must be in HH:mm format", domain.ErrValidation)
	}
	return nil
}
