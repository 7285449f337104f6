package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/atlasnomad/backend/internal/domain"
)

// segmentRequest is the request body for creating or updating a segment.
// Date is a calendar day in "YYYY-MM-DD" form.
type segmentRequest struct {
	Type             string            `json:"type"`
	Status           string            `json:"status"`
	Title            string            `json:"title"`
	Provider         string            `json:"provider"`
	ConfirmationCode string            `json:"confirmation_code"`
	StartTime        string            `json:"start_time"`
	EndTime          string            `json:"end_time"`
	StartLocation    string            `json:"start_location"`
	EndLocation      string            `json:"end_location"`
	StartLocShort    string            `json:"start_location_short"`
	EndLocShort      string            `json:"end_location_short"`
	Date             string            `json:"date"`
	Duration         string            `json:"duration"`
	Details          map[string]string `json:"details"`
	Media            []domain.Media    `json:"media"`
}

// segmentResponse is the wire form of a segment, with the date-only field
// rendered as "YYYY-MM-DD".
type segmentResponse struct {
	ID               uuid.UUID         `json:"id"`
	TripID           uuid.UUID         `json:"trip_id"`
	Type             string            `json:"type"`
	Status           string            `json:"status"`
	Title            string            `json:"title"`
	Provider         string            `json:"provider"`
	ConfirmationCode string            `json:"confirmation_code"`
	StartTime        string            `json:"start_time"`
	EndTime          string            `json:"end_time"`
	StartLocation    string            `json:"start_location"`
	EndLocation      string            `json:"end_location"`
	StartLocShort    string            `json:"start_location_short"`
	EndLocShort      string            `json:"end_location_short"`
	Date             string            `json:"date"`
	Duration         string            `json:"duration,omitempty"`
	Details          map[string]string `json:"details,omitempty"`
	Media            []domain.Media    `json:"media,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// CreateSegment handles POST /trips/{tripID}/segments.
func (s *Server) CreateSegment(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(r, "tripID")
	if !ok {
		respondBadRequest(w, "invalid trip id")
		return
	}
	var req segmentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	seg, err := req.toDomain(tripID, uuid.Nil)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	created, err := s.segments.Create(r.Context(), seg)
	if err != nil {
		respondError(w, r, err, "trip not found")
		return
	}
	respondJSON(w, http.StatusCreated, segmentToResponse(created))
}

// ListSegments handles GET /trips/{tripID}/segments.
// Segments come back in itinerary order: by date, then start time.
func (s *Server) ListSegments(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(r, "tripID")
	if !ok {
		respondBadRequest(w, "invalid trip id")
		return
	}
	segments, err := s.segments.ListByTripID(r.Context(), tripID)
	if err != nil {
		respondError(w, r, err, "trip not found")
		return
	}
	out := make([]segmentResponse, len(segments))
	for i, seg := range segments {
		out[i] = segmentToResponse(seg)
	}
	respondJSON(w, http.StatusOK, out)
}

// GetSegment handles GET /trips/{tripID}/segments/{segmentID}.
func (s *Server) GetSegment(w http.ResponseWriter, r *http.Request) {
	tripID, segmentID, ok := segmentPath(r)
	if !ok {
		respondBadRequest(w, "invalid id")
		return
	}
	seg, err := s.segments.GetByID(r.Context(), tripID, segmentID)
	if err != nil {
		respondError(w, r, err, "segment not found")
		return
	}
	respondJSON(w, http.StatusOK, segmentToResponse(seg))
}

// UpdateSegment handles PUT /trips/{tripID}/segments/{segmentID}.
func (s *Server) UpdateSegment(w http.ResponseWriter, r *http.Request) {
	tripID, segmentID, ok := segmentPath(r)
	if !ok {
		respondBadRequest(w, "invalid id")
		return
	}
	var req segmentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	seg, err := req.toDomain(tripID, segmentID)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	updated, err := s.segments.Update(r.Context(), seg)
	if err != nil {
		respondError(w, r, err, "segment not found")
		return
	}
	respondJSON(w, http.StatusOK, segmentToResponse(updated))
}

// DeleteSegment handles DELETE /trips/{tripID}/segments/{segmentID}.
func (s *Server) DeleteSegment(w http.ResponseWriter, r *http.Request) {
	tripID, segmentID, ok := segmentPath(r)
	if !ok {
		respondBadRequest(w, "invalid id")
		return
	}
	if err := s.segments.Delete(r.Context(), tripID, segmentID); err != nil {
		respondError(w, r, err, "segment not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// segmentPath parses both UUID path parameters of a segment route.
func segmentPath(r *http.Request) (tripID, segmentID uuid.UUID, ok bool) {
	tripID, ok = pathUUID(r, "tripID")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	segmentID, ok = pathUUID(r, "segmentID")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return tripID, segmentID, true
}

// toDomain converts the request body into a domain.Segment, parsing the date
// string. A zero date passes through and is rejected by service validation.
func (req segmentRequest) toDomain(tripID, segmentID uuid.UUID) (domain.Segment, error) {
	seg := domain.Segment{
		ID:               segmentID,
		TripID:           tripID,
		Type:             domain.SegmentType(req.Type),
		Status:           domain.SegmentStatus(req.Status),
		Title:            req.Title,
		Provider:         req.Provider,
		ConfirmationCode: req.ConfirmationCode,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		StartLocation:    req.StartLocation,
		EndLocation:      req.EndLocation,
		StartLocShort:    req.StartLocShort,
		EndLocShort:      req.EndLocShort,
		Duration:         req.Duration,
		Details:          req.Details,
		Media:            req.Media,
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return domain.Segment{}, fmt.Errorf("date must be in YYYY-MM-DD format")
		}
		seg.Date = date
	}
	return seg, nil
}

func segmentToResponse(seg domain.Segment) segmentResponse {
	return segmentResponse{
		ID:               seg.ID,
		TripID:           seg.TripID,
		Type:             string(seg.Type),
		Status:           string(seg.Status),
		Title:            seg.Title,
		Provider:         seg.Provider,
		ConfirmationCode: seg.ConfirmationCode,
		StartTime:        seg.StartTime,
		EndTime:          seg.EndTime,
		StartLocation:    seg.StartLocation,
		EndLocation:      seg.EndLocation,
		StartLocShort:    seg.StartLocShort,
		EndLocShort:      seg.EndLocShort,
		Date:             seg.Date.Format("2006-01-02"),
		Duration:         seg.Duration,
		Details:          seg.Details,
		Media:            seg.Media,
		CreatedAt:        seg.CreatedAt,
		UpdatedAt:        seg.UpdatedAt,
	}
}
