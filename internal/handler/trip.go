package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/atlasnomad/backend/internal/domain"
)

// tripRequest is the request body for creating or updating a trip.
// Dates are calendar days in "YYYY-MM-DD" form.
type tripRequest struct {
	Title     string `json:"title"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Icon      string `json:"icon"`
}

// tripResponse is the wire form of a trip. It mirrors domain.Trip except the
// date-only fields, which are rendered as "YYYY-MM-DD" instead of timestamps.
type tripResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	trip, err := req.toDomain(uuid.Nil)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	created, err := s.trips.Create(r.Context(), trip)
	if err != nil {
		respondError(w, r, err, "trip not found")
		return
	}
	respondJSON(w, http.StatusCreated, tripToResponse(created))
}

// ListTrips handles GET /trips.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.trips.List(r.Context())
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	out := make([]tripResponse, len(trips))
	for i, t := range trips {
		out[i] = tripToResponse(t)
	}
	respondJSON(w, http.StatusOK, out)
}

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "tripID")
	if !ok {
		respondBadRequest(w, "invalid trip id")
		return
	}
	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "trip not found")
		return
	}
	respondJSON(w, http.StatusOK, tripToResponse(trip))
}

// UpdateTrip handles PUT /trips/{tripID}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "tripID")
	if !ok {
		respondBadRequest(w, "invalid trip id")
		return
	}
	var req tripRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	trip, err := req.toDomain(id)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	updated, err := s.trips.Update(r.Context(), trip)
	if err != nil {
		respondError(w, r, err, "trip not found")
		return
	}
	respondJSON(w, http.StatusOK, tripToResponse(updated))
}

// DeleteTrip handles DELETE /trips/{tripID}.
// Deleting a trip removes all of its segments in the same statement.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "tripID")
	if !ok {
		respondBadRequest(w, "invalid trip id")
		return
	}
	if err := s.trips.Delete(r.Context(), id); err != nil {
		respondError(w, r, err, "trip not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// toDomain converts the request body into a domain.Trip, parsing the date
// strings. Zero dates pass through and are rejected by service validation.
func (req tripRequest) toDomain(id uuid.UUID) (domain.Trip, error) {
	t := domain.Trip{
		ID:    id,
		Title: req.Title,
		Icon:  req.Icon,
	}
	var err error
	if req.StartDate != "" {
		t.StartDate, err = time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("start_date must be in YYYY-MM-DD format")
		}
	}
	if req.EndDate != "" {
		t.EndDate, err = time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("end_date must be in YYYY-MM-DD format")
		}
	}
	return t, nil
}

func tripToResponse(t domain.Trip) tripResponse {
	return tripResponse{
		ID:        t.ID,
		Title:     t.Title,
		StartDate: t.StartDate.Format("2006-01-02"),
		EndDate:   t.EndDate.Format("2006-01-02"),
		Icon:      t.Icon,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
