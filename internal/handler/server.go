// Package handler implements the HTTP handlers for the Atlas Nomad API.
// All handlers are methods on Server, split into domain-specific files
// (trip.go, segment.go, sync.go) but sharing the same struct so they can
// access its dependencies. Routes assembles them onto a chi router.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atlasnomad/backend/internal/domain"
	"github.com/atlasnomad/backend/spec"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context) ([]domain.Trip, error)
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SegmentServicer defines the business operations the segment handlers depend on.
type SegmentServicer interface {
	Create(ctx context.Context, seg domain.Segment) (domain.Segment, error)
	GetByID(ctx context.Context, tripID, segmentID uuid.UUID) (domain.Segment, error)
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error)
	Update(ctx context.Context, seg domain.Segment) (domain.Segment, error)
	Delete(ctx context.Context, tripID, segmentID uuid.UUID) error
}

// SyncRunner triggers one email sync run. Run never returns an error; every
// outcome, including failure, is expressed in the RunResult so the client
// always gets a user-presentable message.
type SyncRunner interface {
	Run(ctx context.Context) domain.RunResult
}

// Server holds the dependencies shared by all API endpoints.
type Server struct {
	trips    TripServicer
	segments SegmentServicer
	sync     SyncRunner
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, segments SegmentServicer, sync SyncRunner) *Server {
	return &Server{trips: trips, segments: segments, sync: sync}
}

// Routes returns the API route tree. Cross-cutting middleware (request ID,
// logging, CORS, body limits) is applied by the caller around this router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(spec.OpenAPI)
	})

	r.Route("/trips", func(r chi.Router) {
		r.Get("/", s.ListTrips)
		r.Post("/", s.CreateTrip)
		r.Route("/{tripID}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Put("/", s.UpdateTrip)
			r.Delete("/", s.DeleteTrip)

			r.Route("/segments", func(r chi.Router) {
				r.Get("/", s.ListSegments)
				r.Post("/", s.CreateSegment)
				r.Get("/{segmentID}", s.GetSegment)
				r.Put("/{segmentID}", s.UpdateSegment)
				r.Delete("/{segmentID}", s.DeleteSegment)
			})
		})
	})

	r.Post("/sync", s.PostSync)

	return r
}

// GetHealth handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathUUID parses the named chi URL parameter as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}
