package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasnomad/backend/internal/domain"
	"github.com/atlasnomad/backend/internal/repo"
	"github.com/atlasnomad/backend/testutil"
)

// newTestSegmentRepos opens one transaction and returns both repos backed by
// it, plus a trip created inside the transaction for segments to hang off.
func newTestSegmentRepos(t *testing.T) (repo.SegmentRepo, domain.Trip) {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	trip, err := repo.NewTripRepo(tx).Create(context.Background(), domain.Trip{
		Title:     "Segment Host Trip",
		StartDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err, "create host trip")

	return repo.NewSegmentRepo(tx), trip
}

// segmentFixture returns a domain.Segment with sensible defaults.
// The caller-generated ID mirrors how the service and ingest layers insert.
func segmentFixture(tripID uuid.UUID) domain.Segment {
	return domain.Segment{
		ID:               uuid.New(),
		TripID:           tripID,
		Type:             domain.SegmentTypeFlight,
		Status:           domain.SegmentStatusConfirmed,
		Title:            "Flight to Tokyo",
		Provider:         "ANA",
		ConfirmationCode: "ABC123",
		StartTime:        "10:30",
		EndTime:          "14:25",
		StartLocation:    "San Francisco International Airport",
		EndLocation:      "Tokyo Haneda Airport",
		StartLocShort:    "SFO",
		EndLocShort:      "HND",
		Date:             time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Duration:         "10h 55m",
		Details:          map[string]string{"seat": "32A", "gate": "B12"},
	}
}

func TestSegmentRepo_Create(t *testing.T) {
	r, trip := newTestSegmentRepos(t)
	ctx := context.Background()

	input := segmentFixture(trip.ID)
	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, input.ID, got.ID, "ID is caller-generated and must round-trip")
	assert.Equal(t, trip.ID, got.TripID)
	assert.Equal(t, domain.SegmentTypeFlight, got.Type)
	assert.Equal(t, "ABC123", got.ConfirmationCode)
	assert.Equal(t, "32A", got.Details["seat"])
	assert.True(t, got.Date.Equal(input.Date), "Date mismatch")
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSegmentRepo_Create_EmptyJSONColumns(t *testing.T) {
	r, trip := newTestSegmentRepos(t)
	ctx := context.Background()

	input := segmentFixture(trip.ID)
	input.Details = nil
	input.Media = nil

	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.Nil(t, got.Details)
	assert.Nil(t, got.Media)
}

func TestSegmentRepo_Create_UnknownTrip(t *testing.T) {
	r, _ := newTestSegmentRepos(t)
	ctx := context.Background()

	// The FK constraint rejects an orphan segment.
	_, err := r.Create(ctx, segmentFixture(uuid.New()))

	assert.Error(t, err)
}

func TestSegmentRepo_GetByID(t *testing.T) {
	r, trip := newTestSegmentRepos(t)
	ctx := context.Background()

	created, err := r.Create(ctx, segmentFixture(trip.ID))
	require.NoError(t, err)

	got, err := r.GetByID(ctx, trip.ID, created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Title, got.Title)
}

func TestSegmentRepo_GetByID_WrongTrip(t *testing.T) {
	r, trip := newTestSegmentRepos(t)
	ctx := context.Background()

	created, err := r.Create(ctx, segmentFixture(trip.ID))
	require.NoError(t, err)

	// Scoping by trip: the right segment ID under the wrong trip is a miss.
	_, err = r.GetByID(ctx, uuid.New(), created.ID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSegmentRepo_ListByTripID_ItineraryOrder(t *testing.T) {
	r, trip := newTestSegmentRepos(t)
	ctx := context.Background()

	evening := segmentFixture(trip.ID)
	evening.Title = "Evening Train"
	evening.Type = domain.SegmentTypeTrain
	evening.StartTime = "19:00"

	morning := segmentFixture(trip.ID)
	morning.ID = uuid.New()
	morning.Title = "Morning Flight"
	morning.StartTime = "08:00"

	nextDay := segmentFixture(trip.ID)
	nextDay.ID = uuid.New()
	nextDay.Title = "Hotel Check-in"
	nextDay.Type = domain.SegmentTypeLodging
	nextDay.Date = evening.Date.AddDate(0, 0, 1)
	nextDay.StartTime = "15:00"

	for _, seg := range []domain.Segment{evening, morning, nextDay} {
		_, err := r.Create(ctx, seg)
		require.NoError(t, err)
	}

	segments, err := r.ListByTripID(ctx, trip.ID)

	require.NoError(t, err)
	require.Len(t, segments, 3)
	assert.Equal(t, "Morning Flight", segments[0].Title)
	assert.Equal(t, "Evening Train", segments[1].Title)
	assert.Equal(t, "Hotel Check-in", segments[2].Title)
}

func TestSegmentRepo_Update(t *testing.T) {
	r, trip := newTestSegmentRepos(t)
	ctx := context.Background()

	created, err := r.Create(ctx, segmentFixture(trip.ID))
	require.NoError(t, err)

	created.Status = domain.SegmentStatusDelayed
	created.StartTime = "12:45"
	created.Details = map[string]string{"seat": "14C"}

	updated, err := r.Update(ctx, created)

	require.NoError(t, err)
	assert.Equal(t, domain.SegmentStatusDelayed, updated.Status)
	assert.Equal(t, "12:45", updated.StartTime)
	assert.Equal(t, "14C", updated.Details["seat"])
}

func TestSegmentRepo_Update_NotFound(t *testing.T) {
	r, trip := newTestSegmentRepos(t)
	ctx := context.Background()

	ghost := segmentFixture(trip.ID)

	_, err := r.Update(ctx, ghost)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSegmentRepo_Delete(t *testing.T) {
	r, trip := newTestSegmentRepos(t)
	ctx := context.Background()

	created, err := r.Create(ctx, segmentFixture(trip.ID))
	require.NoError(t, err)

	err = r.Delete(ctx, trip.ID, created.ID)
	require.NoError(t, err)

	_, err = r.GetByID(ctx, trip.ID, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSegmentRepo_Delete_NotFound(t *testing.T) {
	r, trip := newTestSegmentRepos(t)
	ctx := context.Background()

	err := r.Delete(ctx, trip.ID, uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestSegmentRepo_TripDeleteCascades verifies the FK cascade: deleting a trip
// removes its segments in the same statement.
func TestSegmentRepo_TripDeleteCascades(t *testing.T) {
	pool := testutil.NewPool(t)
	ctx := context.Background()

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(ctx) })

	tripRepo := repo.NewTripRepo(tx)
	segRepo := repo.NewSegmentRepo(tx)

	trip, err := tripRepo.Create(ctx, domain.Trip{
		Title:     "Doomed Trip",
		StartDate: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	seg, err := segRepo.Create(ctx, segmentFixture(trip.ID))
	require.NoError(t, err)

	require.NoError(t, tripRepo.Delete(ctx, trip.ID))

	_, err = segRepo.GetByID(ctx, trip.ID, seg.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "segments should cascade with their trip")

	var count int
	err = tx.QueryRow(ctx, "SELECT count(*) FROM segments WHERE trip_id = $1", trip.ID).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}
