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

// newTestTripRepo opens a transaction against the test database and returns a
// TripRepo backed by that transaction. The transaction is automatically rolled
// back when the test finishes, giving free per-test isolation.
//
// Requires TEST_DATABASE_URL to be set; migrations are applied by TestMain.
func newTestTripRepo(t *testing.T) repo.TripRepo {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		// Rollback discards all changes made during the test — no cleanup SQL needed.
		_ = tx.Rollback(context.Background())
	})

	return repo.NewTripRepo(tx)
}

// tripFixture returns a domain.Trip with sensible defaults for use in tests.
// Callers can override individual fields after calling this function.
func tripFixture() domain.Trip {
	return domain.Trip{
		Title:     "Japan Adventure",
		StartDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
		Icon:      "🌏",
	}
}

func TestTripRepo_Create(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	input := tripFixture()
	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID, "ID should be DB-generated UUID")
	assert.Equal(t, input.Title, got.Title)
	assert.True(t, got.StartDate.Equal(input.StartDate), "StartDate mismatch")
	assert.True(t, got.EndDate.Equal(input.EndDate), "EndDate mismatch")
	assert.Equal(t, input.Icon, got.Icon)
	assert.False(t, got.CreatedAt.IsZero(), "CreatedAt should be set by DB")
	assert.False(t, got.UpdatedAt.IsZero(), "UpdatedAt should be set by DB")
}

func TestTripRepo_GetByID(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	got, err := r.GetByID(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Title, got.Title)
}

func TestTripRepo_GetByID_NotFound(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	_, err := r.GetByID(ctx, uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_List(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	t1 := tripFixture()
	t1.Title = "First Trip"

	t2 := tripFixture()
	t2.Title = "Second Trip"
	t2.StartDate = t1.StartDate.AddDate(0, 1, 0) // one month later
	t2.EndDate = t1.EndDate.AddDate(0, 1, 0)

	_, err := r.Create(ctx, t1)
	require.NoError(t, err)
	_, err = r.Create(ctx, t2)
	require.NoError(t, err)

	trips, err := r.List(ctx)

	require.NoError(t, err)
	require.GreaterOrEqual(t, len(trips), 2, "should return at least the two created trips")

	var titles []string
	for _, tr := range trips {
		titles = append(titles, tr.Title)
	}
	assert.Contains(t, titles, "First Trip")
	assert.Contains(t, titles, "Second Trip")
}

func TestTripRepo_FindActive_CurrentTrip(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	current := tripFixture()
	current.Title = "Current"

	later := tripFixture()
	later.Title = "Later"
	later.StartDate = current.EndDate.AddDate(0, 2, 0)
	later.EndDate = later.StartDate.AddDate(0, 0, 10)

	_, err := r.Create(ctx, current)
	require.NoError(t, err)
	_, err = r.Create(ctx, later)
	require.NoError(t, err)

	// Reference date inside the current trip's range.
	got, err := r.FindActive(ctx, current.StartDate.AddDate(0, 0, 3))

	require.NoError(t, err)
	assert.Equal(t, "Current", got.Title)
}

func TestTripRepo_FindActive_UpcomingTrip(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	upcoming := tripFixture()
	upcoming.Title = "Upcoming"

	_, err := r.Create(ctx, upcoming)
	require.NoError(t, err)

	// Reference date before the trip starts: the next upcoming trip wins.
	got, err := r.FindActive(ctx, upcoming.StartDate.AddDate(0, -1, 0))

	require.NoError(t, err)
	assert.Equal(t, "Upcoming", got.Title)
}

func TestTripRepo_FindActive_AllPast(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	past := tripFixture()
	_, err := r.Create(ctx, past)
	require.NoError(t, err)

	// Reference date after every trip has ended.
	_, err = r.FindActive(ctx, past.EndDate.AddDate(1, 0, 0))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_Update(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	created.Title = "Updated Title"
	created.Icon = "🏔️"

	updated, err := r.Update(ctx, created)

	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Updated Title", updated.Title)
	assert.Equal(t, "🏔️", updated.Icon)
	// updated_at should be refreshed — may be equal to created_at in fast tests,
	// but must not be zero.
	assert.False(t, updated.UpdatedAt.IsZero())
}

func TestTripRepo_Update_NotFound(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	ghost := tripFixture()
	ghost.ID = uuid.New()

	_, err := r.Update(ctx, ghost)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_Delete(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	err = r.Delete(ctx, created.ID)
	require.NoError(t, err)

	_, err = r.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "trip should be gone after delete")
}

func TestTripRepo_Delete_NotFound(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	err := r.Delete(ctx, uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
