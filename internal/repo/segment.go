package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/atlasnomad/backend/internal/domain"
)

// SegmentRepo defines the persistence operations for Segments.
// All single-record operations are scoped by tripID to enforce ownership.
//
// Unlike trips, segment IDs are generated by the caller (service or ingest
// layer) rather than the database, so a segment's identity exists before
// the insert — the ingestion pipeline relies on that for idempotent retry.
type SegmentRepo interface {
	// Create inserts a new segment and returns the persisted record.
	// seg.ID and seg.TripID must be set by the caller.
	Create(ctx context.Context, seg domain.Segment) (domain.Segment, error)

	// GetByID retrieves a single segment by its UUID, scoped to the given
	// tripID. Returns domain.ErrNotFound if no such segment exists under
	// that trip.
	GetByID(ctx context.Context, tripID, segmentID uuid.UUID) (domain.Segment, error)

	// ListByTripID returns all segments for a trip ordered by date then
	// start_time, the order the itinerary view renders them in.
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error)

	// Update overwrites the mutable fields of a segment, scoped to the
	// given tripID. Returns domain.ErrNotFound if it does not exist.
	Update(ctx context.Context, seg domain.Segment) (domain.Segment, error)

	// Delete removes a segment by ID, scoped to the given tripID.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, tripID, segmentID uuid.UUID) error
}

// pgSegmentRepo is the Postgres implementation of SegmentRepo.
type pgSegmentRepo struct {
	db db
}

// NewSegmentRepo constructs a SegmentRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewSegmentRepo(db db) SegmentRepo {
	return &pgSegmentRepo{db: db}
}

const segmentColumns = `id, trip_id, type, status, title, provider, confirmation_code,
	start_time, end_time, start_location, end_location,
	start_location_short, end_location_short, date, duration,
	details, media, created_at, updated_at`

func (r *pgSegmentRepo) Create(ctx context.Context, seg domain.Segment) (domain.Segment, error) {
	const q = `
		INSERT INTO segments (
			id, trip_id, type, status, title, provider, confirmation_code,
			start_time, end_time, start_location, end_location,
			start_location_short, end_location_short, date, duration,
			details, media
		)
		VALUES (
			@id, @trip_id, @type, @status, @title, @provider, @confirmation_code,
			@start_time, @end_time, @start_location, @end_location,
			@start_location_short, @end_location_short, @date, @duration,
			@details, @media
		)
		RETURNING ` + segmentColumns

	details, media, err := marshalSegmentJSON(seg)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.Create: %w", err)
	}

	args := pgx.NamedArgs{
		"id":                   seg.ID,
		"trip_id":              seg.TripID,
		"type":                 string(seg.Type),
		"status":               string(seg.Status),
		"title":                seg.Title,
		"provider":             seg.Provider,
		"confirmation_code":    seg.ConfirmationCode,
		"start_time":           seg.StartTime,
		"end_time":             seg.EndTime,
		"start_location":       seg.StartLocation,
		"end_location":         seg.EndLocation,
		"start_location_short": seg.StartLocShort,
		"end_location_short":   seg.EndLocShort,
		"date":                 seg.Date,
		"duration":             seg.Duration,
		"details":              details,
		"media":                media,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanSegment(row)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgSegmentRepo) GetByID(ctx context.Context, tripID, segmentID uuid.UUID) (domain.Segment, error) {
	const q = `
		SELECT ` + segmentColumns + `
		FROM segments
		WHERE trip_id = @trip_id AND id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "id": segmentID})
	result, err := scanSegment(row)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgSegmentRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error) {
	const q = `
		SELECT ` + segmentColumns + `
		FROM segments
		WHERE trip_id = @trip_id
		ORDER BY date ASC, start_time ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.SegmentRepo.ListByTripID: %w", err)
	}
	defer rows.Close()

	var segments []domain.Segment
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.SegmentRepo.ListByTripID: scan: %w", err)
		}
		segments = append(segments, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.SegmentRepo.ListByTripID: rows: %w", err)
	}

	return segments, nil
}

func (r *pgSegmentRepo) Update(ctx context.Context, seg domain.Segment) (domain.Segment, error) {
	const q = `
		UPDATE segments
		SET type                 = @type,
		    status               = @status,
		    title                = @title,
		    provider             = @provider,
		    confirmation_code    = @confirmation_code,
		    start_time           = @start_time,
		    end_time             = @end_time,
		    start_location       = @start_location,
		    end_location         = @end_location,
		    start_location_short = @start_location_short,
		    end_location_short   = @end_location_short,
		    date                 = @date,
		    duration             = @duration,
		    details              = @details,
		    media                = @media,
		    updated_at           = now()
		WHERE trip_id = @trip_id AND id = @id
		RETURNING ` + segmentColumns

	details, media, err := marshalSegmentJSON(seg)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.Update: %w", err)
	}

	args := pgx.NamedArgs{
		"id":                   seg.ID,
		"trip_id":              seg.TripID,
		"type":                 string(seg.Type),
		"status":               string(seg.Status),
		"title":                seg.Title,
		"provider":             seg.Provider,
		"confirmation_code":    seg.ConfirmationCode,
		"start_time":           seg.StartTime,
		"end_time":             seg.EndTime,
		"start_location":       seg.StartLocation,
		"end_location":         seg.EndLocation,
		"start_location_short": seg.StartLocShort,
		"end_location_short":   seg.EndLocShort,
		"date":                 seg.Date,
		"duration":             seg.Duration,
		"details":              details,
		"media":                media,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanSegment(row)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgSegmentRepo) Delete(ctx context.Context, tripID, segmentID uuid.UUID) error {
	const q = `DELETE FROM segments WHERE trip_id = @trip_id AND id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID, "id": segmentID})
	if err != nil {
		return fmt.Errorf("repo.SegmentRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.SegmentRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// marshalSegmentJSON encodes the free-form Details map and Media list for
// the jsonb columns. Empty values are stored as NULL, not "{}"/"[]".
func marshalSegmentJSON(seg domain.Segment) (details, media []byte, err error) {
	if len(seg.Details) > 0 {
		details, err = json.Marshal(seg.Details)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal details: %w", err)
		}
	}
	if len(seg.Media) > 0 {
		media, err = json.Marshal(seg.Media)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal media: %w", err)
		}
	}
	return details, media, nil
}

// scanSegment maps a single database row into a domain.Segment.
// It handles the UUID, date, and jsonb conversions.
func scanSegment(s scanner) (domain.Segment, error) {
	var (
		seg     domain.Segment
		id      pgtype.UUID
		tripID  pgtype.UUID
		typ     string
		status  string
		date    pgtype.Date
		details []byte
		media   []byte
	)

	err := s.Scan(
		&id, &tripID, &typ, &status, &seg.Title, &seg.Provider,
		&seg.ConfirmationCode, &seg.StartTime, &seg.EndTime,
		&seg.StartLocation, &seg.EndLocation, &seg.StartLocShort,
		&seg.EndLocShort, &date, &seg.Duration, &details, &media,
		&seg.CreatedAt, &seg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Segment{}, domain.ErrNotFound
		}
		return domain.Segment{}, err
	}

	seg.ID = uuid.UUID(id.Bytes)
	seg.TripID = uuid.UUID(tripID.Bytes)
	seg.Type = domain.SegmentType(typ)
	seg.Status = domain.SegmentStatus(status)
	seg.Date = date.Time

	if len(details) > 0 {
		if err := json.Unmarshal(details, &seg.Details); err != nil {
			return domain.Segment{}, fmt.Errorf("unmarshal details: %w", err)
		}
	}
	if len(media) > 0 {
		if err := json.Unmarshal(media, &seg.Media); err != nil {
			return domain.Segment{}, fmt.Errorf("unmarshal media: %w", err)
		}
	}

	return seg, nil
}
