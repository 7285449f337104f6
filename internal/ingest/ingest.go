// Package ingest drives the mailbox-to-itinerary pipeline: list unread
// reservation emails, classify and extract each one through the oracle,
// reconcile against the trip's existing segments, persist what is genuinely
// new, and mark mail read.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/atlasnomad/backend/internal/domain"
	"github.com/atlasnomad/backend/internal/extractor"
)

// Mailbox is the slice of the mail client the pipeline needs.
type Mailbox interface {
	// ListUnread returns the IDs of all unread messages.
	ListUnread(ctx context.Context) ([]string, error)
	// Fetch returns the resolved plain-text body of a message, or "" when
	// the message has no text/plain part.
	Fetch(ctx context.Context, id string) (string, error)
	// MarkRead clears the message's unread flag.
	MarkRead(ctx context.Context, id string) error
}

// Oracle classifies an email against the existing-segment baseline and
// extracts a structured reservation when there is one.
type Oracle interface {
	ClassifyAndExtract(ctx context.Context, emailBody string, existing []domain.Segment) (extractor.Result, error)
}

// TripStore resolves which trip receives extracted segments.
type TripStore interface {
	FindActive(ctx context.Context, ref time.Time) (domain.Trip, error)
}

// SegmentStore is the slice of the segment repo the pipeline needs.
type SegmentStore interface {
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error)
	Create(ctx context.Context, seg domain.Segment) (domain.Segment, error)
}

// Ingestor runs the end-to-end email sync. At most one run is active at a
// time: a trigger arriving while a run is in progress is refused, never
// interleaved, because two concurrent runs over the same mailbox could
// double-process a message between its list and mark-read steps.
//
// The existing-segment snapshot is taken once per run and deliberately NOT
// refreshed after each persist, so two copies of the same new reservation
// arriving within a single run can both be persisted; the next run's
// confirmation-code dedup catches any further copies. Known gap, kept to
// preserve a consistent dedup baseline across the run.
type Ingestor struct {
	mailbox  Mailbox
	oracle   Oracle
	trips    TripStore
	segments SegmentStore
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time
	running  atomic.Bool
}

// New constructs an Ingestor. timeout bounds one whole run so a stuck
// mailbox or oracle call cannot block the next scheduled invocation forever.
func New(mb Mailbox, oracle Oracle, trips TripStore, segments SegmentStore, timeout time.Duration, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		mailbox:  mb,
		oracle:   oracle,
		trips:    trips,
		segments: segments,
		logger:   logger,
		timeout:  timeout,
		now:      time.Now,
	}
}

// errAbortRun marks a per-run-fatal failure inside the message loop.
var errAbortRun = errors.New("abort run")

// Run executes one full ingestion pass and returns its summary.
// It never returns an error: every failure mode is folded into the
// RunResult so schedulers and the sync endpoint share one surface.
func (i *Ingestor) Run(ctx context.Context) domain.RunResult {
	if !i.running.CompareAndSwap(false, true) {
		return domain.RunResult{Success: false, Message: "Email sync already in progress. Try again later."}
	}
	defer i.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	i.logger.Info("email sync started")

	trip, err := i.trips.FindActive(ctx, i.now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			i.logger.Info("email sync skipped", "reason", "no active or upcoming trip")
			return domain.RunResult{Success: true, Message: "Email sync complete. No upcoming trip to attach segments to."}
		}
		return i.failure(fmt.Errorf("resolve active trip: %w", err))
	}

	// Dedup baseline: fetched once, before any message is processed, and
	// passed unchanged into every oracle call of this run.
	snapshot, err := i.segments.ListByTripID(ctx, trip.ID)
	if err != nil {
		return i.failure(fmt.Errorf("list existing segments: %w", err))
	}

	ids, err := i.mailbox.ListUnread(ctx)
	if err != nil {
		return i.failure(fmt.Errorf("list unread messages: %w", err))
	}

	var summary domain.RunSummary
	for _, id := range ids {
		summary.Checked++
		if err := i.processMessage(ctx, trip.ID, snapshot, id, &summary); err != nil {
			// Only auth failures (and a dead context) escape the
			// per-message boundary; both end the run.
			res := i.failure(err)
			res.Summary = summary
			return res
		}
	}

	i.logger.Info("email sync finished",
		"checked", summary.Checked,
		"added", summary.Added,
		"duplicates", summary.Duplicates,
		"non_travel", summary.NonTravel,
		"failed", summary.Failed,
	)
	return domain.RunResult{Success: true, Message: summary.Message(), Summary: summary}
}

// processMessage runs one message through fetch → resolve → classify →
// reconcile → persist → mark-read. Per-message failures are counted on the
// summary and swallowed; an auth failure is returned to abort the run.
func (i *Ingestor) processMessage(ctx context.Context, tripID uuid.UUID, snapshot []domain.Segment, id string, summary *domain.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", errAbortRun, err)
	}

	log := i.logger.With("message_id", id)

	body, err := i.mailbox.Fetch(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAuth) {
			return err
		}
		// Vanished or transiently unfetchable: skip, leave unread so the
		// next run re-offers it.
		summary.Failed++
		log.Warn("fetch failed", "error", err)
		return nil
	}

	if body == "" {
		// No text/plain part. Mark read anyway or the message would be
		// re-resolved to nothing on every run forever.
		log.Info("message has no plain-text body, skipping")
		i.markRead(ctx, log, id)
		return nil
	}

	res, err := i.oracle.ClassifyAndExtract(ctx, body, snapshot)
	if err != nil {
		summary.Failed++
		log.Warn("classification failed", "error", err)
		return nil
	}

	switch {
	case !res.IsTravelEmail:
		summary.NonTravel++
		log.Info("skipping non-travel email")
		i.markRead(ctx, log, id)

	case res.IsDuplicate:
		// Duplicate of an existing reservation; any extracted payload is
		// discarded unpersisted.
		summary.Duplicates++
		log.Info("skipping duplicate reservation")
		i.markRead(ctx, log, id)

	default:
		seg, err := buildSegment(tripID, res.Segment)
		if err != nil {
			// Travel email but no usable segment: an oracle fault, not a
			// reason to retry the same email indefinitely.
			summary.Failed++
			log.Warn("extraction fault", "error", err)
			i.markRead(ctx, log, id)
			return nil
		}

		if _, err := i.segments.Create(ctx, seg); err != nil {
			// Persist failed: the message must stay unread so the next
			// run retries it. Dedup makes the replay safe.
			summary.Failed++
			log.Error("persist failed", "error", err)
			return nil
		}
		summary.Added++
		log.Info("segment added",
			"segment_id", seg.ID,
			"type", seg.Type,
			"confirmation_code", seg.ConfirmationCode,
		)
		i.markRead(ctx, log, id)
	}

	return nil
}

// markRead clears the unread flag, logging any failure. A mark-read failure
// never reverts a persisted segment and never aborts the run: at worst the
// message is re-offered next run and deduplicated there.
func (i *Ingestor) markRead(ctx context.Context, log *slog.Logger, id string) {
	if err := i.mailbox.MarkRead(ctx, id); err != nil {
		log.Warn("mark read failed", "error", err)
	}
}

// buildSegment converts an oracle payload into a persistable domain.Segment,
// enforcing the extraction contract: a payload must exist, its type must be a
// known enum value, and its date must parse as a real YYYY-MM-DD calendar
// date. Invalid dates are a hard fault, never silently coerced.
func buildSegment(tripID uuid.UUID, es *extractor.Segment) (domain.Segment, error) {
	if es == nil {
		return domain.Segment{}, fmt.Errorf("%w: travel email produced no segment payload", domain.ErrExtraction)
	}

	segType := domain.SegmentType(es.Type)
	if !domain.ValidSegmentType(segType) {
		return domain.Segment{}, fmt.Errorf("%w: unknown segment type %q", domain.ErrExtraction, es.Type)
	}

	status := domain.SegmentStatus(es.Status)
	if !domain.ValidSegmentStatus(status) {
		status = domain.SegmentStatusConfirmed
	}

	date, err := time.Parse("2006-01-02", es.Date)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("%w: invalid date %q", domain.ErrExtraction, es.Date)
	}

	return domain.Segment{
		ID:               uuid.New(),
		TripID:           tripID,
		Type:             segType,
		Status:           status,
		Title:            es.Title,
		Provider:         es.Provider,
		ConfirmationCode: es.ConfirmationCode,
		StartTime:        es.StartTime,
		EndTime:          es.EndTime,
		StartLocation:    es.StartLocation,
		EndLocation:      es.EndLocation,
		StartLocShort:    es.StartLocShort,
		EndLocShort:      es.EndLocShort,
		Date:             date,
		Duration:         es.Duration,
		Details:          es.Details,
	}, nil
}

// failure renders an error into the user-facing RunResult, with a dedicated
// remedy message for credential problems and timeouts.
func (i *Ingestor) failure(err error) domain.RunResult {
	i.logger.Error("email sync failed", "error", err)

	switch {
	case errors.Is(err, domain.ErrAuth):
		return domain.RunResult{
			Success: false,
			Message: "Authentication failed. Your refresh token may be invalid or expired. Please re-authenticate with the mail service.",
		}
	case errors.Is(err, context.DeadlineExceeded):
		return domain.RunResult{
			Success: false,
			Message: "Email sync timed out. It will be retried on the next scheduled run.",
		}
	default:
		return domain.RunResult{
			Success: false,
			Message: fmt.Sprintf("Email sync failed: %v", err),
		}
	}
}
