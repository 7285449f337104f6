package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database, and by the mailbox client when a
// listed message has vanished before it could be fetched.
// Handlers should map this to HTTP 404; the ingest loop skips the message.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrAuth is returned by the mailbox client when the mail service rejects
// the configured credentials. It is fatal to an entire ingestion run —
// retrying per-message with the same credentials is pointless.
var ErrAuth = errors.New("authentication failed")

// ErrTransient is returned by external clients on network and rate-limit
// failures. A transient failure aborts the current run (on list) or the
// current message (on fetch); the next scheduled run retries naturally.
var ErrTransient = errors.New("transient failure")

// ErrExtraction is returned when the extraction oracle produced an
// internally inconsistent result: a travel email flagged non-duplicate but
// carrying no segment payload, or a segment whose date is not a real
// calendar date. The message's persist is skipped and the fault counted.
var ErrExtraction = errors.New("extraction fault")
