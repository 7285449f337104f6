// Package extractor calls the hosted text-generation service that classifies
// reservation emails and lifts structured segment data out of them. The
// understanding itself is entirely delegated to the model — this package owns
// only the prompt contract and the strict parsing of the reply.
package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atlasnomad/backend/internal/domain"
)

// Result is the oracle's verdict on one email.
//
// IsDuplicate is only meaningful when IsTravelEmail is true. Segment is
// present when the email is a new travel reservation; it may legitimately be
// absent for duplicates, whose payload is discarded anyway.
type Result struct {
	IsTravelEmail bool     `json:"isTravelEmail"`
	IsDuplicate   bool     `json:"isDuplicate"`
	Segment       *Segment `json:"segment,omitempty"`
}

// Segment is the model-extracted reservation record. Everything is a string
// at this stage: the reconciler validates the date and enums before anything
// is persisted.
type Segment struct {
	Type             string            `json:"type"`
	Status           string            `json:"status"`
	Title            string            `json:"title"`
	Provider         string            `json:"provider"`
	ConfirmationCode string            `json:"confirmationCode"`
	StartTime        string            `json:"startTime"`
	EndTime          string            `json:"endTime"`
	StartLocation    string            `json:"startLocation"`
	EndLocation      string            `json:"endLocation"`
	StartLocShort    string            `json:"startLocationShort"`
	EndLocShort      string            `json:"endLocationShort"`
	Date             string            `json:"date"` // YYYY-MM-DD
	Duration         string            `json:"duration,omitempty"`
	Details          map[string]string `json:"details,omitempty"`
}

// existingSegment is the slice of trip state shown to the model so it can
// recognize duplicates and conflicting updates.
type existingSegment struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	Status           string `json:"status"`
	Title            string `json:"title"`
	Provider         string `json:"provider"`
	ConfirmationCode string `json:"confirmationCode"`
	StartTime        string `json:"startTime"`
	EndTime          string `json:"endTime"`
	StartLocation    string `json:"startLocation"`
	EndLocation      string `json:"endLocation"`
	Date             string `json:"date"`
}

// encodeExisting serializes the dedup baseline for the prompt.
func encodeExisting(segments []domain.Segment) (string, error) {
	out := make([]existingSegment, 0, len(segments))
	for _, s := range segments {
		out = append(out, existingSegment{
			ID:               s.ID.String(),
			Type:             string(s.Type),
			Status:           string(s.Status),
			Title:            s.Title,
			Provider:         s.Provider,
			ConfirmationCode: s.ConfirmationCode,
			StartTime:        s.StartTime,
			EndTime:          s.EndTime,
			StartLocation:    s.StartLocation,
			EndLocation:      s.EndLocation,
			Date:             s.Date.Format("2006-01-02"),
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// parseResult decodes the model's JSON reply into a Result.
// Replies that are not valid JSON (including ones wrapped in markdown code
// fences, which some models emit despite JSON mode) are an extraction fault.
func parseResult(raw string) (Result, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return Result{}, fmt.Errorf("%w: malformed oracle reply: %v", domain.ErrExtraction, err)
	}
	return res, nil
}
