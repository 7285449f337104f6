package domain

import "fmt"

// RunSummary accumulates per-message outcomes over one ingestion run.
// It is ephemeral: created fresh at run start, returned to the caller,
// never persisted.
type RunSummary struct {
	// Checked counts every listed message the run looked at, including
	// ones that were skipped or failed.
	Checked int `json:"checked"`
	// Added counts segments persisted to the trip store.
	Added int `json:"added"`
	// Duplicates counts travel emails skipped because they matched an
	// existing reservation.
	Duplicates int `json:"duplicates"`
	// NonTravel counts messages classified as marketing, newsletters, or
	// other non-reservation mail.
	NonTravel int `json:"non_travel"`
	// Failed counts messages that hit a per-message error: vanished before
	// fetch, oracle failure, extraction fault, or persist failure.
	Failed int `json:"failed"`
}

// RunResult is the only state visible outside the ingestion orchestrator:
// a success flag and a human-readable diagnostic, mirrored onto the manual
// sync endpoint and the scheduler log line.
type RunResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Summary RunSummary `json:"summary"`
}

// Message renders the user-facing completion string for a finished run.
func (s RunSummary) Message() string {
	if s.Checked == 0 {
		return "Email sync complete. 0 new emails found."
	}
	msg := fmt.Sprintf("Email sync complete. %d email(s) checked, %d new segment(s) added.",
		s.Checked, s.Added)
	if s.Duplicates > 0 {
		msg += fmt.Sprintf(" %d duplicate(s) ignored.", s.Duplicates)
	}
	if s.Failed > 0 {
		msg += fmt.Sprintf(" %d message(s) failed.", s.Failed)
	}
	return msg
}
