package handler

import (
	"net/http"
)

// PostSync handles POST /sync, the manual "check my mailbox now" action.
//
// The response is always HTTP 200 with the run's outcome in the body; the
// success flag and message are what the UI shows the user, and a failed run
// (auth problem, concurrent run, timeout) is still a well-formed answer to
// the question the client asked. The run shares its single-flight guard with
// the background scheduler, so a sync triggered while one is in progress
// returns immediately without touching the mailbox.
func (s *Server) PostSync(w http.ResponseWriter, r *http.Request) {
	result := s.sync.Run(r.Context())
	respondJSON(w, http.StatusOK, result)
}
