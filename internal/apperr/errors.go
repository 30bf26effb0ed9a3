package apperr

import (
	"errors"
	"net/http"
)

// Error is a domain error carrying a stable wire code. Handlers translate the
// code into an HTTP status or a websocket error frame; services wrap these
// with fmt.Errorf("...: %w", err) to add context.
type Error struct {
	Code   string
	Status int
	msg    string
}

func (e *Error) Error() string { return e.msg }

func define(code string, status int, msg string) *Error {
	return &Error{Code: code, Status: status, msg: msg}
}

var (
	// Not found
	ErrSessionNotFound     = define("SESSION_NOT_FOUND", http.StatusNotFound, "session not found")
	ErrQuestionNotFound    = define("QUESTION_NOT_FOUND", http.StatusNotFound, "question not found")
	ErrParticipantNotFound = define("PARTICIPANT_NOT_FOUND", http.StatusNotFound, "participant not found")
	ErrIdeaNotFound        = define("IDEA_NOT_FOUND", http.StatusNotFound, "idea not found")
	ErrTextNotFound        = define("TEXT_NOT_FOUND", http.StatusNotFound, "text response not found")

	// Invalid state
	ErrSessionInactive    = define("SESSION_INACTIVE", http.StatusConflict, "session is not active")
	ErrSessionEnded       = define("SESSION_ENDED", http.StatusConflict, "session has ended")
	ErrQuestionLocked     = define("QUESTION_LOCKED", http.StatusConflict, "question is locked")
	ErrQuestionNotActive  = define("QUESTION_NOT_ACTIVE", http.StatusConflict, "question is not the active question")
	ErrInvalidTransition  = define("INVALID_TRANSITION", http.StatusConflict, "state transition not allowed")
	ErrResultsNotRevealed = define("RESULTS_NOT_REVEALED", http.StatusConflict, "results have not been revealed")
	ErrParticipantRemoved = define("PARTICIPANT_REMOVED", http.StatusForbidden, "participant was removed from the session")

	// Duplicate outcomes. These are normal results surfaced to the caller,
	// never process failures.
	ErrDuplicateResponse = define("DUPLICATE_RESPONSE", http.StatusConflict, "response already recorded for this question")
	ErrDuplicateVote     = define("DUPLICATE_VOTE", http.StatusConflict, "vote already recorded for this idea")

	// Validation
	ErrValidation = define("VALIDATION_FAILED", http.StatusBadRequest, "payload does not match the question type")

	// Resource exhaustion
	ErrCodeAllocationExhausted = define("CODE_ALLOCATION_EXHAUSTED", http.StatusServiceUnavailable, "could not allocate a unique join code")

	// Throttling
	ErrRateLimited = define("RATE_LIMITED", http.StatusTooManyRequests, "too many events, slow down")
)

// CodeOf returns the stable wire code for err, or INTERNAL if err is not a
// domain error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}

// StatusOf returns the HTTP status for err, or 500 if err is not a domain error.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// IsDuplicate reports whether err is one of the duplicate outcomes.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateResponse) || errors.Is(err, ErrDuplicateVote)
}
