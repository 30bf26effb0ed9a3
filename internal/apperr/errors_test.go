package apperr

import (
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOfUnwrapsContext(t *testing.T) {
	err := fmt.Errorf("submitting response: %w", ErrDuplicateResponse)
	if got := CodeOf(err); got != "DUPLICATE_RESPONSE" {
		t.Fatalf("CodeOf = %q, want DUPLICATE_RESPONSE", got)
	}
	if got := StatusOf(err); got != http.StatusConflict {
		t.Fatalf("StatusOf = %d, want 409", got)
	}
}

func TestCodeOfUnknownError(t *testing.T) {
	err := fmt.Errorf("boom")
	if got := CodeOf(err); got != "INTERNAL" {
		t.Fatalf("CodeOf = %q, want INTERNAL", got)
	}
	if got := StatusOf(err); got != http.StatusInternalServerError {
		t.Fatalf("StatusOf = %d, want 500", got)
	}
}

func TestIsDuplicate(t *testing.T) {
	if !IsDuplicate(fmt.Errorf("wrapped: %w", ErrDuplicateVote)) {
		t.Fatal("wrapped duplicate vote should report true")
	}
	if IsDuplicate(ErrSessionNotFound) {
		t.Fatal("not-found is not a duplicate outcome")
	}
}
