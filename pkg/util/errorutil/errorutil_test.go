package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestSentinelsSurviveWrapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		code     string
		status   int
	}{
		{"invalid transition", NewInvalidTransition("nope", nil), ErrInvalidTransition, "INVALID_TRANSITION", http.StatusUnprocessableEntity},
		{"forbidden", NewForbidden("denied", nil), ErrForbidden, "FORBIDDEN", http.StatusForbidden},
		{"concurrent modification", NewConcurrentModification("ticket", nil), ErrConcurrentModification, "CONCURRENT_MODIFICATION", http.StatusConflict},
		{"not found", NewNotFound("ticket", nil), ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("service: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, want true", wrapped, tt.sentinel)
			}
			de := ToDomainError(wrapped)
			if de.Code != tt.code {
				t.Errorf("Code = %q, want %q", de.Code, tt.code)
			}
			if de.HTTPStatus != tt.status {
				t.Errorf("HTTPStatus = %d, want %d", de.HTTPStatus, tt.status)
			}
		})
	}
}

func TestToDomainError_NoRowsBecomesNotFound(t *testing.T) {
	de := ToDomainError(pgx.ErrNoRows)
	if de.Code != "NOT_FOUND" {
		t.Errorf("Code = %q, want NOT_FOUND", de.Code)
	}
}

func TestToDomainError_UnknownBecomesInternal(t *testing.T) {
	de := ToDomainError(errors.New("boom"))
	if de.Code != "INTERNAL_ERROR" {
		t.Errorf("Code = %q, want INTERNAL_ERROR", de.Code)
	}
	if de.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("HTTPStatus = %d, want 500", de.HTTPStatus)
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(NewConflict("x", nil)); got != "CONFLICT" {
		t.Errorf("CodeOf = %q, want CONFLICT", got)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
}
