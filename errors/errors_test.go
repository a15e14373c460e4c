package errors

import (
	"fmt"
	"testing"
)

func TestBoardError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeInvalidInput, "title is required")
	if err.Code != ErrCodeInvalidInput {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidInput, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("connection refused")
	wrapped := Wrap(cause, ErrCodeTransport, "list listings failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	if !Is(wrapped, ErrCodeTransport) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeMalformed) {
		t.Error("Is should return false for non-matching code")
	}

	// Wrapped by fmt.Errorf
	outer := fmt.Errorf("activate: %w", wrapped)
	if GetCode(outer) != ErrCodeTransport {
		t.Errorf("expected code %s through fmt wrapping, got %s", ErrCodeTransport, GetCode(outer))
	}

	detailed := err.WithDetail("field", "title").WithDetail("len", 0)
	if detailed.Details["field"] != "title" {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := UnexpectedStatus("list listings", "http://localhost:8000/listings", 502)
	if err.Code != ErrCodeTransport {
		t.Errorf("expected code %s, got %s", ErrCodeTransport, err.Code)
	}
	if err.Details["status"] != 502 {
		t.Error("UnexpectedStatus should include status detail")
	}

	err = DuplicateID(7)
	if err.Code != ErrCodeDuplicateID {
		t.Errorf("expected code %s, got %s", ErrCodeDuplicateID, err.Code)
	}
	if err.Details["id"] != int64(7) {
		t.Error("DuplicateID should include id detail")
	}

	err = AlreadyRunning(4242)
	if err.Details["pid"] != 4242 {
		t.Error("AlreadyRunning should include pid detail")
	}

	if GetCode(nil) != "" {
		t.Error("GetCode(nil) should be empty")
	}
}
