package testutil

import (
	"errors"
	"testing"

	apperrors "pfa/internal/errors"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertFieldError checks that err is a validation error carrying msg for field.
func AssertFieldError(t *testing.T, err error, field, msg string) {
	t.Helper()

	AssertAppError(t, err, apperrors.ErrValidation.Code)
	got := apperrors.As(err).Fields[field]
	if got != msg {
		t.Errorf("expected %s error %q, got %q (all: %v)", field, msg, got, apperrors.As(err).Fields)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
