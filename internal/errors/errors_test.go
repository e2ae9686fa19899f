package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_ErrorString(t *testing.T) {
	err := NewValidationError("bad input", errors.New("field missing"))
	want := "validation: bad input (caused by: field missing)"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}

	bare := NewInternalError("something broke", nil)
	if bare.Error() != "internal: something broke" {
		t.Errorf("Unexpected message: %q", bare.Error())
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewNetworkError("fetch failed", cause)
	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to reach the cause")
	}
}

func TestIsType_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("context: %w", NewAllPassesFailedError("all recognition passes failed", nil))
	if !IsType(err, ErrorTypeAllPassesFailed) {
		t.Error("Expected type match through wrapping")
	}
	if !IsAllPassesFailed(err) {
		t.Error("Expected IsAllPassesFailed through wrapping")
	}
	if IsAllPassesFailed(errors.New("plain")) {
		t.Error("Plain errors must not match")
	}
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{NewValidationError("", nil), http.StatusBadRequest},
		{NewNetworkError("", nil), http.StatusBadGateway},
		{NewPreprocessingError("", nil), http.StatusUnprocessableEntity},
		{NewRecognitionEngineError("", nil), http.StatusBadGateway},
		{NewAllPassesFailedError("", nil), http.StatusUnprocessableEntity},
		{NewTimeoutError("", nil), http.StatusGatewayTimeout},
		{NewNotFoundError("", nil), http.StatusNotFound},
		{NewInternalError("", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := GetStatusCode(tt.err); got != tt.status {
			t.Errorf("GetStatusCode(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
}
