package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "message only",
			err: &Error{
				Code:    EINVALID,
				Message: "invalid input",
			},
			expected: "invalid input",
		},
		{
			name: "with operation",
			err: &Error{
				Code:    EINVALID,
				Op:      "cart.add",
				Message: "invalid input",
			},
			expected: "cart.add: invalid input",
		},
		{
			name: "with wrapped error",
			err: &Error{
				Code:    EINTERNAL,
				Op:      "order.commit",
				Message: "failed to save",
				Err:     errors.New("database connection failed"),
			},
			expected: "order.commit: failed to save: database connection failed",
		},
		{
			name: "wrapped error without op",
			err: &Error{
				Code:    EINTERNAL,
				Message: "failed to save",
				Err:     errors.New("database connection failed"),
			},
			expected: "failed to save: database connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "domain error",
			err:      Invalid("checkout.set_stage", "invalid stage"),
			expected: EINVALID,
		},
		{
			name:     "wrapped domain error",
			err:      fmt.Errorf("outer: %w", Conflict("checkout.start", "checkout already exists")),
			expected: ECONFLICT,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			expected: EINTERNAL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.expected {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorMessage_HidesInternalDetails(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"), "order.commit", "failed to create order")

	msg := ErrorMessage(err)
	if msg != "An internal error occurred. Please try again later." {
		t.Errorf("ErrorMessage() leaked internal details: %q", msg)
	}
}

func TestErrorMessage_ShowsUserFacingMessage(t *testing.T) {
	err := NotFound("product.get", "product", "42")

	if got := ErrorMessage(err); got != "product not found: 42" {
		t.Errorf("ErrorMessage() = %q", got)
	}
}

func TestWrapError_NilPassthrough(t *testing.T) {
	if WrapError(nil, EINTERNAL, "op", "msg") != nil {
		t.Error("WrapError(nil) should return nil")
	}
}

func TestIsCode(t *testing.T) {
	err := Conflict("cart.add", "insufficient inventory")

	if !IsCode(err, ECONFLICT) {
		t.Error("expected IsCode to match ECONFLICT")
	}
	if IsCode(err, ENOTFOUND) {
		t.Error("did not expect IsCode to match ENOTFOUND")
	}
}
