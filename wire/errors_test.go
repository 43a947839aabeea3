package wire

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFieldError(t *testing.T) {
	tests := []struct {
		name         string
		buildError   func() error
		expectedPath string
		expectedMsg  string
		sentinel     error
	}{
		{
			name: "single field error",
			buildError: func() error {
				return wrapWithField(ErrTruncatedInput, 3)
			},
			expectedPath: "3",
			expectedMsg:  "truncated input",
			sentinel:     ErrTruncatedInput,
		},
		{
			name: "nested field error",
			buildError: func() error {
				err := wrapWithField(fmt.Errorf("%w: fixed64 field accessed as string", ErrWireTypeMismatch), 1)
				err = wrapWithField(err, 5)
				err = wrapWithField(err, 3)
				return err
			},
			expectedPath: "3.5.1",
			expectedMsg:  "fixed64 field accessed as string",
			sentinel:     ErrWireTypeMismatch,
		},
		{
			name: "wrapped in context",
			buildError: func() error {
				err := wrapWithField(ErrSeekFailure, 2)
				err = fmt.Errorf("failed to decode field items: %w", err)
				return wrapWithField(err, 7)
			},
			expectedPath: "7.2",
			expectedMsg:  "seek failure",
			sentinel:     ErrSeekFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.buildError()

			var fieldErr *FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("expected FieldError, got %T", err)
			}

			actualPath := strings.Join(fieldErr.FieldPath, ".")
			if actualPath != tt.expectedPath {
				t.Errorf("expected path %q, got %q", tt.expectedPath, actualPath)
			}

			errMsg := err.Error()
			if !strings.HasPrefix(errMsg, "error at field "+tt.expectedPath+": ") {
				t.Errorf("error message should start with path %q, got: %s", tt.expectedPath, errMsg)
			}
			if !strings.Contains(errMsg, tt.expectedMsg) {
				t.Errorf("error message should contain %q, got: %s", tt.expectedMsg, errMsg)
			}
			if strings.Count(errMsg, "error at field") != 1 {
				t.Errorf("field path repeated in message: %s", errMsg)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected error to match %v", tt.sentinel)
			}
		})
	}
}

func TestWrapWithField_Nil(t *testing.T) {
	if err := wrapWithField(nil, 1); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestFieldError_EmptyPath(t *testing.T) {
	err := &FieldError{Err: ErrInvalidWireType}
	if err.Error() != ErrInvalidWireType.Error() {
		t.Errorf("expected bare message, got %q", err.Error())
	}
}

func TestScanError(t *testing.T) {
	err := error(&ScanError{Offset: 12, Err: wrapWithField(ErrInvalidWireType, 4)})

	if !errors.Is(err, ErrInvalidWireType) {
		t.Errorf("expected ScanError to unwrap to ErrInvalidWireType")
	}

	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) || fieldErr.FieldPath[0] != "4" {
		t.Errorf("expected field 4 in %v", err)
	}

	if !strings.Contains(err.Error(), "offset 12") {
		t.Errorf("error message should contain offset, got: %s", err.Error())
	}
}
