package errors_test

import (
	"errors"
	"fmt"
	"testing"

	mdErrors "github.com/ezoic/mdsvm/pkg/errors"
)

// TestErrorWrappingCompatibility tests Go 1.13+ error wrapping with our custom types
func TestErrorWrappingCompatibility(t *testing.T) {
	originalErr := mdErrors.NewNotFittedError("LinearSVM", "Predict")

	wrappedErr := fmt.Errorf("serving request failed: %w", originalErr)

	if !errors.Is(wrappedErr, originalErr) {
		t.Errorf("errors.Is failed to identify wrapped error")
	}

	var notFittedErr *mdErrors.NotFittedError
	if !errors.As(wrappedErr, &notFittedErr) {
		t.Fatalf("errors.As failed to extract NotFittedError")
	}

	if notFittedErr.ModelName != "LinearSVM" {
		t.Errorf("expected ModelName 'LinearSVM', got '%s'", notFittedErr.ModelName)
	}
}

func TestErrorKindsAreDistinct(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{
			name: "allocation",
			err:  mdErrors.NewAllocationError("New", 1<<62, nil),
			check: func(err error) bool {
				var target *mdErrors.AllocationError
				return errors.As(err, &target) && target.Elements == 1<<62
			},
		},
		{
			name: "invalid shape",
			err:  mdErrors.NewInvalidShapeError("New", nil, "no dimensions"),
			check: func(err error) bool {
				var target *mdErrors.InvalidShapeError
				return errors.As(err, &target) && target.Reason == "no dimensions"
			},
		},
		{
			name: "out of bounds",
			err:  mdErrors.NewOutOfBoundsError("Tensor.Set", 0, 5, 2),
			check: func(err error) bool {
				var target *mdErrors.OutOfBoundsError
				return errors.As(err, &target) && target.Index == 5
			},
		},
		{
			name: "dimension",
			err:  mdErrors.NewDimensionError("Transpose2D", 2, 1, -1),
			check: func(err error) bool {
				var target *mdErrors.DimensionError
				return errors.As(err, &target) && target.Got == 1
			},
		},
		{
			name: "shape mismatch",
			err:  mdErrors.NewShapeMismatchError("MatMul", []int{2, 3}, []int{2, 3}),
			check: func(err error) bool {
				var target *mdErrors.ShapeMismatchError
				return errors.As(err, &target) && len(target.Left) == 2
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(fmt.Errorf("context: %w", tt.err)) {
				t.Errorf("typed extraction failed for %v", tt.err)
			}
		})
	}
}

// TestCombinedErrorTypes tests mixing custom and standard errors
func TestCombinedErrorTypes(t *testing.T) {
	stdErr := fmt.Errorf("standard error")

	customErr := mdErrors.NewModelError("TestOp", "test failure", stdErr)

	wrappedErr := fmt.Errorf("operation context: %w", customErr)

	if !errors.Is(wrappedErr, stdErr) {
		t.Errorf("failed to find standard error in chain")
	}

	var modelErr *mdErrors.ModelError
	if !errors.As(wrappedErr, &modelErr) {
		t.Fatalf("failed to extract ModelError")
	}

	if modelErr.Unwrap() != stdErr {
		t.Errorf("ModelError.Unwrap() didn't return expected error")
	}
}

// TestSentinelErrors tests sentinel error patterns
func TestSentinelErrors(t *testing.T) {
	err := mdErrors.NewModelError("TestOp", "empty data", mdErrors.ErrEmptyData)

	if !mdErrors.Is(err, mdErrors.ErrEmptyData) {
		t.Errorf("failed to identify ErrEmptyData sentinel")
	}

	wrappedErr := mdErrors.Wrap(err, "preprocessing failed")

	if !errors.Is(wrappedErr, mdErrors.ErrEmptyData) {
		t.Errorf("failed to identify ErrEmptyData through wrapper")
	}
	if mdErrors.Is(wrappedErr, mdErrors.ErrReleased) {
		t.Errorf("unexpected ErrReleased match")
	}
}

func TestRecover(t *testing.T) {
	run := func() (err error) {
		defer mdErrors.Recover(&err, "run")
		var s []int
		_ = s[3]
		return nil
	}

	err := run()
	if err == nil {
		t.Fatal("expected panic to be converted into an error")
	}
	if mdErrors.Unwrap(err) == nil {
		t.Errorf("expected recovered runtime error to be wrapped, got %v", err)
	}
}
