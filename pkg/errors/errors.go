// Package errors defines the error kinds reported by mdsvm and a thin layer
// over github.com/cockroachdb/errors for wrapping and stack capture.
//
// Every structural failure in the tensor runtime and the classifier is
// reported as one of the typed errors below, never as a sentinel value:
//
//   - AllocationError: a buffer could not be sized or allocated
//   - InvalidShapeError: a malformed shape was passed to a constructor
//   - OutOfBoundsError: a coordinate exceeded the extent of its axis
//   - DimensionError: an operation received a tensor of the wrong rank
//   - ShapeMismatchError: operand shapes are incompatible for an operation
//
// Model level failures use ValueError, NotFittedError and ModelError.
// Constructors attach a stack trace, so "%+v" formatting prints where the
// error was created. Use errors.As to recover the concrete type:
//
//	var oob *errors.OutOfBoundsError
//	if errors.As(err, &oob) {
//		fmt.Println(oob.Axis, oob.Index, oob.Extent)
//	}
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors.
var (
	// ErrEmptyData is reported when an operation receives no samples.
	ErrEmptyData = errors.New("empty data")
	// ErrReleased is reported when a tensor is used after its storage was released.
	ErrReleased = errors.New("tensor storage released")
	// ErrNotImplemented marks functionality that is intentionally absent.
	ErrNotImplemented = errors.New("not implemented")
)

const prefix = "mdsvm"

// AllocationError reports that a buffer of the requested size could not be
// allocated, either because the byte count overflows or the runtime refused.
type AllocationError struct {
	Op       string
	Elements int
	Cause    error
}

func (e *AllocationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: cannot allocate %d elements: %v", prefix, e.Op, e.Elements, e.Cause)
	}
	return fmt.Sprintf("%s: %s: cannot allocate %d elements", prefix, e.Op, e.Elements)
}

func (e *AllocationError) Unwrap() error { return e.Cause }

// NewAllocationError creates an AllocationError.
func NewAllocationError(op string, elements int, cause error) error {
	return errors.WithStack(&AllocationError{Op: op, Elements: elements, Cause: cause})
}

// InvalidShapeError reports a malformed shape.
type InvalidShapeError struct {
	Op     string
	Shape  []int
	Reason string
}

func (e *InvalidShapeError) Error() string {
	return fmt.Sprintf("%s: %s: invalid shape %v: %s", prefix, e.Op, e.Shape, e.Reason)
}

// NewInvalidShapeError creates an InvalidShapeError. The shape is copied.
func NewInvalidShapeError(op string, shape []int, reason string) error {
	return errors.WithStack(&InvalidShapeError{
		Op:     op,
		Shape:  append([]int(nil), shape...),
		Reason: reason,
	})
}

// OutOfBoundsError reports a coordinate outside [0, Extent) on Axis.
type OutOfBoundsError struct {
	Op     string
	Axis   int
	Index  int
	Extent int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%s: %s: index %d out of bounds for axis %d with extent %d",
		prefix, e.Op, e.Index, e.Axis, e.Extent)
}

// NewOutOfBoundsError creates an OutOfBoundsError.
func NewOutOfBoundsError(op string, axis, index, extent int) error {
	return errors.WithStack(&OutOfBoundsError{Op: op, Axis: axis, Index: index, Extent: extent})
}

// DimensionError reports a rank or length mismatch. Axis is -1 when the
// mismatch concerns the number of dimensions rather than one axis.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

func (e *DimensionError) Error() string {
	if e.Axis < 0 {
		return fmt.Sprintf("%s: %s: dimension mismatch: expected %d, got %d", prefix, e.Op, e.Expected, e.Got)
	}
	return fmt.Sprintf("%s: %s: dimension mismatch on axis %d: expected %d, got %d",
		prefix, e.Op, e.Axis, e.Expected, e.Got)
}

// NewDimensionError creates a DimensionError.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ShapeMismatchError reports operand shapes that an operation cannot combine.
type ShapeMismatchError struct {
	Op    string
	Left  []int
	Right []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: %s: shape mismatch: %v vs %v", prefix, e.Op, e.Left, e.Right)
}

// NewShapeMismatchError creates a ShapeMismatchError. Both shapes are copied.
func NewShapeMismatchError(op string, left, right []int) error {
	return errors.WithStack(&ShapeMismatchError{
		Op:    op,
		Left:  append([]int(nil), left...),
		Right: append([]int(nil), right...),
	})
}

// ValueError reports an argument with an invalid value.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s: %s", prefix, e.Op, e.Message)
}

// NewValueError creates a ValueError.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// NotFittedError reports use of a model before it has parameters.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: %s is not fitted; call Fit before %s", prefix, e.ModelName, e.Method)
}

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// ModelError wraps a cause with the operation and a short description.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s: %s: %s: %v", prefix, e.Op, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NewModelError creates a ModelError.
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// Recover converts a panic raised below an exported operation into an error
// stored in *err. It must be called directly by defer.
func Recover(err *error, op string) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = errors.Wrapf(e, "%s: panic", op)
			return
		}
		*err = errors.Newf("%s: panic: %v", op, r)
	}
}

// New creates an error with a stack trace.
func New(msg string) error { return errors.New(msg) }

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error { return errors.Newf(format, args...) }

// Wrap annotates err with msg. It returns nil if err is nil.
func Wrap(err error, msg string) error { return errors.Wrap(err, msg) }

// Wrapf annotates err with a formatted message. It returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Unwrap returns the next error in err's chain, or nil.
func Unwrap(err error) error { return errors.UnwrapOnce(err) }
