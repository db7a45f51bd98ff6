// Package tensor implements a strided, row-major float64 array with explicit
// ownership of its storage.
//
// A Tensor either owns its buffer (created by New, Transpose2D, MatMul, Add,
// ...) or borrows the buffer of another tensor (created by SliceLeading,
// Reshape, DropLeadingAxis). Views alias the owner's storage: a write through
// any alias is visible through all others. Releasing the owner frees the
// storage and invalidates every view derived from it; any later access
// through a view fails with errors.ErrReleased instead of touching freed
// memory. Releasing a view only drops the view.
//
// Every tensor is contiguous in row-major order, so a view is fully described
// by the shared buffer, an element offset, a shape and its strides.
package tensor

import (
	"fmt"
	"math"

	"github.com/ezoic/mdsvm/pkg/errors"
)

// ElementSize is the size in bytes of one element.
const ElementSize = 8

const maxElements = math.MaxInt / ElementSize

// Ownership tells whether a tensor is responsible for its buffer.
type Ownership int

const (
	// Owned tensors release the buffer on Release.
	Owned Ownership = iota
	// Borrowed tensors alias a buffer owned elsewhere.
	Borrowed
)

func (o Ownership) String() string {
	if o == Owned {
		return "owned"
	}
	return "borrowed"
}

// buffer is shared by an owning tensor and all views derived from it.
type buffer struct {
	data     []float64
	released bool
}

// Tensor is a multidimensional array descriptor over a contiguous buffer.
type Tensor struct {
	buf     *buffer
	offset  int
	shape   []int
	strides []int
	length  int
	owner   Ownership
	dropped bool
}

// New allocates a zero-initialised owning tensor.
//
// A zero extent is permitted and yields an empty tensor. An empty shape or a
// negative extent is an InvalidShapeError; a size that cannot be represented
// in bytes is an AllocationError.
func New(shape ...int) (*Tensor, error) {
	length, err := checkShape("New", shape)
	if err != nil {
		return nil, err
	}
	buf, err := allocate("New", length)
	if err != nil {
		return nil, err
	}
	return &Tensor{
		buf:     buf,
		shape:   append([]int(nil), shape...),
		strides: makeStrides(shape),
		length:  length,
		owner:   Owned,
	}, nil
}

// Full allocates an owning tensor with every element set to value.
func Full(value float64, shape ...int) (*Tensor, error) {
	t, err := New(shape...)
	if err != nil {
		return nil, err
	}
	for i := range t.buf.data {
		t.buf.data[i] = value
	}
	return t, nil
}

// FromSlice allocates an owning tensor holding a copy of data.
func FromSlice(data []float64, shape ...int) (*Tensor, error) {
	length, err := checkShape("FromSlice", shape)
	if err != nil {
		return nil, err
	}
	if len(data) != length {
		return nil, errors.NewShapeMismatchError("FromSlice", []int{len(data)}, shape)
	}
	t, err := New(shape...)
	if err != nil {
		return nil, err
	}
	copy(t.buf.data, data)
	return t, nil
}

// checkShape validates a shape and returns its element count.
func checkShape(op string, shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, errors.NewInvalidShapeError(op, shape, "at least one dimension is required")
	}
	for _, dim := range shape {
		if dim < 0 {
			return 0, errors.NewInvalidShapeError(op, shape, "negative dimension")
		}
	}
	length := 1
	for _, dim := range shape {
		if dim == 0 {
			return 0, nil
		}
		if length > maxElements/dim {
			return 0, errors.NewAllocationError(op, math.MaxInt, fmt.Errorf("shape %v overflows", shape))
		}
		length *= dim
	}
	return length, nil
}

func allocate(op string, n int) (buf *buffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = errors.NewAllocationError(op, n, fmt.Errorf("%v", r))
		}
	}()
	return &buffer{data: make([]float64, n)}, nil
}

func makeStrides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

func product(shape []int) int {
	n := 1
	for _, dim := range shape {
		n *= dim
	}
	return n
}

// live reports an error if t can no longer be accessed.
func (t *Tensor) live(op string) error {
	if t == nil {
		return errors.NewValueError(op, "nil tensor")
	}
	if t.dropped || t.buf.released {
		return errors.NewModelError(op, "use after release", errors.ErrReleased)
	}
	return nil
}

// data returns the window of the shared buffer covered by t.
func (t *Tensor) data() []float64 {
	return t.buf.data[t.offset : t.offset+t.length]
}

// Shape returns a copy of the dimensions.
func (t *Tensor) Shape() []int { return append([]int(nil), t.shape...) }

// Strides returns a copy of the per-axis element strides.
func (t *Tensor) Strides() []int { return append([]int(nil), t.strides...) }

// NDim returns the number of dimensions.
func (t *Tensor) NDim() int { return len(t.shape) }

// Len returns the number of elements.
func (t *Tensor) Len() int { return t.length }

// ElementSize returns the size in bytes of one element.
func (t *Tensor) ElementSize() int { return ElementSize }

// Ownership reports whether t owns or borrows its buffer.
func (t *Tensor) Ownership() Ownership { return t.owner }

// Released reports whether t, or the owner of its buffer, has been released.
func (t *Tensor) Released() bool { return t.dropped || t.buf.released }

// Values returns a copy of the elements in row-major order, or nil once the
// tensor has been released.
func (t *Tensor) Values() []float64 {
	if t.live("Values") != nil {
		return nil
	}
	return append([]float64(nil), t.data()...)
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(shape=%v, %s)", t.shape, t.owner)
}

// Offset returns the flat element offset of a coordinate within t,
// sum(indices[i] * strides[i]). Every index is bounds checked.
func (t *Tensor) Offset(indices ...int) (int, error) {
	if err := t.live("Tensor.Offset"); err != nil {
		return 0, err
	}
	return t.offset0("Tensor.Offset", indices)
}

func (t *Tensor) offset0(op string, indices []int) (int, error) {
	if len(indices) != len(t.shape) {
		return 0, errors.NewDimensionError(op, len(t.shape), len(indices), -1)
	}
	flat := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			return 0, errors.NewOutOfBoundsError(op, i, idx, t.shape[i])
		}
		flat += idx * t.strides[i]
	}
	return flat, nil
}

// At reads the element at the given coordinate.
func (t *Tensor) At(indices ...int) (float64, error) {
	if err := t.live("Tensor.At"); err != nil {
		return 0, err
	}
	off, err := t.offset0("Tensor.At", indices)
	if err != nil {
		return 0, err
	}
	return t.buf.data[t.offset+off], nil
}

// Set writes value at the given coordinate. Nothing is written on error.
func (t *Tensor) Set(value float64, indices ...int) error {
	if err := t.live("Tensor.Set"); err != nil {
		return err
	}
	off, err := t.offset0("Tensor.Set", indices)
	if err != nil {
		return err
	}
	t.buf.data[t.offset+off] = value
	return nil
}

// Fill overwrites every element with value.
func (t *Tensor) Fill(value float64) error {
	if err := t.live("Tensor.Fill"); err != nil {
		return err
	}
	d := t.data()
	for i := range d {
		d[i] = value
	}
	return nil
}

// Release frees the storage of an owning tensor, invalidating all views
// derived from it. On a view it drops only the descriptor. Calling Release
// more than once is a no-op.
func (t *Tensor) Release() {
	if t == nil || t.dropped {
		return
	}
	t.dropped = true
	if t.owner == Owned {
		t.buf.data = nil
		t.buf.released = true
	}
}

// Equal reports whether a and b are live tensors of the same shape holding
// the same values.
func Equal(a, b *Tensor) bool {
	if a.live("Equal") != nil || b.live("Equal") != nil {
		return false
	}
	if !sameShape(a.shape, b.shape) {
		return false
	}
	da, db := a.data(), b.data()
	for i := range da {
		if da[i] != db[i] {
			return false
		}
	}
	return true
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
