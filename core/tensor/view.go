package tensor

import "github.com/ezoic/mdsvm/pkg/errors"

// borrow returns a view over t's buffer starting offset elements into t.
func (t *Tensor) borrow(offset int, shape []int) *Tensor {
	return &Tensor{
		buf:     t.buf,
		offset:  t.offset + offset,
		shape:   shape,
		strides: makeStrides(shape),
		length:  product(shape),
		owner:   Borrowed,
	}
}

// SliceLeading fixes the first axisCount axes at start and returns a
// borrowing view over the remaining trailing axes. Fixing every axis yields a
// zero-dimensional view of a single element.
func (t *Tensor) SliceLeading(axisCount int, start ...int) (*Tensor, error) {
	const op = "Tensor.SliceLeading"
	if err := t.live(op); err != nil {
		return nil, err
	}
	if axisCount < 0 || axisCount > len(t.shape) {
		return nil, errors.NewDimensionError(op, len(t.shape), axisCount, -1)
	}
	if len(start) != axisCount {
		return nil, errors.NewDimensionError(op, axisCount, len(start), -1)
	}
	offset := 0
	for i, idx := range start {
		if idx < 0 || idx >= t.shape[i] {
			return nil, errors.NewOutOfBoundsError(op, i, idx, t.shape[i])
		}
		offset += idx * t.strides[i]
	}
	return t.borrow(offset, append([]int(nil), t.shape[axisCount:]...)), nil
}

// Reshape returns a borrowing view of the same elements under a new shape.
// Elements are never copied or reordered.
func (t *Tensor) Reshape(shape ...int) (*Tensor, error) {
	const op = "Tensor.Reshape"
	if err := t.live(op); err != nil {
		return nil, err
	}
	length, err := checkShape(op, shape)
	if err != nil {
		return nil, err
	}
	if length != t.length {
		return nil, errors.NewShapeMismatchError(op, t.shape, shape)
	}
	return t.borrow(0, append([]int(nil), shape...)), nil
}

// DropLeadingAxis returns the borrowing view at index along axis 0. It can be
// chained to descend through nested axes.
func (t *Tensor) DropLeadingAxis(index int) (*Tensor, error) {
	const op = "Tensor.DropLeadingAxis"
	if err := t.live(op); err != nil {
		return nil, err
	}
	if len(t.shape) < 2 {
		return nil, errors.NewDimensionError(op, 2, len(t.shape), -1)
	}
	if index < 0 || index >= t.shape[0] {
		return nil, errors.NewOutOfBoundsError(op, 0, index, t.shape[0])
	}
	return t.borrow(index*t.strides[0], append([]int(nil), t.shape[1:]...)), nil
}

// Transpose2D returns a new owning tensor with the two axes swapped.
func (t *Tensor) Transpose2D() (*Tensor, error) {
	const op = "Tensor.Transpose2D"
	if err := t.live(op); err != nil {
		return nil, err
	}
	if len(t.shape) != 2 {
		return nil, errors.NewDimensionError(op, 2, len(t.shape), -1)
	}
	rows, cols := t.shape[0], t.shape[1]
	out, err := New(cols, rows)
	if err != nil {
		return nil, err
	}
	src, dst := t.data(), out.data()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dst[j*rows+i] = src[i*cols+j]
		}
	}
	return out, nil
}

// Narrow returns a borrowing view of the first n entries along axis 0.
func (t *Tensor) Narrow(n int) (*Tensor, error) {
	const op = "Tensor.Narrow"
	if err := t.live(op); err != nil {
		return nil, err
	}
	if len(t.shape) == 0 {
		return nil, errors.NewDimensionError(op, 1, 0, -1)
	}
	if n < 0 || n > t.shape[0] {
		return nil, errors.NewOutOfBoundsError(op, 0, n, t.shape[0]+1)
	}
	shape := append([]int{n}, t.shape[1:]...)
	return t.borrow(0, shape), nil
}
