package tensor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mdsvm/pkg/errors"
)

// AsDense returns a gonum matrix sharing t's storage. Writes through the
// matrix are visible through t and its aliases. The matrix must not be used
// after the owner of t is released.
func (t *Tensor) AsDense() (*mat.Dense, error) {
	const op = "Tensor.AsDense"
	if err := t.live(op); err != nil {
		return nil, err
	}
	if len(t.shape) != 2 {
		return nil, errors.NewDimensionError(op, 2, len(t.shape), -1)
	}
	if t.length == 0 {
		return nil, errors.NewModelError(op, "zero-sized matrix", errors.ErrEmptyData)
	}
	return mat.NewDense(t.shape[0], t.shape[1], t.data()), nil
}

// FromMatrix copies a gonum matrix into a new owning 2-D tensor.
func FromMatrix(m mat.Matrix) (*Tensor, error) {
	r, c := m.Dims()
	t, err := New(r, c)
	if err != nil {
		return nil, err
	}
	d := t.data()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d[i*c+j] = m.At(i, j)
		}
	}
	return t, nil
}
