package tensor

import "github.com/ezoic/mdsvm/pkg/errors"

// MatMul computes the dense product of two 2-D tensors into a new owning
// tensor of shape [x.rows, y.cols]. Each output element is written once,
// after its full inner sum has been accumulated.
func MatMul(x, y *Tensor) (*Tensor, error) {
	const op = "MatMul"
	if err := x.live(op); err != nil {
		return nil, err
	}
	if err := y.live(op); err != nil {
		return nil, err
	}
	if len(x.shape) != 2 {
		return nil, errors.NewDimensionError(op, 2, len(x.shape), -1)
	}
	if len(y.shape) != 2 {
		return nil, errors.NewDimensionError(op, 2, len(y.shape), -1)
	}
	if x.shape[1] != y.shape[0] {
		return nil, errors.NewShapeMismatchError(op, x.shape, y.shape)
	}

	m, n, p := x.shape[0], x.shape[1], y.shape[1]
	out, err := New(m, p)
	if err != nil {
		return nil, err
	}
	xd, yd, od := x.data(), y.data(), out.data()
	for i := 0; i < m; i++ {
		row := xd[i*n : (i+1)*n]
		for k := 0; k < p; k++ {
			var sum float64
			for j, xv := range row {
				sum += xv * yd[j*p+k]
			}
			od[i*p+k] = sum
		}
	}
	return out, nil
}

// Add returns a new owning tensor holding a + b. The shapes must match
// exactly; no broadcasting is performed.
func Add(a, b *Tensor) (*Tensor, error) {
	const op = "Add"
	if err := a.live(op); err != nil {
		return nil, err
	}
	if err := b.live(op); err != nil {
		return nil, err
	}
	if !sameShape(a.shape, b.shape) {
		return nil, errors.NewShapeMismatchError(op, a.shape, b.shape)
	}
	out, err := New(a.shape...)
	if err != nil {
		return nil, err
	}
	ad, bd, od := a.data(), b.data(), out.data()
	for i := range od {
		od[i] = ad[i] + bd[i]
	}
	return out, nil
}

// AddScaled updates t in place with t += alpha * other. The shapes must match
// exactly; t is left untouched on error.
func (t *Tensor) AddScaled(alpha float64, other *Tensor) error {
	const op = "Tensor.AddScaled"
	if err := checkScaled(op, t, other); err != nil {
		return err
	}
	t.addScaled(alpha, other)
	return nil
}

// AddScaledAll applies targets[i] += alpha * deltas[i] for every pair. All
// pairs are validated before the first write, so either every target is
// updated or none is.
func AddScaledAll(alpha float64, targets, deltas []*Tensor) error {
	const op = "AddScaledAll"
	if len(targets) != len(deltas) {
		return errors.NewShapeMismatchError(op, []int{len(targets)}, []int{len(deltas)})
	}
	for i := range targets {
		if err := checkScaled(op, targets[i], deltas[i]); err != nil {
			return err
		}
	}
	for i := range targets {
		targets[i].addScaled(alpha, deltas[i])
	}
	return nil
}

func checkScaled(op string, t, other *Tensor) error {
	if err := t.live(op); err != nil {
		return err
	}
	if err := other.live(op); err != nil {
		return err
	}
	if !sameShape(t.shape, other.shape) {
		return errors.NewShapeMismatchError(op, t.shape, other.shape)
	}
	return nil
}

func (t *Tensor) addScaled(alpha float64, other *Tensor) {
	td, od := t.data(), other.data()
	for i := range td {
		td[i] += alpha * od[i]
	}
}

// AddScalar adds v to every element of t in place.
func (t *Tensor) AddScalar(v float64) error {
	if err := t.live("Tensor.AddScalar"); err != nil {
		return err
	}
	d := t.data()
	for i := range d {
		d[i] += v
	}
	return nil
}

// RowSums returns the [rows, 1] tensor of per-row sums of a 2-D tensor.
func (t *Tensor) RowSums() (*Tensor, error) {
	const op = "Tensor.RowSums"
	if err := t.live(op); err != nil {
		return nil, err
	}
	if len(t.shape) != 2 {
		return nil, errors.NewDimensionError(op, 2, len(t.shape), -1)
	}
	rows, cols := t.shape[0], t.shape[1]
	out, err := New(rows, 1)
	if err != nil {
		return nil, err
	}
	src, dst := t.data(), out.data()
	for i := 0; i < rows; i++ {
		var sum float64
		for _, v := range src[i*cols : (i+1)*cols] {
			sum += v
		}
		dst[i] = sum
	}
	return out, nil
}
