package linear

import (
	"fmt"
	"math"

	"github.com/ezoic/mdsvm/core/tensor"
	"github.com/ezoic/mdsvm/pkg/errors"
)

// LabelsFromTensor converts a [N] tensor of floating point class ids into
// integer labels. Every value must be an integer in [0, numClasses).
func LabelsFromTensor(t *tensor.Tensor, numClasses int) ([]int, error) {
	const op = "LabelsFromTensor"
	if t == nil {
		return nil, errors.NewValueError(op, "labels cannot be nil")
	}
	if t.NDim() != 1 {
		return nil, errors.NewDimensionError(op, 1, t.NDim(), -1)
	}
	if t.Released() {
		return nil, errors.NewModelError(op, "use after release", errors.ErrReleased)
	}
	values := t.Values()
	labels := make([]int, len(values))
	for i, v := range values {
		if math.IsNaN(v) || v != math.Trunc(v) {
			return nil, errors.NewValueError(op, fmt.Sprintf("label %d is not an integer: %v", i, v))
		}
		if v < 0 || v >= float64(numClasses) {
			return nil, errors.NewValueError(op, fmt.Sprintf("label %d is %v, want [0, %d)", i, v, numClasses))
		}
		labels[i] = int(v)
	}
	return labels, nil
}

func validateLabels(op string, labels []int, numClasses int) error {
	for i, y := range labels {
		if y < 0 || y >= numClasses {
			return errors.NewValueError(op, fmt.Sprintf("label %d is %d, want [0, %d)", i, y, numClasses))
		}
	}
	return nil
}
