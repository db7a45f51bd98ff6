package linear

import (
	"github.com/ezoic/mdsvm/core/tensor"
	"github.com/ezoic/mdsvm/pkg/errors"
)

// Delta is the margin by which the correct class score must exceed every
// other class score before a sample stops contributing to the hinge loss.
const Delta = 1.0

// checkScores validates a [classes, n] score matrix against its labels and
// returns the number of classes.
func checkScores(op string, scores *tensor.Tensor, labels []int, n int) (int, error) {
	if scores == nil {
		return 0, errors.NewValueError(op, "scores cannot be nil")
	}
	if scores.Released() {
		return 0, errors.NewModelError(op, "use after release", errors.ErrReleased)
	}
	if scores.NDim() != 2 {
		return 0, errors.NewDimensionError(op, 2, scores.NDim(), -1)
	}
	if n <= 0 {
		return 0, errors.NewModelError(op, "empty batch", errors.ErrEmptyData)
	}
	shape := scores.Shape()
	if shape[1] != n {
		return 0, errors.NewShapeMismatchError(op, shape, []int{shape[0], n})
	}
	if len(labels) != n {
		return 0, errors.NewShapeMismatchError(op, []int{len(labels)}, []int{n})
	}
	if err := validateLabels(op, labels, shape[0]); err != nil {
		return 0, err
	}
	return shape[0], nil
}

// HingeLoss returns the mean multiclass SVM loss of a [classes, n] score
// matrix: for every sample i the sum over j != labels[i] of
// max(0, S[j,i] - S[labels[i],i] + Delta), averaged over the n samples.
func HingeLoss(scores *tensor.Tensor, labels []int, n int) (float64, error) {
	classes, err := checkScores("HingeLoss", scores, labels, n)
	if err != nil {
		return 0, err
	}
	s := scores.Values()

	var total float64
	for i := 0; i < n; i++ {
		y := labels[i]
		correct := s[y*n+i]
		for j := 0; j < classes; j++ {
			if j == y {
				continue
			}
			if margin := s[j*n+i] - correct + Delta; margin > 0 {
				total += margin
			}
		}
	}
	return total / float64(n), nil
}

// ScoreGradient returns the subgradient of HingeLoss with respect to the
// scores, with the same [classes, n] shape. Every violated margin adds 1/n to
// its class entry and the correct class receives -k/n for k violations.
// A margin of exactly zero is not a violation.
func ScoreGradient(scores *tensor.Tensor, labels []int, n int) (*tensor.Tensor, error) {
	classes, err := checkScores("ScoreGradient", scores, labels, n)
	if err != nil {
		return nil, err
	}
	s := scores.Values()
	ds := make([]float64, classes*n)
	inv := 1 / float64(n)

	for i := 0; i < n; i++ {
		y := labels[i]
		correct := s[y*n+i]
		violations := 0
		for j := 0; j < classes; j++ {
			if j == y {
				continue
			}
			if s[j*n+i]-correct+Delta > 0 {
				ds[j*n+i] += inv
				violations++
			}
		}
		ds[y*n+i] = -float64(violations) * inv
	}
	return tensor.FromSlice(ds, classes, n)
}
