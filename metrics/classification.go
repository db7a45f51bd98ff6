// Package metrics provides evaluation metrics for multiclass classifiers.
package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mdsvm/pkg/errors"
)

func checkLabels(op string, yTrue, yPred []int) error {
	if len(yTrue) == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if len(yTrue) != len(yPred) {
		return errors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	return nil
}

// ClassificationError calculates the fraction of incorrect predictions.
//
// Example:
//
//	errorRate, err := ClassificationError([]int{0, 1, 2, 1, 0}, []int{0, 1, 1, 1, 0})
//	fmt.Printf("Error Rate: %.1f\n", errorRate) // Error Rate: 0.2
func ClassificationError(yTrue, yPred []int) (float64, error) {
	if err := checkLabels("ClassificationError", yTrue, yPred); err != nil {
		return 0, err
	}

	// Count misclassifications
	wrong := 0
	for i := range yTrue {
		if yTrue[i] != yPred[i] {
			wrong++
		}
	}

	return float64(wrong) / float64(len(yTrue)), nil
}

// Accuracy calculates the fraction of correct predictions.
func Accuracy(yTrue, yPred []int) (float64, error) {
	errorRate, err := ClassificationError(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1.0 - errorRate, nil
}

// ConfusionMatrix returns a numClasses x numClasses matrix whose entry (i, j)
// counts samples of true class i predicted as class j.
func ConfusionMatrix(yTrue, yPred []int, numClasses int) (*mat.Dense, error) {
	const op = "ConfusionMatrix"
	if numClasses <= 0 {
		return nil, errors.NewValueError(op, "number of classes must be positive")
	}
	if err := checkLabels(op, yTrue, yPred); err != nil {
		return nil, err
	}

	cm := mat.NewDense(numClasses, numClasses, nil)
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= numClasses || p < 0 || p >= numClasses {
			return nil, errors.NewValueError(op,
				fmt.Sprintf("sample %d has labels (%d, %d) outside [0, %d)", i, t, p, numClasses))
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}
	return cm, nil
}

// PerClassRecall returns, for every class, the fraction of its samples that
// were predicted correctly. Classes without samples have recall 0.
func PerClassRecall(cm *mat.Dense) []float64 {
	r, _ := cm.Dims()
	recall := make([]float64, r)
	for i := 0; i < r; i++ {
		support := floats.Sum(cm.RawRowView(i))
		if support > 0 {
			recall[i] = cm.At(i, i) / support
		}
	}
	return recall
}
