package linear_test

import (
	"fmt"

	"github.com/ezoic/mdsvm/core/tensor"
	"github.com/ezoic/mdsvm/linear"
)

// ExampleLinearSVM demonstrates training on two classes of 2x2 images
func ExampleLinearSVM() {
	// Class 0 lights the left column, class 1 the right column
	images, err := tensor.FromSlice([]float64{
		1, 0, 1, 0,
		0, 1, 0, 1,
		1, 0, 1, 0,
		0, 1, 0, 1,
	}, 4, 2, 2)
	if err != nil {
		return
	}
	defer images.Release()
	labels := []int{0, 1, 0, 1}

	svm, err := linear.NewLinearSVM(images, labels,
		linear.WithNumClasses(2),
		linear.WithWeightScale(0),
		linear.WithLearningRate(0.1),
		linear.WithEpochs(3),
	)
	if err != nil {
		// Skip this example if error occurs
		return
	}
	if err := svm.Fit(); err != nil {
		return
	}

	fmt.Printf("Loss: %.1f\n", svm.LossHistory())

	preds, err := svm.Predict(images)
	if err != nil {
		return
	}
	fmt.Println("Predictions:", preds)

	// Output:
	// Loss: [1.0 0.8 0.6]
	// Predictions: [0 1 0 1]
}

// ExampleHingeLoss demonstrates the loss and its gradient for one sample
func ExampleHingeLoss() {
	// Scores of three classes for a single sample
	scores, err := tensor.FromSlice([]float64{2, 5, 3}, 3, 1)
	if err != nil {
		return
	}
	defer scores.Release()

	for _, label := range []int{1, 0} {
		loss, err := linear.HingeLoss(scores, []int{label}, 1)
		if err != nil {
			return
		}
		fmt.Printf("label %d: loss %.1f\n", label, loss)
	}

	grad, err := linear.ScoreGradient(scores, []int{0}, 1)
	if err != nil {
		return
	}
	defer grad.Release()
	fmt.Println("gradient:", grad.Values())

	// Output:
	// label 1: loss 0.0
	// label 0: loss 6.0
	// gradient: [-2 1 1]
}
