package preprocessing_test

import (
	"fmt"

	"github.com/ezoic/mdsvm/core/tensor"
	"github.com/ezoic/mdsvm/preprocessing"
)

// ExampleMinMaxScaler demonstrates scaling pixel intensities to [0, 1]
func ExampleMinMaxScaler() {
	// Two 1x2 images
	x, err := tensor.FromSlice([]float64{0, 64, 128, 255}, 2, 1, 2)
	if err != nil {
		return
	}
	defer x.Release()

	scaler := preprocessing.NewMinMaxScaler(0, 1)
	if err := scaler.FitTransform(x); err != nil {
		return
	}

	fmt.Printf("Scaled: %.2f\n", x.Values())

	// Output: Scaled: [0.00 0.25 0.50 1.00]
}
