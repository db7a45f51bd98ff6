package linear

import (
	"github.com/ezoic/mdsvm/core/model"
	"github.com/ezoic/mdsvm/core/tensor"
	"github.com/ezoic/mdsvm/pkg/errors"
)

// ExportWeights returns a copy of the learned parameters.
func (m *LinearSVM) ExportWeights() (*model.ModelWeights, error) {
	if !m.state.IsFitted() {
		return nil, errors.NewNotFittedError(ModelType, "ExportWeights")
	}
	coef := m.weights.Values()
	intercepts := m.biases.Values()
	if coef == nil || intercepts == nil {
		return nil, errors.NewModelError("LinearSVM.ExportWeights", "use after release", errors.ErrReleased)
	}
	return &model.ModelWeights{
		ModelType:       ModelType,
		Version:         model.FormatVersion,
		IsFitted:        true,
		Classes:         m.nClasses,
		Features:        m.nFeatures,
		Coefficients:    coef,
		Intercepts:      intercepts,
		Hyperparameters: m.GetParams(),
		Metadata: map[string]interface{}{
			"epochs_run": len(m.lossHistory_),
		},
	}, nil
}

// ImportWeights replaces the model parameters with w and marks the model
// fitted. The class and feature counts of w must match the model's.
func (m *LinearSVM) ImportWeights(w *model.ModelWeights) error {
	const op = "LinearSVM.ImportWeights"
	if err := w.Validate(); err != nil {
		return err
	}
	if w.ModelType != ModelType {
		return errors.NewValueError(op, "model type mismatch: expected "+ModelType+", got "+w.ModelType)
	}
	if w.Classes != m.nClasses || w.Features != m.nFeatures {
		return errors.NewShapeMismatchError(op,
			[]int{m.nClasses, m.nFeatures}, []int{w.Classes, w.Features})
	}

	weights, err := tensor.FromSlice(w.Coefficients, w.Classes, w.Features)
	if err != nil {
		return err
	}
	biases, err := tensor.FromSlice(w.Intercepts, w.Classes, 1)
	if err != nil {
		weights.Release()
		return err
	}
	m.weights.Release()
	m.biases.Release()
	m.weights, m.biases = weights, biases

	m.state.SetFitted()
	if n, _ := m.state.Dimensions(); n == 0 {
		m.state.SetDimensions(w.Features, 0)
	}
	return nil
}

// GetWeightHash returns the hash of the exported parameters, so that two
// models can be compared for identical weights.
func (m *LinearSVM) GetWeightHash() (string, error) {
	w, err := m.ExportWeights()
	if err != nil {
		return "", err
	}
	w.Metadata = nil
	w.Hyperparameters = nil
	return w.Hash()
}
