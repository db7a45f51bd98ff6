package main

import (
	"github.com/ezoic/mdsvm/core/model"
	"github.com/ezoic/mdsvm/core/tensor"
	"github.com/ezoic/mdsvm/linear"
	"github.com/ezoic/mdsvm/pkg/errors"
	"github.com/ezoic/mdsvm/pkg/log"
	"github.com/ezoic/mdsvm/preprocessing"
)

// Metadata keys written next to the weights.
const (
	metaRunID    = "run_id"
	metaScaler   = "scaler"
	metaAccuracy = "train_accuracy"
	metaSamples  = "train_samples"
)

// loadModel restores a classifier and the scaler it was trained with.
func loadModel(path string) (*linear.LinearSVM, preprocessing.Scaler, error) {
	w, err := model.LoadWeights(path)
	if err != nil {
		return nil, nil, err
	}
	svm, err := linear.NewLinearSVMFromWeights(w)
	if err != nil {
		return nil, nil, err
	}
	var desc map[string]interface{}
	if raw, ok := w.Metadata[metaScaler]; ok && raw != nil {
		if desc, ok = raw.(map[string]interface{}); !ok {
			return nil, nil, errors.NewValueError("loadModel", "malformed scaler metadata")
		}
	}
	scaler, err := preprocessing.FromDescription(desc)
	if err != nil {
		return nil, nil, err
	}
	log.GetLoggerWithName("cmd").Info("Model loaded",
		log.ModelNameKey, w.ModelType,
		log.ClassesKey, w.Classes,
		log.FeaturesKey, w.Features,
		"path", path,
	)
	return svm, scaler, nil
}

// scaledPredictor applies the training scaler to every batch before
// predicting.
type scaledPredictor struct {
	*linear.LinearSVM
	scaler preprocessing.Scaler
}

func (p *scaledPredictor) Predict(images *tensor.Tensor) ([]int, error) {
	if p.scaler != nil {
		if err := p.scaler.Transform(images); err != nil {
			return nil, err
		}
	}
	return p.LinearSVM.Predict(images)
}
