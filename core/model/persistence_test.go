package model_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ezoic/mdsvm/core/model"
	"github.com/ezoic/mdsvm/core/tensor"
	"github.com/ezoic/mdsvm/linear"
	"github.com/ezoic/mdsvm/pkg/errors"
)

func trainedSVM(t *testing.T) (*linear.LinearSVM, *tensor.Tensor) {
	t.Helper()
	images, err := tensor.FromSlice([]float64{
		1, 0, 1, 0,
		0, 1, 0, 1,
		1, 0, 1, 0,
		0, 1, 0, 1,
	}, 4, 2, 2)
	if err != nil {
		t.Fatalf("Failed to create images: %v", err)
	}
	svm, err := linear.NewLinearSVM(images, []int{0, 1, 0, 1},
		linear.WithNumClasses(2), linear.WithLearningRate(0.1), linear.WithEpochs(10))
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}
	if err := svm.Fit(); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}
	return svm, images
}

func TestSaveLoadWeights(t *testing.T) {
	svm, images := trainedSVM(t)
	defer images.Release()

	weights, err := svm.ExportWeights()
	if err != nil {
		t.Fatalf("Failed to export weights: %v", err)
	}

	// Save weights to temporary file
	tmpFile := filepath.Join(t.TempDir(), "model.json")
	if err := model.SaveWeights(weights, tmpFile); err != nil {
		t.Fatalf("Failed to save weights: %v", err)
	}

	loaded, err := model.LoadWeights(tmpFile)
	if err != nil {
		t.Fatalf("Failed to load weights: %v", err)
	}
	if loaded.Version != model.FormatVersion {
		t.Errorf("Version = %q, want %q", loaded.Version, model.FormatVersion)
	}

	restored, err := linear.NewLinearSVMFromWeights(loaded)
	if err != nil {
		t.Fatalf("Failed to restore model: %v", err)
	}

	originalPred, err := svm.Predict(images)
	if err != nil {
		t.Fatalf("Failed to predict with original model: %v", err)
	}
	loadedPred, err := restored.Predict(images)
	if err != nil {
		t.Fatalf("Failed to predict with loaded model: %v", err)
	}
	for i := range originalPred {
		if originalPred[i] != loadedPred[i] {
			t.Errorf("Predictions do not match: original=%v, loaded=%v", originalPred, loadedPred)
			break
		}
	}

	h1, _ := weights.Hash()
	h2, _ := loaded.Hash()
	if h1 != h2 {
		t.Errorf("Hash changed across save/load: %s != %s", h1, h2)
	}
}

func TestSaveLoadWeightsToWriter(t *testing.T) {
	svm, images := trainedSVM(t)
	defer images.Release()

	weights, err := svm.ExportWeights()
	if err != nil {
		t.Fatalf("Failed to export weights: %v", err)
	}

	var buf bytes.Buffer
	if err := model.SaveWeightsToWriter(weights, &buf); err != nil {
		t.Fatalf("Failed to save weights to writer: %v", err)
	}
	if !strings.Contains(buf.String(), `"model_type": "LinearSVM"`) {
		t.Errorf("Expected indented model_type field, got:\n%s", buf.String())
	}

	loaded, err := model.LoadWeightsFromReader(&buf)
	if err != nil {
		t.Fatalf("Failed to load weights from reader: %v", err)
	}
	if len(loaded.Coefficients) != 8 || len(loaded.Intercepts) != 2 {
		t.Errorf("Unexpected parameter sizes: %d coefficients, %d intercepts",
			len(loaded.Coefficients), len(loaded.Intercepts))
	}
}

func TestLoadWeightsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"coefficient count", `{"model_type":"LinearSVM","n_classes":2,"n_features":2,"coefficients":[1,2,3],"intercepts":[0,0]}`},
		{"intercept count", `{"model_type":"LinearSVM","n_classes":2,"n_features":1,"coefficients":[1,2],"intercepts":[0]}`},
		{"no classes", `{"model_type":"LinearSVM","n_classes":0,"n_features":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := model.LoadWeightsFromReader(strings.NewReader(tt.data)); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestValidateNilWeights(t *testing.T) {
	var w *model.ModelWeights
	var valErr *errors.ValueError
	if err := w.Validate(); !errors.As(err, &valErr) {
		t.Errorf("Expected ValueError, got %v", err)
	}
}

func TestLoadWeightsFileNotFound(t *testing.T) {
	_, err := model.LoadWeights("nonexistent_file.json")
	if err == nil {
		t.Error("Expected error for nonexistent file, got nil")
	}
	if err != nil && !bytes.Contains([]byte(err.Error()), []byte("failed to open file")) {
		t.Errorf("Expected error to contain 'failed to open file', got: %v", err)
	}
}

func TestSaveWeightsInvalidPath(t *testing.T) {
	w := &model.ModelWeights{
		ModelType:    "LinearSVM",
		Classes:      2,
		Features:     1,
		Coefficients: []float64{1, 2},
		Intercepts:   []float64{0, 0},
	}
	err := model.SaveWeights(w, "/invalid/path/model.json")
	if err == nil {
		t.Error("Expected error for invalid path, got nil")
	}
	if err != nil && !bytes.Contains([]byte(err.Error()), []byte("failed to create file")) {
		t.Errorf("Expected error to contain 'failed to create file', got: %v", err)
	}
}
