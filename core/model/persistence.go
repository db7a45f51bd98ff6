package model

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/ezoic/mdsvm/pkg/errors"
)

// FormatVersion is written into every weights file.
const FormatVersion = "1.0"

// ModelWeights is the serialised form of a trained linear model.
// Coefficients are stored row-major with shape [Classes, Features].
type ModelWeights struct {
	ModelType       string                 `json:"model_type"`
	Version         string                 `json:"version"`
	IsFitted        bool                   `json:"is_fitted"`
	Classes         int                    `json:"n_classes"`
	Features        int                    `json:"n_features"`
	Coefficients    []float64              `json:"coefficients"`
	Intercepts      []float64              `json:"intercepts"`
	Hyperparameters map[string]interface{} `json:"hyperparameters,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// Validate checks that the parameter slices agree with the declared shape.
func (w *ModelWeights) Validate() error {
	if w == nil {
		return errors.NewValueError("ModelWeights.Validate", "weights cannot be nil")
	}
	if w.Classes <= 0 || w.Features <= 0 {
		return errors.NewInvalidShapeError("ModelWeights.Validate", []int{w.Classes, w.Features}, "classes and features must be positive")
	}
	if len(w.Coefficients) != w.Classes*w.Features {
		return errors.NewShapeMismatchError("ModelWeights.Validate",
			[]int{len(w.Coefficients)}, []int{w.Classes, w.Features})
	}
	if len(w.Intercepts) != w.Classes {
		return errors.NewShapeMismatchError("ModelWeights.Validate",
			[]int{len(w.Intercepts)}, []int{w.Classes, 1})
	}
	return nil
}

// Hash returns the SHA-256 of the JSON encoding of w, identifying a
// parameter set independently of where it is stored.
func (w *ModelWeights) Hash() (string, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal weights")
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// SaveWeights writes w to filename as indented JSON.
func SaveWeights(w *ModelWeights, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close file")
		}
	}()
	return SaveWeightsToWriter(w, file)
}

// SaveWeightsToWriter writes w to out as indented JSON.
func SaveWeightsToWriter(w *ModelWeights, out io.Writer) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if w.Version == "" {
		w.Version = FormatVersion
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w); err != nil {
		return errors.Wrap(err, "failed to encode weights")
	}
	return nil
}

// LoadWeights reads weights previously written by SaveWeights.
func LoadWeights(filename string) (*ModelWeights, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = file.Close() }()
	return LoadWeightsFromReader(file)
}

// LoadWeightsFromReader decodes and validates weights from r.
func LoadWeightsFromReader(r io.Reader) (*ModelWeights, error) {
	var w ModelWeights
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return nil, errors.Wrap(err, "failed to decode weights")
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}
