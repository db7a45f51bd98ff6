// Package preprocessing provides in-place intensity scalers for image
// tensors.
//
// Scalers compute global statistics over every element of the tensor passed
// to Fit and apply the same affine map to any tensor passed to Transform.
// Statistics are not per-pixel: border pixels of digit images are constant
// and would otherwise collapse to a zero range.
//
// Example usage:
//
//	scaler := preprocessing.NewMinMaxScaler(0, 1)
//	if err := scaler.Fit(trainImages); err != nil {
//		log.Fatal(err)
//	}
//	err := scaler.Transform(testImages)
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/mdsvm/core/model"
	"github.com/ezoic/mdsvm/core/tensor"
	"github.com/ezoic/mdsvm/pkg/errors"
)

// Scaler is an affine intensity transform fitted on one tensor and applied
// to others.
type Scaler interface {
	Fit(t *tensor.Tensor) error
	Transform(t *tensor.Tensor) error
	InverseTransform(t *tensor.Tensor) error
	IsFitted() bool
}

// rawValues returns the storage of t as a flat slice together with the view
// that keeps it addressable. The view must be released by the caller.
func rawValues(op string, t *tensor.Tensor) (*tensor.Tensor, []float64, error) {
	if t == nil {
		return nil, nil, errors.NewValueError(op, "tensor cannot be nil")
	}
	if t.Len() == 0 {
		return nil, nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	view, err := t.Reshape(1, t.Len())
	if err != nil {
		return nil, nil, err
	}
	dense, err := view.AsDense()
	if err != nil {
		view.Release()
		return nil, nil, err
	}
	return view, dense.RawRowView(0), nil
}

// affine applies x*scale + shift to every element of t.
func affine(op string, t *tensor.Tensor, scale, shift float64) error {
	view, values, err := rawValues(op, t)
	if err != nil {
		return err
	}
	defer view.Release()
	floats.Scale(scale, values)
	floats.AddConst(shift, values)
	return nil
}

// MinMaxScaler maps the fitted [Min, Max] interval onto FeatureRange.
type MinMaxScaler struct {
	state        *model.StateManager
	Min          float64
	Max          float64
	FeatureRange [2]float64
}

// NewMinMaxScaler creates a MinMaxScaler targeting [lo, hi].
func NewMinMaxScaler(lo, hi float64) *MinMaxScaler {
	return &MinMaxScaler{
		state:        model.NewStateManager(),
		FeatureRange: [2]float64{lo, hi},
	}
}

// Fit records the minimum and maximum element of t.
func (s *MinMaxScaler) Fit(t *tensor.Tensor) (err error) {
	defer errors.Recover(&err, "MinMaxScaler.Fit")
	if s.FeatureRange[0] >= s.FeatureRange[1] {
		return errors.NewValueError("MinMaxScaler.Fit", "feature range minimum must be below its maximum")
	}
	view, values, err := rawValues("MinMaxScaler.Fit", t)
	if err != nil {
		return err
	}
	defer view.Release()

	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.state.SetFitted()
	s.state.SetDimensions(1, len(values))
	return nil
}

func (s *MinMaxScaler) coefficients() (scale, shift float64) {
	span := s.Max - s.Min
	// Constant input maps to the lower bound.
	if span == 0 {
		span = 1
	}
	scale = (s.FeatureRange[1] - s.FeatureRange[0]) / span
	shift = s.FeatureRange[0] - s.Min*scale
	return scale, shift
}

// Transform rescales t in place.
func (s *MinMaxScaler) Transform(t *tensor.Tensor) (err error) {
	defer errors.Recover(&err, "MinMaxScaler.Transform")
	if !s.IsFitted() {
		return errors.NewNotFittedError("MinMaxScaler", "Transform")
	}
	scale, shift := s.coefficients()
	return affine("MinMaxScaler.Transform", t, scale, shift)
}

// InverseTransform undoes Transform in place.
func (s *MinMaxScaler) InverseTransform(t *tensor.Tensor) (err error) {
	defer errors.Recover(&err, "MinMaxScaler.InverseTransform")
	if !s.IsFitted() {
		return errors.NewNotFittedError("MinMaxScaler", "InverseTransform")
	}
	scale, shift := s.coefficients()
	return affine("MinMaxScaler.InverseTransform", t, 1/scale, -shift/scale)
}

// FitTransform fits on t and rescales it in place.
func (s *MinMaxScaler) FitTransform(t *tensor.Tensor) error {
	if err := s.Fit(t); err != nil {
		return err
	}
	return s.Transform(t)
}

// IsFitted reports whether Fit has succeeded.
func (s *MinMaxScaler) IsFitted() bool { return s.state.IsFitted() }

// StandardScaler centres elements on the fitted mean and divides by the
// fitted population standard deviation.
type StandardScaler struct {
	state *model.StateManager
	Mean  float64
	Std   float64
}

// NewStandardScaler creates an unfitted StandardScaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{state: model.NewStateManager()}
}

// Fit records the mean and standard deviation of all elements of t.
func (s *StandardScaler) Fit(t *tensor.Tensor) (err error) {
	defer errors.Recover(&err, "StandardScaler.Fit")
	view, values, err := rawValues("StandardScaler.Fit", t)
	if err != nil {
		return err
	}
	defer view.Release()

	s.Mean, s.Std = stat.PopMeanStdDev(values, nil)
	if math.Abs(s.Std) < 1e-8 {
		s.Std = 1.0
	}
	s.state.SetFitted()
	s.state.SetDimensions(1, len(values))
	return nil
}

// Transform standardises t in place.
func (s *StandardScaler) Transform(t *tensor.Tensor) (err error) {
	defer errors.Recover(&err, "StandardScaler.Transform")
	if !s.IsFitted() {
		return errors.NewNotFittedError("StandardScaler", "Transform")
	}
	return affine("StandardScaler.Transform", t, 1/s.Std, -s.Mean/s.Std)
}

// InverseTransform undoes Transform in place.
func (s *StandardScaler) InverseTransform(t *tensor.Tensor) (err error) {
	defer errors.Recover(&err, "StandardScaler.InverseTransform")
	if !s.IsFitted() {
		return errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}
	return affine("StandardScaler.InverseTransform", t, s.Std, s.Mean)
}

// FitTransform fits on t and standardises it in place.
func (s *StandardScaler) FitTransform(t *tensor.Tensor) error {
	if err := s.Fit(t); err != nil {
		return err
	}
	return s.Transform(t)
}

// IsFitted reports whether Fit has succeeded.
func (s *StandardScaler) IsFitted() bool { return s.state.IsFitted() }

// NewScaler returns the scaler registered under name: "minmax" scales to
// [0, 1], "standard" standardises, and "none" or "" returns nil.
func NewScaler(name string) (Scaler, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "minmax":
		return NewMinMaxScaler(0, 1), nil
	case "standard":
		return NewStandardScaler(), nil
	default:
		return nil, errors.NewValueError("NewScaler", "unknown scaler "+name)
	}
}

// Describe returns the fitted parameters of s in a form suitable for model
// metadata. A nil scaler is described as nil.
func Describe(s Scaler) map[string]interface{} {
	switch v := s.(type) {
	case *MinMaxScaler:
		return map[string]interface{}{
			"kind":  "minmax",
			"min":   v.Min,
			"max":   v.Max,
			"range": []float64{v.FeatureRange[0], v.FeatureRange[1]},
		}
	case *StandardScaler:
		return map[string]interface{}{
			"kind": "standard",
			"mean": v.Mean,
			"std":  v.Std,
		}
	default:
		return nil
	}
}

// FromDescription rebuilds a fitted scaler from the output of Describe, after
// it has possibly been through a JSON round trip. A nil description yields a
// nil scaler.
func FromDescription(d map[string]interface{}) (Scaler, error) {
	const op = "FromDescription"
	if d == nil {
		return nil, nil
	}
	num := func(key string) (float64, error) {
		v, ok := d[key].(float64)
		if !ok {
			return 0, errors.NewValueError(op, "missing scaler parameter "+key)
		}
		return v, nil
	}

	switch d["kind"] {
	case "minmax":
		lo, hi, err := rangeOf(d["range"])
		if err != nil {
			return nil, err
		}
		s := NewMinMaxScaler(lo, hi)
		if s.Min, err = num("min"); err != nil {
			return nil, err
		}
		if s.Max, err = num("max"); err != nil {
			return nil, err
		}
		s.state.SetFitted()
		return s, nil
	case "standard":
		s := NewStandardScaler()
		var err error
		if s.Mean, err = num("mean"); err != nil {
			return nil, err
		}
		if s.Std, err = num("std"); err != nil {
			return nil, err
		}
		if s.Std == 0 {
			return nil, errors.NewValueError(op, "standard deviation must be non-zero")
		}
		s.state.SetFitted()
		return s, nil
	default:
		return nil, errors.NewValueError(op, "unknown scaler description")
	}
}

func rangeOf(v interface{}) (lo, hi float64, err error) {
	switch r := v.(type) {
	case []float64:
		if len(r) == 2 {
			return r[0], r[1], nil
		}
	case []interface{}:
		if len(r) == 2 {
			a, ok1 := r[0].(float64)
			b, ok2 := r[1].(float64)
			if ok1 && ok2 {
				return a, b, nil
			}
		}
	}
	return 0, 0, errors.NewValueError("FromDescription", "scaler range must hold two numbers")
}
