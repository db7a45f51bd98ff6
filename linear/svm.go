// Package linear provides a multiclass linear classifier trained with the
// hinge (multiclass SVM) loss by full-batch gradient descent.
//
// The model maps a batch of [N, H, W] images to a [classes, N] score matrix
//
//	scores = W · flatten(images)ᵗ + b
//
// where W is [classes, H*W] and b is [classes, 1] broadcast over the batch.
// Each training step runs forward, evaluates the loss and its gradient, and
// updates W and b in place:
//
//	svm, err := linear.NewLinearSVM(images, labels, linear.WithEpochs(50))
//	if err != nil {
//		return err
//	}
//	if err := svm.Fit(); err != nil {
//		return err
//	}
//	preds, err := svm.Predict(testImages)
//
// Training is single threaded and deterministic for a fixed random state.
package linear

import (
	"math/rand/v2"
	"time"

	"github.com/ezoic/mdsvm/core/model"
	"github.com/ezoic/mdsvm/core/tensor"
	"github.com/ezoic/mdsvm/metrics"
	"github.com/ezoic/mdsvm/pkg/errors"
	"github.com/ezoic/mdsvm/pkg/log"
)

// ModelType identifies LinearSVM weights.
const ModelType = "LinearSVM"

// LinearSVM is a multiclass linear classifier with hinge loss.
type LinearSVM struct {
	state *model.StateManager

	// Hyperparameters
	nClasses     int
	weightScale  float64
	learningRate float64
	epochs       int
	randomState  int64

	// Training data, borrowed from the caller
	images *tensor.Tensor // [N, H, W]
	labels []int          // [N]

	// Learned parameters
	weights *tensor.Tensor // [classes, features]
	biases  *tensor.Tensor // [classes, 1]

	nFeatures    int
	lossHistory_ []float64
	logger       log.Logger
}

func newLinearSVM(options []Option) (*LinearSVM, error) {
	m := &LinearSVM{
		state:        model.NewStateManager(),
		nClasses:     DefaultNumClasses,
		weightScale:  DefaultWeightScale,
		learningRate: DefaultLearningRate,
		epochs:       DefaultEpochs,
		randomState:  DefaultRandomState,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.GetLoggerWithName("linear").With(
			log.ModelNameKey, ModelType,
			log.ComponentKey, "linear",
		)
	}

	const op = "NewLinearSVM"
	switch {
	case m.nClasses < 2:
		return nil, errors.NewValueError(op, "at least two classes are required")
	case m.weightScale < 0:
		return nil, errors.NewValueError(op, "weight scale must be non-negative")
	case m.learningRate <= 0:
		return nil, errors.NewValueError(op, "learning rate must be positive")
	case m.epochs < 0:
		return nil, errors.NewValueError(op, "epochs must be non-negative")
	}
	return m, nil
}

// NewLinearSVM creates a classifier for images of shape [N, H, W] with one
// label in [0, classes) per image. Weights are drawn from N(0, scale²) and
// biases start at zero. The model keeps references to images and labels; the
// caller must keep images alive while training.
func NewLinearSVM(images *tensor.Tensor, labels []int, options ...Option) (_ *LinearSVM, err error) {
	defer errors.Recover(&err, "NewLinearSVM")
	const op = "NewLinearSVM"

	m, err := newLinearSVM(options)
	if err != nil {
		return nil, err
	}
	if images == nil {
		return nil, errors.NewValueError(op, "images cannot be nil")
	}
	if images.Released() {
		return nil, errors.NewModelError(op, "use after release", errors.ErrReleased)
	}
	if images.NDim() != 3 {
		return nil, errors.NewDimensionError(op, 3, images.NDim(), -1)
	}
	shape := images.Shape()
	n := shape[0]
	if n == 0 || shape[1]*shape[2] == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if len(labels) != n {
		return nil, errors.NewShapeMismatchError(op, []int{len(labels)}, []int{n})
	}
	if err := validateLabels(op, labels, m.nClasses); err != nil {
		return nil, err
	}

	m.images = images
	m.labels = labels
	m.nFeatures = shape[1] * shape[2]

	m.weights, err = tensor.Randn(m.rng(), m.weightScale, m.nClasses, m.nFeatures)
	if err != nil {
		return nil, err
	}
	m.biases, err = tensor.New(m.nClasses, 1)
	if err != nil {
		m.weights.Release()
		return nil, err
	}
	m.state.SetDimensions(m.nFeatures, n)
	return m, nil
}

// NewLinearSVMFromWeights creates a fitted classifier from saved parameters.
// It has no training data, so it can predict but not train.
func NewLinearSVMFromWeights(w *model.ModelWeights, options ...Option) (_ *LinearSVM, err error) {
	defer errors.Recover(&err, "NewLinearSVMFromWeights")
	if err := w.Validate(); err != nil {
		return nil, err
	}
	options = append(options, WithNumClasses(w.Classes))
	m, err := newLinearSVM(options)
	if err != nil {
		return nil, err
	}
	m.nFeatures = w.Features
	if err := m.ImportWeights(w); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *LinearSVM) rng() *rand.Rand {
	if m.randomState >= 0 {
		return tensor.NewRand(uint64(m.randomState))
	}
	now := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(now, now^0xdeadbeef))
}

// Forward computes the [classes, N] score matrix of the training images.
func (m *LinearSVM) Forward() (_ *tensor.Tensor, err error) {
	defer errors.Recover(&err, "LinearSVM.Forward")
	if m.images == nil {
		return nil, errors.NewModelError("LinearSVM.Forward", "no training images", errors.ErrEmptyData)
	}
	return m.scores("LinearSVM.Forward", m.images)
}

// scores flattens images to [N, H*W], transposes to [H*W, N], multiplies by
// the weights and adds each bias to its row.
func (m *LinearSVM) scores(op string, images *tensor.Tensor) (*tensor.Tensor, error) {
	if images == nil {
		return nil, errors.NewValueError(op, "images cannot be nil")
	}
	if images.NDim() != 3 {
		return nil, errors.NewDimensionError(op, 3, images.NDim(), -1)
	}
	shape := images.Shape()
	n, features := shape[0], shape[1]*shape[2]
	if features != m.nFeatures {
		return nil, errors.NewShapeMismatchError(op, m.weights.Shape(), []int{n, features})
	}

	flat, err := images.Reshape(n, features)
	if err != nil {
		return nil, err
	}
	defer flat.Release()

	xt, err := flat.Transpose2D()
	if err != nil {
		return nil, err
	}
	defer xt.Release()

	out, err := tensor.MatMul(m.weights, xt)
	if err != nil {
		return nil, err
	}
	if err := m.addBias(out); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// addBias adds biases[c] to every entry of row c of scores in place.
func (m *LinearSVM) addBias(scores *tensor.Tensor) error {
	for c := 0; c < m.nClasses; c++ {
		b, err := m.biases.At(c, 0)
		if err != nil {
			return err
		}
		row, err := scores.DropLeadingAxis(c)
		if err != nil {
			return err
		}
		err = row.AddScalar(b)
		row.Release()
		if err != nil {
			return err
		}
	}
	return nil
}

// Backward computes the hinge loss gradient for scores produced by Forward
// and applies weights -= lr·dW and biases -= lr·db in place, where
// dW = dS · X for the [N, H*W] flattened training images and db is the row
// sum of dS. Parameters are untouched when an error is returned.
func (m *LinearSVM) Backward(scores *tensor.Tensor, labels []int, n int, lr float64) (err error) {
	defer errors.Recover(&err, "LinearSVM.Backward")
	const op = "LinearSVM.Backward"
	if lr <= 0 {
		return errors.NewValueError(op, "learning rate must be positive")
	}
	if m.images == nil {
		return errors.NewModelError(op, "no training images", errors.ErrEmptyData)
	}
	shape := m.images.Shape()
	if n != shape[0] {
		return errors.NewShapeMismatchError(op, []int{n}, []int{shape[0]})
	}

	ds, err := ScoreGradient(scores, labels, n)
	if err != nil {
		return err
	}
	defer ds.Release()

	flat, err := m.images.Reshape(n, m.nFeatures)
	if err != nil {
		return err
	}
	defer flat.Release()

	dw, err := tensor.MatMul(ds, flat)
	if err != nil {
		return err
	}
	defer dw.Release()

	db, err := ds.RowSums()
	if err != nil {
		return err
	}
	defer db.Release()

	return tensor.AddScaledAll(-lr, []*tensor.Tensor{m.weights, m.biases}, []*tensor.Tensor{dw, db})
}

// Step runs one forward, loss and update pass over the training data with
// learning rate lr and returns the loss before the update.
func (m *LinearSVM) Step(lr float64) (_ float64, err error) {
	defer errors.Recover(&err, "LinearSVM.Step")
	scores, err := m.Forward()
	if err != nil {
		return 0, err
	}
	defer scores.Release()

	n := len(m.labels)
	loss, err := HingeLoss(scores, m.labels, n)
	if err != nil {
		return 0, err
	}
	if err := m.Backward(scores, m.labels, n, lr); err != nil {
		return 0, err
	}

	m.lossHistory_ = append(m.lossHistory_, loss)
	m.state.SetFitted()
	m.logger.Debug("Step completed",
		log.OperationKey, log.OperationStep,
		log.EpochKey, len(m.lossHistory_),
		log.LossKey, loss,
	)
	return loss, nil
}

// Fit runs the configured number of steps at the configured learning rate.
// There is no convergence check.
func (m *LinearSVM) Fit() (err error) {
	defer errors.Recover(&err, "LinearSVM.Fit")
	startTime := time.Now()
	m.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, len(m.labels),
		log.FeaturesKey, m.nFeatures,
		log.ClassesKey, m.nClasses,
		log.LearningRateKey, m.learningRate,
	)

	var loss float64
	for epoch := 0; epoch < m.epochs; epoch++ {
		loss, err = m.Step(m.learningRate)
		if err != nil {
			return errors.Wrapf(err, "epoch %d", epoch+1)
		}
	}

	m.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.DurationMsKey, time.Since(startTime).Milliseconds(),
		log.LossKey, loss,
	)
	return nil
}

// Predict returns the highest scoring class for every image of an [M, H, W]
// batch. Ties resolve to the lowest class id.
func (m *LinearSVM) Predict(images *tensor.Tensor) (_ []int, err error) {
	defer errors.Recover(&err, "LinearSVM.Predict")
	if !m.state.IsFitted() {
		return nil, errors.NewNotFittedError(ModelType, "Predict")
	}
	scores, err := m.scores("LinearSVM.Predict", images)
	if err != nil {
		return nil, err
	}
	defer scores.Release()

	n := scores.Shape()[1]
	s := scores.Values()
	preds := make([]int, n)
	for i := 0; i < n; i++ {
		best := s[i]
		for c := 1; c < m.nClasses; c++ {
			if v := s[c*n+i]; v > best {
				best = v
				preds[i] = c
			}
		}
	}
	m.logger.Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.PredsKey, n,
	)
	return preds, nil
}

// Score returns the accuracy of Predict(images) against labels.
func (m *LinearSVM) Score(images *tensor.Tensor, labels []int) (_ float64, err error) {
	defer errors.Recover(&err, "LinearSVM.Score")
	preds, err := m.Predict(images)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(labels, preds)
}

// Weights returns the [classes, features] weight tensor. It is owned by the
// model and must not be released by the caller.
func (m *LinearSVM) Weights() *tensor.Tensor { return m.weights }

// Biases returns the [classes, 1] bias tensor. It is owned by the model and
// must not be released by the caller.
func (m *LinearSVM) Biases() *tensor.Tensor { return m.biases }

// LossHistory returns the loss recorded by each Step.
func (m *LinearSVM) LossHistory() []float64 {
	return append([]float64(nil), m.lossHistory_...)
}

// NumClasses returns the number of classes.
func (m *LinearSVM) NumClasses() int { return m.nClasses }

// NumFeatures returns the flattened image size.
func (m *LinearSVM) NumFeatures() int { return m.nFeatures }

// IsFitted reports whether the model has been trained or loaded.
func (m *LinearSVM) IsFitted() bool { return m.state.IsFitted() }

// GetParams returns the model's hyperparameters.
func (m *LinearSVM) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_classes":     m.nClasses,
		"weight_scale":  m.weightScale,
		"learning_rate": m.learningRate,
		"epochs":        m.epochs,
		"random_state":  m.randomState,
	}
}

// Release frees the parameter tensors. The model is unusable afterwards.
func (m *LinearSVM) Release() {
	m.weights.Release()
	m.biases.Release()
	m.state.Reset()
}
