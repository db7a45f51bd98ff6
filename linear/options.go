package linear

import "github.com/ezoic/mdsvm/pkg/log"

// Default hyperparameters.
const (
	DefaultNumClasses   = 10
	DefaultWeightScale  = 0.001
	DefaultLearningRate = 1e-7
	DefaultEpochs       = 100
	DefaultRandomState  = 42
)

// Option configures a LinearSVM.
type Option func(*LinearSVM)

// WithNumClasses sets the number of classes.
func WithNumClasses(n int) Option {
	return func(m *LinearSVM) {
		m.nClasses = n
	}
}

// WithWeightScale sets the standard deviation of the initial weights.
func WithWeightScale(scale float64) Option {
	return func(m *LinearSVM) {
		m.weightScale = scale
	}
}

// WithLearningRate sets the step size used by Fit.
func WithLearningRate(lr float64) Option {
	return func(m *LinearSVM) {
		m.learningRate = lr
	}
}

// WithEpochs sets the number of full-batch steps run by Fit.
func WithEpochs(n int) Option {
	return func(m *LinearSVM) {
		m.epochs = n
	}
}

// WithRandomState seeds weight initialisation. A negative seed uses the clock.
func WithRandomState(seed int64) Option {
	return func(m *LinearSVM) {
		m.randomState = seed
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger log.Logger) Option {
	return func(m *LinearSVM) {
		m.logger = logger
	}
}
