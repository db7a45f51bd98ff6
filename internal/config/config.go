// Package config holds the run configuration of the mdsvm command, loaded
// from a YAML file and overridden by command line flags.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ezoic/mdsvm/linear"
	"github.com/ezoic/mdsvm/pkg/errors"
	"github.com/ezoic/mdsvm/preprocessing"
)

// Config is the mdsvm configuration file.
type Config struct {
	Data   Data   `yaml:"data"`
	Train  Train  `yaml:"train"`
	Output Output `yaml:"output"`
	Log    Log    `yaml:"log"`
	Server Server `yaml:"server"`
}

// Data locates the IDX files.
type Data struct {
	TrainImages string `yaml:"train_images"`
	TrainLabels string `yaml:"train_labels"`
	TestImages  string `yaml:"test_images"`
	TestLabels  string `yaml:"test_labels"`
	// Limit truncates the training set to its first Limit samples; 0 keeps all.
	Limit int `yaml:"limit"`
}

// Train holds hyperparameters.
type Train struct {
	Classes      int     `yaml:"classes"`
	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learning_rate"`
	WeightScale  float64 `yaml:"weight_scale"`
	Seed         int64   `yaml:"seed"`
	// Scaler is "none", "minmax" or "standard".
	Scaler string `yaml:"scaler"`
}

// Output names the artifacts written by training.
type Output struct {
	Weights  string `yaml:"weights"`
	LossPlot string `yaml:"loss_plot"`
}

// Log configures logging.
type Log struct {
	Level string `yaml:"level"`
}

// Server configures the prediction service.
type Server struct {
	Address string `yaml:"address"`
	// MaxBatch bounds the number of images per prediction request.
	MaxBatch int `yaml:"max_batch"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Data: Data{
			TrainImages: "data/train-images-idx3-ubyte",
			TrainLabels: "data/train-labels-idx1-ubyte",
			TestImages:  "data/t10k-images-idx3-ubyte",
			TestLabels:  "data/t10k-labels-idx1-ubyte",
		},
		Train: Train{
			Classes:      linear.DefaultNumClasses,
			Epochs:       linear.DefaultEpochs,
			LearningRate: linear.DefaultLearningRate,
			WeightScale:  linear.DefaultWeightScale,
			Seed:         linear.DefaultRandomState,
			Scaler:       "none",
		},
		Output: Output{
			Weights: "model.json",
		},
		Log: Log{
			Level: "info",
		},
		Server: Server{
			Address:  ":8080",
			MaxBatch: 256,
		},
	}
}

// Load reads the YAML file at path on top of Default. An empty path yields
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	const op = "config.Validate"
	switch {
	case c.Train.Classes < 2:
		return errors.NewValueError(op, "train.classes must be at least 2")
	case c.Train.Epochs < 0:
		return errors.NewValueError(op, "train.epochs must be non-negative")
	case c.Train.LearningRate <= 0:
		return errors.NewValueError(op, "train.learning_rate must be positive")
	case c.Train.WeightScale < 0:
		return errors.NewValueError(op, "train.weight_scale must be non-negative")
	case c.Data.Limit < 0:
		return errors.NewValueError(op, "data.limit must be non-negative")
	case c.Server.MaxBatch <= 0:
		return errors.NewValueError(op, "server.max_batch must be positive")
	}
	if _, err := preprocessing.NewScaler(c.Train.Scaler); err != nil {
		return err
	}
	return nil
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}
