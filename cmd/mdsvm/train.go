package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/ezoic/mdsvm/core/model"
	"github.com/ezoic/mdsvm/internal/config"
	"github.com/ezoic/mdsvm/internal/idx"
	"github.com/ezoic/mdsvm/internal/report"
	"github.com/ezoic/mdsvm/linear"
	"github.com/ezoic/mdsvm/pkg/log"
	"github.com/ezoic/mdsvm/preprocessing"
)

func trainCmd() *cli.Command {
	var (
		images, labels, out, lossPlot, scaler string
		classes, epochs, limit                int
		learningRate, weightScale             float64
		seed                                  int64
	)
	defaults := config.Default()

	return &cli.Command{
		Name:  "train",
		Usage: "Train the classifier on IDX files and save its weights",
		Flags: append(commonFlags(),
			&cli.StringFlag{Name: "images", Usage: "training image IDX file", Value: defaults.Data.TrainImages, Destination: &images},
			&cli.StringFlag{Name: "labels", Usage: "training label IDX file", Value: defaults.Data.TrainLabels, Destination: &labels},
			&cli.IntFlag{Name: "limit", Usage: "train on the first N samples only (0 = all)", Destination: &limit},
			&cli.IntFlag{Name: "classes", Usage: "number of classes", Value: defaults.Train.Classes, Destination: &classes},
			&cli.IntFlag{Name: "epochs", Usage: "gradient descent steps", Value: defaults.Train.Epochs, Destination: &epochs},
			&cli.Float64Flag{Name: "learning-rate", Aliases: []string{"lr"}, Usage: "step size", Value: defaults.Train.LearningRate, Destination: &learningRate},
			&cli.Float64Flag{Name: "weight-scale", Usage: "standard deviation of the initial weights", Value: defaults.Train.WeightScale, Destination: &weightScale},
			&cli.Int64Flag{Name: "seed", Usage: "random seed (negative = time based)", Value: defaults.Train.Seed, Destination: &seed},
			&cli.StringFlag{Name: "scaler", Usage: "pixel scaling (none, minmax, standard)", Value: defaults.Train.Scaler, Destination: &scaler},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "weights output file", Value: defaults.Output.Weights, Destination: &out},
			&cli.StringFlag{Name: "loss-plot", Usage: "write a loss chart to this file", Destination: &lossPlot},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			setString(cmd, "images", &cfg.Data.TrainImages, images)
			setString(cmd, "labels", &cfg.Data.TrainLabels, labels)
			setInt(cmd, "limit", &cfg.Data.Limit, limit)
			setInt(cmd, "classes", &cfg.Train.Classes, classes)
			setInt(cmd, "epochs", &cfg.Train.Epochs, epochs)
			if cmd.IsSet("learning-rate") {
				cfg.Train.LearningRate = learningRate
			}
			if cmd.IsSet("weight-scale") {
				cfg.Train.WeightScale = weightScale
			}
			if cmd.IsSet("seed") {
				cfg.Train.Seed = seed
			}
			setString(cmd, "scaler", &cfg.Train.Scaler, scaler)
			setString(cmd, "out", &cfg.Output.Weights, out)
			setString(cmd, "loss-plot", &cfg.Output.LossPlot, lossPlot)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runTrain(ctx, cfg)
		},
	}
}

func runTrain(ctx context.Context, cfg config.Config) error {
	runID := uuid.NewString()
	logger := log.GetLoggerWithName("train").With(log.RunIDKey, runID)

	ds, err := idx.Load(cfg.Data.TrainImages, cfg.Data.TrainLabels)
	if err != nil {
		return err
	}
	defer ds.Release()

	images, labelTensor := ds.Images, ds.Labels
	if cfg.Data.Limit > 0 && cfg.Data.Limit < ds.Count() {
		if images, err = ds.Images.Narrow(cfg.Data.Limit); err != nil {
			return err
		}
		defer images.Release()
		if labelTensor, err = ds.Labels.Narrow(cfg.Data.Limit); err != nil {
			return err
		}
		defer labelTensor.Release()
	}
	labels, err := linear.LabelsFromTensor(labelTensor, cfg.Train.Classes)
	if err != nil {
		return err
	}
	logger.Info("Dataset loaded",
		log.SamplesKey, len(labels),
		"shape", images.Shape(),
	)

	scaler, err := preprocessing.NewScaler(cfg.Train.Scaler)
	if err != nil {
		return err
	}
	if scaler != nil {
		if err := scaler.Fit(images); err != nil {
			return err
		}
		if err := scaler.Transform(images); err != nil {
			return err
		}
	}

	svm, err := linear.NewLinearSVM(images, labels,
		linear.WithNumClasses(cfg.Train.Classes),
		linear.WithEpochs(cfg.Train.Epochs),
		linear.WithLearningRate(cfg.Train.LearningRate),
		linear.WithWeightScale(cfg.Train.WeightScale),
		linear.WithRandomState(cfg.Train.Seed),
		linear.WithLogger(log.GetLoggerWithName("linear").With(
			log.ModelNameKey, linear.ModelType,
			log.RunIDKey, runID,
		)),
	)
	if err != nil {
		return err
	}
	defer svm.Release()

	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	if err := svm.Fit(); err != nil {
		return err
	}
	acc, err := svm.Score(images, labels)
	if err != nil {
		return err
	}

	weights, err := svm.ExportWeights()
	if err != nil {
		return err
	}
	weights.Metadata[metaRunID] = runID
	weights.Metadata[metaAccuracy] = acc
	weights.Metadata[metaSamples] = len(labels)
	if d := preprocessing.Describe(scaler); d != nil {
		weights.Metadata[metaScaler] = d
	}
	if err := model.SaveWeights(weights, cfg.Output.Weights); err != nil {
		return err
	}

	history := svm.LossHistory()
	if cfg.Output.LossPlot != "" && len(history) > 0 {
		if err := report.SaveLossPlot(history, "Training loss "+runID[:8], cfg.Output.LossPlot); err != nil {
			return err
		}
	}

	logger.Info("Training finished",
		log.DurationMsKey, time.Since(start).Milliseconds(),
		"train_accuracy", acc,
		"weights", cfg.Output.Weights,
	)
	if len(history) > 0 {
		fmt.Printf("final loss %.6f, ", history[len(history)-1])
	}
	fmt.Printf("train accuracy %.4f, weights written to %s\n", acc, cfg.Output.Weights)
	return nil
}
