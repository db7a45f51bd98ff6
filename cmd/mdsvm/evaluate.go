package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mdsvm/internal/config"
	"github.com/ezoic/mdsvm/internal/idx"
	"github.com/ezoic/mdsvm/linear"
	"github.com/ezoic/mdsvm/metrics"
	"github.com/ezoic/mdsvm/pkg/log"
)

func evaluateCmd() *cli.Command {
	var images, labels, weights string
	defaults := config.Default()

	return &cli.Command{
		Name:  "evaluate",
		Usage: "Report accuracy and the confusion matrix on a test set",
		Flags: append(commonFlags(),
			&cli.StringFlag{Name: "images", Usage: "test image IDX file", Value: defaults.Data.TestImages, Destination: &images},
			&cli.StringFlag{Name: "labels", Usage: "test label IDX file", Value: defaults.Data.TestLabels, Destination: &labels},
			&cli.StringFlag{Name: "weights", Aliases: []string{"w"}, Usage: "weights file written by train", Value: defaults.Output.Weights, Destination: &weights},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			setString(cmd, "images", &cfg.Data.TestImages, images)
			setString(cmd, "labels", &cfg.Data.TestLabels, labels)
			setString(cmd, "weights", &cfg.Output.Weights, weights)
			return runEvaluate(cfg)
		},
	}
}

func runEvaluate(cfg config.Config) error {
	svm, scaler, err := loadModel(cfg.Output.Weights)
	if err != nil {
		return err
	}
	defer svm.Release()

	ds, err := idx.Load(cfg.Data.TestImages, cfg.Data.TestLabels)
	if err != nil {
		return err
	}
	defer ds.Release()

	labels, err := linear.LabelsFromTensor(ds.Labels, svm.NumClasses())
	if err != nil {
		return err
	}
	preds, err := (&scaledPredictor{LinearSVM: svm, scaler: scaler}).Predict(ds.Images)
	if err != nil {
		return err
	}

	acc, err := metrics.Accuracy(labels, preds)
	if err != nil {
		return err
	}
	cm, err := metrics.ConfusionMatrix(labels, preds, svm.NumClasses())
	if err != nil {
		return err
	}
	log.GetLoggerWithName("evaluate").Info("Evaluation finished",
		log.OperationKey, log.OperationEvaluate,
		log.SamplesKey, len(labels),
		"accuracy", acc,
	)

	fmt.Printf("accuracy %.4f on %d samples\n\n", acc, len(labels))
	fmt.Printf("confusion matrix (rows: true, columns: predicted)\n%v\n\n", mat.Formatted(cm, mat.Squeeze()))
	for c, r := range metrics.PerClassRecall(cm) {
		fmt.Printf("class %d recall %.4f\n", c, r)
	}
	return nil
}
