package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/ezoic/mdsvm/internal/config"
	"github.com/ezoic/mdsvm/internal/server"
	"github.com/ezoic/mdsvm/linear"
)

func serveCmd() *cli.Command {
	var (
		addr, weights string
		maxBatch      int
		readTimeout   time.Duration
	)
	defaults := config.Default()

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve predictions over HTTP",
		Flags: append(commonFlags(),
			&cli.StringFlag{Name: "addr", Usage: "listen address", Value: defaults.Server.Address, Destination: &addr},
			&cli.StringFlag{Name: "weights", Aliases: []string{"w"}, Usage: "weights file written by train", Value: defaults.Output.Weights, Destination: &weights},
			&cli.IntFlag{Name: "max-batch", Usage: "maximum images per request", Value: defaults.Server.MaxBatch, Destination: &maxBatch},
			&cli.DurationFlag{Name: "read-timeout", Usage: "read header timeout", Value: 30 * time.Second, Destination: &readTimeout},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			setString(cmd, "addr", &cfg.Server.Address, addr)
			setString(cmd, "weights", &cfg.Output.Weights, weights)
			setInt(cmd, "max-batch", &cfg.Server.MaxBatch, maxBatch)
			if err := cfg.Validate(); err != nil {
				return err
			}

			svm, scaler, err := loadModel(cfg.Output.Weights)
			if err != nil {
				return err
			}
			defer svm.Release()

			srv := server.New(&scaledPredictor{LinearSVM: svm, scaler: scaler}, linear.ModelType, cfg.Server.MaxBatch)
			return srv.Start(ctx, cfg.Server.Address, readTimeout)
		},
	}
}
