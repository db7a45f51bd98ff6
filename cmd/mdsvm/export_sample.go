package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ezoic/mdsvm/internal/config"
	"github.com/ezoic/mdsvm/internal/idx"
	"github.com/ezoic/mdsvm/internal/imageio"
)

func exportSampleCmd() *cli.Command {
	var (
		images, out  string
		index, scale int
	)
	defaults := config.Default()

	return &cli.Command{
		Name:  "export-sample",
		Usage: "Write one image of an IDX file as JPEG, PNG or BMP",
		Flags: append(commonFlags(),
			&cli.StringFlag{Name: "images", Usage: "image IDX file", Value: defaults.Data.TrainImages, Destination: &images},
			&cli.IntFlag{Name: "index", Usage: "sample index", Destination: &index},
			&cli.IntFlag{Name: "scale", Usage: "enlargement factor", Value: 1, Destination: &scale},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file; the extension selects the format", Value: "example.jpeg", Destination: &out},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			setString(cmd, "images", &cfg.Data.TrainImages, images)

			t, err := idx.LoadImages(cfg.Data.TrainImages)
			if err != nil {
				return err
			}
			defer t.Release()
			if err := imageio.WriteSample(out, t, index, scale); err != nil {
				return err
			}
			fmt.Printf("sample %d written to %s\n", index, out)
			return nil
		},
	}
}
