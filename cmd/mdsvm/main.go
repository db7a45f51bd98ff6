// Command mdsvm trains, evaluates and serves a multiclass linear SVM on IDX
// digit images.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/ezoic/mdsvm/pkg/log"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "mdsvm",
		Usage: "Linear SVM digit classifier",
		Commands: []*cli.Command{
			trainCmd(),
			evaluateCmd(),
			serveCmd(),
			exportSampleCmd(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp()
	if err := app.Run(ctx, os.Args); err != nil {
		log.LogError(err, "mdsvm failed")
		stop()
		os.Exit(1)
	}
}
