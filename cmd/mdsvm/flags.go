package main

import (
	"github.com/urfave/cli/v3"

	"github.com/ezoic/mdsvm/internal/config"
	"github.com/ezoic/mdsvm/pkg/log"
)

var (
	configPath string
	logLevel   string
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "path to a YAML configuration file",
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
	}
}

// loadConfig reads the configuration file and sets up logging. Command
// specific flags are applied by the caller.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if cmd.IsSet("log-level") {
		cfg.Log.Level = logLevel
	}
	log.SetupLogger(cfg.Log.Level)
	return cfg, nil
}

func setString(cmd *cli.Command, name string, dst *string, v string) {
	if cmd.IsSet(name) {
		*dst = v
	}
}

func setInt(cmd *cli.Command, name string, dst *int, v int) {
	if cmd.IsSet(name) {
		*dst = v
	}
}
