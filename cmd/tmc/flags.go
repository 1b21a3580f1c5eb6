package main

import "github.com/urfave/cli/v3"

var (
	dialectName string
	linkedPath  string
	configPath  string
	strict      bool
	logLevel    string
	logFormat   string
	debug       bool
)

func globalFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:        "dialect",
			Aliases:     []string{"d"},
			Usage:       "schema generation (ngs1, ngs2, tmc11)",
			Destination: &dialectName,
		},
		&cli.StringFlag{
			Name:        "linked",
			Aliases:     []string{"l"},
			Usage:       "path to the linked-data companion (defaults to <file>l when it exists)",
			Destination: &linkedPath,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "config file (defaults to $XDG_CONFIG_HOME/tmc/config.yaml)",
			Destination: &configPath,
		},
		&cli.BoolFlag{
			Name:        "strict",
			Usage:       "fail on the first section that does not decode",
			Destination: &strict,
		},
	}, loggingFlags()...)
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
