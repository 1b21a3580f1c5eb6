package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tmckit/internal/logger"
	"github.com/samcharles93/tmckit/internal/report"
)

func dumpCmd() *cli.Command {
	var (
		output   string
		compress bool
		compact  bool
	)

	return &cli.Command{
		Name:      "dump",
		Usage:     "Write every decoded record as JSON",
		ArgsUsage: "<file.tmc>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output file (default stdout)",
				Destination: &output,
			},
			&cli.BoolFlag{Name: "zstd", Usage: "compress the output with zstd", Destination: &compress},
			&cli.BoolFlag{Name: "compact", Usage: "do not indent the JSON", Destination: &compact},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f, err := openDocument(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			var w io.Writer = os.Stdout
			if output != "" {
				if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				out, err := os.Create(output)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				defer func() { _ = out.Close() }()
				w = out
			}

			tree := report.Build(f.Document)
			if compress {
				err = report.WriteZstdJSON(w, tree)
			} else {
				indent := "  "
				if compact {
					indent = ""
				}
				err = report.WriteJSON(w, tree, indent)
			}
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: write dump: %v", err), 1)
			}
			if output != "" {
				logger.FromContext(ctx).Info("wrote dump", "path", output, "zstd", compress)
			}
			return nil
		},
	}
}
