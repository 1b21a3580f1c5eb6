package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tmckit/internal/report"
	"github.com/samcharles93/tmckit/internal/version"
	"github.com/samcharles93/tmckit/pkg/tmc"
)

func versionCmd() *cli.Command {
	var asJSON bool
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print as JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve()
			if asJSON {
				return report.WriteJSON(os.Stdout, struct {
					version.Info
					Dialects []tmc.Dialect `json:"dialects"`
				}{info, tmc.Dialects}, "  ")
			}
			fmt.Printf("version:    %s\n", info.Version)
			if info.Commit != "" {
				fmt.Printf("commit:     %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				fmt.Printf("build time: %s\n", info.BuildTime)
			}
			fmt.Printf("go:         %s\n", info.GoVersion)
			fmt.Printf("dialects:   %v\n", tmc.Dialects)
			return nil
		},
	}
}
