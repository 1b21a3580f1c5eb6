package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tmckit/internal/report"
)

func inspectCmd() *cli.Command {
	var (
		asJSON     bool
		showChunks bool
		showAll    bool
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Summarise the sections of a TMC file",
		ArgsUsage: "<file.tmc>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the summary as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "chunks", Usage: "list the outer chunk table", Destination: &showChunks},
			&cli.BoolFlag{Name: "all", Usage: "include absent sections", Destination: &showAll},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f, err := openDocument(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			tree := report.Build(f.Document)
			if asJSON {
				if showChunks {
					return report.WriteJSON(os.Stdout, struct {
						report.Summary
						Chunks []report.Chunk `json:"chunks"`
					}{tree.Summary, tree.Chunks}, "  ")
				}
				return report.WriteJSON(os.Stdout, tree.Summary, "  ")
			}
			printSummary(os.Stdout, tree, showChunks, showAll)
			return nil
		},
	}
}

func printSummary(w io.Writer, tree report.Tree, chunks, all bool) {
	s := tree.Summary
	_, _ = fmt.Fprintf(w, "name:     %s\n", s.Name)
	_, _ = fmt.Fprintf(w, "dialect:  %s\n", s.Dialect)
	_, _ = fmt.Fprintf(w, "size:     %d\n", s.Size)
	_, _ = fmt.Fprintf(w, "linked:   %t\n", s.Linked)

	_, _ = fmt.Fprintln(w, "\nsections:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "  NAME\tCODE\tPRESENT\tRECORDS")
	for _, sec := range s.Sections {
		if !sec.Present && !all {
			continue
		}
		_, _ = fmt.Fprintf(tw, "  %s\t0x%08X\t%t\t%d\n", sec.Name, sec.Code, sec.Present, sec.Records)
	}
	_ = tw.Flush()

	if chunks {
		_, _ = fmt.Fprintln(w, "\nchunks:")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "  INDEX\tCODE\tNAME\tOFFSET\tLENGTH")
		for _, ch := range tree.Chunks {
			name := ch.Name
			if name == "" {
				name = "-"
			}
			_, _ = fmt.Fprintf(tw, "  %d\t%s\t%s\t0x%X\t%d\n", ch.Index, ch.Code, name, ch.Offset, ch.Length)
		}
		_ = tw.Flush()
	}

	if len(s.Failures) > 0 {
		_, _ = fmt.Fprintln(w, "\nfailures:")
		for _, fail := range s.Failures {
			_, _ = fmt.Fprintf(w, "  %s (%s): %s\n", fail.Name, fail.Code, fail.Error)
		}
	}
}
