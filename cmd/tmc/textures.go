package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tmckit/internal/export"
	"github.com/samcharles93/tmckit/internal/logger"
	"github.com/samcharles93/tmckit/internal/preview"
	"github.com/samcharles93/tmckit/pkg/container"
)

const defaultTextureDir = "textures"

func texturesCmd() *cli.Command {
	var (
		outDir        string
		atlasPath     string
		prefix        string
		withPreview   bool
		previewFormat string
		previewSize   int
	)

	return &cli.Command{
		Name:      "textures",
		Usage:     "Extract texture payloads (G1TG atlases become DDS files)",
		ArgsUsage: "<file.tmc>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output directory",
				Value:       defaultTextureDir,
				Destination: &outDir,
			},
			&cli.StringFlag{
				Name:        "atlas",
				Usage:       "G1TG atlas file to extract instead of the embedded textures",
				Destination: &atlasPath,
			},
			&cli.StringFlag{
				Name:        "prefix",
				Usage:       "file name prefix (default: input file name)",
				Destination: &prefix,
			},
			&cli.BoolFlag{Name: "preview", Usage: "also write thumbnails of uncompressed textures", Destination: &withPreview},
			&cli.StringFlag{
				Name:        "preview-format",
				Usage:       "thumbnail format (webp, tga)",
				Value:       preview.FormatWebP,
				Destination: &previewFormat,
			},
			&cli.IntFlag{
				Name:        "preview-size",
				Usage:       "longest thumbnail edge in pixels",
				Value:       preview.DefaultSize,
				Destination: &previewSize,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if cfg.OutputDir != "" && !cmd.IsSet("out") {
				outDir = cfg.OutputDir
			}
			if cfg.PreviewFormat != "" && !cmd.IsSet("preview-format") {
				previewFormat = cfg.PreviewFormat
			}
			if prefix == "" && cmd.Args().Len() > 0 {
				base := filepath.Base(cmd.Args().First())
				prefix = strings.TrimSuffix(base, filepath.Ext(base))
			}

			entries, release, err := loadTextures(ctx, cmd, atlasPath)
			if err != nil {
				return err
			}
			defer release()
			if len(entries) == 0 {
				log.Info("no textures found")
				return nil
			}
			paths, err := export.WriteAll(outDir, prefix, entries)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: write textures: %v", err), 1)
			}
			log.Info("wrote textures", "count", len(paths), "dir", outDir)

			if withPreview {
				n, err := writePreviews(ctx, outDir, prefix, entries, previewFormat, previewSize)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: write previews: %v", err), 1)
				}
				log.Info("wrote previews", "count", n, "format", previewFormat)
			}
			return nil
		},
	}
}

// loadTextures reads a standalone atlas when one is given, otherwise the
// textures of the parsed document. The entries alias the input, so release
// must only be called once they are no longer used.
func loadTextures(ctx context.Context, cmd *cli.Command, atlasPath string) (entries []export.Entry, release func(), err error) {
	if atlasPath != "" {
		m, err := container.OpenMapping(atlasPath)
		if err != nil {
			return nil, nil, cli.Exit(fmt.Sprintf("error: open atlas: %v", err), 1)
		}
		release = func() { _ = m.Close() }
		if entries, err = export.Atlas(m.Span()); err != nil {
			release()
			return nil, nil, cli.Exit(fmt.Sprintf("error: parse atlas %s: %v", atlasPath, err), 1)
		}
		return entries, release, nil
	}

	f, err := openDocument(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}
	release = func() { _ = f.Close() }
	if entries, err = export.Textures(f.Document); err != nil {
		release()
		return nil, nil, cli.Exit(fmt.Sprintf("error: textures: %v", err), 1)
	}
	return entries, release, nil
}

func writePreviews(ctx context.Context, dir, prefix string, entries []export.Entry, format string, size int) (int, error) {
	log := logger.FromContext(ctx)
	ext, err := preview.Ext(format)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.Atlas == nil {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%03d_preview%s", prefix, e.Index, ext))
		out, err := os.Create(path)
		if err != nil {
			return n, err
		}
		err = preview.Render(out, e.Atlas, size, format)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if errors.Is(err, preview.ErrUnsupported) {
			_ = os.Remove(path)
			log.Debug("skipping preview", "texture", e.Index, "format", e.Format)
			continue
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
