package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tmckit/internal/api"
	"github.com/samcharles93/tmckit/internal/logger"
	"github.com/samcharles93/tmckit/pkg/tmc"
)

func serveCmd() *cli.Command {
	var (
		addr           string
		readTimeout    time.Duration
		maxUploadBytes int64
		storeCapacity  int
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the parse API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-upload-bytes",
				Usage:       "largest accepted parse request",
				Value:       api.DefaultMaxUploadBytes,
				Destination: &maxUploadBytes,
			},
			&cli.IntFlag{
				Name:        "store-capacity",
				Usage:       "parse results kept in memory",
				Value:       api.DefaultStoreCapacity,
				Destination: &storeCapacity,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if cfg.ServerAddress != "" && !cmd.IsSet("addr") {
				addr = cfg.ServerAddress
			}
			if cfg.MaxUploadBytes != nil && !cmd.IsSet("max-upload-bytes") {
				maxUploadBytes = *cfg.MaxUploadBytes
			}

			// The default dialect is optional here; requests may name their own.
			dialect := tmc.DialectUnknown
			if dialectName != "" {
				d, err := resolveDialect()
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				dialect = d
			}

			server := api.NewServer(api.Config{
				Dialect:        dialect,
				Strict:         strict,
				MaxUploadBytes: maxUploadBytes,
				PreviewFormat:  cfg.PreviewFormat,
				StoreCapacity:  storeCapacity,
				Logger:         log,
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "dialect", dialect.String())
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
