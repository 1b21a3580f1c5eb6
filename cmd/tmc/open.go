package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tmckit/internal/logger"
	"github.com/samcharles93/tmckit/pkg/tmc"
)

var errNoDialect = errors.New("--dialect is required (or set dialect in the config file)")

func resolveDialect() (tmc.Dialect, error) {
	if strings.TrimSpace(dialectName) == "" {
		return tmc.DialectUnknown, errNoDialect
	}
	return tmc.ParseDialect(dialectName)
}

// resolveLinked returns the explicit --linked path or, failing that, the
// conventional companion next to path (model.tmc -> model.tmcl).
func resolveLinked(path, explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return filepath.Clean(explicit)
	}
	candidate := path + "l"
	if ext := filepath.Ext(path); ext != "" && strings.ToUpper(ext) == ext {
		candidate = path + "L"
	}
	if st, err := os.Stat(candidate); err == nil && st.Mode().IsRegular() {
		return candidate
	}
	return ""
}

// openDocument parses the file named by the first argument. The caller
// closes the result.
func openDocument(ctx context.Context, cmd *cli.Command) (*tmc.File, error) {
	if cmd.Args().Len() != 1 {
		return nil, cli.Exit("error: expected exactly one TMC file argument", 1)
	}
	path := filepath.Clean(cmd.Args().First())
	d, err := resolveDialect()
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	linked := resolveLinked(path, linkedPath)

	log := logger.FromContext(ctx).With("file", filepath.Base(path), "dialect", d.String())
	if linked != "" {
		log.Debug("using linked data", "linked", linked)
	}
	f, err := tmc.Open(d, path, linked, tmc.Options{Strict: strict, Logger: log})
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("error: parse %s: %v", path, err), 1)
	}
	for _, fail := range f.Failures() {
		log.Warn("section failed", "section", fail.Name, "error", fail.Err)
	}
	return f, nil
}
