// Package main is the entry point for worktrunk, the `wt` binary.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/worktrunk/worktrunk/internal/buildinfo"
	"github.com/worktrunk/worktrunk/internal/commands"
	"github.com/worktrunk/worktrunk/internal/log"
	"github.com/worktrunk/worktrunk/internal/runtime"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	buildinfo.Set(version, commit, date, builtBy)
	buildinfo.Enrich()

	app := commands.Root(buildinfo.Version())
	app.Flags = append(app.Flags, &cli.StringFlag{
		Name:  "debug-log",
		Usage: "path to debug log file",
	})
	app.Before = func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if path := cmd.String("debug-log"); path != "" {
			log.SetVerbose(true)
			if err := log.SetFile(path); err != nil {
				return ctx, fmt.Errorf("opening debug log: %w", err)
			}
		}
		return ctx, nil
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, runtime.ErrBrokenPipe) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "wt:", err)
		log.Close()
		os.Exit(1)
	}
	log.Close()
}
