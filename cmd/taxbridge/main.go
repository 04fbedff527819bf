// Package main is the taxbridge command: it translates flat tax records into
// engine calculations and back.
package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "taxbridge",
		Usage: "Run flat tax records through a microsimulation engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/taxbridge.yaml",
				Value:       "config/taxbridge.yaml",
				Sources:     cli.EnvVars("TAXBRIDGE_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			situationCommand(),
			catalogCommand(),
			runsCommand(),
			serveCommand(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
