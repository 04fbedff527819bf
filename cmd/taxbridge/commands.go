package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"taxbridge/internal"
	"taxbridge/internal/catalog"
	"taxbridge/internal/flat"
	"taxbridge/internal/state"
	pkgconfig "taxbridge/pkg/config"
)

var errArchiveDisabled = errors.New("archive is disabled: set archive.path in the config")

// loadConfig reads the config file named by the root flag. A missing file
// leaves the defaults in place.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	err := pkgconfig.LoadOptional(cmd.String("config"), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// setup loads the config, installs a stderr logger and wires the components.
func setup(cmd *cli.Command) (*internal.Config, *internal.Components, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	if mode := cmd.String("mode"); mode != "" {
		cfg.Engine.Mode = mode
	}

	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)

	components, err := internal.NewComponents(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	return cfg, components, nil
}

func openInput(name string) (io.ReadCloser, error) {
	if name == "" || name == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	return f, nil
}

func openOutput(name string) (io.WriteCloser, error) {
	if name == "" || name == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}

	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}

	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func readRecords(name string) ([]flat.Record, error) {
	in, err := openInput(name)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	records, unknown, err := flat.ReadCSV(in)
	if err != nil {
		return nil, err
	}

	if len(unknown) > 0 {
		slog.Warn("input: ignoring unknown columns", slog.String("columns", strings.Join(unknown, ", ")))
	}

	return records, nil
}

var modeFlag = &cli.StringFlag{
	Name:  "mode",
	Usage: "Engine mode (batch or household), overriding the config",
}

var outputFlag = &cli.StringFlag{
	Name:    "output",
	Aliases: []string{"o"},
	Usage:   "Output file (default stdout)",
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Calculate a CSV of records and write the output table as CSV",
		ArgsUsage: "[input.csv]",
		Flags: []cli.Flag{
			modeFlag,
			outputFlag,
			&cli.BoolFlag{Name: "archive", Usage: "Store the output table in the archive"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, c, err := setup(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			records, err := readRecords(cmd.Args().First())
			if err != nil {
				return err
			}

			table, err := c.Runner.Run(ctx, records)
			if err != nil {
				return err
			}

			if cmd.Bool("archive") {
				if c.Archive == nil {
					return errArchiveDisabled
				}

				id, err := c.Archive.SaveRun(ctx, string(c.Runner.Mode()), table)
				if err != nil {
					return err
				}

				slog.Info("run archived", slog.String("run_id", id), slog.Int("records", len(table.Rows)))
			}

			out, err := openOutput(cmd.String("output"))
			if err != nil {
				return err
			}
			defer out.Close()

			return table.WriteCSV(out)
		},
	}
}

func situationCommand() *cli.Command {
	return &cli.Command{
		Name:      "situation",
		Usage:     "Print the entity graph built for each record as JSON",
		ArgsUsage: "[input.csv]",
		Flags:     []cli.Flag{outputFlag},
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, c, err := setup(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			records, err := readRecords(cmd.Args().First())
			if err != nil {
				return err
			}

			sits, err := c.Runner.Situations(records)
			if err != nil {
				return err
			}

			out, err := openOutput(cmd.String("output"))
			if err != nil {
				return err
			}
			defer out.Close()

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")

			return enc.Encode(sits)
		},
	}
}

func catalogCommand() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Inspect the mapping catalog",
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Validate a catalog file (default: the configured catalog)",
				ArgsUsage: "[catalog.yaml]",
				Action:    checkCatalog,
			},
			{
				Name:  "variables",
				Usage: "List the engine variables requested for a level and state",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "level", Usage: "Output level (0, 2 or 5)"},
					&cli.StringFlag{Name: "state", Usage: "Two-letter state abbreviation", Required: true},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}

					states := state.NewRegistry()

					cat, err := catalog.LoadPath(cfg.Catalog.Path, states)
					if err != nil {
						return err
					}

					level := flat.Level(cmd.Int("level"))
					if !level.IsKnown() {
						return fmt.Errorf("unknown level %d", level)
					}

					st := strings.ToUpper(cmd.String("state"))
					if !states.IsKnown(st) {
						return fmt.Errorf("unknown state %q", st)
					}

					for _, v := range cat.Variables(level, st) {
						fmt.Println(v)
					}

					return nil
				},
			},
		},
	}
}

func checkCatalog(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		path = cfg.Catalog.Path
	}

	var (
		f   *catalog.File
		err error
	)

	if path == "" {
		f, err = catalog.Parse(catalog.DefaultDocument())
	} else {
		f, err = catalog.LoadFile(path)
	}

	if err != nil {
		return err
	}

	diags := catalog.Validate(f, state.NewRegistry())
	for _, d := range diags.All() {
		fmt.Printf("%-7s %s\n", d.Severity, d)
	}

	return diags.Error()
}

func runsCommand() *cli.Command {
	archive := func(cmd *cli.Command) (*internal.Components, error) {
		_, c, err := setup(cmd)
		if err != nil {
			return nil, err
		}

		if c.Archive == nil {
			c.Close()
			return nil, errArchiveDisabled
		}

		return c, nil
	}

	return &cli.Command{
		Name:  "runs",
		Usage: "List or export archived runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List archived runs, newest first",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					c, err := archive(cmd)
					if err != nil {
						return err
					}
					defer c.Close()

					runs, err := c.Archive.ListRuns(ctx)
					if err != nil {
						return err
					}

					for _, run := range runs {
						fmt.Printf("%s\t%s\t%s\t%d\n", run.ID, run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), run.Mode, run.Records)
					}

					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "Write an archived run as CSV",
				ArgsUsage: "<run-id>",
				Flags:     []cli.Flag{outputFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id := cmd.Args().First()
					if id == "" {
						return errors.New("run id is required")
					}

					c, err := archive(cmd)
					if err != nil {
						return err
					}
					defer c.Close()

					_, table, err := c.Archive.LoadRun(ctx, id)
					if err != nil {
						return err
					}

					out, err := openOutput(cmd.String("output"))
					if err != nil {
						return err
					}
					defer out.Close()

					return table.WriteCSV(out)
				},
			},
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			err = internal.Run(ctx, internal.WithConfig(cfg))
			if err != nil {
				return fmt.Errorf("app run error: %w", err)
			}

			return nil
		},
	}
}
