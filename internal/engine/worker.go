package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"taxbridge/internal/batch"
	"taxbridge/internal/catalog"
)

// ErrNoWorkerCommand is returned by NewWorkerClient for an empty command.
var ErrNoWorkerCommand = errors.New("engine: worker command is empty")

// WorkerClient computes datasets by running a worker command once per
// dataset: one WorkerRequest on stdin, one WorkerResponse on stdout.
type WorkerClient struct {
	argv []string
	opts options
}

// NewWorkerClient returns a client running argv.
func NewWorkerClient(argv []string, opts ...Option) (*WorkerClient, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrNoWorkerCommand
	}

	return &WorkerClient{argv: slices.Clone(argv), opts: newOptions(opts)}, nil
}

// SimulateBatch sends the exported dataset and maps the returned values to
// tax-unit rows.
func (w *WorkerClient) SimulateBatch(ctx context.Context, ds *batch.Dataset, names []string) (Simulation, error) {
	req := WorkerRequest{
		Period:    strconv.Itoa(ds.Year),
		Variables: variables(names, w.opts.entity),
		Dataset:   ds.Export(),
	}

	var resp WorkerResponse

	err := w.exchange(ctx, &req, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Error != "" {
		return nil, fmt.Errorf("engine: worker failed: %s", resp.Error)
	}

	res := NewResults(ds.Len())
	res.MarkUnknown(resp.Unknown...)

	for _, v := range req.Variables {
		if slices.Contains(resp.Unknown, v.Name) {
			continue
		}

		values, ok := resp.Values[v.Name]
		if !ok {
			return nil, fmt.Errorf("engine: worker returned no values for %s", v.Name)
		}

		if v.Entity == catalog.EntityPerson {
			values, err = ds.SumToTaxUnits(values)
			if err != nil {
				return nil, fmt.Errorf("engine: %s: %w", v.Name, err)
			}
		}

		err = res.Set(v.Name, values)
		if err != nil {
			return nil, err
		}
	}

	w.opts.logger.Debug("engine: batch computed",
		slog.Int("year", ds.Year),
		slog.Int("records", ds.Len()),
		slog.Int("variables", len(req.Variables)),
		slog.Int("unknown", len(resp.Unknown)))

	return res, nil
}

func (w *WorkerClient) exchange(ctx context.Context, req *WorkerRequest, resp *WorkerResponse) error {
	cmd := exec.CommandContext(ctx, w.argv[0], w.argv[1:]...)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("engine: worker stdin: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("engine: worker stdout: %w", err)
	}

	err = cmd.Start()
	if err != nil {
		return fmt.Errorf("engine: start worker %s: %w", w.argv[0], err)
	}

	// An I/O failure on either side kills the worker so the other side
	// cannot stay blocked on a full pipe.
	killOnErr := func(err error) error {
		if err != nil {
			_ = cmd.Process.Kill()
		}

		return err
	}

	var g errgroup.Group

	g.Go(func() error {
		defer stdin.Close()

		return killOnErr(json.NewEncoder(stdin).Encode(req))
	})

	g.Go(func() error {
		return killOnErr(json.NewDecoder(stdout).Decode(resp))
	})

	ioErr := g.Wait()
	err = cmd.Wait()

	switch {
	case ioErr != nil:
		return fmt.Errorf("engine: worker %s exchange: %w: %s", w.argv[0], ioErr, strings.TrimSpace(stderr.String()))
	case err != nil:
		return fmt.Errorf("engine: worker %s: %w: %s", w.argv[0], err, strings.TrimSpace(stderr.String()))
	}

	return nil
}
