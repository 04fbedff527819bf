// Package refcalc runs the reference tax calculator executable: the flat
// input table goes to its stdin and its stdout is parsed as the flat output
// table.
package refcalc

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"taxbridge/internal/flat"
)

// ErrNotConfigured is returned by Run when no executable path is set.
var ErrNotConfigured = errors.New("refcalc: reference executable not configured")

// requiredFields lead every input table.
var requiredFields = []flat.Field{
	flat.FieldTaxsimID,
	flat.FieldYear,
	flat.FieldState,
	flat.FieldMstat,
	flat.FieldPage,
	flat.FieldSage,
	flat.FieldDepx,
}

// Columns returns the input columns for records: the required columns, the
// age columns up to the largest dependent count, the income columns and
// idtl.
func Columns(records []flat.Record) []flat.Field {
	maxDeps := 0
	for i := range records {
		maxDeps = max(maxDeps, records[i].Dependents())
	}

	cols := slices.Clone(requiredFields)

	for i := 1; i <= min(maxDeps, flat.MaxDependents); i++ {
		f, _ := flat.AgeField(i)
		cols = append(cols, f)
	}

	cols = append(cols, flat.IncomeFields()...)

	return append(cols, flat.FieldIdtl)
}

// WriteInput writes the input table. Absent values and ages beyond a
// record's dependent count are written as 0.
func WriteInput(w io.Writer, records []flat.Record) error {
	cols := Columns(records)
	cw := csv.NewWriter(w)

	header := make([]string, len(cols))
	for i, f := range cols {
		header[i] = f.String()
	}

	err := cw.Write(header)
	if err != nil {
		return fmt.Errorf("refcalc: write header: %w", err)
	}

	cells := make([]string, len(cols))

	for i := range records {
		rec := &records[i]
		deps := rec.Dependents()

		for j, f := range cols {
			v := rec.Get(f)
			if f.IsAge() && int(f-flat.FieldAge1) >= deps {
				v = 0
			}

			cells[j] = strconv.FormatFloat(v, 'f', -1, 64)
		}

		err = cw.Write(cells)
		if err != nil {
			return fmt.Errorf("refcalc: write record %d: %w", rec.ID(), err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// Option configures a Runner.
type Option func(*Runner)

// WithArgs sets extra arguments passed to the executable.
func WithArgs(args ...string) Option {
	return func(r *Runner) {
		r.args = args
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// Runner executes the reference calculator.
type Runner struct {
	path   string
	args   []string
	logger *slog.Logger
}

// New returns a runner for the executable at path. An empty path yields a
// runner whose Run reports ErrNotConfigured.
func New(path string, opts ...Option) *Runner {
	r := &Runner{path: path, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Configured reports whether an executable is set.
func (r *Runner) Configured() bool {
	return r.path != ""
}

// Run pipes records through the executable and returns its output table.
func (r *Runner) Run(ctx context.Context, records []flat.Record) (flat.Table, error) {
	if !r.Configured() {
		return flat.Table{}, ErrNotConfigured
	}

	cmd := exec.CommandContext(ctx, r.path, r.args...)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return flat.Table{}, fmt.Errorf("refcalc: stdin: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return flat.Table{}, fmt.Errorf("refcalc: stdout: %w", err)
	}

	err = cmd.Start()
	if err != nil {
		return flat.Table{}, fmt.Errorf("refcalc: start %s: %w", r.path, err)
	}

	r.logger.Info("refcalc: running reference calculator",
		slog.String("path", r.path),
		slog.Int("records", len(records)))

	var (
		g     errgroup.Group
		table flat.Table
	)

	g.Go(func() error {
		defer stdin.Close()

		return WriteInput(stdin, records)
	})

	g.Go(func() error {
		data, err := io.ReadAll(stdout)
		if err != nil {
			return err
		}

		table, err = flat.ReadOutputCSV(bytes.NewReader(data))

		return err
	})

	ioErr := g.Wait()

	err = cmd.Wait()
	if err != nil {
		return flat.Table{}, fmt.Errorf("refcalc: %s failed: %w: %s", r.path, err, strings.TrimSpace(stderr.String()))
	}

	if ioErr != nil {
		return flat.Table{}, fmt.Errorf("refcalc: %w", ioErr)
	}

	return table, nil
}
