package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"taxbridge/internal/flat"
)

// ErrRunNotFound is returned when no run has the requested identifier.
var ErrRunNotFound = errors.New("store: run not found")

// Run describes one archived table.
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Mode      string    `json:"mode"`
	Records   int       `json:"records"`
	Columns   []string  `json:"columns"`
}

// SaveRun archives table under a new run identifier and returns it.
// Row positions are kept so LoadRun returns rows in the same order.
func (db *DB) SaveRun(ctx context.Context, mode string, table flat.Table) (string, error) {
	id := uuid.New().String()

	columns, err := json.Marshal(table.Columns)
	if err != nil {
		return "", fmt.Errorf("store: marshal columns: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, mode, records, columns)
		VALUES (?, ?, ?, ?, ?)
	`, id, time.Now().UTC(), mode, len(table.Rows), string(columns))
	if err != nil {
		return "", fmt.Errorf("store: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (run_id, position, taxsimid, field, value)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("store: prepare result insert: %w", err)
	}
	defer stmt.Close()

	for pos, row := range table.Rows {
		for field, v := range row.Values {
			_, err := stmt.ExecContext(ctx, id, pos, row.ID, field, nullable(v))
			if err != nil {
				return "", fmt.Errorf("store: insert result %d/%s: %w", row.ID, field, err)
			}
		}
	}

	err = tx.Commit()
	if err != nil {
		return "", fmt.Errorf("store: commit: %w", err)
	}

	return id, nil
}

// LoadRun returns the run and its table with rows in their saved order.
func (db *DB) LoadRun(ctx context.Context, id string) (Run, flat.Table, error) {
	run, err := db.run(ctx, id)
	if err != nil {
		return Run{}, flat.Table{}, err
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT position, taxsimid, field, value
		FROM results
		WHERE run_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return Run{}, flat.Table{}, fmt.Errorf("store: load results: %w", err)
	}
	defer rows.Close()

	table := flat.Table{Columns: run.Columns, Rows: make([]flat.OutputRow, run.Records)}

	for rows.Next() {
		var (
			pos, taxsimid int64
			field         string
			value         sql.NullFloat64
		)

		err := rows.Scan(&pos, &taxsimid, &field, &value)
		if err != nil {
			return Run{}, flat.Table{}, fmt.Errorf("store: scan result: %w", err)
		}

		if pos < 0 || pos >= int64(len(table.Rows)) {
			return Run{}, flat.Table{}, fmt.Errorf("store: run %s: position %d out of range", id, pos)
		}

		row := &table.Rows[pos]
		if row.Values == nil {
			row.ID = taxsimid
			row.Values = map[string]float64{}
		}

		row.Values[field] = math.NaN()
		if value.Valid {
			row.Values[field] = value.Float64
		}
	}

	err = rows.Err()
	if err != nil {
		return Run{}, flat.Table{}, fmt.Errorf("store: load results: %w", err)
	}

	for i := range table.Rows {
		row := &table.Rows[i]
		row.Year = int(row.Values[flat.ColumnYear])
		row.State = int(row.Values[flat.ColumnState])
	}

	return run, table, nil
}

// ListRuns returns every archived run, newest first.
func (db *DB) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, created_at, mode, records, columns
		FROM runs
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, run)
	}

	return out, rows.Err()
}

// DeleteRun removes a run and its results.
func (db *DB) DeleteRun(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete run: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	return nil
}

func (db *DB) run(ctx context.Context, id string) (Run, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, created_at, mode, records, columns
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run     Run
		columns string
	)

	err := s.Scan(&run.ID, &run.CreatedAt, &run.Mode, &run.Records, &columns)
	if err != nil {
		return Run{}, fmt.Errorf("store: scan run: %w", err)
	}

	err = json.Unmarshal([]byte(columns), &run.Columns)
	if err != nil {
		return Run{}, fmt.Errorf("store: run %s columns: %w", run.ID, err)
	}

	return run, nil
}

// nullable stores NaN as NULL.
func nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return v
}
