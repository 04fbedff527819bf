package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxbridge/internal/batch"
	"taxbridge/internal/catalog"
	"taxbridge/internal/flat"
	"taxbridge/internal/state"
)

const helperEnv = "TAXBRIDGE_WORKER_HELPER"

// TestWorkerHelperProcess is not a real test: it is the worker command run
// by the WorkerClient tests.
func TestWorkerHelperProcess(t *testing.T) {
	mode := os.Getenv(helperEnv)
	if mode == "" {
		return
	}

	if mode == "garbage" {
		fmt.Fprintln(os.Stdout, "not json")
		fmt.Fprint(os.Stdout, strings.Repeat("x", 1<<22))
		os.Exit(0)
	}

	var req WorkerRequest

	err := json.NewDecoder(os.Stdin).Decode(&req)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	switch mode {
	case "crash":
		fmt.Fprintln(os.Stderr, "worker exploded")
		os.Exit(3)
	case "error":
		_ = json.NewEncoder(os.Stdout).Encode(WorkerResponse{Error: "no such year"})
		os.Exit(0)
	}

	ids := req.Dataset["tax_unit_id"][req.Period]
	people := req.Dataset["person_id"][req.Period]
	resp := WorkerResponse{Values: map[string][]float64{}}

	for _, v := range req.Variables {
		switch {
		case v.Name == "ny_unknown":
			resp.Unknown = append(resp.Unknown, v.Name)
		case v.Entity == catalog.EntityPerson:
			resp.Values[v.Name] = make([]float64, len(people))
			for i := range people {
				resp.Values[v.Name][i] = 1
			}
		default:
			resp.Values[v.Name] = make([]float64, len(ids))
			for i, id := range ids {
				resp.Values[v.Name][i] = id * 10
			}
		}
	}

	_ = json.NewEncoder(os.Stdout).Encode(resp)

	os.Exit(0)
}

func helperArgv() []string {
	return []string{os.Args[0], "-test.run=TestWorkerHelperProcess"}
}

func smallDataset(t *testing.T) *batch.Dataset {
	t.Helper()

	registry := state.NewRegistry()

	cat, err := catalog.LoadDefault(registry)
	require.NoError(t, err)

	records := []flat.Record{
		flat.NewRecord(map[flat.Field]float64{flat.FieldTaxsimID: 1, flat.FieldYear: 2023, flat.FieldMstat: 2}),
		flat.NewRecord(map[flat.Field]float64{flat.FieldTaxsimID: 2, flat.FieldYear: 2023, flat.FieldMstat: 1, flat.FieldDepx: 2}),
	}

	ds, err := batch.NewBuilder(cat, registry).Build(records, 2023)
	require.NoError(t, err)

	return ds
}

func TestWorkerClient_SimulateBatch(t *testing.T) {
	t.Setenv(helperEnv, "ok")

	entities := func(v string) catalog.Entity {
		if v == "employee_medicare_tax" {
			return catalog.EntityPerson
		}

		return catalog.EntityTaxUnit
	}

	w, err := NewWorkerClient(helperArgv(), WithEntities(entities))
	require.NoError(t, err)

	sim, err := w.SimulateBatch(context.Background(), smallDataset(t),
		[]string{"income_tax", "employee_medicare_tax", "ny_unknown"})
	require.NoError(t, err)

	got, err := sim.Calculate(context.Background(), "income_tax")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20}, got)

	got, err = sim.Calculate(context.Background(), "employee_medicare_tax")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, got)

	_, err = sim.Calculate(context.Background(), "ny_unknown")
	require.ErrorIs(t, err, ErrVariableNotFound)
}

func TestWorkerClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		wantErr string
	}{
		{name: "non-zero exit", mode: "crash", wantErr: "worker exploded"},
		{name: "error response", mode: "error", wantErr: "no such year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(helperEnv, tt.mode)

			w, err := NewWorkerClient(helperArgv())
			require.NoError(t, err)

			_, err = w.SimulateBatch(context.Background(), smallDataset(t), []string{"income_tax"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWorkerClient_MalformedOutput(t *testing.T) {
	t.Setenv(helperEnv, "garbage")

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Second)
	defer cancel()

	w, err := NewWorkerClient(helperArgv())
	require.NoError(t, err)

	_, err = w.SimulateBatch(ctx, smallDataset(t), []string{"income_tax"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange")
	assert.NoError(t, ctx.Err(), "worker was not stopped after the decode failure")
}

func TestNewWorkerClient_Empty(t *testing.T) {
	_, err := NewWorkerClient(nil)
	require.ErrorIs(t, err, ErrNoWorkerCommand)
}
