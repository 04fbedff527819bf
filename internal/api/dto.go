package api

import (
	"math"

	"taxbridge/internal/flat"
	"taxbridge/internal/store"
)

// RecordsRequest is the request body for the situation and calculate
// endpoints.
type RecordsRequest struct {
	Records []flat.Record `json:"records"`
}

// CalculateRequest is the request body for POST /api/calculate.
type CalculateRequest struct {
	RecordsRequest

	// Archive stores the result table when an archive is configured.
	Archive bool `json:"archive"`
}

// Row is one output row. Values that are not numbers are encoded as null.
type Row struct {
	ID     int64               `json:"taxsimid"`
	Values map[string]*float64 `json:"values"`
}

// TableResponse is an output table.
type TableResponse struct {
	RunID   string   `json:"run_id,omitempty"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// VariablesResponse lists the engine variables requested for a level and
// state.
type VariablesResponse struct {
	Level     int      `json:"level"`
	State     string   `json:"state"`
	Variables []string `json:"variables"`
}

// RunsResponse lists archived runs.
type RunsResponse struct {
	Runs []store.Run `json:"runs"`
}

func newTableResponse(runID string, table flat.Table) TableResponse {
	resp := TableResponse{
		RunID:   runID,
		Columns: table.Columns,
		Rows:    make([]Row, len(table.Rows)),
	}

	for i, row := range table.Rows {
		values := make(map[string]*float64, len(row.Values))

		for k, v := range row.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				values[k] = nil
				continue
			}

			values[k] = &v
		}

		resp.Rows[i] = Row{ID: row.ID, Values: values}
	}

	return resp
}
