package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxbridge/internal/catalog"
	"taxbridge/internal/flat"
	"taxbridge/internal/situation"
	"taxbridge/internal/state"
)

func jointSituation(t *testing.T) *situation.Situation {
	t.Helper()

	cat, err := catalog.LoadDefault(state.NewRegistry())
	require.NoError(t, err)

	sit, err := situation.NewBuilder(cat).Build(2023, "CA", flat.NewRecord(map[flat.Field]float64{
		flat.FieldMstat:  2,
		flat.FieldPwages: 50000,
		flat.FieldSwages: 20000,
	}))
	require.NoError(t, err)

	return sit
}

// fakeAPI fills requested variables: income_tax = 1234.5 on the tax unit,
// employee_medicare_tax = 100 per person.
func fakeAPI(t *testing.T, metadataCalls *atomic.Int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /metadata", func(w http.ResponseWriter, _ *http.Request) {
		metadataCalls.Add(1)

		_, _ = w.Write([]byte(`{"status":"ok","result":{"variables":{
			"income_tax":{"entity":"tax_unit"},
			"employee_medicare_tax":{"entity":"person"}}}}`))
	})

	mux.HandleFunc("POST /calculate", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Household situationDoc `json:"household"`
		}

		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		doc := body.Household
		for name, vars := range doc["tax_units"] {
			if _, ok := vars["income_tax"]; ok {
				doc["tax_units"][name]["income_tax"] = json.RawMessage(`{"2023":1234.5}`)
			}
		}

		for name, vars := range doc["people"] {
			if _, ok := vars["employee_medicare_tax"]; ok {
				doc["people"][name]["employee_medicare_tax"] = json.RawMessage(`{"2023":100}`)
			}
		}

		out, _ := json.Marshal(map[string]any{"status": "ok", "result": doc})
		_, _ = w.Write(out)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestHTTPClient_Simulate(t *testing.T) {
	var calls atomic.Int32

	srv := fakeAPI(t, &calls)
	client := NewHTTPClient(srv.URL+"/", WithHTTPClient(srv.Client()))

	vars := []string{"income_tax", "employee_medicare_tax", "ca_unknown_credit"}

	sim, err := client.Simulate(context.Background(), jointSituation(t), vars)
	require.NoError(t, err)

	got, err := sim.Calculate(context.Background(), "income_tax")
	require.NoError(t, err)
	assert.Equal(t, []float64{1234.5}, got)

	got, err = sim.Calculate(context.Background(), "employee_medicare_tax")
	require.NoError(t, err)
	assert.Equal(t, []float64{200}, got, "person values summed over the tax unit")

	_, err = sim.Calculate(context.Background(), "ca_unknown_credit")
	require.ErrorIs(t, err, ErrVariableNotFound)

	_, err = client.Simulate(context.Background(), jointSituation(t), vars)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "metadata is fetched once")
}

func TestHTTPClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "status code",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "down", http.StatusBadGateway)
			},
			wantErr: "api error (status 502)",
		},
		{
			name: "error envelope",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"status":"error","message":"bad household"}`))
			},
			wantErr: "bad household",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL).Simulate(context.Background(), jointSituation(t), []string{"income_tax"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.NotErrorIs(t, err, ErrVariableNotFound)
		})
	}
}
