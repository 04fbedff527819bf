package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"taxbridge/internal/situation"
)

// DefaultAPIURL is the household API of the US country package.
const DefaultAPIURL = "https://api.policyengine.org/us"

// groupKeys maps engine entity names to the situation's JSON keys.
var groupKeys = map[string]string{
	"person":       "people",
	"tax_unit":     "tax_units",
	"family":       "families",
	"spm_unit":     "spm_units",
	"household":    "households",
	"marital_unit": "marital_units",
}

// HTTPClient computes single situations through the household API.
// Variable entities come from the API's metadata, fetched once.
type HTTPClient struct {
	baseURL string
	opts    options

	mu       sync.Mutex
	entities map[string]string
}

// NewHTTPClient returns a client for the API rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		opts:    newOptions(opts),
	}
}

type apiEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type metadataResult struct {
	Variables map[string]struct {
		Entity string `json:"entity"`
	} `json:"variables"`
}

// entity-key -> instance name -> variable -> raw value
type situationDoc map[string]map[string]map[string]json.RawMessage

// Simulate posts sit with the known variables set to null and reads the
// computed values back.
func (c *HTTPClient) Simulate(ctx context.Context, sit *situation.Situation, variables []string) (Simulation, error) {
	entities, err := c.metadata(ctx)
	if err != nil {
		return nil, err
	}

	res := NewResults(1)

	var known []string

	for _, v := range variables {
		if _, ok := entities[v]; ok {
			known = append(known, v)
			continue
		}

		res.MarkUnknown(v)
	}

	doc, err := toDoc(sit)
	if err != nil {
		return nil, err
	}

	period := sit.Period()
	null := json.RawMessage(`{"` + period + `":null}`)

	for _, v := range known {
		key := groupKeys[entities[v]]
		for name := range doc[key] {
			doc[key][name][v] = null
		}
	}

	var computed situationDoc

	err = c.do(ctx, http.MethodPost, "/calculate", map[string]any{"household": doc}, &computed)
	if err != nil {
		return nil, err
	}

	for _, v := range known {
		total, err := sumInstances(computed[groupKeys[entities[v]]], v, period)
		if err != nil {
			return nil, err
		}

		err = res.Set(v, []float64{total})
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}

func (c *HTTPClient) metadata(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entities != nil {
		return c.entities, nil
	}

	var meta metadataResult

	err := c.do(ctx, http.MethodGet, "/metadata", nil, &meta)
	if err != nil {
		return nil, err
	}

	entities := make(map[string]string, len(meta.Variables))

	for name, v := range meta.Variables {
		if _, ok := groupKeys[v.Entity]; ok {
			entities[name] = v.Entity
		}
	}

	c.opts.logger.Debug("engine: loaded variable metadata", slog.Int("variables", len(entities)))
	c.entities = entities

	return entities, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}

		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.opts.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(data))
	}

	var env apiEnvelope

	err = json.Unmarshal(data, &env)
	if err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if env.Status != "ok" {
		return fmt.Errorf("api error (%s): %s", env.Status, env.Message)
	}

	err = json.Unmarshal(env.Result, out)
	if err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}

	return nil
}

func toDoc(sit *situation.Situation) (situationDoc, error) {
	data, err := json.Marshal(sit)
	if err != nil {
		return nil, fmt.Errorf("marshal situation: %w", err)
	}

	var doc situationDoc

	err = json.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("unmarshal situation: %w", err)
	}

	return doc, nil
}

// sumInstances adds the period value of variable over every instance of an
// entity, in name order.
func sumInstances(instances map[string]map[string]json.RawMessage, variable, period string) (float64, error) {
	var total float64

	names := make([]string, 0, len(instances))
	for name := range instances {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		raw, ok := instances[name][variable]
		if !ok {
			return 0, fmt.Errorf("engine: %s missing from %q in response", variable, name)
		}

		var byPeriod map[string]any

		err := json.Unmarshal(raw, &byPeriod)
		if err != nil {
			return 0, fmt.Errorf("engine: %s on %q: %w", variable, name, err)
		}

		v, ok := situation.Number(byPeriod[period])
		if !ok {
			return 0, fmt.Errorf("engine: %s on %q is not numeric: %v", variable, name, byPeriod[period])
		}

		total += v
	}

	return total, nil
}
