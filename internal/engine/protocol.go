package engine

import (
	"taxbridge/internal/catalog"
)

// Variable is a requested output variable and the entity it lives at.
type Variable struct {
	Name   string         `json:"name"`
	Entity catalog.Entity `json:"entity"`
}

// WorkerRequest is written to a worker's stdin.
type WorkerRequest struct {
	Period    string                          `json:"period"`
	Variables []Variable                      `json:"variables"`
	Dataset   map[string]map[string][]float64 `json:"dataset"`
}

// WorkerResponse is read from a worker's stdout. Values are indexed by the
// rows of each variable's entity.
type WorkerResponse struct {
	Values  map[string][]float64 `json:"values"`
	Unknown []string             `json:"unknown_variables,omitempty"`
	Error   string               `json:"error,omitempty"`
}

func variables(names []string, entity EntityFunc) []Variable {
	out := make([]Variable, len(names))
	for i, name := range names {
		out[i] = Variable{Name: name, Entity: entity(name)}
	}

	return out
}
