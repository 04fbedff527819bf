// Package engine is the boundary to the external simulation engine.
//
// An engine takes either one situation (Engine) or one year's dataset
// (BatchEngine), plus the variables to compute, and returns a Simulation
// whose Calculate yields one value per tax unit. Person-level variables are
// summed over each tax unit's members before they are returned.
//
// Two clients are provided: HTTPClient talks to the household calculate API
// and WorkerClient pipes a dataset through a worker command.
package engine
