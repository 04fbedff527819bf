// Package extract turns engine results back into flat output rows.
//
// For every output binding the catalog resolves at a record's output level
// and state, the extractor fetches the engine variables, sums them and
// rounds to cents. Identifier, year and state are copied from the input.
//
// A variable the engine does not define yields zero and a warning. Any other
// engine error aborts extraction.
//
// The batch path partitions rows by state and output level and asks the
// engine for each variable once per call, however many partitions use it.
package extract
