// Package batch builds the columnar dataset for many flat records of one
// tax year, so a single engine call covers the whole batch.
//
// The dataset is equivalent to building one situation per record and
// concatenating their people and groups, but is derived with array
// arithmetic: each record's person count gives a running offset, the
// offsets map every person row back to its record, and the position inside
// that range decides the person's role (primary, spouse or dependent).
// Catalog inputs are applied once per state partition, never per record.
//
// Columns are exported as {variable: {year: values}}, the layout the
// engine worker reads.
package batch
