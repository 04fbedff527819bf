// Package state maps between the three state code spaces used by the flat
// schema (compact numeric codes 1..51), the simulation engine (two-letter
// abbreviations) and columnar datasets (federal FIPS codes).
//
// Lookups never fail: unknown codes resolve to a fixed fallback state so a
// single bad row cannot abort a batch.
package state

import (
	"sort"
	"strings"
)

// Fallback state used when a compact code is zero or unknown.
const (
	FallbackCode    = 44
	FallbackAbbrev  = "TX"
	FallbackFederal = 48
)

// Registry holds the immutable lookup tables. Build it once with
// NewRegistry and share it; all methods are safe for concurrent use.
type Registry struct {
	byCode    map[int]entry
	byAbbrev  map[string]entry
	byFederal map[int]entry
}

// NewRegistry builds the lookup tables.
func NewRegistry() *Registry {
	r := &Registry{
		byCode:    make(map[int]entry, len(table)),
		byAbbrev:  make(map[string]entry, len(table)),
		byFederal: make(map[int]entry, len(table)),
	}

	for _, e := range table {
		r.byCode[e.code] = e
		r.byAbbrev[e.abbrev] = e
		r.byFederal[e.federal] = e
	}

	return r
}

// Abbreviation returns the two-letter code for a compact code,
// or FallbackAbbrev when the code is zero or unknown.
func (r *Registry) Abbreviation(code int) string {
	if e, ok := r.byCode[code]; ok {
		return e.abbrev
	}

	return FallbackAbbrev
}

// Code returns the compact code for a two-letter abbreviation (any case),
// or 0 when the abbreviation is unknown.
func (r *Registry) Code(abbrev string) int {
	if e, ok := r.byAbbrev[strings.ToUpper(strings.TrimSpace(abbrev))]; ok {
		return e.code
	}

	return 0
}

// FederalCode returns the FIPS code for a compact code,
// or FallbackFederal when the code is zero or unknown.
func (r *Registry) FederalCode(code int) int {
	if e, ok := r.byCode[code]; ok {
		return e.federal
	}

	return FallbackFederal
}

// CodeFromFederal returns the compact code for a FIPS code, or 0.
func (r *Registry) CodeFromFederal(federal int) int {
	if e, ok := r.byFederal[federal]; ok {
		return e.code
	}

	return 0
}

// IsKnown reports whether the abbreviation names a state.
func (r *Registry) IsKnown(abbrev string) bool {
	return r.Code(abbrev) != 0
}

// Abbreviations returns every known abbreviation, sorted.
func (r *Registry) Abbreviations() []string {
	out := make([]string, 0, len(r.byAbbrev))
	for a := range r.byAbbrev {
		out = append(out, a)
	}

	sort.Strings(out)

	return out
}
