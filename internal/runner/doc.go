// Package runner orchestrates a full calculation: validate identifiers,
// normalize, route each record to the engine or the reference calculator by
// tax year, extract output rows and put them back in input order.
//
// In batch mode the engine is called once per tax year with a columnar
// dataset; in household mode once per record with a situation. Records
// before the minimum engine year go to the reference calculator.
package runner
