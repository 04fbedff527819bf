// Package catalog loads the declarative table that drives both translation
// directions between the flat schema and the simulation engine's variables.
//
// # Document layout
//
//	version: "1"
//	input:            # flat schema -> entity graph
//	  - variable: taxable_interest_income
//	    entity: person
//	    fields: intrec           # one column, or a list that is summed
//	    split: true              # halve between spouses on joint returns
//	  - variable: self_employment_income
//	    entity: person
//	    fields: psemp            # primary person
//	    spouse_fields: ssemp     # secondary person
//	  - variable: state_use_tax
//	    entity: tax_unit
//	    value: 0                 # constant instead of a column
//	    states: [ca, pa]         # only for these states; "state" is templated
//	zero_overrides:
//	  person: [ssi]
//	  spm_unit: [snap]
//	output:           # entity graph -> flat schema
//	  - field: siitax
//	    variable: state_income_tax     # "state" becomes the lower-case abbreviation
//	    idtl: [{standard_output: 0}, {full_output: 2}]
//	    special_cases:
//	      - wa: {variable: wa_income_tax}
//	  - field: fica
//	    variable: [employee_social_security_tax, employee_medicare_tax]   # summed
//	  - field: frate
//	    variable: placeholder          # constant, never sent to the engine
//	  - field: taxsimid
//	    source: input                  # copied from the input record
//
// # Resolution
//
// Each output entry is compiled into one Kind: synthesized, placeholder,
// overridden, sum, state-templated or direct. Resolve walks the entries for a
// direction, output level and state, applying per-state overrides before the
// "state" placeholder is substituted.
//
// A Catalog is immutable once built and safe to share between goroutines.
package catalog
