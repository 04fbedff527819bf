// Package situation builds the hierarchical entity graph the simulation
// engine expects for a single flat record.
//
// A situation names every person ("you", "your partner", "your first
// dependent", ...) and lists them as members of one family, household, tax
// unit and SPM unit. Marital units pair the primary person with the spouse;
// once any dependent is present, every dependent also gets a singleton
// marital unit of its own with a sequential marital_unit_id, because the
// engine needs each dependent's marital unit to be addressable.
//
// Variables are stored as {variable: {period: value}} maps on people and
// groups, with the tax year as the only period.
package situation
