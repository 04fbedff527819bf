package batch

//go:generate go tool stringer -type=EntityKind -linecomment -output=entity_string.go

// EntityKind is the row space a column is indexed by.
type EntityKind int

const (
	EntityPerson      EntityKind = iota // person
	EntityTaxUnit                       // tax_unit
	EntityFamily                        // family
	EntitySPMUnit                       // spm_unit
	EntityHousehold                     // household
	EntityMaritalUnit                   // marital_unit

	NumEntities = int(iota)
)

// groupEntities are the entities with exactly one row per record.
var groupEntities = [...]EntityKind{EntityTaxUnit, EntityFamily, EntitySPMUnit, EntityHousehold}

// IDColumn returns the name of the entity's identifier column.
func (e EntityKind) IDColumn() string {
	return e.String() + "_id"
}

// MembershipColumn returns the name of the person column holding the
// owning row's identifier.
func (e EntityKind) MembershipColumn() string {
	return "person_" + e.String() + "_id"
}
