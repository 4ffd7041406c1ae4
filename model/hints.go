package model

// Hints is a bitset attached to an attribute by the Serialize method of a
// domain class, telling the archive how to map that one field onto columns.
// It mirrors the source's TaggedObjectHint/Index bit flags.
type Hints uint8

const (
	// NoHints is the default: a plain scalar column.
	NoHints Hints = 0

	// IgnoreChilds asks a writer not to descend into this object's children
	// even though it is a PublicObject. No reader or writer in the archive
	// package checks this flag: which children are visited is decided by
	// the model.Node tree passed to Write, Update or Remove.
	IgnoreChilds Hints = 1 << iota

	// StaticType marks an attribute whose wire type exactly matches the
	// declared field type. No reader or writer in the archive package
	// checks this flag: Nested and OptNested always flatten the value given
	// to them and never consult the class registry.
	StaticType

	// DBTable marks a repeated attribute (a Go slice field) as living in
	// its own child table, linked back by a "<parent_table>_oid" column,
	// rather than being flattened into the parent's row.
	DBTable

	// SplitTime marks a time.Time attribute as stored in two columns: a
	// whole-second column under the attribute's own name, and a
	// microsecond remainder in "<name>_ms".
	SplitTime

	// IndexAttribute marks a scalar attribute as part of the lookup key
	// used to find an existing row for a non-public object during a
	// locate-by-content query (see resolveNonPublicOid in the archive
	// package).
	IndexAttribute
)

// Has reports whether h includes flag.
func (h Hints) Has(flag Hints) bool {
	return h&flag != 0
}
