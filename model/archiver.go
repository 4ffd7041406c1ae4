package model

// Archiver is implemented by the archive package's reader and writer. A
// domain class's Serialize method calls back into it once per attribute;
// because the same call both hydrates a struct field (on read) and records
// it into an AttributeMap (on write), a domain class only has to describe
// its shape once, in one place, matching the source's symmetric
// DatabaseObjectWriter/DatabaseIterator pairing around a single
// Object::serialize override per class.
type Archiver interface {
	// IsReading reports whether this pass hydrates Go values from the
	// database (true) or records them into an AttributeMap for writing
	// (false).
	IsReading() bool

	// String visits a mandatory scalar string attribute.
	String(name string, v *string, hints Hints)

	// OptString visits an optional scalar string attribute. On read, *v is
	// set to nil when the column is NULL. On write, a nil *v records NULL.
	OptString(name string, v **string, hints Hints)

	// Int visits a mandatory scalar integer attribute.
	Int(name string, v *int, hints Hints)

	// OptInt visits an optional scalar integer attribute.
	OptInt(name string, v **int, hints Hints)

	// Float64 visits a mandatory scalar floating point attribute.
	Float64(name string, v *float64, hints Hints)

	// OptFloat64 visits an optional scalar floating point attribute.
	OptFloat64(name string, v **float64, hints Hints)

	// Time visits a mandatory timestamp attribute. Combine with SplitTime
	// in hints to store it as seconds+microseconds instead of one column.
	Time(name string, v *Time, hints Hints)

	// OptTime visits an optional timestamp attribute.
	OptTime(name string, v **Time, hints Hints)

	// Nested visits an embedded, non-independently-persisted value (e.g.
	// CreationInfo) by recursing into its own Serialize method under a
	// name_-prefixed attribute frame.
	Nested(name string, v Persistable, hints Hints)

	// OptNested visits an optional embedded value. On write, present decides
	// whether v's columns are stored or set to NULL, and a "<name>_used"
	// flag column ("1"/"0") records the choice; on read, present is set from
	// that flag. The caller should only use v's contents when present is
	// true after the call.
	OptNested(name string, present *bool, v Persistable, hints Hints)

	// Table visits a DBTable-hinted repeated attribute backed by its own
	// child table. newElem constructs one zero-value row on read; on write,
	// *elems holds every element to store and is taken as a whole.
	Table(name string, hints Hints, newElem func() Persistable, elems *[]Persistable)

	// ParentPublicID returns, during a write pass, the publicID of the
	// object's in-memory or previously-resolved parent, for classes that
	// need to record it as a foreign key column themselves rather than
	// relying on the archive's implicit _parent_oid column.
	ParentPublicID() (string, bool)
}
