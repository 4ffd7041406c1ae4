package model

// AttributeMap is an insertion-ordered column-name to optional-value map.
// Insertion order matters because the archive emits one INSERT/UPDATE
// statement per object, and keeping it stable makes generated SQL and query
// logs reproducible across runs of the same object graph.
//
// A nil *string entry means the column is SQL NULL; this happens for
// optional scalar attributes and for every column contributed by an absent
// optional nested attribute.
type AttributeMap struct {
	order []string
	value map[string]*string
}

// NewAttributeMap returns an empty AttributeMap ready to use.
func NewAttributeMap() *AttributeMap {
	return &AttributeMap{value: make(map[string]*string)}
}

// Set records column=val, preserving first-seen order. A later Set on an
// already-present column overwrites the value without reordering it.
func (m *AttributeMap) Set(column string, val *string) {
	if _, seen := m.value[column]; !seen {
		m.order = append(m.order, column)
	}
	m.value[column] = val
}

// SetString is a convenience wrapper for a non-null string value.
func (m *AttributeMap) SetString(column, val string) {
	v := val
	m.Set(column, &v)
}

// SetNull records column as SQL NULL.
func (m *AttributeMap) SetNull(column string) {
	m.Set(column, nil)
}

// Get returns the column's value and whether it was present at all (a
// present-but-NULL column returns ok=true, val=nil).
func (m *AttributeMap) Get(column string) (val *string, ok bool) {
	val, ok = m.value[column]
	return val, ok
}

// Columns returns the column names in insertion order.
func (m *AttributeMap) Columns() []string {
	return append([]string(nil), m.order...)
}

// Len reports the number of distinct columns recorded.
func (m *AttributeMap) Len() int {
	return len(m.order)
}

// Values returns the values in the same order as Columns, for callers that
// want to build a positional parameter list directly.
func (m *AttributeMap) Values() []*string {
	out := make([]*string, len(m.order))
	for i, col := range m.order {
		out[i] = m.value[col]
	}
	return out
}
