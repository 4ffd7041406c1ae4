package archive

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/quakecore/seisarchive/driver"
	"github.com/quakecore/seisarchive/model"
)

// maxPrefixDepth bounds the attribute-name prefix stack a writer or reader
// can push onto while walking nested attributes. The source used a fixed
// 64-entry C array for the same stack; a domain graph nesting Nested
// attributes more than a handful of levels deep almost certainly indicates
// a Serialize method recursing into itself, so this stays a hard panic
// rather than a silently-truncated column name.
const maxPrefixDepth = 64

// prefixStack is the shared push/pop/column-name machinery used by both
// writer and reader.
type prefixStack struct {
	frames []string
}

func (s *prefixStack) push(name string) {
	if len(s.frames) >= maxPrefixDepth {
		panic(errors.WithStack(fmt.Errorf("archive: attribute prefix stack overflow pushing %q", name)))
	}
	s.frames = append(s.frames, name)
}

func (s *prefixStack) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *prefixStack) column(name string) string {
	if len(s.frames) == 0 {
		return name
	}
	return strings.Join(s.frames, "_") + "_" + name
}

// pendingChildren is a DBTable attribute recorded by a writer while walking
// a parent object; it is only inserted once the parent's own row has been
// inserted and its oid is known.
type pendingChildren struct {
	attrName  string
	className string
	elems     []model.Persistable
}

// writer implements model.Archiver for the write direction, accumulating
// one flattened AttributeMap for the current object plus any DBTable
// children to insert afterward.
type writer struct {
	prefixStack
	attrs   *model.AttributeMap
	pending []pendingChildren
	parent  *model.PublicObject
}

func newWriter(parent *model.PublicObject) *writer {
	return &writer{attrs: model.NewAttributeMap(), parent: parent}
}

func (w *writer) IsReading() bool { return false }

func (w *writer) String(name string, v *string, hints model.Hints) {
	w.attrs.SetString(w.column(name), *v)
}

func (w *writer) OptString(name string, v **string, hints model.Hints) {
	if *v == nil {
		w.attrs.SetNull(w.column(name))
		return
	}
	w.attrs.SetString(w.column(name), **v)
}

func (w *writer) Int(name string, v *int, hints model.Hints) {
	w.attrs.SetString(w.column(name), strconv.Itoa(*v))
}

func (w *writer) OptInt(name string, v **int, hints model.Hints) {
	if *v == nil {
		w.attrs.SetNull(w.column(name))
		return
	}
	w.attrs.SetString(w.column(name), strconv.Itoa(**v))
}

func (w *writer) Float64(name string, v *float64, hints model.Hints) {
	w.attrs.SetString(w.column(name), strconv.FormatFloat(*v, 'g', -1, 64))
}

func (w *writer) OptFloat64(name string, v **float64, hints model.Hints) {
	if *v == nil {
		w.attrs.SetNull(w.column(name))
		return
	}
	w.attrs.SetString(w.column(name), strconv.FormatFloat(**v, 'g', -1, 64))
}

func (w *writer) Time(name string, v *model.Time, hints model.Hints) {
	w.writeTime(name, *v, hints)
}

func (w *writer) OptTime(name string, v **model.Time, hints model.Hints) {
	if *v == nil {
		if hints.Has(model.SplitTime) {
			w.attrs.SetNull(w.column(name))
			w.attrs.SetNull(w.column(name + "_ms"))
			return
		}
		w.attrs.SetNull(w.column(name))
		return
	}
	w.writeTime(name, **v, hints)
}

func (w *writer) writeTime(name string, t time.Time, hints model.Hints) {
	if hints.Has(model.SplitTime) {
		w.attrs.SetString(w.column(name), strconv.FormatInt(t.Unix(), 10))
		w.attrs.SetString(w.column(name+"_ms"), strconv.Itoa(t.Nanosecond()/1000))
		return
	}
	w.attrs.SetString(w.column(name), t.UTC().Format(time.RFC3339Nano))
}

func (w *writer) Nested(name string, v model.Persistable, hints model.Hints) {
	w.push(name)
	v.Serialize(w)
	w.pop()
}

// OptNested records an optional nested attribute's presence flag
// (column(name)+"_used", "1" or "0") and then serializes v: when present,
// through the normal Nested path; when absent, through nullWriter, which
// writes every one of v's own columns as NULL regardless of what v
// actually holds. Without the nullWriter pass, an absent nested struct
// whose backing Go value hadn't been reset to its zero value would leave
// stale column values in an UPDATE's row map, since rowFromAttributeMap
// only overwrites columns the writer actually touched.
func (w *writer) OptNested(name string, present *bool, v model.Persistable, hints model.Hints) {
	used := "0"
	if *present {
		used = "1"
	}
	w.attrs.SetString(w.column(name)+"_used", used)

	if *present {
		w.Nested(name, v, hints)
		return
	}
	nw := &nullWriter{attrs: w.attrs}
	nw.frames = append([]string(nil), w.frames...)
	nw.push(name)
	v.Serialize(nw)
}

// nullWriter walks a Persistable's Serialize method writing every scalar
// column it visits as NULL, used by writer.OptNested to blank out an
// absent nested attribute's columns rather than leaving them untouched.
type nullWriter struct {
	prefixStack
	attrs *model.AttributeMap
}

func (w *nullWriter) IsReading() bool { return false }

func (w *nullWriter) String(name string, v *string, hints model.Hints) {
	w.attrs.SetNull(w.column(name))
}

func (w *nullWriter) OptString(name string, v **string, hints model.Hints) {
	w.attrs.SetNull(w.column(name))
}

func (w *nullWriter) Int(name string, v *int, hints model.Hints) {
	w.attrs.SetNull(w.column(name))
}

func (w *nullWriter) OptInt(name string, v **int, hints model.Hints) {
	w.attrs.SetNull(w.column(name))
}

func (w *nullWriter) Float64(name string, v *float64, hints model.Hints) {
	w.attrs.SetNull(w.column(name))
}

func (w *nullWriter) OptFloat64(name string, v **float64, hints model.Hints) {
	w.attrs.SetNull(w.column(name))
}

func (w *nullWriter) Time(name string, v *model.Time, hints model.Hints) {
	w.nullTime(name, hints)
}

func (w *nullWriter) OptTime(name string, v **model.Time, hints model.Hints) {
	w.nullTime(name, hints)
}

func (w *nullWriter) nullTime(name string, hints model.Hints) {
	w.attrs.SetNull(w.column(name))
	if hints.Has(model.SplitTime) {
		w.attrs.SetNull(w.column(name + "_ms"))
	}
}

func (w *nullWriter) Nested(name string, v model.Persistable, hints model.Hints) {
	w.push(name)
	v.Serialize(w)
	w.pop()
}

func (w *nullWriter) OptNested(name string, present *bool, v model.Persistable, hints model.Hints) {
	w.attrs.SetNull(w.column(name) + "_used")
	w.push(name)
	v.Serialize(w)
	w.pop()
}

func (w *nullWriter) Table(name string, hints model.Hints, newElem func() model.Persistable, elems *[]model.Persistable) {
	*elems = nil
}

func (w *nullWriter) ParentPublicID() (string, bool) {
	return "", false
}

// indexWriter walks a Persistable's Serialize method recording only the
// columns hinted IndexAttribute, the "index-discriminating pass" spec.md
// describes for content-based objectId resolution: find a non-public
// object's row by the values that identify it among its siblings rather
// than by a cached oid.
type indexWriter struct {
	prefixStack
	attrs *model.AttributeMap
}

func newIndexWriter() *indexWriter {
	return &indexWriter{attrs: model.NewAttributeMap()}
}

func (w *indexWriter) IsReading() bool { return false }

func (w *indexWriter) String(name string, v *string, hints model.Hints) {
	if hints.Has(model.IndexAttribute) {
		w.attrs.SetString(w.column(name), *v)
	}
}

func (w *indexWriter) OptString(name string, v **string, hints model.Hints) {
	if !hints.Has(model.IndexAttribute) {
		return
	}
	if *v == nil {
		w.attrs.SetNull(w.column(name))
		return
	}
	w.attrs.SetString(w.column(name), **v)
}

func (w *indexWriter) Int(name string, v *int, hints model.Hints) {
	if hints.Has(model.IndexAttribute) {
		w.attrs.SetString(w.column(name), strconv.Itoa(*v))
	}
}

func (w *indexWriter) OptInt(name string, v **int, hints model.Hints) {
	if !hints.Has(model.IndexAttribute) {
		return
	}
	if *v == nil {
		w.attrs.SetNull(w.column(name))
		return
	}
	w.attrs.SetString(w.column(name), strconv.Itoa(**v))
}

func (w *indexWriter) Float64(name string, v *float64, hints model.Hints) {
	if hints.Has(model.IndexAttribute) {
		w.attrs.SetString(w.column(name), strconv.FormatFloat(*v, 'g', -1, 64))
	}
}

func (w *indexWriter) OptFloat64(name string, v **float64, hints model.Hints) {
	if !hints.Has(model.IndexAttribute) {
		return
	}
	if *v == nil {
		w.attrs.SetNull(w.column(name))
		return
	}
	w.attrs.SetString(w.column(name), strconv.FormatFloat(**v, 'g', -1, 64))
}

func (w *indexWriter) Time(name string, v *model.Time, hints model.Hints) {
	if hints.Has(model.IndexAttribute) {
		w.attrs.SetString(w.column(name), v.UTC().Format(time.RFC3339Nano))
	}
}

func (w *indexWriter) OptTime(name string, v **model.Time, hints model.Hints) {
	if !hints.Has(model.IndexAttribute) {
		return
	}
	if *v == nil {
		w.attrs.SetNull(w.column(name))
		return
	}
	w.attrs.SetString(w.column(name), (*v).UTC().Format(time.RFC3339Nano))
}

func (w *indexWriter) Nested(name string, v model.Persistable, hints model.Hints) {
	w.push(name)
	v.Serialize(w)
	w.pop()
}

func (w *indexWriter) OptNested(name string, present *bool, v model.Persistable, hints model.Hints) {
	if !*present {
		return
	}
	w.Nested(name, v, hints)
}

func (w *indexWriter) Table(name string, hints model.Hints, newElem func() model.Persistable, elems *[]model.Persistable) {
}

func (w *indexWriter) ParentPublicID() (string, bool) {
	return "", false
}

func (w *writer) Table(name string, hints model.Hints, newElem func() model.Persistable, elems *[]model.Persistable) {
	w.pending = append(w.pending, pendingChildren{attrName: name, className: newElem().ClassName(), elems: *elems})
}

func (w *writer) ParentPublicID() (string, bool) {
	if w.parent == nil {
		return "", false
	}
	return w.parent.PublicID(), true
}

// reader implements model.Archiver for the read direction, hydrating Go
// values out of a single already-fetched driver.Row. Table-hinted
// attributes additionally need the archive and the row's own oid, since
// DBTable children live in a separate table keyed by a "<table>_oid" link
// column back to this row.
type reader struct {
	prefixStack
	row       driver.Row
	archive   *Archive
	ctx       context.Context
	tableName string
	oid       int64
}

func newReader(ctx context.Context, a *Archive, tableName string, oid int64, row driver.Row) *reader {
	return &reader{ctx: ctx, archive: a, tableName: tableName, oid: oid, row: row}
}

func (r *reader) IsReading() bool { return true }

func (r *reader) get(name string) *string {
	return r.row[r.column(name)]
}

func (r *reader) String(name string, v *string, hints model.Hints) {
	if val := r.get(name); val != nil {
		*v = *val
	}
}

func (r *reader) OptString(name string, v **string, hints model.Hints) {
	val := r.get(name)
	if val == nil {
		*v = nil
		return
	}
	s := *val
	*v = &s
}

func (r *reader) Int(name string, v *int, hints model.Hints) {
	if val := r.get(name); val != nil {
		if n, err := strconv.Atoi(*val); err == nil {
			*v = n
		}
	}
}

func (r *reader) OptInt(name string, v **int, hints model.Hints) {
	val := r.get(name)
	if val == nil {
		*v = nil
		return
	}
	n, err := strconv.Atoi(*val)
	if err != nil {
		*v = nil
		return
	}
	*v = &n
}

func (r *reader) Float64(name string, v *float64, hints model.Hints) {
	if val := r.get(name); val != nil {
		if f, err := strconv.ParseFloat(*val, 64); err == nil {
			*v = f
		}
	}
}

func (r *reader) OptFloat64(name string, v **float64, hints model.Hints) {
	val := r.get(name)
	if val == nil {
		*v = nil
		return
	}
	f, err := strconv.ParseFloat(*val, 64)
	if err != nil {
		*v = nil
		return
	}
	*v = &f
}

func (r *reader) Time(name string, v *model.Time, hints model.Hints) {
	if t, ok := r.readTime(name, hints); ok {
		*v = t
	}
}

func (r *reader) OptTime(name string, v **model.Time, hints model.Hints) {
	t, ok := r.readTime(name, hints)
	if !ok {
		*v = nil
		return
	}
	*v = &t
}

func (r *reader) readTime(name string, hints model.Hints) (time.Time, bool) {
	if hints.Has(model.SplitTime) {
		sec := r.get(name)
		if sec == nil {
			return time.Time{}, false
		}
		secs, err := strconv.ParseInt(*sec, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		var micros int64
		if ms := r.get(name + "_ms"); ms != nil {
			micros, _ = strconv.ParseInt(*ms, 10, 64)
		}
		return time.Unix(secs, micros*1000).UTC(), true
	}
	val := r.get(name)
	if val == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, *val)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func (r *reader) Nested(name string, v model.Persistable, hints model.Hints) {
	r.push(name)
	v.Serialize(r)
	r.pop()
}

func (r *reader) OptNested(name string, present *bool, v model.Persistable, hints model.Hints) {
	used := r.get(name + "_used")
	*present = used != nil && *used == "1"
	r.Nested(name, v, hints)
}

func (r *reader) Table(name string, hints model.Hints, newElem func() model.Persistable, elems *[]model.Persistable) {
	if r.archive == nil {
		return
	}
	linkCol := r.tableName + "_oid"
	childTable := tableNameForElem(newElem())
	oidStr := strconv.FormatInt(r.oid, 10)

	cur, err := r.archive.driver.Query(r.ctx, childTable, linkCol, oidStr)
	if err != nil {
		return
	}
	defer cur.Close()

	var out []model.Persistable
	for cur.Next() {
		row := cur.Row()
		elem := newElem()
		childOid := int64(0)
		if oidStr := row["_oid"]; oidStr != nil {
			childOid, _ = strconv.ParseInt(*oidStr, 10, 64)
		}
		cr := newReader(r.ctx, r.archive, childTable, childOid, row)
		elem.Serialize(cr)
		out = append(out, elem)
	}
	*elems = out
}

func (r *reader) ParentPublicID() (string, bool) {
	return "", false
}

func tableNameForElem(v model.Persistable) string {
	return tableName(v.ClassName())
}
