package archive

import (
	"context"
	"strconv"

	"github.com/quakecore/seisarchive/driver"
	"github.com/quakecore/seisarchive/model"
)

// DatabaseIterator lazily hydrates one row at a time off a driver.Cursor, in
// place of the source's DatabaseIterator wrapping a single forward-only SQL
// cursor. Calling Next repeatedly drives it to exhaustion; Close is
// idempotent and safe to call early if the caller loses interest partway
// through.
type DatabaseIterator struct {
	ctx       context.Context
	archive   *Archive
	className string
	cur       driver.Cursor
	current   model.Persistable
	err       error
	closed    bool
}

func newDatabaseIterator(ctx context.Context, a *Archive, className string, cur driver.Cursor) *DatabaseIterator {
	return &DatabaseIterator{ctx: ctx, archive: a, className: className, cur: cur}
}

// Next advances to the next row and hydrates it, returning false once the
// cursor is exhausted or an error occurred (see Err).
func (it *DatabaseIterator) Next() bool {
	if it.closed || it.err != nil {
		return false
	}
	if it.archive.isClosed() {
		it.Close()
		return false
	}
	if !it.cur.Next() {
		it.err = it.cur.Err()
		return false
	}
	row := it.cur.Row()

	inst, ok := model.New(it.className)
	if !ok {
		it.err = errClassNotRegistered(it.className)
		return false
	}

	var oid int64
	if v := row["_oid"]; v != nil {
		oid, _ = strconv.ParseInt(*v, 10, 64)
	}
	r := newReader(it.ctx, it.archive, tableName(it.className), oid, row)
	inst.Serialize(r)
	if obj, ok := model.AsObject(inst); ok {
		it.archive.cache.Store(obj, oid)
	}
	it.current = inst
	return true
}

// Object returns the row hydrated by the most recent successful Next call.
func (it *DatabaseIterator) Object() model.Persistable {
	return it.current
}

// Err returns the first error encountered while advancing, if any.
func (it *DatabaseIterator) Err() error {
	return it.err
}

// Close releases the underlying cursor. Safe to call more than once.
func (it *DatabaseIterator) Close() {
	if it.closed {
		return
	}
	it.closed = true
	it.cur.Close()
}

func errClassNotRegistered(className string) error {
	return &classNotRegisteredError{className: className}
}

type classNotRegisteredError struct {
	className string
}

func (e *classNotRegisteredError) Error() string {
	return "archive: no registered class " + strconv.Quote(e.className)
}
