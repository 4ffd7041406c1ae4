// Package driver defines the minimal storage surface the archive package
// needs and two implementations of it: a pgx/v5-backed Postgres driver for
// real use, and an in-process Memory driver used by the test suite in place
// of a live database.
package driver

import "context"

// Row is one database row as a column-name to optional-string-value map, the
// same shape model.AttributeMap uses so the archive can move a row between
// the two without any conversion step.
type Row map[string]*string

// DbDriver is the archive's only window onto the database. Reads and writes
// are expressed structurally (table, columns, values) rather than as
// caller-built SQL strings; this is the one deliberate departure from the
// source's single textual DatabaseInterface::execute/beginQuery contract,
// made so the in-process Memory driver can implement it without parsing
// SQL. See DESIGN.md for the tradeoff. RawExec and RawQuery remain for
// statements with no row shape to model; the archive itself calls only
// RawQuery, from QueryObject.
type DbDriver interface {
	// Connect opens the underlying connection.
	Connect(ctx context.Context) error

	// Disconnect releases the underlying connection. Safe to call on a
	// driver that was never connected.
	Disconnect()

	// Begin starts a transaction that every subsequent Insert/Update/
	// Delete/DeleteWhere call runs inside, until Commit or Rollback. Begin
	// while a transaction is already open is an error; nested transactions
	// are not supported.
	Begin(ctx context.Context) error

	// Commit ends the current transaction, if any, making its writes
	// durable. Calling Commit with no open transaction is a no-op.
	Commit(ctx context.Context) error

	// Rollback discards the current transaction, if any, undoing its
	// writes. Calling Rollback with no open transaction is a no-op.
	Rollback(ctx context.Context) error

	// RawExec runs a statement that returns no rows, such as schema DDL.
	// Nothing in the archive package calls it.
	RawExec(ctx context.Context, sql string) error

	// RawQuery runs a read-only statement with no structured row shape,
	// returning a Cursor over whatever columns it projects.
	RawQuery(ctx context.Context, sql string) (Cursor, error)

	// Insert adds a row to table and returns the oid assigned to it.
	Insert(ctx context.Context, table string, row Row) (oid int64, err error)

	// Update overwrites the row identified by oid in table.
	Update(ctx context.Context, table string, oid int64, row Row) error

	// Delete removes the row identified by oid from table.
	Delete(ctx context.Context, table string, oid int64) error

	// DeleteWhere removes every row in table whose column equals value;
	// used to cascade-delete DBTable children by their link column.
	DeleteWhere(ctx context.Context, table, column, value string) error

	// Get returns the row identified by oid in table, or ok=false if no
	// such row exists.
	Get(ctx context.Context, table string, oid int64) (row Row, ok bool, err error)

	// Query returns a cursor over every row in table whose column equals
	// value, ordered by oid. column == "" returns every row in the table.
	Query(ctx context.Context, table, column, value string) (Cursor, error)

	// FindOid looks up the oid of a row in table whose columns all match
	// the given values, for locating a previously-written non-public,
	// IndexAttribute-keyed object without knowing its oid.
	FindOid(ctx context.Context, table string, match Row) (oid int64, found bool, err error)

	// EscapeString quotes s for safe inlining into a RawExec/RawQuery
	// string.
	EscapeString(s string) string
}

// Cursor is the single-row-at-a-time result of Query/RawQuery.
type Cursor interface {
	// Next advances to the next row, returning false when the result set
	// is exhausted or an error occurred (check Err in that case).
	Next() bool

	// Row returns the current row.
	Row() Row

	// Err returns the first error encountered by Next, if any.
	Err() error

	// Close releases the cursor. Idempotent.
	Close()
}
