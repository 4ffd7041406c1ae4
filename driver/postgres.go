package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgQuerier is the subset of pgxpool.Pool's and pgx.Tx's method sets this
// driver needs; it lets every operation run against either the pool or an
// open transaction without duplicating their bodies.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is a DbDriver backed by a pgxpool connection pool, in the same
// shape as the teacher's Database type: a DSN held until Connect, and a pool
// handle used by every subsequent call. A Begin call switches every
// subsequent operation onto an open pgx.Tx until Commit or Rollback.
type Postgres struct {
	dsn  string
	pool *pgxpool.Pool
	tx   pgx.Tx
}

// NewPostgres returns a driver that will connect to dsn on the first
// Connect call.
func NewPostgres(dsn string) *Postgres {
	return &Postgres{dsn: dsn}
}

func (p *Postgres) Connect(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, p.dsn)
	if err != nil {
		return fmt.Errorf("postgres: connect: %w", err)
	}
	p.pool = pool
	return nil
}

func (p *Postgres) Disconnect() {
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
}

func (p *Postgres) EscapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// q returns the open transaction if one is in progress, otherwise the pool
// itself; every operation below goes through this instead of touching
// p.pool or p.tx directly.
func (p *Postgres) q() pgQuerier {
	if p.tx != nil {
		return p.tx
	}
	return p.pool
}

// Begin opens a transaction that subsequent Insert/Update/Delete/
// DeleteWhere calls run inside, matching the source's driver-level
// start/commit/rollback contract and the teacher's rollbackOrCommit usage
// of an explicit pgx.Tx.
func (p *Postgres) Begin(ctx context.Context) error {
	if p.tx != nil {
		return fmt.Errorf("postgres: begin: a transaction is already open")
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	p.tx = tx
	return nil
}

func (p *Postgres) Commit(ctx context.Context) error {
	if p.tx == nil {
		return nil
	}
	tx := p.tx
	p.tx = nil
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (p *Postgres) Rollback(ctx context.Context) error {
	if p.tx == nil {
		return nil
	}
	tx := p.tx
	p.tx = nil
	if err := tx.Rollback(ctx); err != nil {
		return fmt.Errorf("postgres: rollback: %w", err)
	}
	return nil
}

func (p *Postgres) RawExec(ctx context.Context, sql string) error {
	if _, err := p.q().Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

func (p *Postgres) RawQuery(ctx context.Context, sql string) (Cursor, error) {
	rows, err := p.q().Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	return &pgCursor{rows: rows}, nil
}

func (p *Postgres) Insert(ctx context.Context, table string, row Row) (int64, error) {
	cols, args := rowColumns(row)
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	stmt := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s) RETURNING _oid`,
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)
	var oid int64
	if err := p.q().QueryRow(ctx, stmt, args...).Scan(&oid); err != nil {
		return 0, fmt.Errorf("postgres: insert into %s: %w", table, err)
	}
	return oid, nil
}

func (p *Postgres) Update(ctx context.Context, table string, oid int64, row Row) error {
	cols, args := rowColumns(row)
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	args = append(args, oid)
	stmt := fmt.Sprintf(`UPDATE %s SET %s WHERE _oid = $%d`, table, strings.Join(sets, ", "), len(args))
	if _, err := p.q().Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("postgres: update %s: %w", table, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, table string, oid int64) error {
	if _, err := p.q().Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE _oid = $1`, table), oid); err != nil {
		return fmt.Errorf("postgres: delete from %s: %w", table, err)
	}
	return nil
}

func (p *Postgres) DeleteWhere(ctx context.Context, table, column, value string) error {
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, column)
	if _, err := p.q().Exec(ctx, stmt, value); err != nil {
		return fmt.Errorf("postgres: delete from %s where %s: %w", table, column, err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, table string, oid int64) (Row, bool, error) {
	rows, err := p.q().Query(ctx, fmt.Sprintf(`SELECT * FROM %s WHERE _oid = $1`, table), oid)
	if err != nil {
		return nil, false, fmt.Errorf("postgres: get from %s: %w", table, err)
	}
	defer rows.Close()
	c := &pgCursor{rows: rows}
	if !c.Next() {
		return nil, false, c.Err()
	}
	return c.Row(), true, nil
}

func (p *Postgres) Query(ctx context.Context, table, column, value string) (Cursor, error) {
	var rows pgx.Rows
	var err error
	if column == "" {
		rows, err = p.q().Query(ctx, fmt.Sprintf(`SELECT * FROM %s ORDER BY _oid`, table))
	} else {
		rows, err = p.q().Query(ctx, fmt.Sprintf(`SELECT * FROM %s WHERE %s = $1 ORDER BY _oid`, table, column), value)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: query %s: %w", table, err)
	}
	return &pgCursor{rows: rows}, nil
}

func (p *Postgres) FindOid(ctx context.Context, table string, match Row) (int64, bool, error) {
	cols, args := rowColumns(match)
	wheres := make([]string, len(cols))
	var params []any
	for i, c := range cols {
		if args[i] == nil {
			wheres[i] = fmt.Sprintf("%s IS NULL", c)
			continue
		}
		params = append(params, args[i])
		wheres[i] = fmt.Sprintf("%s = $%d", c, len(params))
	}
	stmt := fmt.Sprintf(`SELECT _oid FROM %s WHERE %s LIMIT 1`, table, strings.Join(wheres, " AND "))
	var oid int64
	err := p.q().QueryRow(ctx, stmt, params...).Scan(&oid)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("postgres: find oid in %s: %w", table, err)
	}
	return oid, true, nil
}

func rowColumns(row Row) (cols []string, args []any) {
	for c, v := range row {
		cols = append(cols, c)
		if v == nil {
			args = append(args, nil)
		} else {
			args = append(args, *v)
		}
	}
	return cols, args
}

type pgCursor struct {
	rows   pgx.Rows
	fields []string
	row    Row
}

func (c *pgCursor) Next() bool {
	if !c.rows.Next() {
		return false
	}
	if c.fields == nil {
		for _, fd := range c.rows.FieldDescriptions() {
			c.fields = append(c.fields, string(fd.Name))
		}
	}
	vals, err := c.rows.Values()
	if err != nil {
		c.row = nil
		return false
	}
	row := make(Row, len(c.fields))
	for i, f := range c.fields {
		row[f] = stringify(vals[i])
	}
	c.row = row
	return true
}

func (c *pgCursor) Row() Row { return c.row }

func (c *pgCursor) Err() error {
	return c.rows.Err()
}

func (c *pgCursor) Close() {
	c.rows.Close()
}

func stringify(v any) *string {
	if v == nil {
		return nil
	}
	s := fmt.Sprintf("%v", v)
	return &s
}
