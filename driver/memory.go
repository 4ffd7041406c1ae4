package driver

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process DbDriver backed by plain maps. It exists because
// the archive package's tests run without a live Postgres instance; it
// implements the same oid-assignment and ordered-query semantics Postgres
// provides, just without SQL underneath. BeginCount/CommitCount/
// RollbackCount let tests assert on the batching behavior a real Postgres
// transaction would otherwise make opaque.
type Memory struct {
	mu      sync.Mutex
	tables  map[string]map[int64]Row
	nextOid map[string]int64

	BeginCount    int
	CommitCount   int
	RollbackCount int
}

// NewMemory returns an empty Memory driver, ready to use without Connect.
func NewMemory() *Memory {
	return &Memory{
		tables:  make(map[string]map[int64]Row),
		nextOid: make(map[string]int64),
	}
}

func (m *Memory) Connect(ctx context.Context) error { return nil }
func (m *Memory) Disconnect()                       {}

// Begin, Commit and Rollback have no transactional semantics of their own
// here — Memory's writes are never rolled back — but they count calls so a
// bulk writer's batching behavior can be asserted the same way a real
// driver's transaction boundaries would be.
func (m *Memory) Begin(ctx context.Context) error {
	m.mu.Lock()
	m.BeginCount++
	m.mu.Unlock()
	return nil
}

func (m *Memory) Commit(ctx context.Context) error {
	m.mu.Lock()
	m.CommitCount++
	m.mu.Unlock()
	return nil
}

func (m *Memory) Rollback(ctx context.Context) error {
	m.mu.Lock()
	m.RollbackCount++
	m.mu.Unlock()
	return nil
}

func (m *Memory) EscapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// RawExec is a no-op: Memory has no fixed schema, so schema DDL has
// nothing to act on.
func (m *Memory) RawExec(ctx context.Context, sql string) error {
	return nil
}

// rawSelectPattern recognizes exactly the shape queryObject's single-row
// select needs to exercise against Memory: SELECT * FROM <table> WHERE
// <column> = '<value>'. It is not a SQL parser — Memory has no query
// planner — it just lets tests drive Archive.QueryObject without a live
// Postgres instance. Anything else is rejected with an error.
var rawSelectPattern = regexp.MustCompile(`(?i)^\s*SELECT\s+\*\s+FROM\s+(\w+)\s+WHERE\s+(\w+)\s*=\s*'([^']*)'\s*$`)

// RawQuery supports the narrow "SELECT * FROM t WHERE col = 'val'" shape
// queryObject issues; every other read the archive needs goes through the
// structured Query/Get/FindOid methods instead.
func (m *Memory) RawQuery(ctx context.Context, sql string) (Cursor, error) {
	match := rawSelectPattern.FindStringSubmatch(sql)
	if match == nil {
		return nil, fmt.Errorf("memory: RawQuery only supports \"SELECT * FROM t WHERE col = 'val'\", got %q", sql)
	}
	return m.Query(ctx, match[1], match[2], match[3])
}

func (m *Memory) Insert(ctx context.Context, table string, row Row) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tables[table] == nil {
		m.tables[table] = make(map[int64]Row)
	}
	m.nextOid[table]++
	oid := m.nextOid[table]
	m.tables[table][oid] = cloneRow(row)
	return oid, nil
}

func (m *Memory) Update(ctx context.Context, table string, oid int64, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tables[table] == nil || m.tables[table][oid] == nil {
		return fmt.Errorf("memory: update %s: no row with oid %d", table, oid)
	}
	m.tables[table][oid] = cloneRow(row)
	return nil
}

func (m *Memory) Delete(ctx context.Context, table string, oid int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables[table], oid)
	return nil
}

func (m *Memory) DeleteWhere(ctx context.Context, table, column, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for oid, row := range m.tables[table] {
		if v := row[column]; v != nil && *v == value {
			delete(m.tables[table], oid)
		}
	}
	return nil
}

func (m *Memory) Get(ctx context.Context, table string, oid int64) (Row, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.tables[table][oid]
	if !ok {
		return nil, false, nil
	}
	out := cloneRow(row)
	out["_oid"] = strPtr(fmt.Sprintf("%d", oid))
	return out, true, nil
}

func (m *Memory) Query(ctx context.Context, table, column, value string) (Cursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var oids []int64
	for oid, row := range m.tables[table] {
		if column == "" {
			oids = append(oids, oid)
			continue
		}
		if v := row[column]; v != nil && *v == value {
			oids = append(oids, oid)
		}
	}
	sort.Slice(oids, func(i, j int) bool { return oids[i] < oids[j] })

	rows := make([]Row, len(oids))
	for i, oid := range oids {
		out := cloneRow(m.tables[table][oid])
		out["_oid"] = strPtr(fmt.Sprintf("%d", oid))
		rows[i] = out
	}
	return &sliceCursor{rows: rows}, nil
}

func (m *Memory) FindOid(ctx context.Context, table string, match Row) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var oids []int64
	for oid := range m.tables[table] {
		oids = append(oids, oid)
	}
	sort.Slice(oids, func(i, j int) bool { return oids[i] < oids[j] })

	for _, oid := range oids {
		row := m.tables[table][oid]
		if rowMatches(row, match) {
			return oid, true, nil
		}
	}
	return 0, false, nil
}

func rowMatches(row, match Row) bool {
	for col, want := range match {
		got := row[col]
		switch {
		case want == nil && got == nil:
			continue
		case want == nil || got == nil:
			return false
		case *want != *got:
			return false
		}
	}
	return true
}

func cloneRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		if v == nil {
			out[k] = nil
			continue
		}
		out[k] = strPtr(*v)
	}
	return out
}

func strPtr(s string) *string { return &s }

type sliceCursor struct {
	rows []Row
	pos  int
}

func (c *sliceCursor) Next() bool {
	if c.pos >= len(c.rows) {
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Row() Row {
	if c.pos == 0 || c.pos > len(c.rows) {
		return nil
	}
	return c.rows[c.pos-1]
}

func (c *sliceCursor) Err() error { return nil }
func (c *sliceCursor) Close()     {}
