// Package archive is the persistence core: it walks an in-memory
// model.Node tree and a driver.DbDriver cursor to turn seismological
// domain objects into database rows and back, the same job the source's
// DatabaseArchive/DatabaseObjectWriter/DatabaseIterator trio did around a
// single textual SQL interface.
package archive

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/quakecore/seisarchive/driver"
	"github.com/quakecore/seisarchive/model"
)

const publicObjectsTable = "_public_objects"

// Archive owns a database connection and the identity cache that lets
// Update/Remove find a previously-written object's row without a publicID
// round trip.
type Archive struct {
	driver    driver.DbDriver
	cache     *IdentityCache
	supported SchemaVersion

	mu     sync.Mutex
	closed bool
}

// Open connects d and verifies its schema version is no newer than
// supported. The returned Archive is ready for Write/Update/Remove/GetObject
// calls; callers must Close it when done.
func Open(ctx context.Context, d driver.DbDriver, supported SchemaVersion) (*Archive, error) {
	if err := d.Connect(ctx); err != nil {
		return nil, fmt.Errorf("archive: open: %w", err)
	}
	a := &Archive{driver: d, cache: NewIdentityCache(), supported: supported}
	if err := a.checkSchemaVersion(ctx); err != nil {
		d.Disconnect()
		return nil, err
	}
	return a, nil
}

// Close releases the underlying connection and invalidates every iterator
// still live against this archive: their next Next call observes isClosed
// and returns false, matching the source's closing-mid-iteration contract.
func (a *Archive) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.driver.Disconnect()
}

func (a *Archive) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// CacheSize reports the number of objects the identity cache currently
// tracks, mirroring the source's DatabaseArchive::getCacheSize.
func (a *Archive) CacheSize() int {
	return a.cache.Size()
}

func tableName(className string) string {
	return strings.ToLower(className)
}

// Write inserts root and every descendant in root's tree, top-down, so a
// child row's "_parent_oid" always references an already-inserted parent.
func (a *Archive) Write(ctx context.Context, root *model.Node) error {
	var walkErr error
	model.Walk(root, model.VisitorFunc(func(n *model.Node) bool {
		if walkErr != nil {
			return false
		}
		if err := a.insertNode(ctx, n); err != nil {
			walkErr = err
			return false
		}
		return true
	}))
	return walkErr
}

// errDuplicatePublicID is returned by insertNode when a PublicObject's
// publicID is already present in the index, satisfying the source's
// "duplicate publicID on write" error kind without touching the database.
type errDuplicatePublicID struct {
	publicID string
}

func (e *errDuplicatePublicID) Error() string {
	return fmt.Sprintf("archive: publicID %q already exists", e.publicID)
}

func (a *Archive) insertNode(ctx context.Context, n *model.Node) error {
	obj, ok := model.AsObject(n.Item)
	if !ok {
		return fmt.Errorf("archive: %T does not embed model.Object", n.Item)
	}

	if pub, ok := model.AsPublicObject(n.Item); ok {
		_, found, err := a.driver.FindOid(ctx, publicObjectsTable, driver.Row{"publicid": itoaStr(pub.PublicID())})
		if err != nil {
			return fmt.Errorf("archive: checking publicID %s: %w", pub.PublicID(), err)
		}
		if found {
			return &errDuplicatePublicID{publicID: pub.PublicID()}
		}
	}
	w := newWriter(obj.Parent())
	n.Item.Serialize(w)

	row := rowFromAttributeMap(w.attrs)
	if parent := obj.Parent(); parent != nil {
		if parentOid, ok := a.cache.Lookup(&parent.Object); ok {
			row["_parent_oid"] = itoaPtr(parentOid)
		}
	}

	table := tableName(n.Item.ClassName())
	oid, err := a.driver.Insert(ctx, table, row)
	if err != nil {
		return fmt.Errorf("archive: insert %s: %w", table, err)
	}
	a.cache.Store(obj, oid)

	for _, pc := range w.pending {
		if err := a.insertChildren(ctx, table, oid, pc); err != nil {
			return err
		}
	}

	if pub, ok := model.AsPublicObject(n.Item); ok {
		if err := a.indexPublicObject(ctx, pub.PublicID(), n.Item.ClassName(), oid); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archive) insertChildren(ctx context.Context, parentTable string, parentOid int64, pc pendingChildren) error {
	linkCol := parentTable + "_oid"
	for _, elem := range pc.elems {
		cw := newWriter(nil)
		elem.Serialize(cw)
		row := rowFromAttributeMap(cw.attrs)
		row[linkCol] = itoaPtr(parentOid)

		childTable := tableName(elem.ClassName())
		if _, err := a.driver.Insert(ctx, childTable, row); err != nil {
			return fmt.Errorf("archive: insert %s child %s: %w", parentTable, childTable, err)
		}
	}
	return nil
}

func (a *Archive) indexPublicObject(ctx context.Context, publicID, className string, oid int64) error {
	row := driver.Row{
		"publicid": itoaStr(publicID),
		"class":    itoaStr(className),
		"oid":      itoaPtr(oid),
	}
	_, err := a.driver.Insert(ctx, publicObjectsTable, row)
	if err != nil {
		return fmt.Errorf("archive: index insert for %s: %w", publicID, err)
	}
	return nil
}

// Update overwrites root and every descendant already known to the identity
// cache (i.e. previously returned by Write or GetObject/GetObjects). On a
// cache miss a non-public object is first located by content (see
// resolveCacheMiss); an object still without an oid is inserted instead,
// matching the source's updateObject falling back to insertObject for
// unseen children.
func (a *Archive) Update(ctx context.Context, root *model.Node) error {
	var walkErr error
	model.Walk(root, model.VisitorFunc(func(n *model.Node) bool {
		if walkErr != nil {
			return false
		}
		obj, ok := model.AsObject(n.Item)
		if !ok {
			walkErr = fmt.Errorf("archive: %T does not embed model.Object", n.Item)
			return false
		}

		table := tableName(n.Item.ClassName())
		oid, known := a.cache.Lookup(obj)
		if !known {
			if foundOid, found := a.resolveCacheMiss(ctx, table, n.Item, obj); found {
				oid, known = foundOid, true
				a.cache.Store(obj, oid)
			}
		}
		if !known {
			walkErr = a.insertNode(ctx, n)
			return walkErr == nil
		}

		w := newWriter(obj.Parent())
		n.Item.Serialize(w)
		row := rowFromAttributeMap(w.attrs)
		if parent := obj.Parent(); parent != nil {
			if parentOid, ok := a.cache.Lookup(&parent.Object); ok {
				row["_parent_oid"] = itoaPtr(parentOid)
			}
		}

		if err := a.driver.Update(ctx, table, oid, row); err != nil {
			walkErr = fmt.Errorf("archive: update %s: %w", table, err)
			return false
		}
		for _, pc := range w.pending {
			if err := a.reconcileChildren(ctx, table, oid, pc); err != nil {
				walkErr = err
				return false
			}
		}
		return true
	}))
	return walkErr
}

// resolveCacheMiss implements spec.md's content-based objectId resolution,
// tried for a non-public object the identity cache has no entry for before
// Update falls back to inserting it as new. Public objects are always
// resolved by publicID (via GetObject), not by content, so this only
// applies to the non-public case.
func (a *Archive) resolveCacheMiss(ctx context.Context, table string, item model.Persistable, obj *model.Object) (int64, bool) {
	if _, isPublic := model.AsPublicObject(item); isPublic {
		return 0, false
	}
	extra := driver.Row{}
	if parent := obj.Parent(); parent != nil {
		if parentOid, ok := a.cache.Lookup(&parent.Object); ok {
			extra["_parent_oid"] = itoaPtr(parentOid)
		}
	}
	oid, found, err := a.resolveNonPublicOid(ctx, table, item, extra)
	if err != nil || !found {
		return 0, false
	}
	return oid, true
}

// resolveNonPublicOid is spec.md's "objectId resolution for non-public
// objects": run an index-discriminating pass over item (only its
// INDEX_ATTRIBUTE-tagged columns), add extra match columns (typically a
// parent link), and locate a row by that content instead of by a cached
// oid. If item tagged no column as an index attribute, the full attribute
// set is used instead, logged since that's a broader (and slower) match
// than the class author likely intended.
func (a *Archive) resolveNonPublicOid(ctx context.Context, table string, item model.Persistable, extra driver.Row) (int64, bool, error) {
	iw := newIndexWriter()
	item.Serialize(iw)
	match := rowFromAttributeMap(iw.attrs)
	if len(match) == 0 {
		log.Printf("archive: %s has no INDEX_ATTRIBUTE-tagged columns, falling back to its full attribute set for objectId resolution", table)
		w := newWriter(nil)
		item.Serialize(w)
		match = rowFromAttributeMap(w.attrs)
	}
	for col, val := range extra {
		match[col] = val
	}
	return a.driver.FindOid(ctx, table, match)
}

// reconcileChildren replaces a DBTable attribute's prior "delete every
// child, reinsert every child" update strategy with spec.md's content-based
// objectId resolution: an incoming element matching an existing row (by its
// INDEX_ATTRIBUTE columns plus the parent link) is updated in place, a new
// one is inserted, and any previously-existing row with no matching
// incoming element is removed.
func (a *Archive) reconcileChildren(ctx context.Context, parentTable string, parentOid int64, pc pendingChildren) error {
	linkCol := parentTable + "_oid"
	childTable := tableName(pc.className)
	if len(pc.elems) == 0 {
		return a.driver.DeleteWhere(ctx, childTable, linkCol, strconv.FormatInt(parentOid, 10))
	}
	oidStr := strconv.FormatInt(parentOid, 10)

	cur, err := a.driver.Query(ctx, childTable, linkCol, oidStr)
	if err != nil {
		return fmt.Errorf("archive: listing existing %s children: %w", childTable, err)
	}
	kept := make(map[int64]bool)
	for cur.Next() {
		if v := cur.Row()["_oid"]; v != nil {
			if oid, err := strconv.ParseInt(*v, 10, 64); err == nil {
				kept[oid] = false
			}
		}
	}
	cerr := cur.Err()
	cur.Close()
	if cerr != nil {
		return fmt.Errorf("archive: listing existing %s children: %w", childTable, cerr)
	}

	for _, elem := range pc.elems {
		cw := newWriter(nil)
		elem.Serialize(cw)
		row := rowFromAttributeMap(cw.attrs)
		row[linkCol] = itoaPtr(parentOid)

		matchOid, found, err := a.resolveNonPublicOid(ctx, childTable, elem, driver.Row{linkCol: itoaPtr(parentOid)})
		if err != nil {
			return fmt.Errorf("archive: locating %s child: %w", childTable, err)
		}
		if found {
			if err := a.driver.Update(ctx, childTable, matchOid, row); err != nil {
				return fmt.Errorf("archive: update %s child: %w", childTable, err)
			}
			kept[matchOid] = true
			continue
		}
		if _, err := a.driver.Insert(ctx, childTable, row); err != nil {
			return fmt.Errorf("archive: insert %s child: %w", childTable, err)
		}
	}

	for oid, matched := range kept {
		if matched {
			continue
		}
		if err := a.driver.Delete(ctx, childTable, oid); err != nil {
			return fmt.Errorf("archive: delete stale %s child: %w", childTable, err)
		}
	}
	return nil
}

// Remove deletes root and every descendant, bottom-up, so a child row is
// always gone before the parent row it references.
func (a *Archive) Remove(ctx context.Context, root *model.Node) error {
	var walkErr error
	model.WalkPostOrder(root, model.VisitorFunc(func(n *model.Node) bool {
		if walkErr != nil {
			return false
		}
		if err := a.removeNode(ctx, n); err != nil {
			walkErr = err
			return false
		}
		return true
	}))
	return walkErr
}

func (a *Archive) removeNode(ctx context.Context, n *model.Node) error {
	obj, ok := model.AsObject(n.Item)
	if !ok {
		return fmt.Errorf("archive: %T does not embed model.Object", n.Item)
	}
	table := tableName(n.Item.ClassName())
	oid, known := a.cache.Lookup(obj)
	if !known {
		if foundOid, found := a.resolveCacheMiss(ctx, table, n.Item, obj); found {
			oid, known = foundOid, true
		}
	}
	if !known {
		return nil
	}
	if err := a.driver.Delete(ctx, table, oid); err != nil {
		return fmt.Errorf("archive: delete %s: %w", table, err)
	}
	if pub, ok := model.AsPublicObject(n.Item); ok {
		if existingOid, found, _ := a.driver.FindOid(ctx, publicObjectsTable, driver.Row{"publicid": itoaStr(pub.PublicID())}); found {
			_ = a.driver.Delete(ctx, publicObjectsTable, existingOid)
		}
	}
	a.cache.Evict(obj)
	return nil
}

// GetObject hydrates the PublicObject with the given publicID, or
// (nil, false) if no such object has been written.
func (a *Archive) GetObject(ctx context.Context, publicID string) (model.Persistable, bool, error) {
	oid, found, err := a.driver.FindOid(ctx, publicObjectsTable, driver.Row{"publicid": itoaStr(publicID)})
	if err != nil {
		return nil, false, fmt.Errorf("archive: locate %s: %w", publicID, err)
	}
	if !found {
		return nil, false, nil
	}
	idxRow, ok, err := a.driver.Get(ctx, publicObjectsTable, oid)
	if err != nil || !ok {
		return nil, false, err
	}
	className := ""
	if v := idxRow["class"]; v != nil {
		className = *v
	}
	rowOid, _ := strconv.ParseInt(*idxRow["oid"], 10, 64)

	obj, err := a.hydrate(ctx, className, rowOid)
	if err != nil {
		return nil, false, err
	}
	return obj, true, nil
}

// QueryObject runs an arbitrary single-row select against className's table
// and hydrates the first row it returns, the structured-driver equivalent
// of the source's queryObject(classType, sql). sql must be a statement the
// underlying driver's RawQuery accepts; driver.Memory only understands the
// narrow "SELECT * FROM t WHERE col = 'val'" shape, enough to exercise this
// path without a live database.
func (a *Archive) QueryObject(ctx context.Context, className, sql string) (model.Persistable, bool, error) {
	cur, err := a.driver.RawQuery(ctx, sql)
	if err != nil {
		return nil, false, fmt.Errorf("archive: queryObject %s: %w", className, err)
	}
	defer cur.Close()

	if !cur.Next() {
		return nil, false, cur.Err()
	}
	row := cur.Row()

	inst, ok := model.New(className)
	if !ok {
		return nil, false, fmt.Errorf("archive: no registered class %q", className)
	}
	var oid int64
	if v := row["_oid"]; v != nil {
		oid, _ = strconv.ParseInt(*v, 10, 64)
	}
	r := newReader(ctx, a, tableName(className), oid, row)
	inst.Serialize(r)

	if obj, ok := model.AsObject(inst); ok {
		a.cache.Store(obj, oid)
	}
	return inst, true, nil
}

func (a *Archive) hydrate(ctx context.Context, className string, oid int64) (model.Persistable, error) {
	inst, ok := model.New(className)
	if !ok {
		return nil, fmt.Errorf("archive: no registered class %q", className)
	}
	table := tableName(className)
	row, ok, err := a.driver.Get(ctx, table, oid)
	if err != nil {
		return nil, fmt.Errorf("archive: get %s: %w", table, err)
	}
	if !ok {
		return nil, fmt.Errorf("archive: row %d missing from %s", oid, table)
	}
	r := newReader(ctx, a, table, oid, row)
	inst.Serialize(r)

	if obj, ok := model.AsObject(inst); ok {
		a.cache.Store(obj, oid)
	}
	return inst, nil
}

// ParentKey selects which rows GetObjects/GetObjectCount return: every row
// owned by an already-cached in-memory object (ByParent), every row owned
// by the row a publicID resolves to (ByParentID), or every row in the
// table when parent is nil, mirroring the source's three-way
// parentKey/classType/ignorePublicObject contract without needing a
// dynamically-typed argument.
type ParentKey interface {
	resolveParentOid(ctx context.Context, a *Archive) (oid int64, all bool, err error)
}

type objectParentKey struct{ obj model.Persistable }

func (k objectParentKey) resolveParentOid(ctx context.Context, a *Archive) (int64, bool, error) {
	obj, ok := model.AsObject(k.obj)
	if !ok {
		return 0, false, fmt.Errorf("archive: %T does not embed model.Object", k.obj)
	}
	oid, ok := a.cache.Lookup(obj)
	if !ok {
		return 0, false, fmt.Errorf("archive: parent object has no known row oid")
	}
	return oid, false, nil
}

type publicIDParentKey struct{ publicID string }

func (k publicIDParentKey) resolveParentOid(ctx context.Context, a *Archive) (int64, bool, error) {
	idxOid, found, err := a.driver.FindOid(ctx, publicObjectsTable, driver.Row{"publicid": itoaStr(k.publicID)})
	if err != nil {
		return 0, false, fmt.Errorf("archive: locate parent %s: %w", k.publicID, err)
	}
	if !found {
		return 0, false, fmt.Errorf("archive: no object with publicID %q", k.publicID)
	}
	idxRow, ok, err := a.driver.Get(ctx, publicObjectsTable, idxOid)
	if err != nil || !ok {
		return 0, false, fmt.Errorf("archive: locate parent %s: %w", k.publicID, err)
	}
	oid, _ := strconv.ParseInt(*idxRow["oid"], 10, 64)
	return oid, false, nil
}

// ByParent selects the children of an already-cached in-memory object (one
// previously returned by Write, GetObject, or a GetObjects iterator).
func ByParent(obj model.Persistable) ParentKey { return objectParentKey{obj: obj} }

// ByParentID selects the children of the object with the given publicID,
// without requiring it to already be cached in memory.
func ByParentID(publicID string) ParentKey { return publicIDParentKey{publicID: publicID} }

// GetObjects returns an iterator over every instance of className owned by
// parent. A nil parent selects every row in className's table, the
// structured-driver equivalent of the source's getObjects(nil, classType).
func (a *Archive) GetObjects(ctx context.Context, parent ParentKey, className string) (*DatabaseIterator, error) {
	table := tableName(className)
	if parent == nil {
		cur, err := a.driver.Query(ctx, table, "", "")
		if err != nil {
			return nil, fmt.Errorf("archive: query all %s: %w", className, err)
		}
		return newDatabaseIterator(ctx, a, className, cur), nil
	}

	parentOid, _, err := parent.resolveParentOid(ctx, a)
	if err != nil {
		return nil, err
	}
	cur, err := a.driver.Query(ctx, table, "_parent_oid", strconv.FormatInt(parentOid, 10))
	if err != nil {
		return nil, fmt.Errorf("archive: query %s children: %w", className, err)
	}
	return newDatabaseIterator(ctx, a, className, cur), nil
}

// GetObjectCount returns the number of rows GetObjects would iterate over,
// without hydrating them.
func (a *Archive) GetObjectCount(ctx context.Context, parent ParentKey, className string) (int, error) {
	it, err := a.GetObjects(ctx, parent, className)
	if err != nil {
		return 0, err
	}
	defer it.Close()
	count := 0
	for it.cur.Next() {
		count++
	}
	return count, it.cur.Err()
}

// ParentPublicID returns the publicID of obj's in-memory parent, if any was
// attached with model.Object.SetParent. Objects read back via GetObject
// that were not re-linked in memory report ok=false; resolving a parent
// purely from its oid is not supported, since the public object index does
// not record the reverse per-table parent oid.
func (a *Archive) ParentPublicID(obj model.Persistable) (string, bool) {
	base, ok := model.AsObject(obj)
	if !ok {
		return "", false
	}
	parent := base.Parent()
	if parent == nil {
		return "", false
	}
	return parent.PublicID(), true
}

func rowFromAttributeMap(m *model.AttributeMap) driver.Row {
	row := make(driver.Row, m.Len())
	for _, col := range m.Columns() {
		val, _ := m.Get(col)
		row[col] = val
	}
	return row
}

func itoaPtr(n int64) *string {
	s := strconv.FormatInt(n, 10)
	return &s
}

func itoaStr(s string) *string {
	return &s
}
