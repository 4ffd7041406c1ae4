package archive

import (
	"sync"
	"unsafe"

	"github.com/quakecore/seisarchive/model"
)

// objHandle is a non-owning snapshot of an Object's address, the same
// pointer-as-identity idea the source used for its C++ pointer-keyed
// cache, taken without holding a reference that would itself keep the
// object alive. Go has no pointer-moving GC today, so the numeric value
// stays valid as a lookup key for as long as the object does; what matters
// is that the map holds a uintptr, not a *model.Object, so the object can
// still become unreachable and fire its finalizer while it's tracked here.
type objHandle uintptr

func handleOf(obj *model.Object) objHandle {
	return objHandle(uintptr(unsafe.Pointer(obj)))
}

// IdentityCache maps an in-memory Object to the oid of the database row it
// was last read from or written to. Keying the map off *model.Object
// directly would make the map itself a strong GC root for every cached
// object, permanently preventing the finalizer-driven eviction this type
// depends on; keying off the numeric address (objHandle) instead lets an
// object become unreachable, and have model.RegisterObserver's callback
// evict its entry, while it's still sitting in the map.
type IdentityCache struct {
	mu    sync.Mutex
	byObj map[objHandle]int64
}

// NewIdentityCache returns an empty cache and wires its eviction hook into
// the model package's finalizer-driven observer list.
func NewIdentityCache() *IdentityCache {
	c := &IdentityCache{byObj: make(map[objHandle]int64)}
	model.RegisterObserver(c.evict)
	return c
}

// Lookup returns the oid previously stored for obj, if any.
func (c *IdentityCache) Lookup(obj *model.Object) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	oid, ok := c.byObj[handleOf(obj)]
	return oid, ok
}

// Store records oid as the database identity of obj, overwriting any
// previous entry.
func (c *IdentityCache) Store(obj *model.Object, oid int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byObj[handleOf(obj)] = oid
}

// Evict removes any cached identity for obj.
func (c *IdentityCache) Evict(obj *model.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byObj, handleOf(obj))
}

func (c *IdentityCache) evict(obj *model.Object) {
	c.Evict(obj)
}

// Size reports the number of live cache entries, exposed for tests and
// diagnostics the way the source exposed DatabaseArchive::getCacheSize.
func (c *IdentityCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byObj)
}
