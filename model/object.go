// Package model defines the in-memory object graph that the archive
// package serializes to and from a relational database: the abstract
// Object/PublicObject base types, the attribute-hint bitset used while
// walking an object's Serialize method, and the concrete seismological
// domain classes the rest of this module exercises.
package model

import (
	"runtime"
	"sync"
	"time"
)

// Time is re-exported so domain classes and the archive package share one
// timestamp type without importing each other's packages.
type Time = time.Time

// destroyHook is invoked by runtime.SetFinalizer when an Object becomes
// unreachable. It is the idiomatic Go stand-in for the source's global
// destruction-observer list: instead of every Object registering with a
// process-wide observer, each archive-managed Object installs a finalizer
// that evicts its own identity-cache entry.
type destroyHook func(o *Object)

var (
	hookMu sync.Mutex
	hooks  []destroyHook
)

// RegisterObserver installs a hook called whenever any archive-managed
// Object is garbage collected. Archive instances register their identity
// cache's eviction function here; there is normally exactly one archive
// instance per process but registering more is harmless.
func RegisterObserver(hook destroyHook) {
	hookMu.Lock()
	hooks = append(hooks, hook)
	hookMu.Unlock()
}

func fireObservers(o *Object) {
	hookMu.Lock()
	local := append([]destroyHook(nil), hooks...)
	hookMu.Unlock()
	for _, h := range local {
		h(o)
	}
}

// Object is the universal row-bearing base embedded by every persisted
// domain type. It carries an optional last-modified timestamp and a
// non-owning pointer to an in-memory parent, used to resolve _parent_oid
// during write without a round trip when the parent is already loaded. The
// archive package neither stores nor reads a last-modified column; the
// timestamp is whatever SetLastModifiedInArchive last recorded.
type Object struct {
	lastModifiedInArchive *time.Time
	parent                *PublicObject
}

// newObjectFinalizer arranges for fireObservers to run when o is collected.
// Called through InitObject/InitPublicObject by every New* domain-class
// constructor, and by New for registry-built instances.
func newObjectFinalizer(o *Object) {
	runtime.SetFinalizer(o, func(dead *Object) {
		fireObservers(dead)
	})
}

// LastModifiedInArchive reports the timestamp last recorded with
// SetLastModifiedInArchive, or ok=false if none was recorded.
func (o *Object) LastModifiedInArchive() (time.Time, bool) {
	if o.lastModifiedInArchive == nil {
		return time.Time{}, false
	}
	return *o.lastModifiedInArchive, true
}

// SetLastModifiedInArchive records t as the object's last-modified time.
// Nothing in the archive package calls it.
func (o *Object) SetLastModifiedInArchive(t time.Time) {
	o.lastModifiedInArchive = &t
}

// Parent returns the in-memory parent PublicObject, if the object was
// constructed with one (e.g. child.SetParent(event)).
func (o *Object) Parent() *PublicObject {
	return o.parent
}

// SetParent links object to its in-memory parent. It does not touch the
// database; the archive resolves _parent_oid from this link (or from a
// publicID string) at write time.
func (o *Object) SetParent(p *PublicObject) {
	o.parent = p
}

// PublicObject is the subtype carrying a globally unique publicID.
type PublicObject struct {
	Object
	publicID string
}

// InitPublicObject must be called by every concrete PublicObject
// constructor before the object is handed to callers; it sets the
// publicID and installs the destruction-observer finalizer.
func InitPublicObject(po *PublicObject, publicID string) {
	po.publicID = publicID
	newObjectFinalizer(&po.Object)
}

// InitObject must be called by every concrete non-public Object
// constructor before the object is handed to callers.
func InitObject(o *Object) {
	newObjectFinalizer(o)
}

// PublicID returns the object's globally unique identifier.
func (p *PublicObject) PublicID() string {
	return p.publicID
}

// basePtr and publicObjectPtr are promoted through embedding onto every
// concrete domain type, which is what lets AsObject/AsPublicObject recover
// the shared base from an arbitrary Persistable without a type switch over
// every registered class.
func (o *Object) basePtr() *Object              { return o }
func (p *PublicObject) publicObjectPtr() *PublicObject { return p }

type objectHolder interface {
	basePtr() *Object
}

type publicObjectHolder interface {
	publicObjectPtr() *PublicObject
}

// AsObject returns the shared Object base embedded in v.
func AsObject(v any) (*Object, bool) {
	if h, ok := v.(objectHolder); ok {
		return h.basePtr(), true
	}
	return nil, false
}

// AsPublicObject is a convenience type-assertion helper mirroring the
// source's PublicObject::Cast: it returns (obj, true) when the concrete
// value embeds PublicObject.
func AsPublicObject(v any) (*PublicObject, bool) {
	if h, ok := v.(publicObjectHolder); ok {
		return h.publicObjectPtr(), true
	}
	return nil, false
}
