package model

import (
	"fmt"
	"sync"
)

// Persistable is implemented by every domain class the archive knows how to
// read and write. ClassName is the string stored in the registry and, for a
// PublicObject, in the "class" column of the archive's public-object index;
// Serialize drives the symmetric read/write walk described by Archiver.
type Persistable interface {
	ClassName() string
	Serialize(a Archiver)
}

// classFactory mirrors the source's Core::ClassFactory: a string class name
// maps to a zero-value constructor, so the archive can instantiate the right
// concrete type from a class name (such as the one recorded in its
// public-object index) without a compiled-in switch statement at every call
// site.
type classFactory func() Persistable

var (
	registryMu sync.RWMutex
	registry   = make(map[string]classFactory)
)

// Register installs the constructor for className. Domain packages call
// this from an init() func, one per concrete type.
func Register(className string, ctor classFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[className]; exists {
		panic(fmt.Sprintf("model: class %q already registered", className))
	}
	registry[className] = ctor
}

// New constructs a zero-value instance of className, with the same
// destruction finalizer InitObject/InitPublicObject install, or (nil, false)
// if no constructor was registered for it.
func New(className string) (Persistable, bool) {
	registryMu.RLock()
	ctor, ok := registry[className]
	registryMu.RUnlock()
	if !ok {
		return nil, false
	}
	inst := ctor()
	if o, ok := AsObject(inst); ok {
		newObjectFinalizer(o)
	}
	return inst, true
}

// ClassNames returns every registered class name, in no particular order,
// for diagnostics.
func ClassNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
