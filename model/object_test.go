package model

import (
	"runtime"
	"testing"
	"time"
)

func TestAsPublicObjectRecoversEmbeddedBase(t *testing.T) {
	e := NewEvent("smi:test/event/1")
	po, ok := AsPublicObject(e)
	if !ok {
		t.Fatal("AsPublicObject(Event) ok = false, want true")
	}
	if po.PublicID() != "smi:test/event/1" {
		t.Errorf("PublicID() = %q, want smi:test/event/1", po.PublicID())
	}
}

func TestAsObjectRecoversBaseFromPublicObject(t *testing.T) {
	o := NewOrigin("smi:test/origin/1", nil)
	base, ok := AsObject(o)
	if !ok {
		t.Fatal("AsObject(Origin) ok = false, want true")
	}
	ts := time.Now()
	base.SetLastModifiedInArchive(ts)
	got, ok := o.LastModifiedInArchive()
	if !ok || !got.Equal(ts) {
		t.Errorf("LastModifiedInArchive() = %v, %v, want %v, true", got, ok, ts)
	}
}

func TestAsObjectRejectsUnrelatedType(t *testing.T) {
	if _, ok := AsObject(42); ok {
		t.Fatal("AsObject(int) ok = true, want false")
	}
}

func TestParentLink(t *testing.T) {
	event := NewEvent("smi:test/event/2")
	origin := NewOrigin("smi:test/origin/2", event)
	if origin.Parent() != &event.PublicObject {
		t.Error("Origin.Parent() did not return the Event it was constructed with")
	}
}

func TestDestroyObserverFiresOnCollection(t *testing.T) {
	done := make(chan *Object, 1)
	RegisterObserver(func(o *Object) {
		select {
		case done <- o:
		default:
		}
	})

	func() {
		p := NewPick("smi:test/pick/gc", nil)
		_ = p
	}()

	runtime.GC()
	runtime.GC()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Skip("finalizer did not run within the deadline; GC timing is not guaranteed")
	}
}
