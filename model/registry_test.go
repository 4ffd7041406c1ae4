package model

import "testing"

func TestDomainClassesAreRegistered(t *testing.T) {
	for _, className := range []string{"Event", "Origin", "Pick", "Magnitude", "StationMagnitudeContribution"} {
		if _, ok := New(className); !ok {
			t.Errorf("New(%q) not found, want a registered constructor", className)
		}
	}
}

func TestNewReturnsDistinctZeroValues(t *testing.T) {
	a, ok := New("Event")
	if !ok {
		t.Fatal("New(Event) not found")
	}
	b, ok := New("Event")
	if !ok {
		t.Fatal("New(Event) not found")
	}
	ea, ok := a.(*Event)
	if !ok {
		t.Fatalf("New(Event) returned %T, want *Event", a)
	}
	eb := b.(*Event)
	ea.Type = strPtrT("tectonic")
	if eb.Type != nil {
		t.Fatal("constructors returned aliased Event values")
	}
}

func TestNewUnknownClass(t *testing.T) {
	if _, ok := New("NoSuchClass"); ok {
		t.Fatal("New(NoSuchClass) ok = true, want false")
	}
}

func strPtrT(s string) *string { return &s }
