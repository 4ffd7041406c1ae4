package model

import "testing"

func TestAttributeMapPreservesInsertionOrder(t *testing.T) {
	m := NewAttributeMap()
	m.SetString("latitude", "37.7")
	m.SetNull("depth")
	m.SetString("longitude", "-122.4")

	want := []string{"latitude", "depth", "longitude"}
	got := m.Columns()
	if len(got) != len(want) {
		t.Fatalf("Columns() = %v, want %v", got, want)
	}
	for i, col := range want {
		if got[i] != col {
			t.Errorf("Columns()[%d] = %q, want %q", i, got[i], col)
		}
	}
}

func TestAttributeMapOverwriteKeepsPosition(t *testing.T) {
	m := NewAttributeMap()
	m.SetString("a", "1")
	m.SetString("b", "2")
	m.SetString("a", "3")

	if got := m.Columns(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Columns() = %v, want [a b]", got)
	}
	val, ok := m.Get("a")
	if !ok || val == nil || *val != "3" {
		t.Fatalf("Get(a) = %v, %v, want 3, true", val, ok)
	}
}

func TestAttributeMapNullRoundTrip(t *testing.T) {
	m := NewAttributeMap()
	m.SetNull("depth")

	val, ok := m.Get("depth")
	if !ok {
		t.Fatal("Get(depth) ok = false, want true")
	}
	if val != nil {
		t.Fatalf("Get(depth) = %v, want nil", *val)
	}
}

func TestAttributeMapValuesMatchColumnOrder(t *testing.T) {
	m := NewAttributeMap()
	m.SetString("x", "1")
	m.SetNull("y")
	m.SetString("z", "3")

	cols := m.Columns()
	vals := m.Values()
	if len(cols) != len(vals) {
		t.Fatalf("len(Columns())=%d != len(Values())=%d", len(cols), len(vals))
	}
	if vals[1] != nil {
		t.Fatalf("Values()[1] = %v, want nil", *vals[1])
	}
}
