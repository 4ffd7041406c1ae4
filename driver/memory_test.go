package driver

import (
	"context"
	"testing"
)

func strp(s string) *string { return &s }

func TestMemoryInsertAssignsSequentialOids(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	oid1, err := m.Insert(ctx, "origin", Row{"latitude": strp("1.0")})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	oid2, err := m.Insert(ctx, "origin", Row{"latitude": strp("2.0")})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if oid2 <= oid1 {
		t.Fatalf("oid2=%d should be greater than oid1=%d", oid2, oid1)
	}
}

func TestMemoryGetReturnsStoredRow(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	oid, _ := m.Insert(ctx, "pick", Row{"phaseHint": strp("P")})
	row, ok, err := m.Get(ctx, "pick", oid)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if row["phaseHint"] == nil || *row["phaseHint"] != "P" {
		t.Errorf("phaseHint = %v, want P", row["phaseHint"])
	}
}

func TestMemoryUpdateOverwritesRow(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	oid, _ := m.Insert(ctx, "origin", Row{"latitude": strp("1.0")})
	if err := m.Update(ctx, "origin", oid, Row{"latitude": strp("2.0")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	row, _, _ := m.Get(ctx, "origin", oid)
	if *row["latitude"] != "2.0" {
		t.Errorf("latitude = %v, want 2.0", *row["latitude"])
	}
}

func TestMemoryDeleteRemovesRow(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	oid, _ := m.Insert(ctx, "origin", Row{})
	if err := m.Delete(ctx, "origin", oid); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "origin", oid); ok {
		t.Error("Get found a deleted row")
	}
}

func TestMemoryQueryFiltersByColumnAndOrdersByOid(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Insert(ctx, "origin", Row{"_parent_oid": strp("1")})
	m.Insert(ctx, "origin", Row{"_parent_oid": strp("2")})
	m.Insert(ctx, "origin", Row{"_parent_oid": strp("1")})

	cur, err := m.Query(ctx, "origin", "_parent_oid", "1")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	defer cur.Close()

	var count int
	for cur.Next() {
		count++
	}
	if count != 2 {
		t.Fatalf("got %d rows, want 2", count)
	}
}

func TestMemoryFindOidMatchesAllColumns(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Insert(ctx, "magnitude_stationmagnitudecontribution", Row{
		"stationMagnitudeID": strp("smi:x"),
		"magnitude_oid":      strp("1"),
	})

	_, found, err := m.FindOid(ctx, "magnitude_stationmagnitudecontribution", Row{
		"stationMagnitudeID": strp("smi:x"),
	})
	if err != nil {
		t.Fatalf("FindOid: %v", err)
	}
	if !found {
		t.Fatal("FindOid found = false, want true")
	}

	if _, found, _ := m.FindOid(ctx, "magnitude_stationmagnitudecontribution", Row{
		"stationMagnitudeID": strp("smi:y"),
	}); found {
		t.Fatal("FindOid found a non-matching row")
	}
}
