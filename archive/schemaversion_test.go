package archive

import (
	"context"
	"strings"
	"testing"

	"github.com/quakecore/seisarchive/driver"
)

func TestParseSchemaVersionAcceptsThreeComponents(t *testing.T) {
	v, err := parseSchemaVersion("99.0.0")
	if err != nil {
		t.Fatalf("parseSchemaVersion: %v", err)
	}
	if v.Major != 99 || v.Minor != 0 {
		t.Fatalf("parseSchemaVersion(\"99.0.0\") = %+v, want {99 0}", v)
	}
}

func TestParseSchemaVersionAcceptsTwoComponents(t *testing.T) {
	v, err := parseSchemaVersion("0.12")
	if err != nil {
		t.Fatalf("parseSchemaVersion: %v", err)
	}
	if v.Major != 0 || v.Minor != 12 {
		t.Fatalf("parseSchemaVersion(\"0.12\") = %+v, want {0 12}", v)
	}
}

func TestOpenRejectsNewerSchemaVersion(t *testing.T) {
	ctx := context.Background()
	mem := driver.NewMemory()
	if err := mem.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := mem.Insert(ctx, "Meta", driver.Row{
		"name":  strPtr("Schema-Version"),
		"value": strPtr("99.0.0"),
	}); err != nil {
		t.Fatalf("seed Meta row: %v", err)
	}

	_, err := Open(ctx, mem, SchemaVersion{Major: 0, Minor: 12})
	if err == nil {
		t.Fatal("Open against a newer schema version err = nil, want error")
	}
	if !strings.Contains(err.Error(), "not supported") {
		t.Fatalf("Open error = %q, want it to contain %q", err.Error(), "not supported")
	}
}
