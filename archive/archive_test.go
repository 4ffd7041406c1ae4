package archive

import (
	"context"
	"fmt"
	"testing"

	"github.com/quakecore/seisarchive/driver"
	"github.com/quakecore/seisarchive/model"
)

func openTestArchive(t *testing.T) (*Archive, context.Context) {
	t.Helper()
	ctx := context.Background()
	a, err := Open(ctx, driver.NewMemory(), SchemaVersion{Major: 0, Minor: 12})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(a.Close)
	return a, ctx
}

func buildDemoTree() (*model.Event, *model.Origin, *model.Magnitude, *model.Pick, *model.Node) {
	event := model.NewEvent("smi:test/event/1")
	event.Type = strPtr("earthquake")
	event.CreationInfo.AgencyID = strPtr("QC")

	origin := model.NewOrigin("smi:test/origin/1", event)
	origin.Latitude = 37.5
	origin.Longitude = -122.1
	origin.Depth = floatPtr(12.5)

	magnitude := model.NewMagnitude("smi:test/magnitude/1", origin)
	magnitude.Value = 4.7
	magnitude.Type = strPtr("Mw")
	magnitude.StationContributions = []*model.StationMagnitudeContribution{
		model.NewStationMagnitudeContribution("smi:test/stationmagnitude/1"),
	}

	pick := model.NewPick("smi:test/pick/1", event)
	pick.WaveformID = model.WaveformStreamID{NetworkCode: "NC", StationCode: "BKS", ChannelCode: "HHZ"}
	pick.PhaseHint = strPtr("P")

	tree := model.NewNode(event,
		model.NewNode(origin, model.NewNode(magnitude)),
		model.NewNode(pick),
	)
	return event, origin, magnitude, pick, tree
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestWriteAndGetObjectRoundTrip(t *testing.T) {
	a, ctx := openTestArchive(t)
	_, _, _, _, tree := buildDemoTree()

	if err := a.Write(ctx, tree); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, found, err := a.GetObject(ctx, "smi:test/event/1")
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if !found {
		t.Fatal("GetObject found = false, want true")
	}
	event, ok := got.(*model.Event)
	if !ok {
		t.Fatalf("GetObject returned %T, want *model.Event", got)
	}
	if event.Type == nil || *event.Type != "earthquake" {
		t.Errorf("Event.Type = %v, want earthquake", event.Type)
	}
}

func TestGetObjectsReturnsChildren(t *testing.T) {
	a, ctx := openTestArchive(t)
	event, _, _, _, tree := buildDemoTree()

	if err := a.Write(ctx, tree); err != nil {
		t.Fatalf("Write: %v", err)
	}

	it, err := a.GetObjects(ctx, ByParent(event), "Origin")
	if err != nil {
		t.Fatalf("GetObjects: %v", err)
	}
	defer it.Close()

	count := 0
	for it.Next() {
		origin, ok := it.Object().(*model.Origin)
		if !ok {
			t.Fatalf("iterator yielded %T, want *model.Origin", it.Object())
		}
		if origin.Latitude != 37.5 {
			t.Errorf("Origin.Latitude = %v, want 37.5", origin.Latitude)
		}
		count++
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterator error: %v", err)
	}
	if count != 1 {
		t.Fatalf("got %d origins, want 1", count)
	}
}

func TestMagnitudeStationContributionsRoundTrip(t *testing.T) {
	a, ctx := openTestArchive(t)
	_, origin, _, _, tree := buildDemoTree()

	if err := a.Write(ctx, tree); err != nil {
		t.Fatalf("Write: %v", err)
	}

	it, err := a.GetObjects(ctx, ByParent(origin), "Magnitude")
	if err != nil {
		t.Fatalf("GetObjects: %v", err)
	}
	defer it.Close()

	if !it.Next() {
		t.Fatal("expected one magnitude")
	}
	mag, ok := it.Object().(*model.Magnitude)
	if !ok {
		t.Fatalf("iterator yielded %T, want *model.Magnitude", it.Object())
	}
	if len(mag.StationContributions) != 1 {
		t.Fatalf("len(StationContributions) = %d, want 1", len(mag.StationContributions))
	}
	if mag.StationContributions[0].StationMagnitudeID != "smi:test/stationmagnitude/1" {
		t.Errorf("StationMagnitudeID = %q, want smi:test/stationmagnitude/1", mag.StationContributions[0].StationMagnitudeID)
	}
}

func TestUpdateOverwritesRow(t *testing.T) {
	a, ctx := openTestArchive(t)
	_, origin, _, _, tree := buildDemoTree()

	if err := a.Write(ctx, tree); err != nil {
		t.Fatalf("Write: %v", err)
	}

	origin.Latitude = 40.0
	if err := a.Update(ctx, model.NewNode(origin)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, found, err := a.GetObject(ctx, "smi:test/origin/1")
	if err != nil || !found {
		t.Fatalf("GetObject: %v, found=%v", err, found)
	}
	if got.(*model.Origin).Latitude != 40.0 {
		t.Errorf("Latitude = %v, want 40.0", got.(*model.Origin).Latitude)
	}
}

func TestRemoveDeletesRow(t *testing.T) {
	a, ctx := openTestArchive(t)
	_, origin, _, _, tree := buildDemoTree()

	if err := a.Write(ctx, tree); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := a.Remove(ctx, model.NewNode(origin)); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	_, found, err := a.GetObject(ctx, "smi:test/origin/1")
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if found {
		t.Fatal("GetObject found = true after Remove, want false")
	}
}

func TestCacheSizeGrowsOnWrite(t *testing.T) {
	a, ctx := openTestArchive(t)
	_, _, _, _, tree := buildDemoTree()

	before := a.CacheSize()
	if err := a.Write(ctx, tree); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if a.CacheSize() <= before {
		t.Errorf("CacheSize() = %d after write, want > %d", a.CacheSize(), before)
	}
}

func TestWriteDuplicatePublicIDFails(t *testing.T) {
	a, ctx := openTestArchive(t)

	first := model.NewEvent("smi:test/event/dup")
	if err := a.Write(ctx, model.NewNode(first)); err != nil {
		t.Fatalf("first Write: %v", err)
	}

	second := model.NewEvent("smi:test/event/dup")
	second.Type = strPtr("explosion")
	if err := a.Write(ctx, model.NewNode(second)); err == nil {
		t.Fatal("second Write with duplicate publicID err = nil, want error")
	}

	count, err := a.GetObjectCount(ctx, nil, "Event")
	if err != nil {
		t.Fatalf("GetObjectCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("Event row count = %d, want 1", count)
	}

	got, found, err := a.GetObject(ctx, "smi:test/event/dup")
	if err != nil || !found {
		t.Fatalf("GetObject: %v, found=%v", err, found)
	}
	if got.(*model.Event).Type != nil {
		t.Errorf("stored Event.Type = %v, want the first write's nil, not the rejected second write's value", got.(*model.Event).Type)
	}
}

func TestGetObjectsWithNilParentReturnsEveryRow(t *testing.T) {
	a, ctx := openTestArchive(t)

	for _, id := range []string{"smi:test/event/a", "smi:test/event/b", "smi:test/event/c"} {
		if err := a.Write(ctx, model.NewNode(model.NewEvent(id))); err != nil {
			t.Fatalf("Write(%s): %v", id, err)
		}
	}

	it, err := a.GetObjects(ctx, nil, "Event")
	if err != nil {
		t.Fatalf("GetObjects: %v", err)
	}
	defer it.Close()

	count := 0
	for it.Next() {
		count++
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterator error: %v", err)
	}
	if count != 3 {
		t.Fatalf("got %d events, want 3", count)
	}
}

func TestGetObjectsByParentIDResolvesWithoutCachedParent(t *testing.T) {
	a, ctx := openTestArchive(t)
	_, _, _, _, tree := buildDemoTree()
	if err := a.Write(ctx, tree); err != nil {
		t.Fatalf("Write: %v", err)
	}

	it, err := a.GetObjects(ctx, ByParentID("smi:test/event/1"), "Origin")
	if err != nil {
		t.Fatalf("GetObjects: %v", err)
	}
	defer it.Close()

	if !it.Next() {
		t.Fatal("expected one origin")
	}
	if _, ok := it.Object().(*model.Origin); !ok {
		t.Fatalf("iterator yielded %T, want *model.Origin", it.Object())
	}
}

func TestQueryObjectHydratesMatchingRow(t *testing.T) {
	a, ctx := openTestArchive(t)
	_, _, _, _, tree := buildDemoTree()
	if err := a.Write(ctx, tree); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, found, err := a.QueryObject(ctx, "Origin", `SELECT * FROM origin WHERE latitude = '37.5'`)
	if err != nil {
		t.Fatalf("QueryObject: %v", err)
	}
	if !found {
		t.Fatal("QueryObject found = false, want true")
	}
	origin, ok := got.(*model.Origin)
	if !ok {
		t.Fatalf("QueryObject returned %T, want *model.Origin", got)
	}
	if origin.Longitude != -122.1 {
		t.Errorf("Origin.Longitude = %v, want -122.1", origin.Longitude)
	}
}

func TestCloseInvalidatesLiveIterator(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, driver.NewMemory(), SchemaVersion{Major: 0, Minor: 12})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for i := 0; i < 5; i++ {
		event := model.NewEvent(fmt.Sprintf("smi:test/event/iter%d", i))
		if err := a.Write(ctx, model.NewNode(event)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	it, err := a.GetObjects(ctx, nil, "Event")
	if err != nil {
		t.Fatalf("GetObjects: %v", err)
	}

	seen := 0
	for seen < 2 && it.Next() {
		seen++
	}
	if seen != 2 {
		t.Fatalf("saw %d rows before close, want 2", seen)
	}

	a.Close()

	if it.Next() {
		t.Fatal("Next() after Close() = true, want false")
	}
}

func TestBulkWriterBatchesCommits(t *testing.T) {
	mem := driver.NewMemory()
	a, err := Open(context.Background(), mem, SchemaVersion{Major: 0, Minor: 12})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()
	ctx := context.Background()

	var nodes []*model.Node
	for i := 0; i < 250; i++ {
		nodes = append(nodes, model.NewNode(model.NewEvent(fmt.Sprintf("smi:test/event/bulk%d", i))))
	}
	root := model.NewNode(model.NewEvent("smi:test/event/bulk-root"), nodes...)

	writer := NewBulkWriter(a, 100, true)
	errCount, err := writer.Run(ctx, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if errCount != 0 {
		t.Fatalf("errCount = %d, want 0", errCount)
	}
	if mem.CommitCount != 3 {
		t.Errorf("CommitCount = %d, want 3", mem.CommitCount)
	}
	if mem.BeginCount != 3 {
		t.Errorf("BeginCount = %d, want 3", mem.BeginCount)
	}

	count, err := a.GetObjectCount(ctx, nil, "Event")
	if err != nil {
		t.Fatalf("GetObjectCount: %v", err)
	}
	if count != 251 {
		t.Fatalf("Event row count = %d, want 251", count)
	}
}
